// models/activation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activation statuses
const (
	ActivationStatusPending = "pending"
	ActivationStatusActive  = "active"
	ActivationStatusFailed  = "failed"
)

// ActivationRecord is an append-only ledger entry for a completed
// activation submission. Price fields are snapshots of the resolved
// pricing at submission time; only the status transitions afterwards.
type ActivationRecord struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	PlanID         primitive.ObjectID `json:"planId" bson:"planId"`
	Carrier        string             `json:"carrier" bson:"carrier"`
	ServiceType    string             `json:"serviceType" bson:"serviceType"`
	CustomerName   string             `json:"customerName" bson:"customerName"`
	CustomerEmail  string             `json:"customerEmail,omitempty" bson:"customerEmail,omitempty"`
	CustomerPhone  string             `json:"customerPhone,omitempty" bson:"customerPhone,omitempty"`
	SimNumber      string             `json:"simNumber" bson:"simNumber"`
	AreaCode       string             `json:"areaCode,omitempty" bson:"areaCode,omitempty"`
	PortIn         bool               `json:"portIn" bson:"portIn"`
	PortInNumber   string             `json:"portInNumber,omitempty" bson:"portInNumber,omitempty"`
	OurCost        float64            `json:"ourCost" bson:"ourCost"`
	RetailerPrice  float64            `json:"retailerPrice" bson:"retailerPrice"`
	CustomerPrice  float64            `json:"customerPrice" bson:"customerPrice"`
	RetailerProfit float64            `json:"retailerProfit" bson:"retailerProfit"`
	PriceSource    string             `json:"priceSource" bson:"priceSource"`
	Status         string             `json:"status" bson:"status"` // "pending", "active", "failed"
	ReceiptNumber  string             `json:"receiptNumber" bson:"receiptNumber"`
	FailureReason  string             `json:"failureReason,omitempty" bson:"failureReason,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ActivationRequest is the request body for submitting an activation
type ActivationRequest struct {
	PlanID        string `json:"planId" validate:"required"`
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	SimNumber     string `json:"simNumber" validate:"required"`
	AreaCode      string `json:"areaCode,omitempty"`
	PortIn        bool   `json:"portIn"`
	PortInNumber  string `json:"portInNumber,omitempty"`
}

// ActivationStatusRequest updates the status of a pending activation
type ActivationStatusRequest struct {
	Status        string `json:"status" validate:"required,oneof=active failed"`
	FailureReason string `json:"failureReason,omitempty"`
}

// ActivationReceipt is returned to the retailer after a successful submission
type ActivationReceipt struct {
	ReceiptNumber string           `json:"receiptNumber"`
	Activation    ActivationRecord `json:"activation"`
	NewBalance    float64          `json:"newBalance"`
}
