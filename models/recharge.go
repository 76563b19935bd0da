// models/recharge.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recharge statuses
const (
	RechargeStatusPending   = "pending"
	RechargeStatusCompleted = "completed"
	RechargeStatusFailed    = "failed"
)

// RechargeRecord is an append-only ledger entry for a recharge sale.
// Price fields are snapshots of the resolved pricing at submission time.
type RechargeRecord struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	PlanID         primitive.ObjectID `json:"planId" bson:"planId"`
	Carrier        string             `json:"carrier" bson:"carrier"`
	ServiceType    string             `json:"serviceType" bson:"serviceType"`
	PhoneNumber    string             `json:"phoneNumber" bson:"phoneNumber"`
	Country        string             `json:"country,omitempty" bson:"country,omitempty"`
	CustomerEmail  string             `json:"customerEmail,omitempty" bson:"customerEmail,omitempty"`
	OurCost        float64            `json:"ourCost" bson:"ourCost"`
	RetailerPrice  float64            `json:"retailerPrice" bson:"retailerPrice"`
	CustomerPrice  float64            `json:"customerPrice" bson:"customerPrice"`
	RetailerProfit float64            `json:"retailerProfit" bson:"retailerProfit"`
	PriceSource    string             `json:"priceSource" bson:"priceSource"`
	PIN            string             `json:"pin,omitempty" bson:"pin,omitempty"` // delivered PIN for global recharges
	Status         string             `json:"status" bson:"status"`
	ReceiptNumber  string             `json:"receiptNumber" bson:"receiptNumber"`
	FailureReason  string             `json:"failureReason,omitempty" bson:"failureReason,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// RechargeRequest is the request body for submitting a recharge
type RechargeRequest struct {
	PlanID        string `json:"planId" validate:"required"`
	PhoneNumber   string `json:"phoneNumber" validate:"required"`
	Country       string `json:"country,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty" validate:"omitempty,email"`
}

// RechargeReceipt is returned to the retailer after a successful recharge
type RechargeReceipt struct {
	ReceiptNumber string         `json:"receiptNumber"`
	Recharge      RechargeRecord `json:"recharge"`
	NewBalance    float64        `json:"newBalance"`
	PINQRCode     string         `json:"pinQrCode,omitempty"` // base64 PNG data URI
}
