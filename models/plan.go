// models/plan.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service types
const (
	ServiceTypeNexitel         = "nexitel"
	ServiceTypeNexitelRecharge = "nexitel_recharge"
	ServiceTypeATT             = "att"
	ServiceTypeATTRecharge     = "att_recharge"
	ServiceTypeGlobalRecharge  = "global_recharge"
	ServiceTypeVoIP            = "voip"
)

// IsRechargeServiceType reports whether a service type is a recharge
// type. Recharge plans are sold self-service when a retailer has no
// commission group assigned.
func IsRechargeServiceType(serviceType string) bool {
	switch serviceType {
	case ServiceTypeNexitelRecharge, ServiceTypeATTRecharge, ServiceTypeGlobalRecharge:
		return true
	}
	return false
}

// CarrierSegmentForServiceType returns the URL carrier segment a
// service type is served under, or "" for types without one.
func CarrierSegmentForServiceType(serviceType string) string {
	switch serviceType {
	case ServiceTypeNexitel, ServiceTypeNexitelRecharge:
		return "nexitel"
	case ServiceTypeATT, ServiceTypeATTRecharge:
		return "att"
	case ServiceTypeGlobalRecharge:
		return "global"
	}
	return ""
}

// Plan represents a base service plan in the catalog
type Plan struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name               string             `json:"name" bson:"name"`
	Carrier            string             `json:"carrier" bson:"carrier"`
	Country            string             `json:"country,omitempty" bson:"country,omitempty"`
	Denomination       string             `json:"denomination" bson:"denomination"` // customer-facing price, e.g. "$25"
	OurCost            float64            `json:"ourCost" bson:"ourCost"`
	RetailerPrice      float64            `json:"retailerPrice" bson:"retailerPrice"`
	CustomerPrice      *float64           `json:"customerPrice,omitempty" bson:"customerPrice,omitempty"`
	OperatorMargin     float64            `json:"operatorMargin" bson:"operatorMargin"` // retailerPrice - ourCost
	ServiceType        string             `json:"serviceType" bson:"serviceType"`
	DurationMonths     int                `json:"durationMonths" bson:"durationMonths"`
	IsPromotional      bool               `json:"isPromotional" bson:"isPromotional"`
	OriginalPrice      float64            `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	DiscountPercentage float64            `json:"discountPercentage,omitempty" bson:"discountPercentage,omitempty"`
	PromotionalLabel   string             `json:"promotionalLabel,omitempty" bson:"promotionalLabel,omitempty"`
	IsActive           bool               `json:"isActive" bson:"isActive"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// PlanRequest is the request body for creating/updating plans
type PlanRequest struct {
	Name               string   `json:"name" validate:"required"`
	Carrier            string   `json:"carrier" validate:"required"`
	Country            string   `json:"country,omitempty"`
	Denomination       string   `json:"denomination" validate:"required"`
	OurCost            float64  `json:"ourCost" validate:"gte=0"`
	RetailerPrice      float64  `json:"retailerPrice" validate:"gte=0"`
	CustomerPrice      *float64 `json:"customerPrice,omitempty"`
	ServiceType        string   `json:"serviceType" validate:"required,oneof=nexitel nexitel_recharge att att_recharge global_recharge voip"`
	DurationMonths     int      `json:"durationMonths" validate:"gte=1"`
	IsPromotional      bool     `json:"isPromotional"`
	OriginalPrice      float64  `json:"originalPrice,omitempty" validate:"gte=0"`
	DiscountPercentage float64  `json:"discountPercentage,omitempty" validate:"gte=0,lte=100"`
	PromotionalLabel   string   `json:"promotionalLabel,omitempty"`
	IsActive           bool     `json:"isActive"`
}
