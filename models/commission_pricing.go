// models/commission_pricing.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Price sources for resolved retailer pricing. Resolution tries the
// sources in order: commission override, base plan pricing, and
// uncommissioned self-service for recharge plans.
const (
	PriceSourceCommission  = "commission"
	PriceSourceBase        = "base"
	PriceSourceSelfService = "self_service"
)

// CommissionPricing is a per-group price override for a single plan.
// One row per (commissionGroupId, planId) pair, enforced by a unique
// compound index.
//
// RetailerProfit is the retailer's margin (customerPrice - sellingPrice).
// The operator's margin (sellingPrice - ourCost) is never stored under
// the same name to keep the two apart.
type CommissionPricing struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CommissionGroupID primitive.ObjectID `json:"commissionGroupId" bson:"commissionGroupId"`
	PlanID            primitive.ObjectID `json:"planId" bson:"planId"`
	OurCost           float64            `json:"ourCost" bson:"ourCost"`
	SellingPrice      float64            `json:"sellingPrice" bson:"sellingPrice"`
	CustomerPrice     float64            `json:"customerPrice" bson:"customerPrice"`
	RetailerProfit    float64            `json:"retailerProfit" bson:"retailerProfit"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CommissionPricingRequest is the request body for upserting a pricing override
type CommissionPricingRequest struct {
	CommissionGroupID string  `json:"commissionGroupId" validate:"required"`
	PlanID            string  `json:"planId" validate:"required"`
	OurCost           float64 `json:"ourCost" validate:"gte=0"`
	SellingPrice      float64 `json:"sellingPrice" validate:"gt=0"`
}

// ResolvedPlan is a plan with the effective prices for a specific
// retailer, tagged with the source the price was resolved from.
type ResolvedPlan struct {
	PlanID         primitive.ObjectID `json:"planId"`
	Name           string             `json:"name"`
	Carrier        string             `json:"carrier"`
	Country        string             `json:"country,omitempty"`
	Denomination   string             `json:"denomination"`
	ServiceType    string             `json:"serviceType"`
	DurationMonths int                `json:"durationMonths"`
	IsPromotional  bool               `json:"isPromotional"`
	OurCost        float64            `json:"ourCost"`
	RetailerPrice  float64            `json:"retailerPrice"`
	CustomerPrice  float64            `json:"customerPrice"`
	RetailerProfit float64            `json:"retailerProfit"`
	PriceSource    string             `json:"priceSource"`
}
