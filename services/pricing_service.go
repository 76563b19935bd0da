// services/pricing_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/utils"
)

// ErrNotFound is returned when a referenced plan, group or user does not exist
var ErrNotFound = errors.New("not found")

// ValidationError carries a field-level message for invalid input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PricingStore is the persistence surface the pricing resolver needs.
// The production implementation is backed by MongoDB; tests use an
// in-memory fake.
type PricingStore interface {
	GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	GetPlan(ctx context.Context, planID primitive.ObjectID) (*models.Plan, error)
	ListPlans(ctx context.Context, serviceType string, activeOnly bool) ([]models.Plan, error)
	ListCommissionPricing(ctx context.Context, groupID primitive.ObjectID) ([]models.CommissionPricing, error)
	GetCommissionGroup(ctx context.Context, groupID primitive.ObjectID) (*models.CommissionGroup, error)
	UpsertCommissionPricing(ctx context.Context, pricing *models.CommissionPricing) (*models.CommissionPricing, error)
	SetPlanCustomerPrice(ctx context.Context, planID primitive.ObjectID, customerPrice float64) error
}

// PricingService resolves effective retailer pricing and maintains
// commission price overrides
type PricingService struct {
	store PricingStore
}

// NewPricingService creates a pricing service on top of a store
func NewPricingService(store PricingStore) *PricingService {
	return &PricingService{store: store}
}

// ResolveRetailerPlans returns the plans a retailer can sell together
// with the prices that apply to them. Resolution walks an ordered list
// of price sources and the first applicable one wins:
//
//  1. commission override for the retailer's commission group
//  2. base plan pricing for plans the group does not cover
//  3. uncommissioned self-service pricing for recharge plans when the
//     retailer has no commission group at all
//
// serviceType filters the catalog; when empty, commission-priced plans
// are unioned with all recharge plans not already covered, deduplicated
// by plan id.
func (s *PricingService) ResolveRetailerPlans(ctx context.Context, retailerID primitive.ObjectID, serviceType string) ([]models.ResolvedPlan, error) {
	retailer, err := s.store.GetUser(ctx, retailerID)
	if err != nil {
		return nil, err
	}

	if retailer.CommissionGroupID == nil {
		return s.resolveSelfService(ctx, serviceType)
	}

	pricingRows, err := s.store.ListCommissionPricing(ctx, *retailer.CommissionGroupID)
	if err != nil {
		return nil, err
	}

	byPlan := make(map[primitive.ObjectID]models.CommissionPricing, len(pricingRows))
	for _, row := range pricingRows {
		byPlan[row.PlanID] = row
	}

	plans, err := s.store.ListPlans(ctx, serviceType, true)
	if err != nil {
		return nil, err
	}

	resolved := make([]models.ResolvedPlan, 0, len(plans))
	for _, plan := range plans {
		if row, ok := byPlan[plan.ID]; ok {
			resolved = append(resolved, resolveFromCommission(plan, row))
			continue
		}
		// Plans without an override stay sellable at base pricing for
		// recharge service types; commission-gated types require a row.
		if models.IsRechargeServiceType(plan.ServiceType) {
			resolved = append(resolved, resolveFromPlan(plan, models.PriceSourceBase))
		}
	}

	return resolved, nil
}

// resolveSelfService handles retailers without a commission group:
// recharge plans fall back to base plan pricing, everything else
// resolves to an empty list.
func (s *PricingService) resolveSelfService(ctx context.Context, serviceType string) ([]models.ResolvedPlan, error) {
	if serviceType != "" && !models.IsRechargeServiceType(serviceType) {
		return []models.ResolvedPlan{}, nil
	}

	plans, err := s.store.ListPlans(ctx, serviceType, true)
	if err != nil {
		return nil, err
	}

	resolved := make([]models.ResolvedPlan, 0, len(plans))
	for _, plan := range plans {
		if !models.IsRechargeServiceType(plan.ServiceType) {
			continue
		}
		resolved = append(resolved, resolveFromPlan(plan, models.PriceSourceSelfService))
	}

	return resolved, nil
}

// ResolvePlanForRetailer resolves the effective price of one plan for
// one retailer, used when recording activations and recharges.
func (s *PricingService) ResolvePlanForRetailer(ctx context.Context, retailerID, planID primitive.ObjectID) (*models.ResolvedPlan, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, &ValidationError{Field: "planId", Message: "plan is not active"}
	}

	resolved, err := s.ResolveRetailerPlans(ctx, retailerID, plan.ServiceType)
	if err != nil {
		return nil, err
	}

	for i := range resolved {
		if resolved[i].PlanID == planID {
			return &resolved[i], nil
		}
	}

	return nil, ErrNotFound
}

// UpsertCommissionPricing creates or replaces the pricing override for
// a (commission group, plan) pair. The customer price is derived from
// the plan's denomination; the retailer profit is customerPrice minus
// sellingPrice. A zero or negative retailer profit is allowed, a
// sellingPrice at or below ourCost is not.
func (s *PricingService) UpsertCommissionPricing(ctx context.Context, groupID, planID primitive.ObjectID, ourCost, sellingPrice float64) (*models.CommissionPricing, error) {
	if sellingPrice <= ourCost {
		return nil, &ValidationError{
			Field:   "sellingPrice",
			Message: "selling price must be greater than our cost",
		}
	}

	if _, err := s.store.GetCommissionGroup(ctx, groupID); err != nil {
		return nil, err
	}

	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	customerPrice, err := utils.ParseDenomination(plan.Denomination)
	if err != nil {
		return nil, &ValidationError{
			Field:   "denomination",
			Message: fmt.Sprintf("plan denomination %q is not a price", plan.Denomination),
		}
	}

	now := time.Now()
	pricing := &models.CommissionPricing{
		CommissionGroupID: groupID,
		PlanID:            planID,
		OurCost:           utils.RoundCents(ourCost),
		SellingPrice:      utils.RoundCents(sellingPrice),
		CustomerPrice:     utils.RoundCents(customerPrice),
		RetailerProfit:    utils.RoundCents(customerPrice - sellingPrice),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	saved, err := s.store.UpsertCommissionPricing(ctx, pricing)
	if err != nil {
		return nil, err
	}

	// Backfill the plan's own customer price so subsequent reads agree
	// with the derived value
	if plan.CustomerPrice == nil {
		if err := s.store.SetPlanCustomerPrice(ctx, planID, pricing.CustomerPrice); err != nil {
			return nil, err
		}
	}

	return saved, nil
}

// resolveFromCommission builds the resolved view of a plan priced by a
// commission override. The customer price prefers the plan's own value
// and falls back to the selling price, which by definition yields a
// zero retailer profit.
func resolveFromCommission(plan models.Plan, row models.CommissionPricing) models.ResolvedPlan {
	customerPrice := row.SellingPrice
	if plan.CustomerPrice != nil {
		customerPrice = *plan.CustomerPrice
	}

	return models.ResolvedPlan{
		PlanID:         plan.ID,
		Name:           plan.Name,
		Carrier:        plan.Carrier,
		Country:        plan.Country,
		Denomination:   plan.Denomination,
		ServiceType:    plan.ServiceType,
		DurationMonths: plan.DurationMonths,
		IsPromotional:  plan.IsPromotional,
		OurCost:        row.OurCost,
		RetailerPrice:  row.SellingPrice,
		CustomerPrice:  utils.RoundCents(customerPrice),
		RetailerProfit: utils.RoundCents(customerPrice - row.SellingPrice),
		PriceSource:    models.PriceSourceCommission,
	}
}

// resolveFromPlan builds the resolved view of a plan sold at its base
// catalog pricing
func resolveFromPlan(plan models.Plan, priceSource string) models.ResolvedPlan {
	customerPrice := plan.RetailerPrice
	if plan.CustomerPrice != nil {
		customerPrice = *plan.CustomerPrice
	} else if parsed, err := utils.ParseDenomination(plan.Denomination); err == nil {
		customerPrice = parsed
	}

	return models.ResolvedPlan{
		PlanID:         plan.ID,
		Name:           plan.Name,
		Carrier:        plan.Carrier,
		Country:        plan.Country,
		Denomination:   plan.Denomination,
		ServiceType:    plan.ServiceType,
		DurationMonths: plan.DurationMonths,
		IsPromotional:  plan.IsPromotional,
		OurCost:        plan.OurCost,
		RetailerPrice:  plan.RetailerPrice,
		CustomerPrice:  utils.RoundCents(customerPrice),
		RetailerProfit: utils.RoundCents(customerPrice - plan.RetailerPrice),
		PriceSource:    priceSource,
	}
}
