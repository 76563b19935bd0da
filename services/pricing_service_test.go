package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexvia/nexvia_portal_backend/models"
)

// fakePricingStore is an in-memory PricingStore for resolver tests
type fakePricingStore struct {
	users   map[primitive.ObjectID]*models.User
	plans   map[primitive.ObjectID]*models.Plan
	groups  map[primitive.ObjectID]*models.CommissionGroup
	pricing map[primitive.ObjectID][]models.CommissionPricing
}

func newFakePricingStore() *fakePricingStore {
	return &fakePricingStore{
		users:   make(map[primitive.ObjectID]*models.User),
		plans:   make(map[primitive.ObjectID]*models.Plan),
		groups:  make(map[primitive.ObjectID]*models.CommissionGroup),
		pricing: make(map[primitive.ObjectID][]models.CommissionPricing),
	}
}

func (f *fakePricingStore) GetUser(_ context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}

func (f *fakePricingStore) GetPlan(_ context.Context, planID primitive.ObjectID) (*models.Plan, error) {
	plan, ok := f.plans[planID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *plan
	return &copied, nil
}

func (f *fakePricingStore) ListPlans(_ context.Context, serviceType string, activeOnly bool) ([]models.Plan, error) {
	var plans []models.Plan
	for _, plan := range f.plans {
		if serviceType != "" && plan.ServiceType != serviceType {
			continue
		}
		if activeOnly && !plan.IsActive {
			continue
		}
		plans = append(plans, *plan)
	}
	return plans, nil
}

func (f *fakePricingStore) ListCommissionPricing(_ context.Context, groupID primitive.ObjectID) ([]models.CommissionPricing, error) {
	return f.pricing[groupID], nil
}

func (f *fakePricingStore) GetCommissionGroup(_ context.Context, groupID primitive.ObjectID) (*models.CommissionGroup, error) {
	group, ok := f.groups[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	return group, nil
}

func (f *fakePricingStore) UpsertCommissionPricing(_ context.Context, pricing *models.CommissionPricing) (*models.CommissionPricing, error) {
	rows := f.pricing[pricing.CommissionGroupID]
	for i := range rows {
		if rows[i].PlanID == pricing.PlanID {
			pricing.ID = rows[i].ID
			rows[i] = *pricing
			return pricing, nil
		}
	}
	pricing.ID = primitive.NewObjectID()
	f.pricing[pricing.CommissionGroupID] = append(rows, *pricing)
	return pricing, nil
}

func (f *fakePricingStore) SetPlanCustomerPrice(_ context.Context, planID primitive.ObjectID, customerPrice float64) error {
	plan, ok := f.plans[planID]
	if !ok {
		return ErrNotFound
	}
	plan.CustomerPrice = &customerPrice
	return nil
}

func (f *fakePricingStore) addRetailer(groupID *primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.users[id] = &models.User{
		ID:                id,
		Role:              models.RoleRetailer,
		CommissionGroupID: groupID,
		IsActive:          true,
	}
	return id
}

func (f *fakePricingStore) addPlan(plan models.Plan) primitive.ObjectID {
	plan.ID = primitive.NewObjectID()
	plan.IsActive = true
	f.plans[plan.ID] = &plan
	return plan.ID
}

func (f *fakePricingStore) addGroup(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.groups[id] = &models.CommissionGroup{ID: id, Name: name, IsActive: true}
	return id
}

func TestUpsertCommissionPricingDerivesCustomerPrice(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	planID := store.addPlan(models.Plan{
		Name:         "Nexitel $25",
		Carrier:      "nexitel",
		Denomination: "$25",
		ServiceType:  models.ServiceTypeNexitelRecharge,
	})

	saved, err := svc.UpsertCommissionPricing(context.Background(), groupID, planID, 20, 22)
	require.NoError(t, err)

	assert.Equal(t, 25.0, saved.CustomerPrice)
	assert.Equal(t, 3.0, saved.RetailerProfit)
	assert.Equal(t, 20.0, saved.OurCost)
	assert.Equal(t, 22.0, saved.SellingPrice)

	// Plan's own customer price is backfilled with the derived value
	plan := store.plans[planID]
	require.NotNil(t, plan.CustomerPrice)
	assert.Equal(t, 25.0, *plan.CustomerPrice)
}

func TestUpsertCommissionPricingAllowsNegativeRetailerProfit(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	planID := store.addPlan(models.Plan{
		Denomination: "$25",
		ServiceType:  models.ServiceTypeNexitelRecharge,
	})

	// Selling above the denomination means the retailer loses money on
	// each sale, which is allowed
	saved, err := svc.UpsertCommissionPricing(context.Background(), groupID, planID, 20, 26)
	require.NoError(t, err)
	assert.Equal(t, -1.0, saved.RetailerProfit)
}

func TestUpsertCommissionPricingRejectsSellingBelowCost(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	planID := store.addPlan(models.Plan{
		Denomination: "$25",
		ServiceType:  models.ServiceTypeNexitelRecharge,
	})

	_, err := svc.UpsertCommissionPricing(context.Background(), groupID, planID, 24, 20)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sellingPrice", verr.Field)

	// Selling at exactly cost is rejected too
	_, err = svc.UpsertCommissionPricing(context.Background(), groupID, planID, 24, 24)
	assert.ErrorAs(t, err, &verr)
}

func TestUpsertCommissionPricingIsIdempotent(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	planID := store.addPlan(models.Plan{
		Denomination: "$25",
		ServiceType:  models.ServiceTypeNexitelRecharge,
	})

	first, err := svc.UpsertCommissionPricing(context.Background(), groupID, planID, 20, 22)
	require.NoError(t, err)
	second, err := svc.UpsertCommissionPricing(context.Background(), groupID, planID, 20, 23)
	require.NoError(t, err)

	// One row per (group, plan) pair, replaced in place
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.pricing[groupID], 1)
	assert.Equal(t, 23.0, store.pricing[groupID][0].SellingPrice)
}

func TestUpsertCommissionPricingUnparsableDenomination(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	planID := store.addPlan(models.Plan{
		Denomination: "unlimited",
		ServiceType:  models.ServiceTypeNexitelRecharge,
	})

	_, err := svc.UpsertCommissionPricing(context.Background(), groupID, planID, 20, 22)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "denomination", verr.Field)
}

func TestResolveCommissionPricedPlan(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	retailerID := store.addRetailer(&groupID)
	customerPrice := 27.50
	planID := store.addPlan(models.Plan{
		Denomination:  "$25",
		ServiceType:   models.ServiceTypeNexitelRecharge,
		OurCost:       18,
		RetailerPrice: 24,
		CustomerPrice: &customerPrice,
	})
	store.pricing[groupID] = []models.CommissionPricing{{
		CommissionGroupID: groupID,
		PlanID:            planID,
		OurCost:           20,
		SellingPrice:      22,
	}}

	resolved, err := svc.ResolvePlanForRetailer(context.Background(), retailerID, planID)
	require.NoError(t, err)

	assert.Equal(t, models.PriceSourceCommission, resolved.PriceSource)
	assert.Equal(t, 22.0, resolved.RetailerPrice)
	assert.Equal(t, 27.50, resolved.CustomerPrice)
	assert.Equal(t, 5.50, resolved.RetailerProfit)
	assert.Equal(t, 20.0, resolved.OurCost)
}

func TestResolveCommissionPlanWithoutCustomerPrice(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	retailerID := store.addRetailer(&groupID)
	planID := store.addPlan(models.Plan{
		Denomination: "$25",
		ServiceType:  models.ServiceTypeNexitelRecharge,
	})
	store.pricing[groupID] = []models.CommissionPricing{{
		CommissionGroupID: groupID,
		PlanID:            planID,
		OurCost:           20,
		SellingPrice:      26,
	}}

	resolved, err := svc.ResolvePlanForRetailer(context.Background(), retailerID, planID)
	require.NoError(t, err)

	// Without a stored customer price the selling price stands in,
	// yielding zero retailer profit
	assert.Equal(t, 26.0, resolved.CustomerPrice)
	assert.Equal(t, 0.0, resolved.RetailerProfit)
}

func TestResolveUncoveredRechargePlanFallsBackToBase(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	retailerID := store.addRetailer(&groupID)
	planID := store.addPlan(models.Plan{
		Denomination:  "$30",
		ServiceType:   models.ServiceTypeGlobalRecharge,
		OurCost:       25,
		RetailerPrice: 28,
	})

	resolved, err := svc.ResolvePlanForRetailer(context.Background(), retailerID, planID)
	require.NoError(t, err)

	assert.Equal(t, models.PriceSourceBase, resolved.PriceSource)
	assert.Equal(t, 28.0, resolved.RetailerPrice)
	assert.Equal(t, 30.0, resolved.CustomerPrice)
	assert.Equal(t, 2.0, resolved.RetailerProfit)
}

func TestResolveActivationPlanRequiresCommissionRow(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	retailerID := store.addRetailer(&groupID)
	planID := store.addPlan(models.Plan{
		Denomination:  "$40",
		ServiceType:   models.ServiceTypeNexitel,
		OurCost:       30,
		RetailerPrice: 36,
	})

	// Activation plans are commission-gated; without a row the plan is
	// not sellable by this retailer
	_, err := svc.ResolvePlanForRetailer(context.Background(), retailerID, planID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolveWithoutGroupSellsRechargeSelfService(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	retailerID := store.addRetailer(nil)
	store.addPlan(models.Plan{
		Denomination:  "$25",
		ServiceType:   models.ServiceTypeNexitelRecharge,
		OurCost:       20,
		RetailerPrice: 23,
	})
	store.addPlan(models.Plan{
		Denomination:  "$40",
		ServiceType:   models.ServiceTypeNexitel,
		OurCost:       30,
		RetailerPrice: 36,
	})

	resolved, err := svc.ResolveRetailerPlans(context.Background(), retailerID, "")
	require.NoError(t, err)

	// Only the recharge plan is sellable, at self-service pricing
	require.Len(t, resolved, 1)
	assert.Equal(t, models.PriceSourceSelfService, resolved[0].PriceSource)
	assert.Equal(t, models.ServiceTypeNexitelRecharge, resolved[0].ServiceType)
	assert.Equal(t, 25.0, resolved[0].CustomerPrice)
}

func TestResolveWithoutGroupActivationTypeIsEmpty(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	retailerID := store.addRetailer(nil)
	store.addPlan(models.Plan{
		Denomination:  "$40",
		ServiceType:   models.ServiceTypeNexitel,
		OurCost:       30,
		RetailerPrice: 36,
	})

	resolved, err := svc.ResolveRetailerPlans(context.Background(), retailerID, models.ServiceTypeNexitel)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveRetailerPlansIsIdempotent(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	groupID := store.addGroup("Gold")
	retailerID := store.addRetailer(&groupID)
	coveredID := store.addPlan(models.Plan{
		Name:          "Nexitel Unlimited",
		Denomination:  "$25",
		ServiceType:   models.ServiceTypeNexitel,
		OurCost:       20,
		RetailerPrice: 23,
	})
	store.addPlan(models.Plan{
		Name:          "Global Top-Up",
		Denomination:  "$30",
		ServiceType:   models.ServiceTypeGlobalRecharge,
		OurCost:       25,
		RetailerPrice: 28,
	})
	store.pricing[groupID] = []models.CommissionPricing{{
		CommissionGroupID: groupID,
		PlanID:            coveredID,
		OurCost:           20,
		SellingPrice:      22,
	}}

	first, err := svc.ResolveRetailerPlans(context.Background(), retailerID, "")
	require.NoError(t, err)
	second, err := svc.ResolveRetailerPlans(context.Background(), retailerID, "")
	require.NoError(t, err)

	// Two reads with no intervening writes see the same catalog
	require.Len(t, first, 2)
	assert.ElementsMatch(t, first, second)
}

func TestResolveInactivePlanRejected(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	retailerID := store.addRetailer(nil)
	planID := store.addPlan(models.Plan{
		Denomination: "$25",
		ServiceType:  models.ServiceTypeNexitelRecharge,
	})
	store.plans[planID].IsActive = false

	_, err := svc.ResolvePlanForRetailer(context.Background(), retailerID, planID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "planId", verr.Field)
}

func TestResolveUnknownRetailer(t *testing.T) {
	store := newFakePricingStore()
	svc := NewPricingService(store)

	_, err := svc.ResolveRetailerPlans(context.Background(), primitive.NewObjectID(), "")
	assert.True(t, errors.Is(err, ErrNotFound))
}
