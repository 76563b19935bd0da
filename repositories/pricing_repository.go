// repositories/pricing_repository.go
package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
)

// PricingRepository is the MongoDB implementation of the pricing store
type PricingRepository struct {
	db *mongo.Database
}

// NewPricingRepository creates a pricing repository on a database handle
func NewPricingRepository(db *mongo.Database) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PricingRepository) GetPlan(ctx context.Context, planID primitive.ObjectID) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Collection("plans").FindOne(ctx, bson.M{"_id": planID}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PricingRepository) ListPlans(ctx context.Context, serviceType string, activeOnly bool) ([]models.Plan, error) {
	filter := bson.M{}
	if serviceType != "" {
		filter["serviceType"] = serviceType
	}
	if activeOnly {
		filter["isActive"] = true
	}

	cursor, err := r.db.Collection("plans").Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []models.Plan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *PricingRepository) ListCommissionPricing(ctx context.Context, groupID primitive.ObjectID) ([]models.CommissionPricing, error) {
	cursor, err := r.db.Collection("commission_pricing").Find(ctx, bson.M{"commissionGroupId": groupID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []models.CommissionPricing{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PricingRepository) GetCommissionGroup(ctx context.Context, groupID primitive.ObjectID) (*models.CommissionGroup, error) {
	var group models.CommissionGroup
	err := r.db.Collection("commission_groups").FindOne(ctx, bson.M{"_id": groupID}).Decode(&group)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// UpsertCommissionPricing replaces the pricing row for the
// (commissionGroupId, planId) pair; the unique compound index keeps the
// pair to a single row even under concurrent upserts
func (r *PricingRepository) UpsertCommissionPricing(ctx context.Context, pricing *models.CommissionPricing) (*models.CommissionPricing, error) {
	filter := bson.M{
		"commissionGroupId": pricing.CommissionGroupID,
		"planId":            pricing.PlanID,
	}
	update := bson.M{
		"$set": bson.M{
			"ourCost":        pricing.OurCost,
			"sellingPrice":   pricing.SellingPrice,
			"customerPrice":  pricing.CustomerPrice,
			"retailerProfit": pricing.RetailerProfit,
			"updatedAt":      pricing.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"commissionGroupId": pricing.CommissionGroupID,
			"planId":            pricing.PlanID,
			"createdAt":         pricing.CreatedAt,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.CommissionPricing
	err := r.db.Collection("commission_pricing").FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *PricingRepository) SetPlanCustomerPrice(ctx context.Context, planID primitive.ObjectID, customerPrice float64) error {
	_, err := r.db.Collection("plans").UpdateOne(ctx,
		bson.M{"_id": planID},
		bson.M{"$set": bson.M{"customerPrice": customerPrice}},
	)
	return err
}

var _ services.PricingStore = (*PricingRepository)(nil)
