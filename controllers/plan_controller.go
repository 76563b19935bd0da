// controllers/plan_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/utils"
)

// PlanController handles the service plan catalog
type PlanController struct {
	DB     *mongo.Database
	Client *mongo.Client
}

// NewPlanController creates a new plan controller
func NewPlanController(client *mongo.Client, db *mongo.Database) *PlanController {
	return &PlanController{DB: db, Client: client}
}

// GetPlans retrieves catalog plans, optionally filtered by service type
// and active flag
func (pc *PlanController) GetPlans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if serviceType := c.QueryParam("serviceType"); serviceType != "" {
		filter["serviceType"] = serviceType
	}
	if c.QueryParam("includeInactive") != "true" {
		filter["isActive"] = true
	}

	cursor, err := pc.DB.Collection("plans").Find(ctx, filter)
	if err != nil {
		log.Printf("Error finding plans: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve plans",
		})
	}
	defer cursor.Close(ctx)

	plans := []models.Plan{}
	if err = cursor.All(ctx, &plans); err != nil {
		log.Printf("Error decoding plans: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve plans",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plans retrieved successfully",
		Data:    plans,
	})
}

// GetPlan retrieves a single plan by id
func (pc *PlanController) GetPlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plan ID",
		})
	}

	var plan models.Plan
	err = pc.DB.Collection("plans").FindOne(ctx, bson.M{"_id": planID}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Plan not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve plan",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plan retrieved successfully",
		Data:    plan,
	})
}

// CreatePlan creates a catalog plan. Admin only.
func (pc *PlanController) CreatePlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.PlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	plan, errResp := pc.buildPlan(&req)
	if errResp != nil {
		return c.JSON(errResp.Status, *errResp)
	}

	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := pc.DB.Collection("plans").InsertOne(ctx, plan)
	if err != nil {
		log.Printf("Error creating plan: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create plan",
		})
	}
	plan.ID = result.InsertedID.(primitive.ObjectID)

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(pc.Client, claims.UserID, claims.Role, "plan.create", "plan", plan.ID.Hex(), plan.Name)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Plan created successfully",
		Data:    plan,
	})
}

// UpdatePlan replaces the editable fields of a plan. Admin only.
func (pc *PlanController) UpdatePlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plan ID",
		})
	}

	var req models.PlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	plan, errResp := pc.buildPlan(&req)
	if errResp != nil {
		return c.JSON(errResp.Status, *errResp)
	}
	plan.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"name":               plan.Name,
		"carrier":            plan.Carrier,
		"country":            plan.Country,
		"denomination":       plan.Denomination,
		"ourCost":            plan.OurCost,
		"retailerPrice":      plan.RetailerPrice,
		"customerPrice":      plan.CustomerPrice,
		"operatorMargin":     plan.OperatorMargin,
		"serviceType":        plan.ServiceType,
		"durationMonths":     plan.DurationMonths,
		"isPromotional":      plan.IsPromotional,
		"originalPrice":      plan.OriginalPrice,
		"discountPercentage": plan.DiscountPercentage,
		"promotionalLabel":   plan.PromotionalLabel,
		"isActive":           plan.IsActive,
		"updatedAt":          plan.UpdatedAt,
	}}

	result, err := pc.DB.Collection("plans").UpdateOne(ctx, bson.M{"_id": planID}, update)
	if err != nil {
		log.Printf("Error updating plan: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update plan",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Plan not found",
		})
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(pc.Client, claims.UserID, claims.Role, "plan.update", "plan", planID.Hex(), plan.Name)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plan updated successfully",
	})
}

// DeletePlan removes a plan from the catalog. Admin only. Ledger rows
// keep their price snapshots, so history survives the delete.
func (pc *PlanController) DeletePlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plan ID",
		})
	}

	result, err := pc.DB.Collection("plans").DeleteOne(ctx, bson.M{"_id": planID})
	if err != nil {
		log.Printf("Error deleting plan: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete plan",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Plan not found",
		})
	}

	// Orphaned pricing overrides are useless once the plan is gone
	_, err = pc.DB.Collection("commission_pricing").DeleteMany(ctx, bson.M{"planId": planID})
	if err != nil {
		log.Printf("Error removing pricing rows for plan %s: %v", planID.Hex(), err)
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(pc.Client, claims.UserID, claims.Role, "plan.delete", "plan", planID.Hex(), "")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plan deleted successfully",
	})
}

// buildPlan converts a validated request into a plan document,
// enforcing the write-time pricing invariants:
// operatorMargin = retailerPrice - ourCost, and for promotional plans
// the customer price is originalPrice reduced by discountPercentage.
func (pc *PlanController) buildPlan(req *models.PlanRequest) (*models.Plan, *models.Response) {
	if req.RetailerPrice < req.OurCost {
		return nil, &models.Response{
			Status:  http.StatusBadRequest,
			Message: "retailerPrice must not be below ourCost",
		}
	}

	plan := &models.Plan{
		Name:               utils.SanitizeInput(req.Name),
		Carrier:            utils.SanitizeInput(req.Carrier),
		Country:            utils.SanitizeInput(req.Country),
		Denomination:       utils.SanitizeInput(req.Denomination),
		OurCost:            utils.RoundCents(req.OurCost),
		RetailerPrice:      utils.RoundCents(req.RetailerPrice),
		CustomerPrice:      req.CustomerPrice,
		OperatorMargin:     utils.RoundCents(req.RetailerPrice - req.OurCost),
		ServiceType:        req.ServiceType,
		DurationMonths:     req.DurationMonths,
		IsPromotional:      req.IsPromotional,
		OriginalPrice:      utils.RoundCents(req.OriginalPrice),
		DiscountPercentage: req.DiscountPercentage,
		PromotionalLabel:   utils.SanitizeInput(req.PromotionalLabel),
		IsActive:           req.IsActive,
	}

	if _, err := utils.ParseDenomination(plan.Denomination); err != nil {
		return nil, &models.Response{
			Status:  http.StatusBadRequest,
			Message: "denomination must be a price, e.g. \"$25\"",
		}
	}

	if req.IsPromotional {
		if req.OriginalPrice <= 0 {
			return nil, &models.Response{
				Status:  http.StatusBadRequest,
				Message: "originalPrice is required for promotional plans",
			}
		}
		salePrice := utils.RoundCents(req.OriginalPrice * (1 - req.DiscountPercentage/100))
		plan.CustomerPrice = &salePrice
	}

	return plan, nil
}
