// controllers/commission_pricing_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
	"github.com/nexvia/nexvia_portal_backend/utils"
)

// CommissionPricingController manages per-group plan price overrides
type CommissionPricingController struct {
	DB      *mongo.Database
	Client  *mongo.Client
	Pricing *services.PricingService
}

// NewCommissionPricingController creates a new commission pricing controller
func NewCommissionPricingController(client *mongo.Client, db *mongo.Database, pricing *services.PricingService) *CommissionPricingController {
	return &CommissionPricingController{DB: db, Client: client, Pricing: pricing}
}

// pricingRow is the list view of an override joined with its plan
type pricingRow struct {
	models.CommissionPricing `bson:",inline"`
	PlanName                 string `json:"planName" bson:"planName"`
	Carrier                  string `json:"carrier" bson:"carrier"`
	Denomination             string `json:"denomination" bson:"denomination"`
	ServiceType              string `json:"serviceType" bson:"serviceType"`
}

// GetCommissionPricing lists pricing overrides, optionally filtered by
// commission group. Admin only.
func (pc *CommissionPricingController) GetCommissionPricing(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if groupParam := c.QueryParam("commissionGroupId"); groupParam != "" {
		groupID, err := primitive.ObjectIDFromHex(groupParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid commission group ID",
			})
		}
		filter["commissionGroupId"] = groupID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "plans",
			"localField":   "planId",
			"foreignField": "_id",
			"as":           "plan",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$plan", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$addFields", Value: bson.M{
			"planName":     "$plan.name",
			"carrier":      "$plan.carrier",
			"denomination": "$plan.denomination",
			"serviceType":  "$plan.serviceType",
		}}},
		{{Key: "$project", Value: bson.M{"plan": 0}}},
		{{Key: "$sort", Value: bson.M{"carrier": 1, "planName": 1}}},
	}

	cursor, err := pc.DB.Collection("commission_pricing").Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("Error listing commission pricing: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commission pricing",
		})
	}
	defer cursor.Close(ctx)

	rows := []pricingRow{}
	if err = cursor.All(ctx, &rows); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commission pricing",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission pricing retrieved successfully",
		Data:    rows,
	})
}

// UpsertCommissionPricing creates or replaces the override for a
// (group, plan) pair. Admin only.
func (pc *CommissionPricingController) UpsertCommissionPricing(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CommissionPricingRequest
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

	groupID, err := primitive.ObjectIDFromHex(req.CommissionGroupID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid commission group ID",
		})
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plan ID",
		})
	}

	saved, err := pc.Pricing.UpsertCommissionPricing(ctx, groupID, planID, req.OurCost, req.SellingPrice)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: verr.Error(),
			})
		case errors.Is(err, services.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Commission group or plan not found",
			})
		default:
			log.Printf("Error upserting commission pricing: %v", err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to save commission pricing",
			})
		}
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(pc.Client, claims.UserID, claims.Role, "commission_pricing.upsert", "commission_pricing", saved.ID.Hex(),
			"group="+groupID.Hex()+" plan="+planID.Hex())
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission pricing saved successfully",
		Data:    saved,
	})
}

// DeleteCommissionPricing removes a single pricing override. The plan
// falls back to base pricing for that group's retailers. Admin only.
func (pc *CommissionPricingController) DeleteCommissionPricing(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pricingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid pricing ID",
		})
	}

	result, err := pc.DB.Collection("commission_pricing").DeleteOne(ctx, bson.M{"_id": pricingID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete commission pricing",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Commission pricing not found",
		})
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(pc.Client, claims.UserID, claims.Role, "commission_pricing.delete", "commission_pricing", pricingID.Hex(), "")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission pricing deleted successfully",
	})
}
