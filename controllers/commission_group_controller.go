// controllers/commission_group_controller.go
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

// CommissionGroupController handles commission group administration
type CommissionGroupController struct {
	DB     *mongo.Database
	Client *mongo.Client
}

// NewCommissionGroupController creates a new commission group controller
func NewCommissionGroupController(client *mongo.Client, db *mongo.Database) *CommissionGroupController {
	return &CommissionGroupController{DB: db, Client: client}
}

// GetCommissionGroups lists all commission groups
func (cc *CommissionGroupController) GetCommissionGroups(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := cc.DB.Collection("commission_groups").Find(ctx, bson.M{})
	if err != nil {
		log.Printf("Error finding commission groups: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commission groups",
		})
	}
	defer cursor.Close(ctx)

	groups := []models.CommissionGroup{}
	if err = cursor.All(ctx, &groups); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commission groups",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission groups retrieved successfully",
		Data:    groups,
	})
}

// CreateCommissionGroup creates a commission group. Admin only.
func (cc *CommissionGroupController) CreateCommissionGroup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CommissionGroupRequest
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

	now := time.Now()
	group := models.CommissionGroup{
		Name:        utils.SanitizeInput(req.Name),
		Description: utils.SanitizeInput(req.Description),
		IsActive:    req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := cc.DB.Collection("commission_groups").InsertOne(ctx, group)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "A commission group with this name already exists",
			})
		}
		log.Printf("Error creating commission group: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create commission group",
		})
	}
	group.ID = result.InsertedID.(primitive.ObjectID)

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(cc.Client, claims.UserID, claims.Role, "commission_group.create", "commission_group", group.ID.Hex(), group.Name)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Commission group created successfully",
		Data:    group,
	})
}

// UpdateCommissionGroup updates a commission group. Admin only.
func (cc *CommissionGroupController) UpdateCommissionGroup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	groupID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid commission group ID",
		})
	}

	var req models.CommissionGroupRequest
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

	update := bson.M{"$set": bson.M{
		"name":        utils.SanitizeInput(req.Name),
		"description": utils.SanitizeInput(req.Description),
		"isActive":    req.IsActive,
		"updatedAt":   time.Now(),
	}}

	result, err := cc.DB.Collection("commission_groups").UpdateOne(ctx, bson.M{"_id": groupID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "A commission group with this name already exists",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update commission group",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Commission group not found",
		})
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(cc.Client, claims.UserID, claims.Role, "commission_group.update", "commission_group", groupID.Hex(), req.Name)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission group updated successfully",
	})
}

// DeleteCommissionGroup deletes a commission group together with its
// pricing overrides and unassigns its retailers. Admin only.
func (cc *CommissionGroupController) DeleteCommissionGroup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	groupID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid commission group ID",
		})
	}

	result, err := cc.DB.Collection("commission_groups").DeleteOne(ctx, bson.M{"_id": groupID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete commission group",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Commission group not found",
		})
	}

	if _, err := cc.DB.Collection("commission_pricing").DeleteMany(ctx, bson.M{"commissionGroupId": groupID}); err != nil {
		log.Printf("Error removing pricing rows for group %s: %v", groupID.Hex(), err)
	}
	if _, err := cc.DB.Collection("users").UpdateMany(ctx,
		bson.M{"commissionGroupId": groupID},
		bson.M{"$unset": bson.M{"commissionGroupId": ""}},
	); err != nil {
		log.Printf("Error unassigning retailers from group %s: %v", groupID.Hex(), err)
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(cc.Client, claims.UserID, claims.Role, "commission_group.delete", "commission_group", groupID.Hex(), "")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission group deleted successfully",
	})
}
