// controllers/catalog_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
)

// CatalogController serves the retailer-facing plan catalog with
// prices resolved for the authenticated retailer
type CatalogController struct {
	Pricing *services.PricingService
}

// NewCatalogController creates a new catalog controller
func NewCatalogController(pricing *services.PricingService) *CatalogController {
	return &CatalogController{Pricing: pricing}
}

// GetMyPlans returns the plans the authenticated retailer can sell,
// each tagged with the source its price was resolved from. An optional
// serviceType query parameter filters the catalog.
func (cc *CatalogController) GetMyPlans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.ExtractUserID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	resolved, err := cc.Pricing.ResolveRetailerPlans(ctx, userID, c.QueryParam("serviceType"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		log.Printf("Error resolving plans for retailer %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve plans",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plans resolved successfully",
		Data:    resolved,
	})
}

// GetMyPlan resolves the effective price of one plan for the
// authenticated retailer
func (cc *CatalogController) GetMyPlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.ExtractUserID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plan ID",
		})
	}

	resolved, err := cc.Pricing.ResolvePlanForRetailer(ctx, userID, planID)
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
				Message: "Plan is not available for this account",
			})
		default:
			log.Printf("Error resolving plan %s for retailer %s: %v", planID.Hex(), userID.Hex(), err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to resolve plan",
			})
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plan resolved successfully",
		Data:    resolved,
	})
}
