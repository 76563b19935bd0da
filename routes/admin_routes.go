package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/controllers"
	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
)

// RegisterAdminRoutes sets up user, plan and commission administration
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Database, sessions *middleware.SessionStore, pricing *services.PricingService) {
	client := db.Client()
	userController := controllers.NewUserController(client, db)
	groupController := controllers.NewCommissionGroupController(client, db)
	pricingController := controllers.NewCommissionPricingController(client, db, pricing)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireSession(sessions))
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	// User management
	admin.GET("/users", userController.GetUsers)
	admin.GET("/users/:id", userController.GetUser)
	admin.POST("/users", userController.CreateUser)
	admin.PUT("/users/:id", userController.UpdateUser)
	admin.PUT("/users/:id/commission-group", userController.AssignCommissionGroup)
	admin.DELETE("/users/:id/commission-group", userController.UnassignCommissionGroup)

	// Commission group management
	admin.GET("/commission-groups", groupController.GetCommissionGroups)
	admin.POST("/commission-groups", groupController.CreateCommissionGroup)
	admin.PUT("/commission-groups/:id", groupController.UpdateCommissionGroup)
	admin.DELETE("/commission-groups/:id", groupController.DeleteCommissionGroup)

	// Commission pricing overrides
	admin.GET("/commission-pricing", pricingController.GetCommissionPricing)
	admin.POST("/commission-pricing", pricingController.UpsertCommissionPricing)
	admin.DELETE("/commission-pricing/:id", pricingController.DeleteCommissionPricing)
}
