package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/controllers"
	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
	ws "github.com/nexvia/nexvia_portal_backend/websocket"
)

// RegisterCarrierRoutes sets up the plan catalog, activation, recharge
// and wallet routes used day to day by retailers and staff
func RegisterCarrierRoutes(e *echo.Echo, db *mongo.Database, sessions *middleware.SessionStore,
	pricing *services.PricingService, wallet *services.WalletService, email *services.EmailService, hub *ws.Hub) {
	client := db.Client()
	planController := controllers.NewPlanController(client, db)
	catalogController := controllers.NewCatalogController(pricing)
	activationController := controllers.NewActivationController(client, db, pricing, wallet, email, hub)
	rechargeController := controllers.NewRechargeController(client, db, pricing, wallet, email, hub)
	walletController := controllers.NewWalletController(client, db, wallet, hub)

	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware())
	api.Use(middleware.RequireSession(sessions))
	api.Use(middleware.ActivityTracker(client))

	// Raw plan catalog, staff only; writes are admin only
	staff := api.Group("", middleware.RequireRole(models.RoleAdmin, models.RoleEmployee))
	staff.GET("/plans", planController.GetPlans)
	staff.GET("/plans/:id", planController.GetPlan)
	api.POST("/plans", planController.CreatePlan, middleware.RequireRole(models.RoleAdmin))
	api.PUT("/plans/:id", planController.UpdatePlan, middleware.RequireRole(models.RoleAdmin))
	api.DELETE("/plans/:id", planController.DeletePlan, middleware.RequireRole(models.RoleAdmin))

	// Retailer-facing resolved catalog
	retailer := api.Group("", middleware.RequireRole(models.RoleRetailer))
	retailer.GET("/my/plans", catalogController.GetMyPlans)
	retailer.GET("/my/plans/:id", catalogController.GetMyPlan)
	retailer.POST("/activations", activationController.SubmitActivation)
	retailer.POST("/recharges", rechargeController.SubmitRecharge)

	// Carrier-scoped aliases, e.g. /api/nexitel/activations and
	// /api/global/recharges. The handler rejects plans whose service
	// type does not match the carrier segment.
	retailer.POST("/:carrier/activations", activationController.SubmitActivation)
	retailer.POST("/:carrier/recharges", rechargeController.SubmitRecharge)

	// Activation and recharge history, role-scoped inside the handlers
	api.GET("/activations", activationController.GetActivations)
	api.GET("/activations/:id", activationController.GetActivation)
	api.GET("/recharges", rechargeController.GetRecharges)

	// Status transitions, staff only
	staff.PUT("/activations/:id/status", activationController.UpdateActivationStatus)

	// Wallets
	api.GET("/wallet/balance", walletController.GetBalance)
	api.GET("/wallet/transactions", walletController.GetTransactions)
	staff.POST("/wallet/topup", walletController.TopUp)
	staff.POST("/wallet/transfer", walletController.Transfer)

	// Profit payouts are an admin-only bookkeeping action
	api.POST("/admin/payouts", walletController.Payout, middleware.RequireRole(models.RoleAdmin))
}
