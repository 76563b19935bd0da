package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/config"
	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
	"github.com/nexvia/nexvia_portal_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route
// registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub, sessions *middleware.SessionStore,
	pricing *services.PricingService, wallet *services.WalletService, reports *services.ReportService,
	email *services.EmailService) {
	database := db.Database(config.GetDatabaseName())

	RegisterAuthRoutes(e, db, sessions)
	RegisterAdminRoutes(e, database, sessions, pricing)
	RegisterCarrierRoutes(e, database, sessions, pricing, wallet, email, hub)
	RegisterReportRoutes(e, sessions, reports)

	// WebSocket notifications for the authenticated user
	wsGroup := e.Group("/api/ws")
	wsGroup.Use(middleware.JWTMiddleware())
	wsGroup.Use(middleware.RequireSession(sessions))
	wsGroup.GET("", func(c echo.Context) error {
		userID, err := primitive.ObjectIDFromHex(middleware.ExtractUserID(c))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Authentication failed",
			})
		}
		return websocket.HandleWebSocket(c, hub, userID)
	})
}
