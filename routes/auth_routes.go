package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/controllers"
	"github.com/nexvia/nexvia_portal_backend/middleware"
)

// RegisterAuthRoutes sets up authentication and session routes
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Client, sessions *middleware.SessionStore) {
	authController := controllers.NewAuthController(db, sessions)

	// Public authentication routes
	e.POST("/api/auth/login", authController.Login)

	// Routes requiring a valid token and live session
	protected := e.Group("/api/auth")
	protected.Use(middleware.JWTMiddleware())
	protected.Use(middleware.RequireSession(sessions))
	protected.POST("/logout", authController.Logout)
	protected.GET("/validate", authController.ValidateSession)
	protected.GET("/profile", authController.GetProfile)
}
