package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/nexvia/nexvia_portal_backend/controllers"
	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
)

// RegisterReportRoutes sets up the sales reporting routes
func RegisterReportRoutes(e *echo.Echo, sessions *middleware.SessionStore, reports *services.ReportService) {
	reportController := controllers.NewReportController(reports)

	group := e.Group("/api/reports")
	group.Use(middleware.JWTMiddleware())
	group.Use(middleware.RequireSession(sessions))
	group.Use(middleware.RequireRole(models.RoleAdmin, models.RoleEmployee))

	group.GET("/daily", reportController.GetDailyReport)
	group.GET("/monthly", reportController.GetMonthlyReport)
}
