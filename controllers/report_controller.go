// controllers/report_controller.go
package controllers

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
)

// ReportController serves sales reports. Reports are recomputed from
// the activation and recharge ledgers on every request.
type ReportController struct {
	Reports *services.ReportService
}

// NewReportController creates a new report controller
func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{Reports: reports}
}

// GetDailyReport returns the rollup for one calendar day. The date
// query parameter defaults to today. Admin and employee only.
func (rc *ReportController) GetDailyReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	day := time.Now().UTC()
	if dateParam := c.QueryParam("date"); dateParam != "" {
		parsed, err := time.Parse("2006-01-02", dateParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid date, expected YYYY-MM-DD",
			})
		}
		day = parsed
	}

	report, err := rc.Reports.BuildDailyReport(ctx, day)
	if err != nil {
		log.Printf("Error building daily report: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build report",
		})
	}

	return rc.respond(c, report)
}

// GetMonthlyReport returns the rollup for one calendar month. The
// month query parameter takes YYYY-MM and defaults to the current
// month. Admin and employee only.
func (rc *ReportController) GetMonthlyReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	year, month := now.Year(), now.Month()

	if monthParam := c.QueryParam("month"); monthParam != "" {
		parsed, err := time.Parse("2006-01", monthParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid month, expected YYYY-MM",
			})
		}
		year, month = parsed.Year(), parsed.Month()
	}

	report, err := rc.Reports.BuildMonthlyReport(ctx, year, month)
	if err != nil {
		log.Printf("Error building monthly report: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build report",
		})
	}

	return rc.respond(c, report)
}

// respond renders a report as JSON, or CSV when format=csv is requested
func (rc *ReportController) respond(c echo.Context, report *models.Report) error {
	if c.QueryParam("format") != "csv" {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Report generated successfully",
			Data:    report,
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=report-%s.csv", report.Summary.Period))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	defer w.Flush()

	records := [][]string{
		{"period", "activations", "recharges", "revenue", "operatorMargin", "retailerCommission"},
		{
			report.Summary.Period,
			strconv.Itoa(report.Summary.ActivationCount),
			strconv.Itoa(report.Summary.RechargeCount),
			formatCSVAmount(report.Summary.Revenue),
			formatCSVAmount(report.Summary.OperatorMargin),
			formatCSVAmount(report.Summary.RetailerCommission),
		},
		{},
		{"retailerId", "retailerName", "activations", "recharges", "revenue", "retailerCommission"},
	}
	for _, row := range report.Retailers {
		records = append(records, []string{
			row.RetailerID,
			row.RetailerName,
			strconv.Itoa(row.ActivationCount),
			strconv.Itoa(row.RechargeCount),
			formatCSVAmount(row.Revenue),
			formatCSVAmount(row.RetailerCommission),
		})
	}
	records = append(records, []string{}, []string{"carrier", "activations", "recharges", "revenue"})
	for _, row := range report.Carriers {
		records = append(records, []string{
			row.Carrier,
			strconv.Itoa(row.ActivationCount),
			strconv.Itoa(row.RechargeCount),
			formatCSVAmount(row.Revenue),
		})
	}

	return w.WriteAll(records)
}

func formatCSVAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
