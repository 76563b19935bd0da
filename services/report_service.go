// services/report_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/utils"
)

// LedgerStore is the read-only persistence surface the reporting
// aggregator scans
type LedgerStore interface {
	ListActivationsInRange(ctx context.Context, from, to time.Time) ([]models.ActivationRecord, error)
	ListRechargesInRange(ctx context.Context, from, to time.Time) ([]models.RechargeRecord, error)
	GetUserNames(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

// ReportService recomputes rollups from the raw activation and
// recharge ledgers on every call; there is no caching or incremental
// materialization
type ReportService struct {
	store LedgerStore
}

// NewReportService creates a report service on top of a ledger store
func NewReportService(store LedgerStore) *ReportService {
	return &ReportService{store: store}
}

// BuildDailyReport aggregates one calendar day of ledger activity
func (s *ReportService) BuildDailyReport(ctx context.Context, day time.Time) (*models.Report, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)
	return s.buildReport(ctx, from.Format("2006-01-02"), from, to)
}

// BuildMonthlyReport aggregates one calendar month of ledger activity
func (s *ReportService) BuildMonthlyReport(ctx context.Context, year int, month time.Month) (*models.Report, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return s.buildReport(ctx, fmt.Sprintf("%04d-%02d", year, month), from, to)
}

func (s *ReportService) buildReport(ctx context.Context, period string, from, to time.Time) (*models.Report, error) {
	activations, err := s.store.ListActivationsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	recharges, err := s.store.ListRechargesInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := models.ReportSummary{Period: period}
	retailerRows := make(map[primitive.ObjectID]*models.RetailerBreakdown)
	carrierRows := make(map[string]*models.CarrierBreakdown)

	touchRetailer := func(id primitive.ObjectID) *models.RetailerBreakdown {
		row, ok := retailerRows[id]
		if !ok {
			row = &models.RetailerBreakdown{RetailerID: id.Hex()}
			retailerRows[id] = row
		}
		return row
	}
	touchCarrier := func(carrier string) *models.CarrierBreakdown {
		row, ok := carrierRows[carrier]
		if !ok {
			row = &models.CarrierBreakdown{Carrier: carrier}
			carrierRows[carrier] = row
		}
		return row
	}

	for _, a := range activations {
		if a.Status == models.ActivationStatusFailed {
			continue
		}
		summary.ActivationCount++
		summary.Revenue += a.RetailerPrice
		summary.OperatorMargin += a.RetailerPrice - a.OurCost
		summary.RetailerCommission += a.RetailerProfit

		row := touchRetailer(a.UserID)
		row.ActivationCount++
		row.Revenue += a.RetailerPrice
		row.RetailerCommission += a.RetailerProfit

		carrier := touchCarrier(a.Carrier)
		carrier.ActivationCount++
		carrier.Revenue += a.RetailerPrice
	}

	for _, r := range recharges {
		if r.Status == models.RechargeStatusFailed {
			continue
		}
		summary.RechargeCount++
		summary.Revenue += r.RetailerPrice
		summary.OperatorMargin += r.RetailerPrice - r.OurCost
		summary.RetailerCommission += r.RetailerProfit

		row := touchRetailer(r.UserID)
		row.RechargeCount++
		row.Revenue += r.RetailerPrice
		row.RetailerCommission += r.RetailerProfit

		carrier := touchCarrier(r.Carrier)
		carrier.RechargeCount++
		carrier.Revenue += r.RetailerPrice
	}

	summary.Revenue = utils.RoundCents(summary.Revenue)
	summary.OperatorMargin = utils.RoundCents(summary.OperatorMargin)
	summary.RetailerCommission = utils.RoundCents(summary.RetailerCommission)

	retailerIDs := make([]primitive.ObjectID, 0, len(retailerRows))
	for id := range retailerRows {
		retailerIDs = append(retailerIDs, id)
	}
	names, err := s.store.GetUserNames(ctx, retailerIDs)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Summary:   summary,
		Retailers: make([]models.RetailerBreakdown, 0, len(retailerRows)),
		Carriers:  make([]models.CarrierBreakdown, 0, len(carrierRows)),
	}

	for id, row := range retailerRows {
		row.RetailerName = names[id]
		row.Revenue = utils.RoundCents(row.Revenue)
		row.RetailerCommission = utils.RoundCents(row.RetailerCommission)
		report.Retailers = append(report.Retailers, *row)
	}
	for _, row := range carrierRows {
		row.Revenue = utils.RoundCents(row.Revenue)
		report.Carriers = append(report.Carriers, *row)
	}

	// Deterministic export order
	sort.Slice(report.Retailers, func(i, j int) bool {
		return report.Retailers[i].Revenue > report.Retailers[j].Revenue
	})
	sort.Slice(report.Carriers, func(i, j int) bool {
		return report.Carriers[i].Carrier < report.Carriers[j].Carrier
	})

	return report, nil
}
