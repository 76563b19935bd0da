package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexvia/nexvia_portal_backend/models"
)

// fakeLedgerStore is an in-memory LedgerStore for reporting tests
type fakeLedgerStore struct {
	activations []models.ActivationRecord
	recharges   []models.RechargeRecord
	names       map[primitive.ObjectID]string
}

func (f *fakeLedgerStore) ListActivationsInRange(_ context.Context, from, to time.Time) ([]models.ActivationRecord, error) {
	var out []models.ActivationRecord
	for _, a := range f.activations {
		if !a.CreatedAt.Before(from) && a.CreatedAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) ListRechargesInRange(_ context.Context, from, to time.Time) ([]models.RechargeRecord, error) {
	var out []models.RechargeRecord
	for _, r := range f.recharges {
		if !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) GetUserNames(_ context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	return f.names, nil
}

func TestDailyReportAggregatesLedgers(t *testing.T) {
	retailerA := primitive.NewObjectID()
	retailerB := primitive.NewObjectID()
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	store := &fakeLedgerStore{
		names: map[primitive.ObjectID]string{
			retailerA: "Corner Wireless",
			retailerB: "Metro Mobile",
		},
		activations: []models.ActivationRecord{
			{
				UserID: retailerA, Carrier: "nexitel", Status: models.ActivationStatusActive,
				OurCost: 30, RetailerPrice: 36, RetailerProfit: 4,
				CreatedAt: day.Add(9 * time.Hour),
			},
			{
				UserID: retailerA, Carrier: "nexitel", Status: models.ActivationStatusFailed,
				OurCost: 30, RetailerPrice: 36, RetailerProfit: 4,
				CreatedAt: day.Add(10 * time.Hour),
			},
			// Outside the reporting day
			{
				UserID: retailerA, Carrier: "nexitel", Status: models.ActivationStatusActive,
				OurCost: 30, RetailerPrice: 36, RetailerProfit: 4,
				CreatedAt: day.AddDate(0, 0, 1),
			},
		},
		recharges: []models.RechargeRecord{
			{
				UserID: retailerB, Carrier: "att", Status: models.RechargeStatusCompleted,
				OurCost: 20, RetailerPrice: 22, RetailerProfit: 3,
				CreatedAt: day.Add(14 * time.Hour),
			},
		},
	}
	svc := NewReportService(store)

	report, err := svc.BuildDailyReport(context.Background(), day)
	require.NoError(t, err)

	// Failed and out-of-range records are excluded
	assert.Equal(t, "2026-03-15", report.Summary.Period)
	assert.Equal(t, 1, report.Summary.ActivationCount)
	assert.Equal(t, 1, report.Summary.RechargeCount)
	assert.Equal(t, 58.0, report.Summary.Revenue)
	assert.Equal(t, 8.0, report.Summary.OperatorMargin)
	assert.Equal(t, 7.0, report.Summary.RetailerCommission)

	require.Len(t, report.Retailers, 2)
	// Retailers are sorted by revenue, highest first
	assert.Equal(t, "Corner Wireless", report.Retailers[0].RetailerName)
	assert.Equal(t, 36.0, report.Retailers[0].Revenue)
	assert.Equal(t, "Metro Mobile", report.Retailers[1].RetailerName)

	require.Len(t, report.Carriers, 2)
	// Carriers are sorted by name
	assert.Equal(t, "att", report.Carriers[0].Carrier)
	assert.Equal(t, "nexitel", report.Carriers[1].Carrier)
}

func TestMonthlyReportPeriodAndRange(t *testing.T) {
	retailer := primitive.NewObjectID()
	store := &fakeLedgerStore{
		names: map[primitive.ObjectID]string{retailer: "Corner Wireless"},
		recharges: []models.RechargeRecord{
			{
				UserID: retailer, Carrier: "global", Status: models.RechargeStatusCompleted,
				OurCost: 10, RetailerPrice: 12, RetailerProfit: 1,
				CreatedAt: time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC),
			},
			{
				UserID: retailer, Carrier: "global", Status: models.RechargeStatusCompleted,
				OurCost: 10, RetailerPrice: 12, RetailerProfit: 1,
				CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	svc := NewReportService(store)

	report, err := svc.BuildMonthlyReport(context.Background(), 2026, time.February)
	require.NoError(t, err)

	assert.Equal(t, "2026-02", report.Summary.Period)
	assert.Equal(t, 1, report.Summary.RechargeCount)
}

func TestEmptyReportHasNoRows(t *testing.T) {
	svc := NewReportService(&fakeLedgerStore{names: map[primitive.ObjectID]string{}})

	report, err := svc.BuildDailyReport(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Zero(t, report.Summary.ActivationCount)
	assert.Empty(t, report.Retailers)
	assert.Empty(t, report.Carriers)
}
