// models/report.go
package models

// ReportSummary is the top-level rollup for a reporting period
type ReportSummary struct {
	Period             string  `json:"period"` // "2025-01-31" or "2025-01"
	ActivationCount    int     `json:"activationCount"`
	RechargeCount      int     `json:"rechargeCount"`
	Revenue            float64 `json:"revenue"`            // sum of retailer prices charged
	OperatorMargin     float64 `json:"operatorMargin"`     // sum of (retailerPrice - ourCost)
	RetailerCommission float64 `json:"retailerCommission"` // sum of retailer profits
}

// RetailerBreakdown is the per-retailer slice of a report
type RetailerBreakdown struct {
	RetailerID         string  `json:"retailerId"`
	RetailerName       string  `json:"retailerName"`
	ActivationCount    int     `json:"activationCount"`
	RechargeCount      int     `json:"rechargeCount"`
	Revenue            float64 `json:"revenue"`
	RetailerCommission float64 `json:"retailerCommission"`
}

// CarrierBreakdown is the per-carrier slice of a report
type CarrierBreakdown struct {
	Carrier         string  `json:"carrier"`
	ActivationCount int     `json:"activationCount"`
	RechargeCount   int     `json:"rechargeCount"`
	Revenue         float64 `json:"revenue"`
}

// Report bundles the summary with its breakdowns for JSON/CSV export
type Report struct {
	Summary   ReportSummary       `json:"summary"`
	Retailers []RetailerBreakdown `json:"retailers"`
	Carriers  []CarrierBreakdown  `json:"carriers"`
}
