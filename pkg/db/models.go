package db

import (
	"time"

	"github.com/trustscan/pkg/evidence"
)

// ScanResult is the full output of one scan: the evidence record plus the
// generated texts. This is the unit the cache stores and the API serves.
type ScanResult struct {
	Evidence             evidence.Record `json:"evidence"`
	Narrative            string          `json:"narrative"`
	FundamentalsAnalysis string          `json:"fundamentals_analysis"`
	HypeAnalysis         string          `json:"hype_analysis"`
	Summary              string          `json:"summary"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Stats summarizes the cache contents for the dashboard.
type Stats struct {
	TotalScans      int64   `json:"total_scans"`
	UniqueAddresses int64   `json:"unique_addresses"`
	AvgTokenScore   float64 `json:"avg_token_score"`
}
