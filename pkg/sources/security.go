package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/chain"
	"github.com/trustscan/pkg/evidence"
)

// SecurityReport fetches the RugCheck risk report for a solana mint. The
// provider does not cover bnb; callers simply never invoke this connector
// there. Returns nil on any failure so a missing report and an unreachable
// provider look the same downstream.
func (c *Client) SecurityReport(ctx context.Context, mint string) *evidence.Security {
	url := fmt.Sprintf("%s/tokens/%s/report", c.cfg.RugCheckAPI, mint)
	body, err := c.get(ctx, url, c.cfg.SecurityTimeout, nil)
	if err != nil {
		log.Debug().Err(err).Str("mint", chain.Abbrev(mint)).Msg("security report fetch failed")
		return nil
	}

	var report struct {
		Risks []struct {
			Name        string `json:"name"`
			Level       string `json:"level"`
			Description string `json:"description"`
		} `json:"risks"`
		TotalHolders *int64 `json:"totalHolders"`
	}
	if json.Unmarshal(body, &report) != nil {
		return nil
	}

	sec := &evidence.Security{
		Flags:       []evidence.RiskFlag{},
		HolderCount: report.TotalHolders,
	}
	for _, r := range report.Risks {
		sec.Flags = append(sec.Flags, evidence.RiskFlag{
			Name:        r.Name,
			Severity:    mapSeverity(r.Level),
			Description: r.Description,
		})
	}
	return sec
}

func mapSeverity(level string) string {
	switch strings.ToLower(level) {
	case "danger", "high", "critical":
		return "high"
	case "warn", "warning", "medium":
		return "medium"
	default:
		return "low"
	}
}
