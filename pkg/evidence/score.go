package evidence

import "math"

// Scoring thresholds, in USD.
const (
	MinLiquidity     = 50_000
	AdequateVolume   = 50_000
	AdequateMcap     = 100_000
	StrongIndicators = 4
)

// Score is the pure, deterministic credibility score of a completed evidence
// record. Fundamentals contribute 60% and sentiment 40% of the blended
// total; hard caps and the strong-indicator gate are applied afterwards.
// The result is always an integer in [1, 100].
func Score(rec *Record) int {
	fundamentals := fundamentalsScore(rec)

	sentiment := NeutralSentiment
	if rec.SentimentScore != nil {
		sentiment = *rec.SentimentScore
	}

	score := 0.6*fundamentals + 0.4*sentiment

	// Hard ceilings, tightest applicable wins.
	if rec.Market.LiquidityUSD != nil && *rec.Market.LiquidityUSD < MinLiquidity && score > 60 {
		score = 60
	}
	if rec.RiskFlagCount() > 0 && score > 40 {
		score = 40
	}
	if rec.MintOrFreezeAuthority() && score > 30 {
		score = 30
	}
	if countStrongIndicators(rec) < StrongIndicators && score > 70 {
		score = 70
	}

	final := int(math.Round(score))
	if final < 1 {
		final = 1
	}
	if final > 100 {
		final = 100
	}
	return final
}

func fundamentalsScore(rec *Record) float64 {
	score := 50.0

	// Liquidity
	switch liq := rec.Market.LiquidityUSD; {
	case liq == nil:
		score -= 20
	case *liq >= 1_000_000:
		score += 15
	case *liq >= 500_000:
		score += 12
	case *liq >= 250_000:
		score += 9
	case *liq >= 100_000:
		score += 6
	case *liq >= MinLiquidity:
		score += 3
	default:
		score -= 15
	}

	// Market cap
	switch mcap := rec.EffectiveMarketCap(); {
	case mcap == nil:
		score -= 8
	case *mcap >= 10_000_000:
		score += 10
	case *mcap >= 1_000_000:
		score += 7
	case *mcap >= AdequateMcap:
		score += 3
	default:
		score -= 5
	}

	// Security posture
	score += securityScore(rec)

	// Social presence breadth
	if n := rec.Profiles.Count(); n > 0 {
		score += float64(n) * 4
	} else {
		score -= 10
	}

	// Volume
	switch vol := rec.Market.Volume24hUSD; {
	case vol == nil:
		score -= 10
	case *vol >= 1_000_000:
		score += 10
	case *vol >= 250_000:
		score += 7
	case *vol >= AdequateVolume:
		score += 4
	case *vol >= 10_000:
		score += 1
	default:
		score -= 8
	}

	if score < 1 {
		score = 1
	}
	if score > 100 {
		score = 100
	}
	return score
}

func securityScore(rec *Record) float64 {
	score := 0.0

	if rec.Security != nil {
		if len(rec.Security.Flags) == 0 {
			score += 10
		} else {
			penalty := float64(rec.Security.CountBySeverity("high"))*6 +
				float64(rec.Security.CountBySeverity("medium"))*3
			if penalty > 25 {
				penalty = 25
			}
			score -= penalty
		}
	} else {
		// The risk provider only covers solana; its structural absence on
		// bnb costs less than an unreachable report does there.
		if rec.Chain == "bnb" {
			score -= 5
		} else {
			score -= 15
		}
	}

	if rec.Fundamentals != nil && rec.Chain == "solana" {
		if rec.Fundamentals.MintAuthority != nil {
			score -= 25
		}
		if rec.Fundamentals.FreezeAuthority != nil {
			score -= 20
		}
		if rec.Fundamentals.MintAuthority == nil && rec.Fundamentals.FreezeAuthority == nil {
			score += 5
		}
	}

	return score
}

// countStrongIndicators counts the independently-positive fundamentals
// conditions that gate scores above 70.
func countStrongIndicators(rec *Record) int {
	n := 0
	if rec.Market.LiquidityUSD != nil && *rec.Market.LiquidityUSD >= MinLiquidity {
		n++
	}
	if rec.RiskFlagCount() == 0 {
		n++
	}
	if !rec.MintOrFreezeAuthority() {
		n++
	}
	if rec.Profiles.Count() >= 1 {
		n++
	}
	if rec.Market.Volume24hUSD != nil && *rec.Market.Volume24hUSD >= AdequateVolume {
		n++
	}
	if mcap := rec.EffectiveMarketCap(); mcap != nil && *mcap >= AdequateMcap {
		n++
	}
	return n
}
