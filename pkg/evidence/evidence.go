package evidence

import (
	"math/big"
	"sort"
	"time"

	"github.com/trustscan/pkg/chain"
)

// Record is the accumulating state for one scan. Every field a source
// supplies is independently optional; a failed connector leaves its fields
// nil/empty and the rest of the pipeline carries on.
type Record struct {
	Address string      `json:"address"`
	Chain   chain.Chain `json:"chain"`

	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`

	Market       Market        `json:"market"`
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	Security     *Security     `json:"security,omitempty"`
	Profiles     Profiles      `json:"profiles"`
	Social       Social        `json:"social"`

	// HolderCount is reconciled from whichever source reported it first.
	HolderCount *int64 `json:"holder_count,omitempty"`

	// SentimentScore is 0-100, nil only when no source produced any signal.
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	// TokenScore is the final 1-100 credibility score.
	TokenScore int `json:"token_score"`
}

type Market struct {
	PriceUSD       *float64 `json:"price_usd,omitempty"`
	Volume24hUSD   *float64 `json:"volume_24h_usd,omitempty"`
	LiquidityUSD   *float64 `json:"liquidity_usd,omitempty"`
	PriceChange24h *float64 `json:"price_change_24h,omitempty"`
	MarketCapUSD   *float64 `json:"market_cap_usd,omitempty"`
}

// Fundamentals holds chain-level token facts. Supply is kept as the raw
// integer string from the chain; decimals scaling happens only when the
// market cap display value is derived. Authority pointers are solana-only
// concepts and stay nil on bnb.
type Fundamentals struct {
	Supply          string  `json:"supply,omitempty"`
	Decimals        *int    `json:"decimals,omitempty"`
	MintAuthority   *string `json:"mint_authority,omitempty"`
	FreezeAuthority *string `json:"freeze_authority,omitempty"`
	HolderCount     *int64  `json:"holder_count,omitempty"`
}

type RiskFlag struct {
	Name        string `json:"name"`
	Severity    string `json:"severity"` // "high","medium","low"
	Description string `json:"description,omitempty"`
}

// Security is the risk provider's report. A nil *Security on the Record
// means the provider was unreachable or does not cover the chain at all.
type Security struct {
	Flags       []RiskFlag `json:"flags"`
	HolderCount *int64     `json:"holder_count,omitempty"`
}

func (s *Security) CountBySeverity(sev string) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, f := range s.Flags {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

type Profiles struct {
	Website  string `json:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
}

func (p Profiles) Count() int {
	n := 0
	for _, u := range []string{p.Website, p.Twitter, p.Telegram} {
		if u != "" {
			n++
		}
	}
	return n
}

func (p Profiles) Empty() bool { return p.Count() == 0 }

type Post struct {
	ID       string    `json:"id,omitempty"`
	Author   string    `json:"author,omitempty"`
	Text     string    `json:"text"`
	Likes    int       `json:"likes"`
	Retweets int       `json:"retweets"`
	PostedAt time.Time `json:"posted_at,omitempty"`
}

// Engagement weighs retweets double: a repost spreads further than a like.
func (p Post) Engagement() int { return p.Likes + 2*p.Retweets }

type Social struct {
	WebsiteSummary string `json:"website_summary,omitempty"`
	TickerPosts    []Post `json:"ticker_posts,omitempty"`
	ProfilePosts   []Post `json:"profile_posts,omitempty"`
}

// AllPosts merges ticker-search and profile posts.
func (s Social) AllPosts() []Post {
	out := make([]Post, 0, len(s.TickerPosts)+len(s.ProfilePosts))
	out = append(out, s.TickerPosts...)
	out = append(out, s.ProfilePosts...)
	return out
}

// TopPosts returns up to n posts sorted by engagement, highest first.
func (s Social) TopPosts(n int) []Post {
	posts := s.AllPosts()
	sort.Slice(posts, func(i, j int) bool { return posts[i].Engagement() > posts[j].Engagement() })
	if len(posts) > n {
		posts = posts[:n]
	}
	return posts
}

// MintOrFreezeAuthority reports whether either authority is still assigned.
func (r *Record) MintOrFreezeAuthority() bool {
	if r.Fundamentals == nil {
		return false
	}
	return r.Fundamentals.MintAuthority != nil || r.Fundamentals.FreezeAuthority != nil
}

// RiskFlagCount counts known risk flags; zero when no report exists.
func (r *Record) RiskFlagCount() int {
	if r.Security == nil {
		return 0
	}
	return len(r.Security.Flags)
}

// EffectiveMarketCap prefers the directly reported market cap and falls back
// to price x scaled supply.
func (r *Record) EffectiveMarketCap() *float64 {
	if r.Market.MarketCapUSD != nil {
		return r.Market.MarketCapUSD
	}
	if r.Market.PriceUSD == nil || r.Fundamentals == nil || r.Fundamentals.Supply == "" {
		return nil
	}
	decimals := chain.DefaultDecimals(r.Chain)
	if r.Fundamentals.Decimals != nil {
		decimals = *r.Fundamentals.Decimals
	}
	return MarketCap(*r.Market.PriceUSD, r.Fundamentals.Supply, decimals)
}

// MarketCap computes price x (supply / 10^decimals). Supply is parsed as an
// arbitrary-precision integer so large raw supplies survive the scaling;
// the result becomes a float only at the end.
func MarketCap(priceUSD float64, rawSupply string, decimals int) *float64 {
	supply, ok := new(big.Int).SetString(rawSupply, 10)
	if !ok || supply.Sign() < 0 || priceUSD <= 0 {
		return nil
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	units := new(big.Float).Quo(new(big.Float).SetInt(supply), new(big.Float).SetInt(scale))
	cap, _ := new(big.Float).Mul(units, big.NewFloat(priceUSD)).Float64()
	return &cap
}

func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func Int64(v int64) *int64     { return &v }
func Str(v string) *string     { return &v }
