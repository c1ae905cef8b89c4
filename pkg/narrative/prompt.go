package narrative

import (
	"fmt"
	"strings"

	"github.com/trustscan/pkg/evidence"
)

// promptContext renders the gathered evidence as a compact text block shared
// by every generation prompt. Missing fields are stated as unavailable so the
// model does not invent them.
func promptContext(rec *evidence.Record) string {
	var b strings.Builder

	name := rec.Name
	if name == "" {
		name = "(unknown)"
	}
	fmt.Fprintf(&b, "TOKEN: %s (%s) on %s, address %s\n", name, symbolOr(rec.Symbol), rec.Chain, rec.Address)

	b.WriteString("MARKET:\n")
	writeUSD(&b, "  price", rec.Market.PriceUSD)
	writeUSD(&b, "  liquidity", rec.Market.LiquidityUSD)
	writeUSD(&b, "  market cap", rec.EffectiveMarketCap())
	writeUSD(&b, "  24h volume", rec.Market.Volume24hUSD)
	if rec.Market.PriceChange24h != nil {
		fmt.Fprintf(&b, "  24h change: %+.1f%%\n", *rec.Market.PriceChange24h)
	}

	if rec.HolderCount != nil {
		fmt.Fprintf(&b, "HOLDERS: %d\n", *rec.HolderCount)
	}

	if rec.Security != nil {
		if len(rec.Security.Flags) == 0 {
			b.WriteString("SECURITY: no risk flags reported\n")
		} else {
			fmt.Fprintf(&b, "SECURITY: %d risk flags\n", len(rec.Security.Flags))
			for _, f := range rec.Security.Flags {
				fmt.Fprintf(&b, "  [%s] %s\n", f.Severity, f.Name)
			}
		}
	}
	if rec.Fundamentals != nil {
		if rec.Fundamentals.MintAuthority != nil {
			b.WriteString("WARNING: mint authority is still active\n")
		}
		if rec.Fundamentals.FreezeAuthority != nil {
			b.WriteString("WARNING: freeze authority is still active\n")
		}
	}

	if !rec.Profiles.Empty() {
		b.WriteString("OFFICIAL LINKS:\n")
		if rec.Profiles.Website != "" {
			fmt.Fprintf(&b, "  website: %s\n", rec.Profiles.Website)
		}
		if rec.Profiles.Twitter != "" {
			fmt.Fprintf(&b, "  twitter: %s\n", rec.Profiles.Twitter)
		}
		if rec.Profiles.Telegram != "" {
			fmt.Fprintf(&b, "  telegram: %s\n", rec.Profiles.Telegram)
		}
	}

	if rec.Social.WebsiteSummary != "" {
		fmt.Fprintf(&b, "WEBSITE TEXT (truncated):\n%s\n", clip(rec.Social.WebsiteSummary, 1500))
	}

	posts := rec.Social.TopPosts(8)
	if len(posts) > 0 {
		fmt.Fprintf(&b, "TOP SOCIAL POSTS (%d of %d gathered):\n", len(posts), len(rec.Social.AllPosts()))
		for _, p := range posts {
			fmt.Fprintf(&b, "  @%s (%d likes, %d RTs): %s\n", p.Author, p.Likes, p.Retweets, clip(p.Text, 200))
		}
	} else {
		b.WriteString("SOCIAL: no posts found\n")
	}

	if rec.SentimentScore != nil {
		fmt.Fprintf(&b, "SENTIMENT SCORE: %.0f/100\n", *rec.SentimentScore)
	}

	return b.String()
}

func writeUSD(b *strings.Builder, label string, v *float64) {
	if v == nil {
		fmt.Fprintf(b, "%s: unavailable\n", label)
		return
	}
	fmt.Fprintf(b, "%s: $%.2f\n", label, *v)
}

func symbolOr(sym string) string {
	if sym == "" {
		return "?"
	}
	return sym
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
