package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/chain"
	"github.com/trustscan/pkg/evidence"
)

// MarketResult is the market-data connector's normalized output: the same
// optional field set regardless of what the upstream pair schema carried.
type MarketResult struct {
	Name     string
	Symbol   string
	Market   evidence.Market
	Profiles evidence.Profiles
}

// Market fetches price, volume, liquidity, 24h change, market cap, and the
// token's social profile links from DexScreener. The highest-liquidity pair
// wins. Returns nil on any failure.
func (c *Client) Market(ctx context.Context, addr string) *MarketResult {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.cfg.DexScreenerAPI, addr)
	body, err := c.get(ctx, url, c.cfg.MarketTimeout, nil)
	if err != nil {
		log.Debug().Err(err).Str("addr", chain.Abbrev(addr)).Msg("market fetch failed")
		return nil
	}

	var result struct {
		Pairs []struct {
			PriceUSD  string `json:"priceUsd"`
			Volume    struct {
				H24 *float64 `json:"h24"`
			} `json:"volume"`
			Liquidity struct {
				USD *float64 `json:"usd"`
			} `json:"liquidity"`
			PriceChange struct {
				H24 *float64 `json:"h24"`
			} `json:"priceChange"`
			MarketCap *float64 `json:"marketCap"`
			FDV       *float64 `json:"fdv"`
			BaseToken struct {
				Name   string `json:"name"`
				Symbol string `json:"symbol"`
			} `json:"baseToken"`
			Info struct {
				Websites []struct {
					URL string `json:"url"`
				} `json:"websites"`
				Socials []struct {
					Type string `json:"type"`
					URL  string `json:"url"`
				} `json:"socials"`
			} `json:"info"`
		} `json:"pairs"`
	}
	if json.Unmarshal(body, &result) != nil || len(result.Pairs) == 0 {
		return nil
	}

	// Pick highest liquidity pair
	best := 0
	bestLiq := -1.0
	for i, p := range result.Pairs {
		if p.Liquidity.USD != nil && *p.Liquidity.USD > bestLiq {
			best, bestLiq = i, *p.Liquidity.USD
		}
	}
	pair := result.Pairs[best]

	out := &MarketResult{
		Name:   pair.BaseToken.Name,
		Symbol: pair.BaseToken.Symbol,
		Market: evidence.Market{
			Volume24hUSD:   pair.Volume.H24,
			LiquidityUSD:   pair.Liquidity.USD,
			PriceChange24h: pair.PriceChange.H24,
		},
	}
	if price, err := strconv.ParseFloat(pair.PriceUSD, 64); err == nil && price > 0 {
		out.Market.PriceUSD = &price
	}
	if pair.MarketCap != nil {
		out.Market.MarketCapUSD = pair.MarketCap
	} else if pair.FDV != nil {
		out.Market.MarketCapUSD = pair.FDV
	}

	if len(pair.Info.Websites) > 0 {
		out.Profiles.Website = pair.Info.Websites[0].URL
	}
	for _, s := range pair.Info.Socials {
		switch strings.ToLower(s.Type) {
		case "twitter", "x":
			if out.Profiles.Twitter == "" {
				out.Profiles.Twitter = s.URL
			}
		case "telegram":
			if out.Profiles.Telegram == "" {
				out.Profiles.Telegram = s.URL
			}
		}
	}

	return out
}
