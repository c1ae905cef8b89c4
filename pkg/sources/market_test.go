package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustscan/pkg/config"
)

func testConfig(base string) *config.Config {
	return &config.Config{
		DexScreenerAPI:  base,
		RugCheckAPI:     base,
		SolscanAPI:      base,
		SolscanAPIKey:   "test-key",
		SolanaRPCURL:    base,
		NitterInstances: []string{base},
		PumpFunMirrors:  []string{base},
		MarketTimeout:   500 * time.Millisecond,
		SecurityTimeout: 500 * time.Millisecond,
		ChainTimeout:    500 * time.Millisecond,
		SocialTimeout:   500 * time.Millisecond,
		WebsiteTimeout:  500 * time.Millisecond,
	}
}

const dexScreenerPayload = `{
	"pairs": [
		{
			"priceUsd": "0.5",
			"volume": {"h24": 1000},
			"liquidity": {"usd": 5000},
			"priceChange": {"h24": -2.5},
			"marketCap": 90000,
			"baseToken": {"name": "Shallow", "symbol": "SHLW"}
		},
		{
			"priceUsd": "1.25",
			"volume": {"h24": 1500000},
			"liquidity": {"usd": 2000000},
			"priceChange": {"h24": 4.2},
			"marketCap": 5000000,
			"baseToken": {"name": "Sample", "symbol": "SMPL"},
			"info": {
				"websites": [{"url": "https://sample.io"}],
				"socials": [
					{"type": "twitter", "url": "https://x.com/sample"},
					{"type": "telegram", "url": "https://t.me/sample"}
				]
			}
		}
	]
}`

func TestMarketPicksHighestLiquidityPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/latest/dex/tokens/")
		w.Write([]byte(dexScreenerPayload))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	got := c.Market(context.Background(), "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NotNil(t, got)

	assert.Equal(t, "Sample", got.Name)
	assert.Equal(t, "SMPL", got.Symbol)
	assert.Equal(t, 1.25, *got.Market.PriceUSD)
	assert.Equal(t, 2_000_000.0, *got.Market.LiquidityUSD)
	assert.Equal(t, 5_000_000.0, *got.Market.MarketCapUSD)
	assert.Equal(t, "https://sample.io", got.Profiles.Website)
	assert.Equal(t, "https://x.com/sample", got.Profiles.Twitter)
	assert.Equal(t, "https://t.me/sample", got.Profiles.Telegram)
}

func TestMarketAbsorbsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	assert.Nil(t, c.Market(context.Background(), "whatever"))
}

func TestMarketTimeoutBehavesLikeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte(dexScreenerPayload))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	assert.Nil(t, c.Market(context.Background(), "whatever"))
}

func TestMarketEmptyPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": []}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	assert.Nil(t, c.Market(context.Background(), "whatever"))
}
