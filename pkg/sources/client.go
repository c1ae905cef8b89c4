package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gagliardetto/solana-go/rpc"
	twitterscraper "github.com/imperatrona/twitter-scraper"
	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/config"
)

// Client bundles one configured client per external dependency. Constructed
// once at startup and reused across scans; all methods are stateless and
// safe for concurrent use. Every connector absorbs its own failures and
// returns an absence value instead of an error.
type Client struct {
	cfg     *config.Config
	http    *http.Client
	sol     *rpc.Client
	eth     *ethclient.Client
	scraper *twitterscraper.Scraper
}

func New(cfg *config.Config) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		sol:  rpc.New(cfg.SolanaRPCURL),
	}

	eth, err := ethclient.Dial(cfg.BSCRPCURL)
	if err != nil {
		log.Warn().Err(err).Msg("bsc rpc unavailable, bnb fundamentals disabled")
	} else {
		c.eth = eth
	}

	if cfg.TwitterAuthToken != "" && cfg.TwitterCSRFToken != "" {
		s := twitterscraper.New()
		s.SetAuthToken(twitterscraper.AuthToken{Token: cfg.TwitterAuthToken, CSRFToken: cfg.TwitterCSRFToken})
		if s.IsLoggedIn() {
			c.scraper = s
			log.Info().Msg("🐦 authenticated X session active")
		} else {
			log.Warn().Msg("X cookies rejected, falling back to public mirrors")
		}
	}

	return c
}

// get issues one bounded GET and returns the body, or an error for any
// non-200 status.
func (c *Client) get(ctx context.Context, url string, timeout time.Duration, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10MB max
}
