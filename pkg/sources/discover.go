package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/chain"
	"github.com/trustscan/pkg/evidence"
)

// DiscoverProfiles is the best-effort secondary website-discovery lookup
// for solana tokens that carried no profile links in their market data. The
// launchpad's coin endpoint is raced across mirrors; when nothing turns up
// the zero Profiles value comes back and the scan proceeds without links.
func (c *Client) DiscoverProfiles(ctx context.Context, mint string) evidence.Profiles {
	profiles, ok := race(ctx, c.cfg.PumpFunMirrors, func(ctx context.Context, mirror string) (evidence.Profiles, error) {
		return c.fetchCoinProfiles(ctx, fmt.Sprintf("%s/coins/%s", mirror, mint))
	}, func(p evidence.Profiles) bool { return !p.Empty() })
	if !ok {
		log.Debug().Str("mint", chain.Abbrev(mint)).Msg("secondary profile discovery found nothing")
		return evidence.Profiles{}
	}
	return profiles
}

func (c *Client) fetchCoinProfiles(ctx context.Context, url string) (evidence.Profiles, error) {
	body, err := c.get(ctx, url, c.cfg.SocialTimeout, nil)
	if err != nil {
		return evidence.Profiles{}, err
	}

	var coin struct {
		Website  string `json:"website"`
		Twitter  string `json:"twitter"`
		Telegram string `json:"telegram"`
	}
	if err := json.Unmarshal(body, &coin); err != nil {
		return evidence.Profiles{}, err
	}
	return evidence.Profiles{Website: coin.Website, Twitter: coin.Twitter, Telegram: coin.Telegram}, nil
}
