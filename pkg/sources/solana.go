package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/chain"
	"github.com/trustscan/pkg/evidence"
)

// SolanaFundamentals reads the mint account and decodes supply, decimals,
// and the mint/freeze authority flags. Returns nil on any failure.
func (c *Client) SolanaFundamentals(ctx context.Context, mint string) *evidence.Fundamentals {
	pubkey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ChainTimeout)
	defer cancel()

	info, err := c.sol.GetAccountInfo(ctx, pubkey)
	if err != nil || info.Value == nil {
		log.Debug().Err(err).Str("mint", chain.Abbrev(mint)).Msg("mint account fetch failed")
		return nil
	}

	var m token.Mint
	if err := bin.NewBinDecoder(info.Value.Data.GetBinary()).Decode(&m); err != nil {
		log.Debug().Err(err).Str("mint", chain.Abbrev(mint)).Msg("mint account decode failed")
		return nil
	}

	f := &evidence.Fundamentals{
		Supply:   strconv.FormatUint(m.Supply, 10),
		Decimals: evidence.Int(int(m.Decimals)),
	}
	if m.MintAuthority != nil {
		f.MintAuthority = evidence.Str(m.MintAuthority.String())
	}
	if m.FreezeAuthority != nil {
		f.FreezeAuthority = evidence.Str(m.FreezeAuthority.String())
	}
	return f
}

// HolderCount asks Solscan for the holder total, the second of the two
// holder-count sources. Needs an API key; absent one the connector simply
// reports nothing.
func (c *Client) HolderCount(ctx context.Context, mint string) *int64 {
	if c.cfg.SolscanAPIKey == "" {
		return nil
	}

	url := fmt.Sprintf("%s/token/meta?address=%s", c.cfg.SolscanAPI, mint)
	body, err := c.get(ctx, url, c.cfg.ChainTimeout, map[string]string{"token": c.cfg.SolscanAPIKey})
	if err != nil {
		log.Debug().Err(err).Str("mint", chain.Abbrev(mint)).Msg("holder count fetch failed")
		return nil
	}

	var result struct {
		Data struct {
			Holder *int64 `json:"holder"`
		} `json:"data"`
	}
	if json.Unmarshal(body, &result) != nil {
		return nil
	}
	return result.Data.Holder
}
