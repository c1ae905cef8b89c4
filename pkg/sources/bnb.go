package sources

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/chain"
	"github.com/trustscan/pkg/evidence"
)

const erc20ABI = `[
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

var erc20 = mustABI(erc20ABI)

func mustABI(src string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	return parsed
}

// BNBFundamentals reads totalSupply and decimals from the BEP-20 contract.
// BNB tokens have no mint/freeze authority concept, so those fields stay
// nil. Returns nil on any failure.
func (c *Client) BNBFundamentals(ctx context.Context, addr string) *evidence.Fundamentals {
	if c.eth == nil || !common.IsHexAddress(addr) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ChainTimeout)
	defer cancel()

	contract := common.HexToAddress(addr)

	supply, err := c.callUint256(ctx, contract, "totalSupply")
	if err != nil {
		log.Debug().Err(err).Str("addr", chain.Abbrev(addr)).Msg("totalSupply call failed")
		return nil
	}

	f := &evidence.Fundamentals{Supply: supply.String()}
	if decimals, err := c.callUint256(ctx, contract, "decimals"); err == nil {
		f.Decimals = evidence.Int(int(decimals.Int64()))
	}
	return f
}

func (c *Client) callUint256(ctx context.Context, contract common.Address, method string) (*big.Int, error) {
	data, err := erc20.Pack(method)
	if err != nil {
		return nil, err
	}
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	vals, err := erc20.Unpack(method, out)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s returned nothing", method)
	}
	switch v := vals[0].(type) {
	case *big.Int:
		return v, nil
	case uint8:
		return big.NewInt(int64(v)), nil
	default:
		return nil, fmt.Errorf("unexpected %T from %s", vals[0], method)
	}
}
