package chain

import (
	"regexp"
	"strings"

	"github.com/mr-tron/base58"
)

type Chain string

const (
	Solana       Chain = "solana"
	BNB          Chain = "bnb"
	Unrecognized Chain = "unrecognized"
)

var (
	evmAddrRe    = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	solanaAddrRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// Classify maps a raw contract address string to its chain. The two address
// forms are mutually exclusive: 0x-prefixed 40-hex-digit strings are BNB,
// base-58 strings of 32-44 chars that decode to a 32-byte key are Solana.
// Anything else is Unrecognized.
func Classify(addr string) Chain {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Unrecognized
	}
	if evmAddrRe.MatchString(addr) {
		return BNB
	}
	if solanaAddrRe.MatchString(addr) {
		raw, err := base58.Decode(addr)
		if err == nil && len(raw) == 32 {
			return Solana
		}
	}
	return Unrecognized
}

// Known reports whether the address belongs to a supported chain.
func Known(c Chain) bool {
	return c == Solana || c == BNB
}

// DefaultDecimals is the decimals exponent assumed when a fundamentals
// source did not report one: 18 for the EVM family, 9 for Solana.
func DefaultDecimals(c Chain) int {
	if c == BNB {
		return 18
	}
	return 9
}

// Abbrev shortens an address for log output.
func Abbrev(addr string) string {
	if len(addr) > 12 {
		return addr[:6] + "..." + addr[len(addr)-4:]
	}
	return addr
}
