// ==========================================
// File: internal/dex/types.go
// ==========================================
package dex

import (
	"fmt"
	"math"
	"strings"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// PoolType is the one-byte protocol tag carried in the swap payload.
type PoolType uint8

const (
	PoolCPMM PoolType = iota
	PoolDLMM
	PoolDAMMv2
	PoolPump
	PoolRaydium
	PoolCLMM
	PoolWhirlpool
)

// Number of protocol accounts each adapter consumes.
const (
	CPMMAccountCount      = 7
	DLMMAccountCount      = 9
	DAMMv2AccountCount    = 6
	PumpAccountCount      = 16
	RaydiumAccountCount   = 5
	CLMMAccountCount      = 10
	WhirlpoolAccountCount = 8
)

// InvalidAccountCount is returned for unknown tags. No transaction can carry
// this many accounts, so a partition sized with it always fails.
const InvalidAccountCount = math.MaxInt32

var accountCounts = [...]int{
	PoolCPMM:      CPMMAccountCount,
	PoolDLMM:      DLMMAccountCount,
	PoolDAMMv2:    DAMMv2AccountCount,
	PoolPump:      PumpAccountCount,
	PoolRaydium:   RaydiumAccountCount,
	PoolCLMM:      CLMMAccountCount,
	PoolWhirlpool: WhirlpoolAccountCount,
}

var poolNames = [...]string{
	PoolCPMM:      "cpmm",
	PoolDLMM:      "dlmm",
	PoolDAMMv2:    "dammv2",
	PoolPump:      "pump",
	PoolRaydium:   "raydium",
	PoolCLMM:      "clmm",
	PoolWhirlpool: "whirlpool",
}

// AccountsRequired returns the protocol account count for tag, or
// InvalidAccountCount when tag is not a known pool type.
func AccountsRequired(tag uint8) int {
	if int(tag) >= len(accountCounts) {
		return InvalidAccountCount
	}
	return accountCounts[tag]
}

// Lookup validates tag.
func Lookup(tag uint8) (PoolType, error) {
	if int(tag) >= len(accountCounts) {
		return 0, program.ErrUnsupportedPoolType
	}
	return PoolType(tag), nil
}

// ParsePoolType accepts a protocol name as used in route configs.
func ParsePoolType(name string) (PoolType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range poolNames {
		if n == name {
			return PoolType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", program.ErrUnsupportedPoolType, name)
}

// AccountCount returns the number of protocol accounts for p.
func (p PoolType) AccountCount() int {
	return AccountsRequired(uint8(p))
}

func (p PoolType) String() string {
	if int(p) < len(poolNames) {
		return poolNames[p]
	}
	return fmt.Sprintf("pool(%d)", uint8(p))
}

// Valid reports whether p is a known pool type.
func (p PoolType) Valid() bool {
	return int(p) < len(accountCounts)
}

// AccountSpec names one protocol account and whether the swap writes to it.
type AccountSpec struct {
	Name     string
	Writable bool
}
