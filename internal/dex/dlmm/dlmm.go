// internal/dex/dlmm/dlmm.go

// Package dlmm builds swaps against the Meteora DLMM bin-liquidity program.
package dlmm

import (
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Protocol account group. The program account doubles as the "none"
// placeholder for the optional bitmap extension and host fee accounts.
const (
	AccProgram = iota
	AccEventAuthority
	AccOracle
	AccLbPair
	AccReserveX
	AccReserveY
	AccBinArrayLower
	AccBinArrayCurrent
	AccBinArrayUpper
)

var accounts = []dex.AccountSpec{
	AccProgram:         {Name: "program"},
	AccEventAuthority:  {Name: "event_authority"},
	AccOracle:          {Name: "oracle", Writable: true},
	AccLbPair:          {Name: "lb_pair", Writable: true},
	AccReserveX:        {Name: "reserve_x", Writable: true},
	AccReserveY:        {Name: "reserve_y", Writable: true},
	AccBinArrayLower:   {Name: "bin_array_lower", Writable: true},
	AccBinArrayCurrent: {Name: "bin_array_current", Writable: true},
	AccBinArrayUpper:   {Name: "bin_array_upper", Writable: true},
}

// Adapter implements dex.Adapter for DLMM pairs.
type Adapter struct{}

var _ dex.Adapter = Adapter{}

func New() Adapter { return Adapter{} }

func (Adapter) PoolType() dex.PoolType { return dex.PoolDLMM }

func (Adapter) Accounts() []dex.AccountSpec { return accounts }

func (a Adapter) Swap(rt program.Runtime, hop dex.Hop, isBuy, wsolIsX bool) error {
	return dex.Swap(rt, a, hop, isBuy, wsolIsX)
}

func (a Adapter) SwapHop3(rt program.Runtime, hop dex.Hop, step dex.Step, orderFlag bool) error {
	return dex.SwapHop3(rt, a, hop, step, orderFlag)
}
