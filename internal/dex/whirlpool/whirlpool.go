// internal/dex/whirlpool/whirlpool.go

// Package whirlpool builds swap_v2 calls against Orca Whirlpools.
package whirlpool

import (
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Protocol account group.
const (
	AccProgram = iota
	AccWhirlpool
	AccOracle
	AccVaultA
	AccVaultB
	AccTickArray0
	AccTickArray1
	AccTickArray2
)

var accounts = []dex.AccountSpec{
	AccProgram:    {Name: "program"},
	AccWhirlpool:  {Name: "whirlpool", Writable: true},
	AccOracle:     {Name: "oracle", Writable: true},
	AccVaultA:     {Name: "token_vault_a", Writable: true},
	AccVaultB:     {Name: "token_vault_b", Writable: true},
	AccTickArray0: {Name: "tick_array_0", Writable: true},
	AccTickArray1: {Name: "tick_array_1", Writable: true},
	AccTickArray2: {Name: "tick_array_2", Writable: true},
}

// Adapter implements dex.Adapter for Whirlpools.
type Adapter struct{}

var _ dex.Adapter = Adapter{}

func New() Adapter { return Adapter{} }

func (Adapter) PoolType() dex.PoolType { return dex.PoolWhirlpool }

func (Adapter) Accounts() []dex.AccountSpec { return accounts }

func (a Adapter) Swap(rt program.Runtime, hop dex.Hop, isBuy, wsolIsTokenA bool) error {
	return dex.Swap(rt, a, hop, isBuy, wsolIsTokenA)
}

func (a Adapter) SwapHop3(rt program.Runtime, hop dex.Hop, step dex.Step, orderFlag bool) error {
	return dex.SwapHop3(rt, a, hop, step, orderFlag)
}
