// internal/dex/dammv2/dammv2.go

// Package dammv2 builds swaps against Meteora DAMM v2 (cp-amm) pools.
package dammv2

import (
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Protocol account group.
const (
	AccProgram = iota
	AccEventAuthority
	AccPoolAuthority
	AccPool
	AccVaultA
	AccVaultB
)

var accounts = []dex.AccountSpec{
	AccProgram:        {Name: "program"},
	AccEventAuthority: {Name: "event_authority"},
	AccPoolAuthority:  {Name: "pool_authority"},
	AccPool:           {Name: "pool", Writable: true},
	AccVaultA:         {Name: "token_a_vault", Writable: true},
	AccVaultB:         {Name: "token_b_vault", Writable: true},
}

// Adapter implements dex.Adapter for DAMM v2 pools.
type Adapter struct{}

var _ dex.Adapter = Adapter{}

func New() Adapter { return Adapter{} }

func (Adapter) PoolType() dex.PoolType { return dex.PoolDAMMv2 }

func (Adapter) Accounts() []dex.AccountSpec { return accounts }

func (a Adapter) Swap(rt program.Runtime, hop dex.Hop, isBuy, wsolIsTokenA bool) error {
	return dex.Swap(rt, a, hop, isBuy, wsolIsTokenA)
}

func (a Adapter) SwapHop3(rt program.Runtime, hop dex.Hop, step dex.Step, orderFlag bool) error {
	return dex.SwapHop3(rt, a, hop, step, orderFlag)
}
