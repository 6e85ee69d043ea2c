// internal/dex/clmm/clmm.go

// Package clmm builds swap_v2 calls against the Raydium concentrated-liquidity AMM.
package clmm

import (
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Protocol account group.
const (
	AccProgram = iota
	AccPoolState
	AccAmmConfig
	AccObservation
	AccBitmapExtension
	AccVault0
	AccVault1
	AccTickArrayLower
	AccTickArrayCurrent
	AccTickArrayUpper
)

var accounts = []dex.AccountSpec{
	AccProgram:          {Name: "program"},
	AccPoolState:        {Name: "pool_state", Writable: true},
	AccAmmConfig:        {Name: "amm_config"},
	AccObservation:      {Name: "observation_state", Writable: true},
	AccBitmapExtension:  {Name: "tick_array_bitmap_extension", Writable: true},
	AccVault0:           {Name: "token_vault_0", Writable: true},
	AccVault1:           {Name: "token_vault_1", Writable: true},
	AccTickArrayLower:   {Name: "tick_array_lower", Writable: true},
	AccTickArrayCurrent: {Name: "tick_array_current", Writable: true},
	AccTickArrayUpper:   {Name: "tick_array_upper", Writable: true},
}

// Adapter implements dex.Adapter for CLMM pools.
type Adapter struct{}

var _ dex.Adapter = Adapter{}

func New() Adapter { return Adapter{} }

func (Adapter) PoolType() dex.PoolType { return dex.PoolCLMM }

func (Adapter) Accounts() []dex.AccountSpec { return accounts }

func (a Adapter) Swap(rt program.Runtime, hop dex.Hop, isBuy, wsolIsToken0 bool) error {
	return dex.Swap(rt, a, hop, isBuy, wsolIsToken0)
}

func (a Adapter) SwapHop3(rt program.Runtime, hop dex.Hop, step dex.Step, orderFlag bool) error {
	return dex.SwapHop3(rt, a, hop, step, orderFlag)
}

// VaultIndexes returns the group indexes of the input and output vaults.
func VaultIndexes(leg dex.Leg) (in, out int) {
	if leg.InputIsFirst {
		return AccVault0, AccVault1
	}
	return AccVault1, AccVault0
}
