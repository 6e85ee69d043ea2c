// =============================
// File: internal/dex/cpmm/cpmm.go
// =============================

// Package cpmm builds swaps against the Raydium constant-product AMM.
package cpmm

import (
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Protocol account group.
const (
	AccProgram = iota
	AccAuthority
	AccAmmConfig
	AccObservation
	AccPoolState
	AccVault0
	AccVault1
)

var accounts = []dex.AccountSpec{
	AccProgram:     {Name: "program"},
	AccAuthority:   {Name: "authority"},
	AccAmmConfig:   {Name: "amm_config"},
	AccObservation: {Name: "observation_state", Writable: true},
	AccPoolState:   {Name: "pool_state", Writable: true},
	AccVault0:      {Name: "token_0_vault", Writable: true},
	AccVault1:      {Name: "token_1_vault", Writable: true},
}

// Adapter implements dex.Adapter for CPMM pools.
type Adapter struct{}

var _ dex.Adapter = Adapter{}

// New returns the CPMM adapter.
func New() Adapter { return Adapter{} }

func (Adapter) PoolType() dex.PoolType { return dex.PoolCPMM }

func (Adapter) Accounts() []dex.AccountSpec { return accounts }

func (a Adapter) Swap(rt program.Runtime, hop dex.Hop, isBuy, wsolIsToken0 bool) error {
	return dex.Swap(rt, a, hop, isBuy, wsolIsToken0)
}

func (a Adapter) SwapHop3(rt program.Runtime, hop dex.Hop, step dex.Step, orderFlag bool) error {
	return dex.SwapHop3(rt, a, hop, step, orderFlag)
}

// Vaults returns the pool vaults for the input and output side of leg.
func Vaults(accs []*program.AccountInfo, leg dex.Leg) (in, out *program.AccountInfo) {
	if leg.InputIsFirst {
		return accs[AccVault0], accs[AccVault1]
	}
	return accs[AccVault1], accs[AccVault0]
}
