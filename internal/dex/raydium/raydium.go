// internal/dex/raydium/raydium.go

// Package raydium builds swaps against the Raydium legacy AMM v4.
package raydium

import (
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Protocol account group. The AMM account also stands in for every OpenBook
// market account, which AMM v4 no longer reads.
const (
	AccProgram = iota
	AccAuthority
	AccAmm
	AccCoinVault
	AccPcVault
)

var accounts = []dex.AccountSpec{
	AccProgram:   {Name: "program"},
	AccAuthority: {Name: "amm_authority"},
	AccAmm:       {Name: "amm", Writable: true},
	AccCoinVault: {Name: "pool_coin_token_account", Writable: true},
	AccPcVault:   {Name: "pool_pc_token_account", Writable: true},
}

// Adapter implements dex.Adapter for AMM v4 pools.
type Adapter struct{}

var _ dex.Adapter = Adapter{}

func New() Adapter { return Adapter{} }

func (Adapter) PoolType() dex.PoolType { return dex.PoolRaydium }

func (Adapter) Accounts() []dex.AccountSpec { return accounts }

// Swap ignores the order flag: AMM v4 infers direction from the user accounts.
func (a Adapter) Swap(rt program.Runtime, hop dex.Hop, isBuy, wsolIsCoin bool) error {
	return dex.Swap(rt, a, hop, isBuy, wsolIsCoin)
}

func (a Adapter) SwapHop3(rt program.Runtime, hop dex.Hop, step dex.Step, orderFlag bool) error {
	return dex.SwapHop3(rt, a, hop, step, orderFlag)
}
