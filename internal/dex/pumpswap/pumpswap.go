// =============================
// File: internal/dex/pumpswap/pumpswap.go
// =============================

// Package pumpswap builds buy and sell calls against the Pump AMM.
package pumpswap

import (
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Protocol account group.
const (
	AccProgram = iota
	AccPool
	AccGlobalConfig
	AccEventAuthority
	AccCoinCreatorVaultATA
	AccCoinCreatorVaultAuthority
	AccProtocolFeeRecipient
	AccProtocolFeeRecipientATA
	AccGlobalVolumeAccumulator
	AccUserVolumeAccumulator
	AccSystemProgram
	AccAssociatedTokenProgram
	AccPoolBaseVault
	AccPoolQuoteVault
	AccFeeConfig
	AccFeeProgram
)

var accounts = []dex.AccountSpec{
	AccProgram:                   {Name: "program"},
	AccPool:                      {Name: "pool"},
	AccGlobalConfig:              {Name: "global_config"},
	AccEventAuthority:            {Name: "event_authority"},
	AccCoinCreatorVaultATA:       {Name: "coin_creator_vault_ata", Writable: true},
	AccCoinCreatorVaultAuthority: {Name: "coin_creator_vault_authority"},
	AccProtocolFeeRecipient:      {Name: "protocol_fee_recipient"},
	AccProtocolFeeRecipientATA:   {Name: "protocol_fee_recipient_token_account", Writable: true},
	AccGlobalVolumeAccumulator:   {Name: "global_volume_accumulator", Writable: true},
	AccUserVolumeAccumulator:     {Name: "user_volume_accumulator", Writable: true},
	AccSystemProgram:             {Name: "system_program"},
	AccAssociatedTokenProgram:    {Name: "associated_token_program"},
	AccPoolBaseVault:             {Name: "pool_base_token_account", Writable: true},
	AccPoolQuoteVault:            {Name: "pool_quote_token_account", Writable: true},
	AccFeeConfig:                 {Name: "fee_config"},
	AccFeeProgram:                {Name: "fee_program"},
}

// Adapter implements dex.Adapter for Pump AMM pools.
type Adapter struct{}

var _ dex.Adapter = Adapter{}

func New() Adapter { return Adapter{} }

func (Adapter) PoolType() dex.PoolType { return dex.PoolPump }

func (Adapter) Accounts() []dex.AccountSpec { return accounts }

func (a Adapter) Swap(rt program.Runtime, hop dex.Hop, isBuy, wsolIsBase bool) error {
	return dex.Swap(rt, a, hop, isBuy, wsolIsBase)
}

// SwapHop3 rejects step 2: every Pump pool pairs a token with the reference
// asset, so a token-to-token hop cannot be routed through it.
func (a Adapter) SwapHop3(rt program.Runtime, hop dex.Hop, step dex.Step, orderFlag bool) error {
	if step == dex.Step2 {
		return program.ErrPumpNotSupported
	}
	return dex.SwapHop3(rt, a, hop, step, orderFlag)
}
