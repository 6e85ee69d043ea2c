// =============================
// File: internal/dex/pumpswap/instructions.go
// =============================
package pumpswap

import (
	"encoding/binary"
	"math"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Instruction discriminators extracted from the IDL
var (
	buyDiscriminator  = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
	sellDiscriminator = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}
)

const (
	// SwapDataSize is 8 bytes discriminator + 8 bytes amount1 + 8 bytes amount2.
	SwapDataSize = 24

	buyMetas  = 23
	sellMetas = 21
)

// Side is the Pump instruction selected for a leg.
type Side uint8

const (
	// SideSell spends base and receives quote.
	SideSell Side = iota
	// SideBuy receives an exact base amount, paying quote.
	SideBuy
)

// SideFor returns the Pump instruction for leg: spending base is a sell,
// spending quote is a buy.
func SideFor(leg dex.Leg) Side {
	if leg.InputIsFirst {
		return SideSell
	}
	return SideBuy
}

// swapData encodes the instruction data.
// For buy: amount1 = base_amount_out, amount2 = max_quote_amount_in (unbounded).
// For sell: amount1 = base_amount_in, amount2 = min_quote_amount_out (zero).
func swapData(side Side, amount uint64) []byte {
	var data [SwapDataSize]byte
	if side == SideBuy {
		copy(data[0:8], buyDiscriminator[:])
		binary.LittleEndian.PutUint64(data[16:24], math.MaxUint64)
	} else {
		copy(data[0:8], sellDiscriminator[:])
	}
	binary.LittleEndian.PutUint64(data[8:16], amount)
	return data[:]
}

// Build assembles buy or sell for leg. Base is the pool's first asset. A buy
// is denominated in output units, so it takes hop.BaseAmountOut rather than
// hop.AmountIn.
func (Adapter) Build(hop dex.Hop, leg dex.Leg) (*dex.Call, error) {
	if leg.Kind == dex.LegMid {
		return nil, program.ErrPumpNotSupported
	}
	accs := hop.Accounts
	base, quote := leg.First(), leg.Second()
	side := SideFor(leg)

	amount, metas := hop.AmountIn, sellMetas
	if side == SideBuy {
		amount, metas = hop.BaseAmountOut, buyMetas
	}

	call := dex.NewCall(accs[AccProgram].Key, swapData(side, amount), metas)
	call.Readonly(accs[AccPool]).
		WritableSigner(hop.Header.Payer()).
		Readonly(accs[AccGlobalConfig]).
		Readonly(base.Mint).
		Readonly(quote.Mint).
		Writable(base.Account).
		Writable(quote.Account).
		Writable(accs[AccPoolBaseVault]).
		Writable(accs[AccPoolQuoteVault]).
		Readonly(accs[AccProtocolFeeRecipient]).
		Writable(accs[AccProtocolFeeRecipientATA]).
		Readonly(base.Program).
		Readonly(quote.Program).
		Readonly(accs[AccSystemProgram]).
		Readonly(accs[AccAssociatedTokenProgram]).
		Readonly(accs[AccEventAuthority]).
		Readonly(accs[AccProgram]).
		Writable(accs[AccCoinCreatorVaultATA]).
		Readonly(accs[AccCoinCreatorVaultAuthority])
	if side == SideBuy {
		call.Writable(accs[AccGlobalVolumeAccumulator]).
			Writable(accs[AccUserVolumeAccumulator])
	}
	call.Readonly(accs[AccFeeConfig]).
		Readonly(accs[AccFeeProgram])
	return call, nil
}
