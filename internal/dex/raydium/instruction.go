// internal/dex/raydium/instruction.go
package raydium

import (
	"encoding/binary"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

const (
	// InstructionSwapBaseIn is the AMM v4 swap opcode.
	InstructionSwapBaseIn uint8 = 9

	// SwapDataSize is 1 (opcode) + 8 (amountIn) + 8 (minAmountOut).
	SwapDataSize = 17

	swapMetas    = 17
	marketMirror = 8
)

var swapTemplate = [SwapDataSize]byte{InstructionSwapBaseIn}

func swapData(amountIn uint64) []byte {
	data := swapTemplate
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	return data[:]
}

// TokenProgram picks the program of the non-reference side. Buy legs output
// the token, every other leg spends one.
func TokenProgram(leg dex.Leg) *program.AccountInfo {
	if leg.Kind == dex.LegBuy {
		return leg.Out.Program
	}
	return leg.In.Program
}

// Build assembles swap_base_in for leg.
func (Adapter) Build(hop dex.Hop, leg dex.Leg) (*dex.Call, error) {
	accs := hop.Accounts
	amm := accs[AccAmm]

	call := dex.NewCall(accs[AccProgram].Key, swapData(hop.AmountIn), swapMetas)
	call.Readonly(TokenProgram(leg)).
		Writable(amm).
		Readonly(accs[AccAuthority]).
		Writable(amm). // open orders
		Writable(accs[AccCoinVault]).
		Writable(accs[AccPcVault])
	// serum program, market, bids, asks, event queue, coin vault, pc vault, vault signer
	for i := 0; i < marketMirror; i++ {
		call.Writable(amm)
	}
	call.Writable(leg.In.Account).
		Writable(leg.Out.Account).
		WritableSigner(hop.Header.Payer())
	return call, nil
}
