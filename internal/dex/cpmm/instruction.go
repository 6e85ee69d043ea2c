// internal/dex/cpmm/instruction.go
package cpmm

import (
	"encoding/binary"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
)

// swap_base_input: discriminator | amount_in u64 | minimum_amount_out u64
const (
	SwapDataSize = 24
	swapMetas    = 13
)

var swapTemplate = [SwapDataSize]byte{143, 190, 90, 218, 196, 30, 51, 222}

func swapData(amountIn uint64) []byte {
	data := swapTemplate
	binary.LittleEndian.PutUint64(data[8:16], amountIn)
	return data[:]
}

// Build assembles swap_base_input for leg.
func (Adapter) Build(hop dex.Hop, leg dex.Leg) (*dex.Call, error) {
	accs := hop.Accounts
	inVault, outVault := Vaults(accs, leg)

	call := dex.NewCall(accs[AccProgram].Key, swapData(hop.AmountIn), swapMetas)
	call.WritableSigner(hop.Header.Payer()).
		Readonly(accs[AccAuthority]).
		Readonly(accs[AccAmmConfig]).
		Writable(accs[AccPoolState]).
		Writable(leg.In.Account).
		Writable(leg.Out.Account).
		Writable(inVault).
		Writable(outVault).
		Readonly(leg.In.Program).
		Readonly(leg.Out.Program).
		Readonly(leg.In.Mint).
		Readonly(leg.Out.Mint).
		Writable(accs[AccObservation])
	return call, nil
}
