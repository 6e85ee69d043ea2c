// internal/dex/dammv2/instruction.go
package dammv2

import (
	"encoding/binary"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
)

// swap: discriminator | amount_in u64 | minimum_amount_out u64
const (
	SwapDataSize = 24
	swapMetas    = 14
)

var swapTemplate = [SwapDataSize]byte{248, 198, 158, 145, 225, 117, 135, 200}

func swapData(amountIn uint64) []byte {
	data := swapTemplate
	binary.LittleEndian.PutUint64(data[8:16], amountIn)
	return data[:]
}

// Build assembles the swap for leg. The program account fills the optional
// referral token account slot.
func (Adapter) Build(hop dex.Hop, leg dex.Leg) (*dex.Call, error) {
	accs := hop.Accounts
	a, b := leg.First(), leg.Second()

	call := dex.NewCall(accs[AccProgram].Key, swapData(hop.AmountIn), swapMetas)
	call.Readonly(accs[AccPoolAuthority]).
		Writable(accs[AccPool]).
		Writable(leg.In.Account).
		Writable(leg.Out.Account).
		Writable(accs[AccVaultA]).
		Writable(accs[AccVaultB]).
		Readonly(a.Mint).
		Readonly(b.Mint).
		WritableSigner(hop.Header.Payer()).
		Readonly(a.Program).
		Readonly(b.Program).
		Readonly(accs[AccProgram]).
		Readonly(accs[AccEventAuthority]).
		Readonly(accs[AccProgram])
	return call, nil
}
