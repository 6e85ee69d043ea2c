// internal/dex/whirlpool/instruction.go
package whirlpool

import (
	"encoding/binary"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
)

// swap_v2: discriminator | amount u64 | other_amount_threshold u64 |
// sqrt_price_limit u128 | amount_specified_is_input bool | a_to_b bool
const (
	SwapDataSize = 42
	swapMetas    = 15

	aToBOffset = 41
)

var swapTemplate = [SwapDataSize]byte{43, 4, 237, 11, 26, 201, 30, 98, 40: 1}

func swapData(amountIn uint64, aToB bool) []byte {
	data := swapTemplate
	binary.LittleEndian.PutUint64(data[8:16], amountIn)
	if aToB {
		data[aToBOffset] = 1
	}
	return data[:]
}

// Build assembles swap_v2 for leg. Token A is the pool's first asset; the swap
// runs A to B when the input is token A.
func (Adapter) Build(hop dex.Hop, leg dex.Leg) (*dex.Call, error) {
	accs, h := hop.Accounts, hop.Header
	a, b := leg.First(), leg.Second()

	call := dex.NewCall(accs[AccProgram].Key, swapData(hop.AmountIn, leg.InputIsFirst), swapMetas)
	call.Readonly(a.Program).
		Readonly(b.Program).
		Readonly(h.MemoProgram()).
		WritableSigner(h.Payer()).
		Writable(accs[AccWhirlpool]).
		Readonly(a.Mint).
		Readonly(b.Mint).
		Writable(a.Account).
		Writable(accs[AccVaultA]).
		Writable(b.Account).
		Writable(accs[AccVaultB]).
		Writable(accs[AccTickArray0]).
		Writable(accs[AccTickArray1]).
		Writable(accs[AccTickArray2]).
		Writable(accs[AccOracle])
	return call, nil
}
