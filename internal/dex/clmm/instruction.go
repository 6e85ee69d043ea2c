// internal/dex/clmm/instruction.go
package clmm

import (
	"encoding/binary"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
)

// swap_v2: discriminator | amount u64 | other_amount_threshold u64 |
// sqrt_price_limit_x64 u128 | is_base_input bool
const (
	SwapDataSize = 41
	swapMetas    = 17
)

var swapV2Discriminator = [8]byte{43, 4, 237, 11, 26, 201, 30, 98}

var swapTemplate = func() (t [SwapDataSize]byte) {
	copy(t[:8], swapV2Discriminator[:])
	t[40] = 1
	return t
}()

func swapData(amountIn uint64) []byte {
	data := swapTemplate
	binary.LittleEndian.PutUint64(data[8:16], amountIn)
	return data[:]
}

// Build assembles swap_v2 for leg. Both token programs and the memo program
// are always passed so either vault may be token-2022.
func (Adapter) Build(hop dex.Hop, leg dex.Leg) (*dex.Call, error) {
	accs, h := hop.Accounts, hop.Header
	inVault, outVault := VaultIndexes(leg)

	call := dex.NewCall(accs[AccProgram].Key, swapData(hop.AmountIn), swapMetas)
	call.WritableSigner(h.Payer()).
		Readonly(accs[AccAmmConfig]).
		Writable(accs[AccPoolState]).
		Writable(leg.In.Account).
		Writable(leg.Out.Account).
		Writable(accs[inVault]).
		Writable(accs[outVault]).
		Writable(accs[AccObservation]).
		Readonly(h.TokenProgram()).
		Readonly(h.Token2022Program()).
		Readonly(h.MemoProgram()).
		Readonly(leg.In.Mint).
		Readonly(leg.Out.Mint).
		Writable(accs[AccBitmapExtension]).
		Writable(accs[AccTickArrayLower]).
		Writable(accs[AccTickArrayCurrent]).
		Writable(accs[AccTickArrayUpper])
	return call, nil
}
