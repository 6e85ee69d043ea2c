// internal/dex/dlmm/instruction.go
package dlmm

import (
	"encoding/binary"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
)

// swap2: discriminator | amount_in u64 | min_amount_out u64 | remaining_accounts_info (vec len u32)
const (
	SwapDataSize = 28
	swapMetas    = 19
)

var swapTemplate = [SwapDataSize]byte{65, 75, 63, 76, 235, 91, 91, 136}

func swapData(amountIn uint64) []byte {
	data := swapTemplate
	binary.LittleEndian.PutUint64(data[8:16], amountIn)
	return data[:]
}

// Build assembles the swap for leg. Token X is the pair's first asset.
func (Adapter) Build(hop dex.Hop, leg dex.Leg) (*dex.Call, error) {
	accs, h := hop.Accounts, hop.Header
	x, y := leg.First(), leg.Second()
	prog := accs[AccProgram]

	call := dex.NewCall(prog.Key, swapData(hop.AmountIn), swapMetas)
	call.Writable(accs[AccLbPair]).
		Readonly(prog). // bin_array_bitmap_extension: none
		Writable(accs[AccReserveX]).
		Writable(accs[AccReserveY]).
		Writable(leg.In.Account).
		Writable(leg.Out.Account).
		Readonly(x.Mint).
		Readonly(y.Mint).
		Writable(accs[AccOracle]).
		Readonly(prog). // host_fee_in: none
		WritableSigner(h.Payer()).
		Readonly(x.Program).
		Readonly(y.Program).
		Readonly(h.MemoProgram()).
		Readonly(accs[AccEventAuthority]).
		Readonly(prog).
		Writable(accs[AccBinArrayLower]).
		Writable(accs[AccBinArrayCurrent]).
		Writable(accs[AccBinArrayUpper])
	return call, nil
}
