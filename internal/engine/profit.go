// internal/engine/profit.go
package engine

import (
	"encoding/binary"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// CheckProfit accepts iff final > initial + minProfit and returns the profit.
// The comparison never overflows.
func CheckProfit(initial, final uint64, minProfit uint32) (uint64, error) {
	if final <= initial {
		return 0, program.ErrArbitrageFailed
	}
	profit := final - initial
	if profit <= uint64(minProfit) {
		return 0, program.ErrArbitrageFailed
	}
	return profit, nil
}

// EncodeProfit is the return data published in simulate mode.
func EncodeProfit(profit uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], profit)
	return b[:]
}

// DecodeProfit parses return data written by EncodeProfit.
func DecodeProfit(data []byte) (uint64, bool) {
	if len(data) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data), true
}
