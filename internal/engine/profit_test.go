package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

func TestCheckProfit(t *testing.T) {
	tests := []struct {
		name      string
		initial   uint64
		final     uint64
		minProfit uint32
		profit    uint64
		ok        bool
	}{
		{"gain without floor", 1_000, 1_001, 0, 1, true},
		{"break even", 1_000, 1_000, 0, 0, false},
		{"loss", 1_000, 999, 0, 0, false},
		{"equal to floor", 1_000, 1_200, 200, 0, false},
		{"one above floor", 1_000, 1_201, 200, 201, true},
		{"max floor", 0, math.MaxUint64, math.MaxUint32, math.MaxUint64, true},
		{"no overflow near max", math.MaxUint64 - 10, math.MaxUint64, 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profit, err := CheckProfit(tt.initial, tt.final, tt.minProfit)
			if !tt.ok {
				assert.ErrorIs(t, err, program.ErrArbitrageFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.profit, profit)
		})
	}
}

func TestProfitReturnData(t *testing.T) {
	data := EncodeProfit(200)
	assert.Equal(t, []byte{200, 0, 0, 0, 0, 0, 0, 0}, data)

	v, ok := DecodeProfit(data)
	require.True(t, ok)
	assert.Equal(t, uint64(200), v)

	_, ok = DecodeProfit(data[:7])
	assert.False(t, ok)
}
