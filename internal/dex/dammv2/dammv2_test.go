package dammv2

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/dex/dextest"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

func TestSwapDirections(t *testing.T) {
	tests := []struct {
		name         string
		isBuy        bool
		wsolIsTokenA bool
		in, out      int
		aMint, bMint int
		aProg, bProg int
	}{
		{"buy wsol a", true, true, 2, 8, 1, 6, 3, 7},
		{"buy wsol b", true, false, 2, 8, 6, 1, 7, 3},
		{"sell wsol a", false, true, 8, 2, 1, 6, 3, 7},
		{"sell wsol b", false, false, 8, 2, 6, 1, 7, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hop := dextest.Hop(dex.PoolDAMMv2, false, 2_500)
			rt := &dextest.Recorder{}
			require.NoError(t, New().Swap(rt, hop, tt.isBuy, tt.wsolIsTokenA))

			h, p := hop.Header, hop.Accounts
			ix := rt.Last().Instruction
			assert.Equal(t, p[AccProgram].Key, ix.ProgID)

			want := []dextest.Meta{
				dextest.R(p[AccPoolAuthority]),
				dextest.W(p[AccPool]),
				dextest.W(h[tt.in]),
				dextest.W(h[tt.out]),
				dextest.W(p[AccVaultA]),
				dextest.W(p[AccVaultB]),
				dextest.R(h[tt.aMint]),
				dextest.R(h[tt.bMint]),
				dextest.WS(h[0]),
				dextest.R(h[tt.aProg]),
				dextest.R(h[tt.bProg]),
				dextest.R(p[AccProgram]),
				dextest.R(p[AccEventAuthority]),
				dextest.R(p[AccProgram]),
			}
			assert.Equal(t, want, dextest.InstructionMetas(ix))
			assert.Equal(t, dextest.Keys(want), program.Keys(rt.Last().Accounts))

			data := ix.DataBytes
			require.Len(t, data, SwapDataSize)
			assert.Equal(t, []byte{248, 198, 158, 145, 225, 117, 135, 200}, data[:8])
			assert.Equal(t, uint64(2_500), binary.LittleEndian.Uint64(data[8:16]))
			assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(data[16:24]))
		})
	}
}

func TestDeterministicBuild(t *testing.T) {
	hop := dextest.Hop(dex.PoolDAMMv2, false, 99)
	leg, err := dex.ResolveLeg(hop.Header, dex.LegBuy, true, false)
	require.NoError(t, err)

	first, err := New().Build(hop, leg)
	require.NoError(t, err)
	second, err := New().Build(hop, leg)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, dextest.Metas(first), dextest.Metas(second))
}
