package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/dex/cpmm"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

func TestDefaultRegistryCoversEveryTag(t *testing.T) {
	for tag := uint8(0); tag <= uint8(dex.PoolWhirlpool); tag++ {
		a, err := Lookup(tag)
		require.NoError(t, err, "tag %d", tag)
		assert.Equal(t, dex.PoolType(tag), a.PoolType())
		assert.Len(t, a.Accounts(), dex.AccountsRequired(tag))
	}
	assert.Len(t, DefaultRegistry.List(), 7)
}

func TestLookupInvalidTag(t *testing.T) {
	for _, tag := range []uint8{7, 8, 100, 255} {
		_, err := Lookup(tag)
		assert.ErrorIs(t, err, program.ErrUnsupportedPoolType, "tag %d", tag)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	require.NoError(t, r.Register(cpmm.New()))
	assert.Error(t, r.Register(cpmm.New()))

	_, err := r.Get(dex.PoolCLMM)
	assert.ErrorIs(t, err, program.ErrUnsupportedPoolType)
	assert.Equal(t, []dex.PoolType{dex.PoolCPMM}, r.List())
}
