package program

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeValuesAreStable(t *testing.T) {
	assert.EqualValues(t, 0, ErrInstructionDataTooShort)
	assert.EqualValues(t, 5, ErrArbitrageFailed)
	assert.EqualValues(t, 8, ErrCpiCallFailed)
	assert.EqualValues(t, 10, ErrPumpNotSupported)
	assert.Equal(t, "PumpNotSupported", ErrPumpNotSupported.Name())
	assert.Equal(t, "Custom42", Code(42).Name())
	assert.Equal(t, "custom program error: 0x2a", Code(42).Error())
}

func TestWrapAndCodeOf(t *testing.T) {
	cause := errors.New("callee failed")
	err := fmt.Errorf("hop 1: %w", Wrap(ErrCpiCallFailed, cause))

	assert.ErrorIs(t, err, ErrCpiCallFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrArbitrageFailed)

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrCpiCallFailed, code)

	assert.Equal(t, ErrArbitrageFailed, Wrap(ErrArbitrageFailed, nil))

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestParseCustomError(t *testing.T) {
	tests := []struct {
		msg  string
		code Code
		ok   bool
	}{
		{"Program X failed: custom program error: 0x5", ErrArbitrageFailed, true},
		{"custom program error: 0xa", ErrPumpNotSupported, true},
		{`{"InstructionError":[2,{"Custom":3}]} custom program error: 0x3"`, ErrNotEnoughAccounts, true},
		{"custom program error: 0x", 0, false},
		{"insufficient funds", 0, false},
	}
	for _, tt := range tests {
		code, ok := ParseCustomError(tt.msg)
		assert.Equal(t, tt.ok, ok, tt.msg)
		if tt.ok {
			assert.Equal(t, tt.code, code, tt.msg)
		}
	}
}

func TestTokenAmount(t *testing.T) {
	acc := &AccountInfo{Data: make([]byte, TokenAccountSize)}
	require.NoError(t, SetTokenAmount(acc, 1_000_500))

	got, err := TokenAmount(acc)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_500, got)
	assert.Equal(t, byte(0x34), acc.Data[TokenAmountOffset])

	_, err = TokenAmount(&AccountInfo{Data: make([]byte, TokenAmountOffset+7)})
	assert.ErrorIs(t, err, ErrInvalidTokenAccountData)
	_, err = TokenAmount(nil)
	assert.ErrorIs(t, err, ErrInvalidTokenAccountData)
	assert.ErrorIs(t, SetTokenAmount(&AccountInfo{}, 1), ErrInvalidTokenAccountData)
}
