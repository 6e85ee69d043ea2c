// internal/program/token.go
package program

import (
	"encoding/binary"
)

// SPL token account layout: mint (32) | owner (32) | amount (8) | ...
const (
	TokenAccountSize  = 165
	TokenAmountOffset = 64
	tokenAmountEnd    = TokenAmountOffset + 8
)

// TokenAmount reads the balance stored in a token account. Accounts whose data
// does not reach the amount field fail with ErrInvalidTokenAccountData.
func TokenAmount(acc *AccountInfo) (uint64, error) {
	if acc == nil || len(acc.Data) < tokenAmountEnd {
		return 0, ErrInvalidTokenAccountData
	}
	return binary.LittleEndian.Uint64(acc.Data[TokenAmountOffset:tokenAmountEnd]), nil
}

// SetTokenAmount overwrites the balance of a token account in place.
func SetTokenAmount(acc *AccountInfo, amount uint64) error {
	if acc == nil || len(acc.Data) < tokenAmountEnd {
		return ErrInvalidTokenAccountData
	}
	binary.LittleEndian.PutUint64(acc.Data[TokenAmountOffset:tokenAmountEnd], amount)
	return nil
}
