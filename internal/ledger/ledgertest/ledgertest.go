// internal/ledger/ledgertest/ledgertest.go

// Package ledgertest provides scripted AMM programs and token account
// fixtures for running the arbitrage program on the in-memory ledger.
package ledgertest

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// TokenAccountData returns a 165-byte SPL token account holding amount.
func TokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, program.TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[program.TokenAmountOffset:], amount)
	data[108] = 1 // initialized
	return data
}

// ErrScriptExhausted is returned when a SwapProgram is called more often than scripted.
var ErrScriptExhausted = errors.New("swap script exhausted")

// Step is one scripted swap: debit the instruction amount from From and
// credit Out to To. A non-nil Err fails the call instead.
type Step struct {
	From solana.PublicKey
	To   solana.PublicKey
	Out  uint64
	Err  error
}

// SwapProgram is a scripted AMM. It reads the input amount from the
// instruction data at AmountOffset and requires From and To to be passed
// writable.
type SwapProgram struct {
	AmountOffset int
	Steps        []Step

	Calls int
	Seen  [][]byte
}

// Entrypoint runs the next step.
func (s *SwapProgram) Entrypoint(_ program.Runtime, _ solana.PublicKey, accounts []*program.AccountInfo, data []byte) error {
	s.Seen = append(s.Seen, append([]byte(nil), data...))
	if s.Calls >= len(s.Steps) {
		return ErrScriptExhausted
	}
	step := s.Steps[s.Calls]
	s.Calls++
	if step.Err != nil {
		return step.Err
	}
	if len(data) < s.AmountOffset+8 {
		return fmt.Errorf("instruction data too short: %d", len(data))
	}
	amount := binary.LittleEndian.Uint64(data[s.AmountOffset:])

	from, err := writable(accounts, step.From)
	if err != nil {
		return err
	}
	to, err := writable(accounts, step.To)
	if err != nil {
		return err
	}

	bal, err := program.TokenAmount(from)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("insufficient funds in %s: %d < %d", step.From, bal, amount)
	}
	if err := program.SetTokenAmount(from, bal-amount); err != nil {
		return err
	}
	got, err := program.TokenAmount(to)
	if err != nil {
		return err
	}
	return program.SetTokenAmount(to, got+step.Out)
}

func writable(accounts []*program.AccountInfo, key solana.PublicKey) (*program.AccountInfo, error) {
	for _, acc := range accounts {
		if acc.Key.Equals(key) {
			if !acc.IsWritable {
				return nil, fmt.Errorf("account %s passed read-only", key)
			}
			return acc, nil
		}
	}
	return nil, fmt.Errorf("account %s not passed", key)
}
