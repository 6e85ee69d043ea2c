// internal/program/program.go

// Package program describes the ledger runtime the arbitrage engine executes on:
// account handles, cross-program invocation and return data.
package program

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrInvalidInstructionData is the runtime's built-in failure for an unknown opcode.
var ErrInvalidInstructionData = errors.New("invalid instruction data")

// AccountInfo is the runtime view of an account passed to an instruction.
// Data is shared with the ledger: writes through a CPI are visible to the caller
// as soon as Invoke returns.
type AccountInfo struct {
	Key        solana.PublicKey
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	IsSigner   bool
	IsWritable bool
	Executable bool
}

// Meta returns the account meta used when forwarding the account to another program.
func (a *AccountInfo) Meta(writable, signer bool) *solana.AccountMeta {
	return solana.NewAccountMeta(a.Key, writable, signer)
}

// Runtime is the synchronous CPI surface of the ledger.
type Runtime interface {
	// Invoke calls ix.ProgID with the given account handles. Accounts are parallel
	// to ix.AccountValues. The callee's effects are visible when Invoke returns.
	Invoke(ix *solana.GenericInstruction, accounts []*AccountInfo) error
	// SetReturnData publishes data as the transaction return value.
	SetReturnData(data []byte)
}

// Keys returns the public keys of accounts in order.
func Keys(accounts []*AccountInfo) []solana.PublicKey {
	keys := make([]solana.PublicKey, len(accounts))
	for i, acc := range accounts {
		keys[i] = acc.Key
	}
	return keys
}

// Entrypoint is a program's instruction handler. rt is scoped to the running
// invocation: CPIs made through it are checked against accounts.
type Entrypoint func(rt Runtime, programID solana.PublicKey, accounts []*AccountInfo, data []byte) error
