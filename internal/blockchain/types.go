// internal/blockchain/types.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionOptions controls how a transaction is submitted.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// ReturnData is the data the last program to call set_return_data left
// behind.
type ReturnData struct {
	ProgramID solana.PublicKey
	Data      []byte
}

// SimulationResult is the outcome of a transaction simulation. ReturnData
// is nil when the node did not report any.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
	ReturnData    *ReturnData
}

// Failed reports whether the simulated transaction returned an error.
func (r *SimulationResult) Failed() bool {
	return r != nil && r.Err != nil
}

// Client is the RPC surface the arbitrage client depends on.
type Client interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error)
	GetMultipleAccounts(ctx context.Context, pubkeys []solana.PublicKey, slice *rpc.DataSlice) ([]*rpc.Account, error)
	WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error
}
