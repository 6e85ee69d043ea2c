// internal/transaction/builder.go
package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

// BlockhashSource provides the recent blockhash a transaction is built on.
type BlockhashSource interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
}

// Budget is the compute budget prepended to every transaction.
type Budget struct {
	Units         uint32
	MicroLamports uint64
	HeapSize      uint32
}

// Instructions returns the compute budget instructions for b. Zero fields
// are omitted.
func (b Budget) Instructions() []solana.Instruction {
	var instructions []solana.Instruction
	if b.Units > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitLimitInstruction(b.Units).Build())
	}
	if b.MicroLamports > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitPriceInstruction(b.MicroLamports).Build())
	}
	if b.HeapSize > 0 {
		instructions = append(instructions, computebudget.NewRequestHeapFrameInstruction(b.HeapSize).Build())
	}
	return instructions
}

// Builder assembles and signs transactions. The first signer pays fees.
type Builder struct {
	instructions []solana.Instruction
	signers      []solana.PrivateKey
	budget       Budget
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetComputeBudget sets the compute budget.
func (b *Builder) SetComputeBudget(budget Budget) *Builder {
	b.budget = budget
	return b
}

// AddInstruction appends an instruction after the compute budget ones.
func (b *Builder) AddInstruction(instruction solana.Instruction) *Builder {
	b.instructions = append(b.instructions, instruction)
	return b
}

// AddSigner adds a signer.
func (b *Builder) AddSigner(signer solana.PrivateKey) *Builder {
	b.signers = append(b.signers, signer)
	return b
}

// Build fetches a blockhash, assembles the transaction and signs it.
func (b *Builder) Build(ctx context.Context, source BlockhashSource) (*solana.Transaction, error) {
	if len(b.signers) == 0 {
		return nil, errors.New("no signers provided")
	}
	if len(b.instructions) == 0 {
		return nil, errors.New("no instructions provided")
	}

	blockhash, err := source.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	return b.BuildWithBlockhash(blockhash)
}

// BuildWithBlockhash assembles and signs the transaction on blockhash.
func (b *Builder) BuildWithBlockhash(blockhash solana.Hash) (*solana.Transaction, error) {
	if len(b.signers) == 0 {
		return nil, errors.New("no signers provided")
	}

	budget := b.budget.Instructions()
	instructions := make([]solana.Instruction, 0, len(budget)+len(b.instructions))
	instructions = append(instructions, budget...)
	instructions = append(instructions, b.instructions...)

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(b.signers[0].PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for _, signer := range b.signers {
			if signer.PublicKey().Equals(key) {
				privateCopy := signer
				return &privateCopy
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return tx, nil
}
