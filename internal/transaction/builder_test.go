package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var computeBudgetProgram = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

type fixedHash struct {
	hash solana.Hash
	err  error
}

func (f fixedHash) GetRecentBlockhash(context.Context) (solana.Hash, error) {
	return f.hash, f.err
}

func memo(t *testing.T, signer solana.PublicKey) solana.Instruction {
	t.Helper()
	return solana.NewInstruction(
		solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"),
		solana.AccountMetaSlice{solana.Meta(signer).SIGNER()},
		[]byte("arb"),
	)
}

func TestBudgetInstructions(t *testing.T) {
	assert.Empty(t, Budget{}.Instructions())

	ixs := Budget{Units: 400_000, MicroLamports: 1_000}.Instructions()
	require.Len(t, ixs, 2)

	limit, err := ixs[0].Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0x80, 0x1a, 0x06, 0x00}, limit)
	assert.Equal(t, computeBudgetProgram, ixs[0].ProgramID())

	price, err := ixs[1].Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0xe8, 0x03, 0, 0, 0, 0, 0, 0}, price)

	assert.Len(t, Budget{Units: 1, MicroLamports: 1, HeapSize: 256 * 1024}.Instructions(), 3)
}

func TestBuildSignsAndPrependsBudget(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	hash := solana.Hash{5}

	tx, err := NewBuilder().
		SetComputeBudget(Budget{Units: 200_000, MicroLamports: 10}).
		AddInstruction(memo(t, key.PublicKey())).
		AddSigner(key).
		Build(context.Background(), fixedHash{hash: hash})
	require.NoError(t, err)

	assert.Equal(t, hash, tx.Message.RecentBlockhash)
	require.Len(t, tx.Message.Instructions, 3)
	assert.Equal(t, key.PublicKey(), tx.Message.AccountKeys[0])
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())

	first, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, computeBudgetProgram, first)
}

func TestBuildErrors(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = NewBuilder().AddInstruction(memo(t, key.PublicKey())).Build(context.Background(), fixedHash{})
	assert.ErrorContains(t, err, "no signers")

	_, err = NewBuilder().AddSigner(key).Build(context.Background(), fixedHash{})
	assert.ErrorContains(t, err, "no instructions")

	_, err = NewBuilder().AddSigner(key).AddInstruction(memo(t, key.PublicKey())).
		Build(context.Background(), fixedHash{err: errors.New("rpc down")})
	assert.ErrorContains(t, err, "rpc down")
}
