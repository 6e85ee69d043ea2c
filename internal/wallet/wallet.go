// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Wallet is the fee payer and signer of arbitrage transactions.
type Wallet struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey

	mu       sync.Mutex
	ataCache map[ataKey]solana.PublicKey
}

type ataKey struct {
	mint         solana.PublicKey
	tokenProgram solana.PublicKey
}

// NewWallet creates a wallet from a base58-encoded 64-byte private key.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	return FromPrivateKey(solana.PrivateKey(privateKeyBytes)), nil
}

// FromPrivateKey wraps an already decoded key.
func FromPrivateKey(key solana.PrivateKey) *Wallet {
	return &Wallet{
		PrivateKey: key,
		PublicKey:  key.PublicKey(),
		ataCache:   make(map[ataKey]solana.PublicKey),
	}
}

// SignTransaction signs tx with the wallet key. Other required signers are
// left untouched.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

// ATA returns the wallet's associated token account for mint under the
// given token program, caching the derivation.
func (w *Wallet) ATA(mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	k := ataKey{mint: mint, tokenProgram: tokenProgram}

	w.mu.Lock()
	defer w.mu.Unlock()

	if ata, ok := w.ataCache[k]; ok {
		return ata, nil
	}
	ata, err := DeriveATA(w.PublicKey, mint, tokenProgram)
	if err != nil {
		return solana.PublicKey{}, err
	}
	w.ataCache[k] = ata
	return ata, nil
}

// DeriveATA derives owner's associated token account for mint. The token
// program is part of the seeds, so token-2022 mints get a different address.
func DeriveATA(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if !program.IsTokenProgram(tokenProgram) {
		return solana.PublicKey{}, fmt.Errorf("unknown token program %s", tokenProgram)
	}
	ata, _, err := solana.FindProgramAddress(
		[][]byte{owner[:], tokenProgram[:], mint[:]},
		program.AssociatedTokenProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive ATA for mint %s: %w", mint, err)
	}
	return ata, nil
}

// CreateATAIdempotentInstruction creates the wallet's token account for mint
// if it does not exist yet.
func (w *Wallet) CreateATAIdempotentInstruction(mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	ata, err := w.ATA(mint, tokenProgram)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(
		program.AssociatedTokenProgramID,
		solana.AccountMetaSlice{
			solana.Meta(w.PublicKey).WRITE().SIGNER(),
			solana.Meta(ata).WRITE(),
			solana.Meta(w.PublicKey),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(tokenProgram),
		},
		[]byte{1},
	), nil
}

// String returns the wallet address.
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
