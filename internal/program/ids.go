// internal/program/ids.go
package program

import "github.com/gagliardetto/solana-go"

// Well-known programs and mints referenced by the route header.
var (
	TokenProgramID           = solana.TokenProgramID
	Token2022ProgramID       = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	MemoProgramID            = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	WrappedSolMint           = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

// IsTokenProgram reports whether id is the token or token-2022 program.
func IsTokenProgram(id solana.PublicKey) bool {
	return id.Equals(TokenProgramID) || id.Equals(Token2022ProgramID)
}
