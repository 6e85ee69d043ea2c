// internal/route/preflight.go
package route

import (
	"context"
	"fmt"

	"github.com/AlekSi/pointer"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// AccountFetcher loads several accounts in one round trip.
type AccountFetcher interface {
	GetMultipleAccounts(ctx context.Context, pubkeys []solana.PublicKey, slice *rpc.DataSlice) ([]*rpc.Account, error)
}

// Balance is the state of one header token account.
type Balance struct {
	Account TokenAccount
	Exists  bool
	Amount  uint64
}

// Report is the outcome of a successful preflight.
type Report struct {
	Reference Balance
	// Missing lists intermediate token accounts that must be created before
	// the route can run.
	Missing  []TokenAccount
	Balances []Balance
}

// Preflight checks the header token accounts of r before a transaction is
// built: owners must be token programs, data must decode as token
// accounts of the expected mint and payer, and the reference account must
// hold at least AmountIn.
func Preflight(ctx context.Context, fetcher AccountFetcher, r *Route) (*Report, error) {
	accounts := r.TokenAccounts()
	keys := make([]solana.PublicKey, len(accounts))
	for i, a := range accounts {
		keys[i] = a.Address
	}

	infos, err := fetcher.GetMultipleAccounts(ctx, keys, &rpc.DataSlice{
		Offset: pointer.ToUint64(0),
		Length: pointer.ToUint64(program.TokenAccountSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token accounts: %w", err)
	}
	if len(infos) != len(keys) {
		return nil, fmt.Errorf("fetched %d accounts for %d keys", len(infos), len(keys))
	}

	report := &Report{}
	for i, info := range infos {
		bal, err := checkTokenAccount(accounts[i], r.Payer, info)
		if err != nil {
			return nil, err
		}
		report.Balances = append(report.Balances, bal)
		if i > 0 && !bal.Exists {
			report.Missing = append(report.Missing, accounts[i])
		}
	}

	report.Reference = report.Balances[0]
	if !report.Reference.Exists {
		return nil, program.Wrap(program.ErrInsufficientBalance,
			fmt.Errorf("reference account %s does not exist", r.Reference.Address))
	}
	if report.Reference.Amount < r.Params.AmountIn {
		return nil, program.Wrap(program.ErrInsufficientBalance,
			fmt.Errorf("have %d, need %d", report.Reference.Amount, r.Params.AmountIn))
	}
	return report, nil
}

func checkTokenAccount(want TokenAccount, payer solana.PublicKey, info *rpc.Account) (Balance, error) {
	bal := Balance{Account: want}
	if info == nil {
		return bal, nil
	}
	bal.Exists = true

	if !info.Owner.Equals(want.Program) {
		return bal, program.Wrap(program.ErrAccountOwnerMismatch,
			fmt.Errorf("%s is owned by %s, expected %s", want.Address, info.Owner, want.Program))
	}
	if info.Data == nil {
		return bal, program.Wrap(program.ErrInvalidTokenAccountData, fmt.Errorf("%s has no data", want.Address))
	}
	data := info.Data.GetBinary()
	if len(data) < program.TokenAccountSize {
		return bal, program.Wrap(program.ErrInvalidTokenAccountData,
			fmt.Errorf("%s has %d bytes", want.Address, len(data)))
	}

	var acc token.Account
	if err := bin.NewBinDecoder(data).Decode(&acc); err != nil {
		return bal, program.Wrap(program.ErrInvalidTokenAccountData, err)
	}
	if !acc.Mint.Equals(want.Mint) {
		return bal, program.Wrap(program.ErrInvalidTokenAccountData,
			fmt.Errorf("%s holds mint %s, expected %s", want.Address, acc.Mint, want.Mint))
	}
	if !acc.Owner.Equals(payer) {
		return bal, program.Wrap(program.ErrAccountOwnerMismatch,
			fmt.Errorf("%s belongs to %s, expected %s", want.Address, acc.Owner, payer))
	}

	bal.Amount = acc.Amount
	return bal, nil
}
