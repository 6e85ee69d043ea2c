// =============================
// File: internal/route/route.go
// =============================

// Package route turns a route configuration into the account list and
// payload of the arbitrage instruction.
package route

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/arb/params"
	"github.com/rovshanmuradov/solana-arb/internal/config"
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
	"github.com/rovshanmuradov/solana-arb/internal/protocol"
	"github.com/rovshanmuradov/solana-arb/internal/wallet"
)

// TokenAccount is one of the payer's token accounts referenced by the header.
type TokenAccount struct {
	Mint    solana.PublicKey
	Program solana.PublicKey
	Address solana.PublicKey
}

// Route is a fully resolved arbitrage instruction.
type Route struct {
	Params *params.SwapParams
	Payer  solana.PublicKey
	Header solana.AccountMetaSlice
	Groups []solana.AccountMetaSlice

	// Reference is the WSOL account whose balance is the profit measure.
	// Intermediates holds token A, then token B on 3-hop routes.
	Reference     TokenAccount
	Intermediates []TokenAccount
}

// Accounts returns header and hop groups in instruction order.
func (r *Route) Accounts() solana.AccountMetaSlice {
	n := len(r.Header)
	for _, g := range r.Groups {
		n += len(g)
	}
	out := make(solana.AccountMetaSlice, 0, n)
	out = append(out, r.Header...)
	for _, g := range r.Groups {
		out = append(out, g...)
	}
	return out
}

// Instruction returns the top-level instruction for programID.
func (r *Route) Instruction(programID solana.PublicKey) *solana.GenericInstruction {
	return solana.NewInstruction(programID, r.Accounts(), r.Params.Instruction())
}

// TokenAccounts returns the reference account followed by the intermediates.
func (r *Route) TokenAccounts() []TokenAccount {
	return append([]TokenAccount{r.Reference}, r.Intermediates...)
}

// Builder resolves route configs against the adapter registry.
type Builder struct {
	registry *protocol.Registry
	logger   *zap.Logger
}

// NewBuilder creates a builder. A nil registry means the built-in adapters.
func NewBuilder(registry *protocol.Registry, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = protocol.DefaultRegistry
	}
	return &Builder{registry: registry, logger: logger.Named("route")}
}

// Build resolves cfg for payer.
func (b *Builder) Build(payer solana.PublicKey, cfg config.RouteConfig) (*Route, error) {
	pools, err := b.validate(cfg)
	if err != nil {
		return nil, err
	}
	threeHop := len(pools) == 3

	p := &params.SwapParams{
		ThreeHop:          threeHop,
		Buy:               pools[0],
		Sell:              pools[len(pools)-1],
		IsWsolPool0Buy:    cfg.Hops[0].OrderFlag,
		IsWsolPool0Sell:   cfg.Hops[len(cfg.Hops)-1].OrderFlag,
		IsSimulate:        cfg.Simulate,
		AmountIn:          cfg.AmountIn,
		PumpBaseAmountOut: cfg.PumpBaseAmountOut,
		MinProfit:         cfg.MinProfit,
	}
	if threeHop {
		p.Mid = pools[1]
		p.IsMidZeroToOne = cfg.Hops[1].OrderFlag
	}

	r := &Route{Params: p, Payer: payer}

	r.Reference, err = tokenAccount(payer, program.WrappedSolMint.String(), false)
	if err != nil {
		return nil, err
	}
	a, err := tokenAccount(payer, cfg.TargetMint, cfg.TargetToken2022)
	if err != nil {
		return nil, fmt.Errorf("target_mint: %w", err)
	}
	r.Intermediates = append(r.Intermediates, a)
	if threeHop {
		bAcc, err := tokenAccount(payer, cfg.SecondMint, cfg.SecondToken2022)
		if err != nil {
			return nil, fmt.Errorf("second_mint: %w", err)
		}
		r.Intermediates = append(r.Intermediates, bAcc)
	}

	r.Header = header(payer, r.Reference, r.Intermediates)

	for i, hop := range cfg.Hops {
		group, err := b.group(pools[i], hop.Accounts)
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s): %w", i+1, pools[i], err)
		}
		r.Groups = append(r.Groups, group)
	}

	b.logger.Debug("Route built",
		zap.Stringers("pools", pools),
		zap.Int("accounts", len(r.Accounts())),
		zap.Uint64("amount_in", cfg.AmountIn))
	return r, nil
}

func (b *Builder) validate(cfg config.RouteConfig) ([]dex.PoolType, error) {
	if n := len(cfg.Hops); n != 2 && n != 3 {
		return nil, program.Wrap(program.ErrInvalidPoolConfiguration, fmt.Errorf("route must have 2 or 3 hops, got %d", n))
	}
	if cfg.AmountIn == 0 {
		return nil, program.ErrInvalidTradeAmount
	}

	pools := make([]dex.PoolType, len(cfg.Hops))
	for i, hop := range cfg.Hops {
		pt, err := dex.ParsePoolType(hop.Pool)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i+1, err)
		}
		if _, err := b.registry.Get(pt); err != nil {
			return nil, fmt.Errorf("hop %d: %w", i+1, err)
		}
		pools[i] = pt
	}

	if len(pools) == 3 && pools[1] == dex.PoolPump {
		return nil, program.ErrPumpNotSupported
	}
	if cfg.PumpBaseAmountOut == 0 && pumpBuys(pools, cfg.Hops) {
		return nil, program.Wrap(program.ErrInvalidTradeAmount, fmt.Errorf("pump_base_amount_out is required when a pump hop buys"))
	}
	return pools, nil
}

// pumpBuys reports whether a pump hop spends the pool's quote asset, which
// is emitted as an exact-out buy.
func pumpBuys(pools []dex.PoolType, hops []config.HopConfig) bool {
	first, last := 0, len(pools)-1
	if pools[first] == dex.PoolPump && !hops[first].OrderFlag {
		return true
	}
	return pools[last] == dex.PoolPump && hops[last].OrderFlag
}

func (b *Builder) group(pt dex.PoolType, keys []string) (solana.AccountMetaSlice, error) {
	adapter, err := b.registry.Get(pt)
	if err != nil {
		return nil, err
	}
	specs := adapter.Accounts()
	if len(keys) != len(specs) {
		return nil, program.Wrap(program.ErrInvalidPoolConfiguration,
			fmt.Errorf("expected %d accounts, got %d", len(specs), len(keys)))
	}

	group := make(solana.AccountMetaSlice, len(keys))
	for i, raw := range keys {
		key, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return nil, program.Wrap(program.ErrInvalidPoolConfiguration,
				fmt.Errorf("account %s: %w", specs[i].Name, err))
		}
		group[i] = solana.NewAccountMeta(key, specs[i].Writable, false)
	}
	return group, nil
}

func tokenAccount(owner solana.PublicKey, mint string, token2022 bool) (TokenAccount, error) {
	m, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return TokenAccount{}, program.Wrap(program.ErrInvalidPoolConfiguration, err)
	}
	tokenProgram := program.TokenProgramID
	if token2022 {
		tokenProgram = program.Token2022ProgramID
	}
	ata, err := wallet.DeriveATA(owner, m, tokenProgram)
	if err != nil {
		return TokenAccount{}, err
	}
	return TokenAccount{Mint: m, Program: tokenProgram, Address: ata}, nil
}

func header(payer solana.PublicKey, ref TokenAccount, inter []TokenAccount) solana.AccountMetaSlice {
	h := make(solana.AccountMetaSlice, 0, dex.HeaderLen3Hop)
	h = append(h,
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(ref.Mint),
		solana.Meta(ref.Address).WRITE(),
		solana.Meta(program.TokenProgramID),
		solana.Meta(program.Token2022ProgramID),
		solana.Meta(program.MemoProgramID),
	)
	for _, t := range inter {
		h = append(h,
			solana.Meta(t.Mint),
			solana.Meta(t.Program),
			solana.Meta(t.Address).WRITE(),
		)
	}
	return h
}
