// internal/engine/engine.go

// Package engine sequences the hops of an arbitrage chain and enforces the
// profit guard.
package engine

import (
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/arb/params"
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
	"github.com/rovshanmuradov/solana-arb/internal/protocol"
)

// Observer receives execution events. Implementations must not block.
type Observer interface {
	ObserveHop(pool dex.PoolType, leg dex.LegKind, err error)
	ObserveOutcome(threeHop bool, profit uint64, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveHop(dex.PoolType, dex.LegKind, error) {}
func (nopObserver) ObserveOutcome(bool, uint64, error)          {}

// Engine executes decoded swap chains.
type Engine struct {
	registry *protocol.Registry
	logger   *zap.Logger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry replaces the default adapter registry.
func WithRegistry(r *protocol.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithObserver attaches an execution observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates an engine backed by the default registry.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: protocol.DefaultRegistry,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	return e
}

// Execute runs buy, optional mid and sell against rt, then applies the
// profit guard. The input of every hop after the first is the balance read
// back from the account the previous hop paid into. In simulate mode the
// profit is published as return data.
func (e *Engine) Execute(rt program.Runtime, p *params.SwapParams, accounts []*program.AccountInfo) (profit uint64, err error) {
	defer func() { e.observer.ObserveOutcome(p.ThreeHop, profit, err) }()

	if p.ThreeHop && p.Mid == dex.PoolPump {
		return 0, program.ErrPumpNotSupported
	}
	layout, err := Partition(accounts, p.HeaderLen(), p.Hops())
	if err != nil {
		return 0, err
	}
	adapters, err := e.adapters(p.Hops())
	if err != nil {
		return 0, err
	}

	h := layout.Header
	initial, err := program.TokenAmount(h[dex.HeaderWsolAccount])
	if err != nil {
		return 0, err
	}

	hop := dex.Hop{
		AmountIn:      p.AmountIn,
		BaseAmountOut: p.PumpBaseAmountOut,
		Header:        h,
	}

	if p.ThreeHop {
		err = e.executeThreeHop(rt, p, layout, adapters, hop)
	} else {
		err = e.executeTwoHop(rt, p, layout, adapters, hop)
	}
	if err != nil {
		return 0, err
	}

	final, err := program.TokenAmount(h[dex.HeaderWsolAccount])
	if err != nil {
		return 0, err
	}
	profit, err = CheckProfit(initial, final, p.MinProfit)
	if err != nil {
		e.logger.Info("Arbitrage rejected",
			zap.Uint64("initial", initial),
			zap.Uint64("final", final),
			zap.Uint32("min_profit", p.MinProfit))
		return 0, err
	}

	if p.IsSimulate {
		rt.SetReturnData(EncodeProfit(profit))
	}
	e.logger.Info("Arbitrage executed",
		zap.Bool("three_hop", p.ThreeHop),
		zap.Uint64("amount_in", p.AmountIn),
		zap.Uint64("profit", profit))
	return profit, nil
}

func (e *Engine) executeTwoHop(rt program.Runtime, p *params.SwapParams, layout *Layout, adapters []dex.Adapter, hop dex.Hop) error {
	buy, sell := adapters[0], adapters[1]

	hop.Accounts = layout.Groups[0]
	err := buy.Swap(rt, hop, true, p.IsWsolPool0Buy)
	e.hopDone(buy, dex.LegBuy, hop.AmountIn, err)
	if err != nil {
		return err
	}

	if hop.AmountIn, err = program.TokenAmount(hop.Header[dex.HeaderAccountA]); err != nil {
		return err
	}
	hop.Accounts = layout.Groups[1]
	err = sell.Swap(rt, hop, false, p.IsWsolPool0Sell)
	e.hopDone(sell, dex.LegSell, hop.AmountIn, err)
	return err
}

func (e *Engine) executeThreeHop(rt program.Runtime, p *params.SwapParams, layout *Layout, adapters []dex.Adapter, hop dex.Hop) error {
	steps := []struct {
		step dex.Step
		leg  dex.LegKind
		flag bool
		// balance feeding the next step
		next int
	}{
		{dex.Step1, dex.LegBuy, p.IsWsolPool0Buy, dex.HeaderAccountA},
		{dex.Step2, dex.LegMid, p.IsMidZeroToOne, dex.HeaderAccountB},
		{dex.Step3, dex.LegSell, p.IsWsolPool0Sell, -1},
	}

	for i, s := range steps {
		hop.Accounts = layout.Groups[i]
		err := adapters[i].SwapHop3(rt, hop, s.step, s.flag)
		e.hopDone(adapters[i], s.leg, hop.AmountIn, err)
		if err != nil {
			return err
		}
		if s.next < 0 {
			break
		}
		if hop.AmountIn, err = program.TokenAmount(hop.Header[s.next]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) adapters(hops []dex.PoolType) ([]dex.Adapter, error) {
	out := make([]dex.Adapter, len(hops))
	for i, pt := range hops {
		a, err := e.registry.Get(pt)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func (e *Engine) hopDone(a dex.Adapter, leg dex.LegKind, amount uint64, err error) {
	e.observer.ObserveHop(a.PoolType(), leg, err)
	if err != nil {
		e.logger.Debug("Hop failed",
			zap.Stringer("pool", a.PoolType()),
			zap.Stringer("leg", leg),
			zap.Uint64("amount_in", amount),
			zap.Error(err))
		return
	}
	e.logger.Debug("Hop executed",
		zap.Stringer("pool", a.PoolType()),
		zap.Stringer("leg", leg),
		zap.Uint64("amount_in", amount))
}
