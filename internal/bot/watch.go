package bot

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/arb/client"
	"github.com/rovshanmuradov/solana-arb/internal/program"
	"github.com/rovshanmuradov/solana-arb/internal/route"
)

// Submitter simulates and sends routes.
type Submitter interface {
	Simulate(ctx context.Context, r *route.Route) (*client.Simulation, error)
	Send(ctx context.Context, r *route.Route) (solana.Signature, error)
}

// Watcher re-simulates a route on an interval and sends it when the
// simulation clears the route's minimum profit.
type Watcher struct {
	submitter Submitter
	route     *route.Route
	interval  time.Duration
	maxSends  int
	logger    *zap.Logger
}

// NewWatcher creates a watcher. maxSends <= 0 means unlimited.
func NewWatcher(s Submitter, r *route.Route, interval time.Duration, maxSends int, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		submitter: s,
		route:     r,
		interval:  interval,
		maxSends:  maxSends,
		logger:    logger.Named("watcher"),
	}
}

// Run blocks until ctx is done, a configuration error occurs or maxSends
// transactions were sent.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	sent := 0
	for {
		ok, err := w.tick(ctx)
		if err != nil {
			return err
		}
		if ok {
			sent++
			if w.maxSends > 0 && sent >= w.maxSends {
				w.logger.Info("Send limit reached", zap.Int("sent", sent))
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick reports whether a transaction was sent.
func (w *Watcher) tick(ctx context.Context) (bool, error) {
	sim, err := w.submitter.Simulate(ctx, w.route)
	switch {
	case err == nil:
	case errors.Is(err, program.ErrArbitrageFailed):
		w.logger.Debug("No opportunity")
		return false, nil
	case fatal(err):
		return false, err
	default:
		w.logger.Warn("Simulation error", zap.Error(err))
		return false, nil
	}

	w.logger.Info("Opportunity found", zap.Uint64("profit", sim.Profit))
	sig, err := w.submitter.Send(ctx, w.route)
	if err != nil {
		w.logger.Warn("Send failed", zap.Error(err))
		return false, nil
	}
	w.logger.Info("Transaction sent", zap.String("signature", sig.String()))
	return true, nil
}

// fatal errors cannot go away by retrying the same route.
func fatal(err error) bool {
	for _, code := range []program.Code{
		program.ErrInvalidPoolConfiguration,
		program.ErrUnsupportedPoolType,
		program.ErrPumpNotSupported,
		program.ErrInvalidTradeAmount,
		program.ErrAccountOwnerMismatch,
	} {
		if errors.Is(err, code) {
			return true
		}
	}
	return false
}
