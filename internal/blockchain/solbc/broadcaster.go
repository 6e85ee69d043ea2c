// internal/blockchain/solbc/broadcaster.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-arb/internal/blockchain"
)

// Sender submits a signed transaction to one endpoint.
type Sender interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error)
}

// Broadcaster submits the same signed transaction to every endpoint in
// parallel. Identical signatures make duplicates harmless.
type Broadcaster struct {
	senders []Sender
	names   []string
	logger  *zap.Logger
}

// NewBroadcaster creates one client per RPC URL.
func NewBroadcaster(rpcURLs []string, logger *zap.Logger, opts ...Option) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	senders := make([]Sender, 0, len(rpcURLs))
	for _, u := range rpcURLs {
		senders = append(senders, NewClient(u, logger, opts...))
	}
	return newBroadcaster(senders, rpcURLs, logger)
}

func newBroadcaster(senders []Sender, names []string, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		senders: senders,
		names:   names,
		logger:  logger.Named("broadcaster"),
	}
}

// Broadcast returns the signature when at least one endpoint accepted tx,
// otherwise the joined errors of all endpoints.
func (b *Broadcaster) Broadcast(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	if len(b.senders) == 0 {
		return solana.Signature{}, errors.New("no RPC endpoints configured")
	}

	var (
		mu       sync.Mutex
		accepted []solana.Signature
		errs     []error
	)

	var g errgroup.Group
	for i, s := range b.senders {
		g.Go(func() error {
			sig, err := s.SendTransactionWithOpts(ctx, tx, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", b.name(i), err))
				b.logger.Warn("Endpoint rejected transaction",
					zap.String("endpoint", b.name(i)),
					zap.Error(err))
				return nil
			}
			accepted = append(accepted, sig)
			return nil
		})
	}
	_ = g.Wait()

	if len(accepted) == 0 {
		return solana.Signature{}, errors.Join(errs...)
	}

	b.logger.Info("Transaction broadcast",
		zap.String("signature", accepted[0].String()),
		zap.Int("accepted", len(accepted)),
		zap.Int("endpoints", len(b.senders)))
	return accepted[0], nil
}

func (b *Broadcaster) name(i int) string {
	if i < len(b.names) {
		return b.names[i]
	}
	return fmt.Sprintf("endpoint-%d", i)
}
