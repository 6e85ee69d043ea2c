// internal/bot/runner.go

// Package bot wires configuration, RPC endpoints, the wallet and metrics
// into a runnable arbitrage client.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/arb/client"
	"github.com/rovshanmuradov/solana-arb/internal/blockchain"
	"github.com/rovshanmuradov/solana-arb/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-arb/internal/config"
	"github.com/rovshanmuradov/solana-arb/internal/logger"
	"github.com/rovshanmuradov/solana-arb/internal/route"
	"github.com/rovshanmuradov/solana-arb/internal/transaction"
	"github.com/rovshanmuradov/solana-arb/internal/utils/metrics"
	"github.com/rovshanmuradov/solana-arb/internal/wallet"
)

// Runner owns every long-lived component of the client.
type Runner struct {
	cfg      *config.Config
	logger   *logger.Logger
	wallet   *wallet.Wallet
	rpc      *solbc.Client
	metrics  *metrics.Collector
	builder  *route.Builder
	client   *client.Client
	shutdown *ShutdownHandler
}

// NewRunner builds the client stack from cfg. The private key is required.
func NewRunner(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	if cfg.PrivateKey == "" {
		return nil, errors.New("private_key is not configured (set ARB_PRIVATE_KEY)")
	}
	w, err := wallet.NewWallet(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()
	rpcOpts := []solbc.Option{
		solbc.WithRetries(cfg.Retries, 0),
		solbc.WithMetrics(collector),
	}
	primary := solbc.NewClient(cfg.RPCList[0], log.Logger, rpcOpts...)

	clientOpts := []client.Option{
		client.WithLogger(log.Logger),
		client.WithMetrics(collector),
		client.WithBudget(transaction.Budget{
			Units:         cfg.ComputeUnits,
			MicroLamports: cfg.PriorityFeeMicroLamports,
		}),
		client.WithTransactionOptions(blockchain.TransactionOptions{
			SkipPreflight:       cfg.SkipPreflight,
			PreflightCommitment: rpc.CommitmentProcessed,
		}),
		client.WithConfirmation(true),
	}
	if len(cfg.RPCList) > 1 {
		clientOpts = append(clientOpts, client.WithBroadcaster(solbc.NewBroadcaster(cfg.RPCList, log.Logger, rpcOpts...)))
	}

	r := &Runner{
		cfg:      cfg,
		logger:   log,
		wallet:   w,
		rpc:      primary,
		metrics:  collector,
		builder:  route.NewBuilder(nil, log.Logger),
		client:   client.New(primary, w, cfg.Program(), clientOpts...),
		shutdown: NewShutdownHandler(log.Logger, 5*time.Second),
	}
	r.shutdown.AddFunc("logger", log.Sync)
	return r, nil
}

// Payer returns the wallet address.
func (r *Runner) Payer() solana.PublicKey { return r.wallet.PublicKey }

// Route builds the configured route for the wallet.
func (r *Runner) Route() (*route.Route, error) {
	return r.builder.Build(r.wallet.PublicKey, r.cfg.Route)
}

// Simulate simulates the configured route.
func (r *Runner) Simulate(ctx context.Context) (*client.Simulation, error) {
	rt, err := r.Route()
	if err != nil {
		return nil, err
	}
	defer r.logger.TrackPerformance("simulate")()
	return r.client.Simulate(ctx, rt)
}

// Send submits the configured route.
func (r *Runner) Send(ctx context.Context) (solana.Signature, error) {
	rt, err := r.Route()
	if err != nil {
		return solana.Signature{}, err
	}
	defer r.logger.TrackPerformance("send")()
	return r.client.Send(ctx, rt)
}

// Watch simulates the configured route every interval and sends it when
// profitable.
func (r *Runner) Watch(ctx context.Context, interval time.Duration, maxSends int) error {
	rt, err := r.Route()
	if err != nil {
		return err
	}
	hops := make([]string, 0, 3)
	for _, p := range rt.Params.Hops() {
		hops = append(hops, p.String())
	}
	log := r.logger.WithRoute(hops, rt.Params.AmountIn)
	log.Info("Watching route", zap.Duration("interval", interval), zap.String("payer", logger.ShortAddress(r.Payer().String())))

	return NewWatcher(r.client, rt, interval, maxSends, log).Run(ctx)
}

// StartMetrics serves /metrics when metrics_addr is configured.
func (r *Runner) StartMetrics(ctx context.Context) {
	if r.cfg.MetricsAddr == "" {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := r.metrics.Serve(ctx, r.cfg.MetricsAddr, r.logger.Logger); err != nil {
			r.logger.LogError("Metrics exporter stopped", err)
		}
	}()
	r.shutdown.AddFunc("metrics", func() error {
		cancel()
		<-done
		return nil
	})
}

// Close stops background services and flushes the logger.
func (r *Runner) Close() error {
	return errors.Join(r.shutdown.Shutdown(context.Background())...)
}

// Describe is a one-line summary of the runner for startup logs.
func (r *Runner) Describe() string {
	return fmt.Sprintf("payer=%s endpoints=%d program=%s",
		logger.ShortAddress(r.Payer().String()), len(r.cfg.RPCList), logger.ShortAddress(r.cfg.ProgramID))
}
