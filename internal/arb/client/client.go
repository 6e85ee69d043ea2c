// =============================
// File: internal/arb/client/client.go
// =============================

// Package client submits arbitrage routes to the deployed program.
package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/blockchain"
	"github.com/rovshanmuradov/solana-arb/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-arb/internal/engine"
	"github.com/rovshanmuradov/solana-arb/internal/route"
	"github.com/rovshanmuradov/solana-arb/internal/transaction"
	"github.com/rovshanmuradov/solana-arb/internal/wallet"
)

// Broadcaster fans a signed transaction out to several endpoints.
type Broadcaster interface {
	Broadcast(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error)
}

// SubmissionRecorder counts simulate and send attempts.
type SubmissionRecorder interface {
	RecordSubmission(mode string, err error)
}

// ErrNoProfitReported is returned when a successful simulation carries no
// return data from the program.
var ErrNoProfitReported = errors.New("simulation returned no profit")

// Simulation is the outcome of a successful simulation.
type Simulation struct {
	Profit        uint64
	UnitsConsumed uint64
	Logs          []string
}

// Client builds, simulates and sends arbitrage transactions.
type Client struct {
	rpc         blockchain.Client
	broadcaster Broadcaster
	wallet      *wallet.Wallet
	programID   solana.PublicKey
	budget      transaction.Budget
	txOpts      blockchain.TransactionOptions
	confirm     bool
	analyzer    *solbc.ErrorAnalyzer
	metrics     SubmissionRecorder
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBudget sets the compute budget.
func WithBudget(b transaction.Budget) Option {
	return func(c *Client) { c.budget = b }
}

// WithTransactionOptions sets preflight options for sends.
func WithTransactionOptions(o blockchain.TransactionOptions) Option {
	return func(c *Client) { c.txOpts = o }
}

// WithBroadcaster sends through b instead of the primary RPC.
func WithBroadcaster(b Broadcaster) Option {
	return func(c *Client) { c.broadcaster = b }
}

// WithConfirmation makes Send wait for confirmed commitment.
func WithConfirmation(wait bool) Option {
	return func(c *Client) { c.confirm = wait }
}

// WithMetrics attaches a submission recorder.
func WithMetrics(m SubmissionRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the program at programID.
func New(rpcClient blockchain.Client, w *wallet.Wallet, programID solana.PublicKey, opts ...Option) *Client {
	c := &Client{
		rpc:       rpcClient,
		wallet:    w,
		programID: programID,
		txOpts:    blockchain.TransactionOptions{PreflightCommitment: rpc.CommitmentProcessed},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("arb-client")
	c.analyzer = solbc.NewErrorAnalyzer(c.programID, c.logger)
	return c
}

// Transaction builds and signs the transaction for r. Missing intermediate
// token accounts are created first.
func (c *Client) Transaction(ctx context.Context, r *route.Route, missing []route.TokenAccount) (*solana.Transaction, error) {
	b := transaction.NewBuilder().
		SetComputeBudget(c.budget).
		AddSigner(c.wallet.PrivateKey)

	for _, ta := range missing {
		ix, err := c.wallet.CreateATAIdempotentInstruction(ta.Mint, ta.Program)
		if err != nil {
			return nil, err
		}
		b.AddInstruction(ix)
	}
	b.AddInstruction(r.Instruction(c.programID))

	return b.Build(ctx, c.rpc)
}

// Simulate runs r in simulate mode and returns the profit the program
// reported. Program failures match program.Code values with errors.Is.
func (c *Client) Simulate(ctx context.Context, r *route.Route) (*Simulation, error) {
	sim, err := c.simulate(ctx, r)
	c.record("simulate", err)
	return sim, err
}

func (c *Client) simulate(ctx context.Context, r *route.Route) (*Simulation, error) {
	simRoute := *r
	p := *r.Params
	p.IsSimulate = true
	simRoute.Params = &p

	log := c.logger.With(zap.Uint64("amount_in", p.AmountIn), zap.Bool("three_hop", p.ThreeHop))

	report, err := route.Preflight(ctx, c.rpc, &simRoute)
	if err != nil {
		return nil, fmt.Errorf("preflight: %w", err)
	}

	tx, err := c.Transaction(ctx, &simRoute, report.Missing)
	if err != nil {
		return nil, err
	}

	res, err := c.rpc.SimulateTransaction(ctx, tx)
	if err != nil {
		return nil, c.analyzer.AnalyzeRPCError(err).Err(err)
	}
	if res.Failed() {
		analysis := c.analyzer.AnalyzeSimulation(res.Err, res.Logs)
		log.Warn("Simulation failed", zap.String("error", analysis.Message), zap.Uint64("units", res.UnitsConsumed))
		return nil, analysis.Err(fmt.Errorf("simulation failed: %s", analysis.Message))
	}

	profit, ok := c.profit(res)
	if !ok {
		return nil, ErrNoProfitReported
	}

	log.Info("Simulation succeeded", zap.Uint64("profit", profit), zap.Uint64("units", res.UnitsConsumed))
	return &Simulation{Profit: profit, UnitsConsumed: res.UnitsConsumed, Logs: res.Logs}, nil
}

// Send preflights r, then signs and submits it. With a broadcaster set the
// transaction goes to every endpoint.
func (c *Client) Send(ctx context.Context, r *route.Route) (solana.Signature, error) {
	sig, err := c.send(ctx, r)
	c.record("send", err)
	return sig, err
}

func (c *Client) send(ctx context.Context, r *route.Route) (solana.Signature, error) {
	report, err := route.Preflight(ctx, c.rpc, r)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("preflight: %w", err)
	}

	tx, err := c.Transaction(ctx, r, report.Missing)
	if err != nil {
		return solana.Signature{}, err
	}

	var sig solana.Signature
	if c.broadcaster != nil {
		sig, err = c.broadcaster.Broadcast(ctx, tx, c.txOpts)
	} else {
		sig, err = c.rpc.SendTransactionWithOpts(ctx, tx, c.txOpts)
	}
	if err != nil {
		return solana.Signature{}, c.analyzer.AnalyzeRPCError(err).Err(err)
	}

	c.logger.Info("Transaction sent", zap.String("signature", sig.String()))

	if c.confirm {
		if err := c.rpc.WaitForTransactionConfirmation(ctx, sig, rpc.CommitmentConfirmed); err != nil {
			return sig, fmt.Errorf("transaction %s not confirmed: %w", sig, err)
		}
		c.logger.Info("Transaction confirmed", zap.String("signature", sig.String()))
	}
	return sig, nil
}

func (c *Client) record(mode string, err error) {
	if c.metrics != nil {
		c.metrics.RecordSubmission(mode, err)
	}
}

// profit prefers the structured return data of the simulation and falls
// back to the "Program return:" log line for nodes that omit it.
func (c *Client) profit(res *blockchain.SimulationResult) (uint64, bool) {
	if rd := res.ReturnData; rd != nil && rd.ProgramID.Equals(c.programID) {
		return engine.DecodeProfit(rd.Data)
	}
	return ProfitFromLogs(res.Logs, c.programID)
}

const returnLogPrefix = "Program return: "

// ProfitFromLogs finds the last "Program return: <id> <base64>" line
// written by programID and decodes the profit from it.
func ProfitFromLogs(logs []string, programID solana.PublicKey) (uint64, bool) {
	want := programID.String()
	for i := len(logs) - 1; i >= 0; i-- {
		rest, ok := strings.CutPrefix(logs[i], returnLogPrefix)
		if !ok {
			continue
		}
		id, payload, ok := strings.Cut(rest, " ")
		if !ok || id != want {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			return 0, false
		}
		return engine.DecodeProfit(data)
	}
	return 0, false
}
