// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/blockchain"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// RPC is the subset of *rpc.Client used by Client.
type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	RPCCallForInto(ctx context.Context, out interface{}, method string, params []interface{}) error
	GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// LatencyRecorder receives the duration of every RPC call.
type LatencyRecorder interface {
	RecordRPCLatency(method string, duration time.Duration)
}

// ErrConfirmationTimeout is returned when a signature is not confirmed in time.
var ErrConfirmationTimeout = errors.New("confirmation timeout")

// Client is a thin retrying adapter over the solana-go RPC client.
type Client struct {
	rpc      RPC
	endpoint string
	logger   *zap.Logger
	metrics  LatencyRecorder

	maxTries        uint
	retryInterval   time.Duration
	pollInterval    time.Duration
	confirmTimeout  time.Duration
	blockCommitment rpc.CommitmentType
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets how many times a retryable call is repeated.
func WithRetries(retries int, interval time.Duration) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.maxTries = uint(retries) + 1
		}
		if interval > 0 {
			c.retryInterval = interval
		}
	}
}

// WithConfirmation sets the polling interval and timeout of
// WaitForTransactionConfirmation.
func WithConfirmation(poll, timeout time.Duration) Option {
	return func(c *Client) {
		if poll > 0 {
			c.pollInterval = poll
		}
		if timeout > 0 {
			c.confirmTimeout = timeout
		}
	}
}

// WithMetrics attaches a latency recorder.
func WithMetrics(m LatencyRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRPC replaces the transport, mostly for tests.
func WithRPC(r RPC) Option {
	return func(c *Client) { c.rpc = r }
}

// NewClient creates a client for rpcURL.
func NewClient(rpcURL string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		rpc:             rpc.New(rpcURL),
		endpoint:        rpcURL,
		logger:          logger.Named("solbc-client"),
		maxTries:        4,
		retryInterval:   200 * time.Millisecond,
		pollInterval:    500 * time.Millisecond,
		confirmTimeout:  30 * time.Second,
		blockCommitment: rpc.CommitmentFinalized,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the RPC URL of the client.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) observe(method string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordRPCLatency(method, time.Since(start))
	}
}

func retry[T any](ctx context.Context, c *Client, method string, op backoff.Operation[T]) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.MaxInterval = c.retryInterval * 10

	notify := func(err error, d time.Duration) {
		c.logger.Debug("Retrying RPC call",
			zap.String("method", method),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify))
}

// GetRecentBlockhash returns the latest blockhash, retrying transport errors.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	defer c.observe("getLatestBlockhash", time.Now())

	hash, err := retry(ctx, c, "getLatestBlockhash", func() (solana.Hash, error) {
		result, err := c.rpc.GetLatestBlockhash(ctx, c.blockCommitment)
		if err != nil {
			return solana.Hash{}, err
		}
		if result == nil || result.Value == nil {
			return solana.Hash{}, backoff.Permanent(errors.New("empty blockhash response"))
		}
		return result.Value.Blockhash, nil
	})
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	return hash, nil
}

// SendTransactionWithOpts submits tx. Expired blockhashes and transport
// errors are retried; program errors are returned immediately.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	defer c.observe("sendTransaction", time.Now())

	sig, err := retry(ctx, c, "sendTransaction", func() (solana.Signature, error) {
		sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			SkipPreflight:       opts.SkipPreflight,
			PreflightCommitment: opts.PreflightCommitment,
		})
		if err != nil && !IsRetryable(err) {
			return solana.Signature{}, backoff.Permanent(err)
		}
		return sig, err
	})
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// simulateResponse mirrors rpc.SimulateTransactionResponse plus the
// returnData field the solana-go result type does not decode.
type simulateResponse struct {
	Value *simulateValue `json:"value"`
}

type simulateValue struct {
	Err           interface{}    `json:"err,omitempty"`
	Logs          []string       `json:"logs,omitempty"`
	UnitsConsumed *uint64        `json:"unitsConsumed,omitempty"`
	ReturnData    *simReturnData `json:"returnData,omitempty"`
}

type simReturnData struct {
	ProgramID solana.PublicKey `json:"programId"`
	Data      solana.Data      `json:"data"`
}

// SimulateTransaction simulates tx without signature verification, letting
// the node replace the blockhash.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	defer c.observe("simulateTransaction", time.Now())

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	params := []interface{}{
		base64.StdEncoding.EncodeToString(raw),
		map[string]interface{}{
			"encoding":               solana.EncodingBase64,
			"commitment":             rpc.CommitmentProcessed,
			"replaceRecentBlockhash": true,
		},
	}

	result, err := retry(ctx, c, "simulateTransaction", func() (*simulateResponse, error) {
		var out simulateResponse
		if err := c.rpc.RPCCallForInto(ctx, &out, "simulateTransaction", params); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		c.logger.Error("SimulateTransaction error", zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, errors.New("empty simulation response")
	}

	v := result.Value
	sim := &blockchain.SimulationResult{
		Err:  v.Err,
		Logs: v.Logs,
	}
	if v.UnitsConsumed != nil {
		sim.UnitsConsumed = *v.UnitsConsumed
	}
	if v.ReturnData != nil {
		sim.ReturnData = &blockchain.ReturnData{
			ProgramID: v.ReturnData.ProgramID,
			Data:      v.ReturnData.Data.Content,
		}
	}
	return sim, nil
}

// GetMultipleAccounts fetches accounts in one request. Missing accounts are
// nil entries. slice limits the returned data when set.
func (c *Client) GetMultipleAccounts(ctx context.Context, pubkeys []solana.PublicKey, slice *rpc.DataSlice) ([]*rpc.Account, error) {
	if len(pubkeys) == 0 {
		return nil, nil
	}
	defer c.observe("getMultipleAccounts", time.Now())

	opts := rpc.GetMultipleAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
		DataSlice:  slice,
	}

	res, err := retry(ctx, c, "getMultipleAccounts", func() (*rpc.GetMultipleAccountsResult, error) {
		return c.rpc.GetMultipleAccountsWithOpts(ctx, pubkeys, &opts)
	})
	if err != nil {
		c.logger.Debug("GetMultipleAccounts error", zap.Error(err))
		return nil, err
	}
	if len(res.Value) != len(pubkeys) {
		return nil, fmt.Errorf("getMultipleAccounts returned %d accounts for %d keys", len(res.Value), len(pubkeys))
	}
	return res.Value, nil
}

// WaitForTransactionConfirmation polls the signature status until it reaches
// commitment, fails on-chain, or the confirmation timeout expires.
func (c *Client) WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	timeout := time.After(c.confirmTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return ErrConfirmationTimeout
		case <-ticker.C:
			statuses, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
			if err != nil {
				c.logger.Warn("Error getting signature statuses", zap.Error(err))
				continue
			}
			if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
				continue
			}
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", signature, status.Err)
			}
			if reached(status.ConfirmationStatus, commitment) {
				return nil
			}
		}
	}
}

func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch status {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return want != rpc.CommitmentFinalized
	case rpc.ConfirmationStatusProcessed:
		return want == rpc.CommitmentProcessed
	}
	return false
}

// IsRetryable reports whether a send error is worth repeating. Program
// errors and malformed transactions are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := program.ParseCustomError(err.Error()); ok {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, transient := range []string{"blockhashnotfound", "blockhash not found", "timeout", "connection", "429", "too many requests", "node is behind", "eof"} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}
