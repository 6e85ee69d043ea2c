package solbc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-arb/internal/blockchain"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

type mockRPC struct {
	mock.Mock
}

func (m *mockRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	args := m.Called(ctx, commitment)
	res, _ := args.Get(0).(*rpc.GetLatestBlockhashResult)
	return res, args.Error(1)
}

func (m *mockRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *mockRPC) RPCCallForInto(ctx context.Context, out interface{}, method string, params []interface{}) error {
	args := m.Called(ctx, out, method, params)
	return args.Error(0)
}

func (m *mockRPC) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error) {
	args := m.Called(ctx, accounts, opts)
	res, _ := args.Get(0).(*rpc.GetMultipleAccountsResult)
	return res, args.Error(1)
}

func (m *mockRPC) GetSignatureStatuses(ctx context.Context, search bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, search, signatures)
	res, _ := args.Get(0).(*rpc.GetSignatureStatusesResult)
	return res, args.Error(1)
}

type latencies struct{ methods []string }

func (l *latencies) RecordRPCLatency(method string, _ time.Duration) {
	l.methods = append(l.methods, method)
}

func newTestClient(r RPC, opts ...Option) *Client {
	opts = append([]Option{WithRPC(r), WithRetries(2, time.Millisecond), WithConfirmation(time.Millisecond, 200*time.Millisecond)}, opts...)
	return NewClient("http://localhost:8899", nil, opts...)
}

func TestGetRecentBlockhashRetries(t *testing.T) {
	r := new(mockRPC)
	hash := solana.Hash{7}
	r.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentFinalized).
		Return(nil, errors.New("connection reset")).Once()
	r.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentFinalized).
		Return(&rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{Blockhash: hash}}, nil).Once()

	rec := &latencies{}
	c := newTestClient(r, WithMetrics(rec))

	got, err := c.GetRecentBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, got)
	assert.Equal(t, []string{"getLatestBlockhash"}, rec.methods)
	r.AssertExpectations(t)
}

func TestGetRecentBlockhashGivesUp(t *testing.T) {
	r := new(mockRPC)
	r.On("GetLatestBlockhash", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := newTestClient(r).GetRecentBlockhash(context.Background())
	require.Error(t, err)
	r.AssertNumberOfCalls(t, "GetLatestBlockhash", 3)
}

func TestSendProgramErrorIsNotRetried(t *testing.T) {
	r := new(mockRPC)
	sendErr := &jsonrpc.RPCError{Message: "Transaction simulation failed: Error processing Instruction 2: custom program error: 0x5"}
	r.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).
		Return(solana.Signature{}, sendErr)

	_, err := newTestClient(r).SendTransactionWithOpts(context.Background(), &solana.Transaction{}, blockchain.TransactionOptions{})
	require.Error(t, err)
	r.AssertNumberOfCalls(t, "SendTransactionWithOpts", 1)
}

func TestSendRetriesExpiredBlockhash(t *testing.T) {
	r := new(mockRPC)
	sig := solana.Signature{9}
	r.On("SendTransactionWithOpts", mock.Anything, mock.Anything, rpc.TransactionOpts{SkipPreflight: true, PreflightCommitment: rpc.CommitmentProcessed}).
		Return(solana.Signature{}, errors.New("BlockhashNotFound")).Once()
	r.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).
		Return(sig, nil).Once()

	got, err := newTestClient(r).SendTransactionWithOpts(context.Background(), &solana.Transaction{}, blockchain.TransactionOptions{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}

// simulateReply decodes body into the response the client passed in, the
// way the JSON-RPC layer would.
func simulateReply(t *testing.T, body string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		require.NoError(t, json.Unmarshal([]byte(body), args.Get(1)))
	}
}

func TestSimulateTransaction(t *testing.T) {
	r := new(mockRPC)
	r.On("RPCCallForInto", mock.Anything, mock.Anything, "simulateTransaction", mock.MatchedBy(func(p []interface{}) bool {
		if len(p) != 2 {
			return false
		}
		opts, ok := p[1].(map[string]interface{})
		return ok && opts["replaceRecentBlockhash"] == true && opts["encoding"] == solana.EncodingBase64
	})).Run(simulateReply(t, `{"value":{"err":null,"logs":["Program log: ok"],"unitsConsumed":42000}}`)).Return(nil)

	res, err := newTestClient(r).SimulateTransaction(context.Background(), &solana.Transaction{})
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, uint64(42_000), res.UnitsConsumed)
	assert.Equal(t, []string{"Program log: ok"}, res.Logs)
	assert.Nil(t, res.ReturnData)
}

func TestSimulateTransactionReturnData(t *testing.T) {
	r := new(mockRPC)
	owner := solana.NewWallet().PublicKey()
	// 7000 as a little-endian u64.
	body := `{"value":{"err":null,"logs":[],"unitsConsumed":1,"returnData":{"programId":"` + owner.String() + `","data":["WBsAAAAAAAA=","base64"]}}}`
	r.On("RPCCallForInto", mock.Anything, mock.Anything, "simulateTransaction", mock.Anything).
		Run(simulateReply(t, body)).Return(nil)

	res, err := newTestClient(r).SimulateTransaction(context.Background(), &solana.Transaction{})
	require.NoError(t, err)
	require.NotNil(t, res.ReturnData)
	assert.True(t, owner.Equals(res.ReturnData.ProgramID))
	assert.Equal(t, []byte{0x58, 0x1b, 0, 0, 0, 0, 0, 0}, res.ReturnData.Data)
}

func TestSimulateTransactionEmptyResponse(t *testing.T) {
	r := new(mockRPC)
	r.On("RPCCallForInto", mock.Anything, mock.Anything, "simulateTransaction", mock.Anything).
		Run(simulateReply(t, `{"value":null}`)).Return(nil)

	_, err := newTestClient(r).SimulateTransaction(context.Background(), &solana.Transaction{})
	assert.Error(t, err)
}

func TestGetMultipleAccounts(t *testing.T) {
	r := new(mockRPC)
	keys := []solana.PublicKey{{1}, {2}}
	r.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.MatchedBy(func(o *rpc.GetMultipleAccountsOpts) bool {
		return o.Encoding == solana.EncodingBase64 && o.DataSlice != nil
	})).Return(&rpc.GetMultipleAccountsResult{Value: []*rpc.Account{{Lamports: 1}, nil}}, nil).Once()

	offset, length := uint64(0), uint64(72)
	accs, err := newTestClient(r).GetMultipleAccounts(context.Background(), keys, &rpc.DataSlice{Offset: &offset, Length: &length})
	require.NoError(t, err)
	require.Len(t, accs, 2)
	assert.Nil(t, accs[1])

	empty, err := newTestClient(r).GetMultipleAccounts(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetMultipleAccountsLengthMismatch(t *testing.T) {
	r := new(mockRPC)
	r.On("GetMultipleAccountsWithOpts", mock.Anything, mock.Anything, mock.Anything).
		Return(&rpc.GetMultipleAccountsResult{Value: []*rpc.Account{nil}}, nil)

	_, err := newTestClient(r).GetMultipleAccounts(context.Background(), []solana.PublicKey{{1}, {2}}, nil)
	assert.Error(t, err)
}

func TestWaitForTransactionConfirmation(t *testing.T) {
	sig := solana.Signature{3}

	t.Run("confirmed", func(t *testing.T) {
		r := new(mockRPC)
		r.On("GetSignatureStatuses", mock.Anything, false, mock.Anything).
			Return(&rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil).Once()
		r.On("GetSignatureStatuses", mock.Anything, false, mock.Anything).
			Return(&rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}}}, nil)

		assert.NoError(t, newTestClient(r).WaitForTransactionConfirmation(context.Background(), sig, rpc.CommitmentConfirmed))
	})

	t.Run("failed on chain", func(t *testing.T) {
		r := new(mockRPC)
		r.On("GetSignatureStatuses", mock.Anything, false, mock.Anything).
			Return(&rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{{
				ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
				Err:                map[string]interface{}{"InstructionError": []interface{}{2.0, map[string]interface{}{"Custom": 5.0}}},
			}}}, nil)

		assert.Error(t, newTestClient(r).WaitForTransactionConfirmation(context.Background(), sig, rpc.CommitmentConfirmed))
	})

	t.Run("timeout", func(t *testing.T) {
		r := new(mockRPC)
		r.On("GetSignatureStatuses", mock.Anything, false, mock.Anything).
			Return(&rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{{ConfirmationStatus: rpc.ConfirmationStatusProcessed}}}, nil)

		err := newTestClient(r).WaitForTransactionConfirmation(context.Background(), sig, rpc.CommitmentFinalized)
		assert.ErrorIs(t, err, ErrConfirmationTimeout)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errors.New("Blockhash not found")))
	assert.True(t, IsRetryable(errors.New("429 Too Many Requests")))
	assert.False(t, IsRetryable(errors.New("custom program error: 0x8 timeout")))
	assert.False(t, IsRetryable(errors.New("invalid transaction")))
}

func TestErrorAnalyzer(t *testing.T) {
	arb := solana.NewWallet().PublicKey()
	ea := NewErrorAnalyzer(arb, nil)

	rpcErr := &jsonrpc.RPCError{
		Message: "Transaction simulation failed: Error processing Instruction 2",
		Data: map[string]interface{}{
			"logs": []interface{}{"Program log: start", "Program " + arb.String() + " failed: custom program error: 0xa"},
		},
	}
	a := ea.AnalyzeRPCError(rpcErr)
	require.NotNil(t, a)
	assert.True(t, a.SimulationFailed)
	assert.False(t, a.Callee)
	require.True(t, a.HasCode)
	assert.Equal(t, program.ErrPumpNotSupported, a.Code)
	assert.ErrorIs(t, a.Err(rpcErr), program.ErrPumpNotSupported)

	sim := ea.AnalyzeSimulation(map[string]interface{}{
		"InstructionError": []interface{}{2.0, map[string]interface{}{"Custom": 5.0}},
	}, []string{"Program " + arb.String() + " failed: custom program error: 0x5"})
	require.True(t, sim.HasCode)
	assert.Equal(t, program.ErrArbitrageFailed, sim.Code)

	plain := ea.AnalyzeRPCError(errors.New("dial tcp: refused"))
	assert.False(t, plain.HasCode)
	assert.Nil(t, ea.AnalyzeRPCError(nil))
	assert.Nil(t, ea.AnalyzeSimulation(nil, nil))
}

func TestErrorAnalyzerNestedTokenFailure(t *testing.T) {
	arb := solana.NewWallet().PublicKey()
	ea := NewErrorAnalyzer(arb, nil)

	// The token program runs out of funds inside the arb instruction; both
	// frames report custom error 0x1.
	logs := []string{
		"Program " + arb.String() + " invoke [1]",
		"Program " + program.TokenProgramID.String() + " invoke [2]",
		"Program log: Instruction: Transfer",
		"Program log: Error: insufficient funds",
		"Program " + program.TokenProgramID.String() + " consumed 4645 of 180000 compute units",
		"Program " + program.TokenProgramID.String() + " failed: custom program error: 0x1",
		"Program " + arb.String() + " consumed 25000 of 200000 compute units",
		"Program " + arb.String() + " failed: custom program error: 0x1",
	}
	a := ea.AnalyzeSimulation(map[string]interface{}{
		"InstructionError": []interface{}{0.0, map[string]interface{}{"Custom": 1.0}},
	}, logs)
	require.NotNil(t, a)
	assert.True(t, a.Callee)
	assert.True(t, program.TokenProgramID.Equals(a.FailedProgram))
	assert.Equal(t, "custom program error: 0x1", a.Reason)

	err := a.Err(nil)
	assert.ErrorIs(t, err, program.ErrCpiCallFailed)
	assert.NotErrorIs(t, err, program.ErrInvalidTradeAmount)
	assert.Contains(t, err.Error(), program.TokenProgramID.String())
}

func TestErrorAnalyzerWithoutFailureLine(t *testing.T) {
	ea := NewErrorAnalyzer(solana.NewWallet().PublicKey(), nil)

	// A bare custom code cannot be attributed to a program.
	a := ea.AnalyzeSimulation(map[string]interface{}{
		"InstructionError": []interface{}{2.0, map[string]interface{}{"Custom": 1.0}},
	}, nil)
	require.NotNil(t, a)
	assert.False(t, a.HasCode)
	assert.False(t, a.Callee)
	assert.NotErrorIs(t, a.Err(nil), program.ErrInvalidTradeAmount)
}
