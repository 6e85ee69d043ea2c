package engine_test

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-arb/internal/arb/params"
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/dex/dextest"
	"github.com/rovshanmuradov/solana-arb/internal/engine"
	"github.com/rovshanmuradov/solana-arb/internal/ledger"
	"github.com/rovshanmuradov/solana-arb/internal/ledger/ledgertest"
	"github.com/rovshanmuradov/solana-arb/internal/program"
	"github.com/rovshanmuradov/solana-arb/internal/protocol"
)

const initialWsol = 5_000_000

var arbProgramID = dextest.Key(0xEE, 0)

// harness is one ledger with the arbitrage program and scripted AMMs.
type harness struct {
	t        *testing.T
	ledger   *ledger.Ledger
	header   []solana.PublicKey
	amms     map[dex.PoolType]*ledgertest.SwapProgram
	observer *recordingObserver
}

func newHarness(t *testing.T, threeHop bool) *harness {
	h := &harness{
		t:        t,
		ledger:   ledger.New(zaptest.NewLogger(t)),
		amms:     make(map[dex.PoolType]*ledgertest.SwapProgram),
		observer: &recordingObserver{},
	}
	n := dex.HeaderLen2Hop
	if threeHop {
		n = dex.HeaderLen3Hop
	}
	for i := 0; i < n; i++ {
		h.header = append(h.header, dextest.Key(0xAA, i))
	}

	tokenOwner := h.header[dex.HeaderPayer]
	h.ledger.SetAccount(h.wsol(), solana.TokenProgramID, 1, ledgertest.TokenAccountData(h.header[dex.HeaderWsolMint], tokenOwner, initialWsol))
	h.ledger.SetAccount(h.header[dex.HeaderAccountA], solana.TokenProgramID, 1, ledgertest.TokenAccountData(h.header[dex.HeaderMintA], tokenOwner, 0))
	if threeHop {
		h.ledger.SetAccount(h.header[dex.HeaderAccountB], solana.TokenProgramID, 1, ledgertest.TokenAccountData(h.header[dex.HeaderMintB], tokenOwner, 0))
	}

	eng := engine.New(engine.WithLogger(zaptest.NewLogger(t)), engine.WithObserver(h.observer))
	h.ledger.RegisterProgram(arbProgramID, engine.NewProcessor(eng).Process)
	return h
}

func (h *harness) wsol() solana.PublicKey   { return h.header[dex.HeaderWsolAccount] }
func (h *harness) tokenA() solana.PublicKey { return h.header[dex.HeaderAccountA] }
func (h *harness) tokenB() solana.PublicKey { return h.header[dex.HeaderAccountB] }

func groupKey(pt dex.PoolType, i int) solana.PublicKey {
	return dextest.Key(0xC0+byte(pt), i)
}

// amm registers a scripted program for pt. Raydium carries its amount after a
// one-byte opcode, every other protocol after an 8-byte discriminator.
func (h *harness) amm(pt dex.PoolType, steps ...ledgertest.Step) *ledgertest.SwapProgram {
	offset := 8
	if pt == dex.PoolRaydium {
		offset = 1
	}
	p := &ledgertest.SwapProgram{AmountOffset: offset, Steps: steps}
	h.amms[pt] = p
	h.ledger.RegisterProgram(groupKey(pt, 0), p.Entrypoint)
	return p
}

// instruction lays out header and hop groups with the writability each
// adapter declares.
func (h *harness) instruction(p *params.SwapParams, hops ...dex.PoolType) *solana.GenericInstruction {
	var metas solana.AccountMetaSlice
	for i, key := range h.header {
		switch i {
		case dex.HeaderPayer:
			metas = append(metas, solana.NewAccountMeta(key, true, true))
		case dex.HeaderWsolAccount, dex.HeaderAccountA, dex.HeaderAccountB:
			metas = append(metas, solana.NewAccountMeta(key, true, false))
		default:
			metas = append(metas, solana.NewAccountMeta(key, false, false))
		}
	}
	for _, pt := range hops {
		a, err := protocol.Lookup(uint8(pt))
		if err != nil {
			// Unknown tags still get a plausible account group.
			for i := 0; i < 8; i++ {
				metas = append(metas, solana.NewAccountMeta(groupKey(pt, i), true, false))
			}
			continue
		}
		for i, spec := range a.Accounts() {
			metas = append(metas, solana.NewAccountMeta(groupKey(pt, i), spec.Writable, false))
		}
	}
	return solana.NewInstruction(arbProgramID, metas, p.Instruction())
}

func (h *harness) balance(key solana.PublicKey) uint64 {
	v, err := h.ledger.TokenBalance(key)
	require.NoError(h.t, err)
	return v
}

type recordingObserver struct {
	hops     []dex.LegKind
	outcomes []error
	profit   uint64
}

func (o *recordingObserver) ObserveHop(_ dex.PoolType, leg dex.LegKind, _ error) {
	o.hops = append(o.hops, leg)
}

func (o *recordingObserver) ObserveOutcome(_ bool, profit uint64, err error) {
	o.outcomes = append(o.outcomes, err)
	o.profit = profit
}

func twoHop(buy, sell dex.PoolType, simulate bool, minProfit uint32) *params.SwapParams {
	return &params.SwapParams{
		Buy:             buy,
		Sell:            sell,
		IsWsolPool0Buy:  true,
		IsWsolPool0Sell: true,
		IsSimulate:      simulate,
		AmountIn:        1_000_000,
		MinProfit:       minProfit,
	}
}

func TestTwoHopProfitable(t *testing.T) {
	h := newHarness(t, false)
	h.amm(dex.PoolCPMM, ledgertest.Step{From: h.wsol(), To: h.tokenA(), Out: 1_000_500})
	clmm := h.amm(dex.PoolCLMM, ledgertest.Step{From: h.tokenA(), To: h.wsol(), Out: 1_000_200})

	res, err := h.ledger.Execute(h.instruction(twoHop(dex.PoolCPMM, dex.PoolCLMM, true, 0), dex.PoolCPMM, dex.PoolCLMM))
	require.NoError(t, err)

	profit, ok := engine.DecodeProfit(res.ReturnData)
	require.True(t, ok)
	assert.Equal(t, uint64(200), profit)
	assert.Equal(t, arbProgramID, res.ReturnProgram)

	assert.Equal(t, uint64(initialWsol+200), h.balance(h.wsol()))
	assert.Equal(t, uint64(0), h.balance(h.tokenA()))

	// The sell leg spends the balance read back after the buy.
	require.Len(t, clmm.Seen, 1)
	assert.Equal(t, engine.EncodeProfit(1_000_500), clmm.Seen[0][8:16])

	cpis := res.CPIs()
	require.Len(t, cpis, 2)
	assert.Equal(t, groupKey(dex.PoolCPMM, 0), cpis[0].ProgramID)
	assert.Equal(t, groupKey(dex.PoolCLMM, 0), cpis[1].ProgramID)
	assert.Equal(t, []dex.LegKind{dex.LegBuy, dex.LegSell}, h.observer.hops)
	assert.Equal(t, uint64(200), h.observer.profit)
}

func TestTwoHopNoReturnDataWithoutSimulate(t *testing.T) {
	h := newHarness(t, false)
	h.amm(dex.PoolCPMM, ledgertest.Step{From: h.wsol(), To: h.tokenA(), Out: 1_000_500})
	h.amm(dex.PoolCLMM, ledgertest.Step{From: h.tokenA(), To: h.wsol(), Out: 1_000_200})

	res, err := h.ledger.Execute(h.instruction(twoHop(dex.PoolCPMM, dex.PoolCLMM, false, 0), dex.PoolCPMM, dex.PoolCLMM))
	require.NoError(t, err)
	assert.Empty(t, res.ReturnData)
}

func TestTwoHopBreakEvenRejected(t *testing.T) {
	h := newHarness(t, false)
	h.amm(dex.PoolCPMM, ledgertest.Step{From: h.wsol(), To: h.tokenA(), Out: 1_000_500})
	h.amm(dex.PoolCLMM, ledgertest.Step{From: h.tokenA(), To: h.wsol(), Out: 1_000_000})

	res, err := h.ledger.Execute(h.instruction(twoHop(dex.PoolCPMM, dex.PoolCLMM, true, 0), dex.PoolCPMM, dex.PoolCLMM))
	assert.ErrorIs(t, err, program.ErrArbitrageFailed)
	assert.Empty(t, res.ReturnData)
	assert.Len(t, res.CPIs(), 2)

	// Both swaps are undone.
	assert.Equal(t, uint64(initialWsol), h.balance(h.wsol()))
	assert.Equal(t, uint64(0), h.balance(h.tokenA()))
}

func TestProfitFloorBoundary(t *testing.T) {
	for _, tc := range []struct {
		minProfit uint32
		ok        bool
	}{
		{199, true},
		{200, false},
		{201, false},
	} {
		h := newHarness(t, false)
		h.amm(dex.PoolCPMM, ledgertest.Step{From: h.wsol(), To: h.tokenA(), Out: 1_000_500})
		h.amm(dex.PoolCLMM, ledgertest.Step{From: h.tokenA(), To: h.wsol(), Out: 1_000_200})

		_, err := h.ledger.Execute(h.instruction(twoHop(dex.PoolCPMM, dex.PoolCLMM, true, tc.minProfit), dex.PoolCPMM, dex.PoolCLMM))
		if tc.ok {
			assert.NoError(t, err, "min profit %d", tc.minProfit)
		} else {
			assert.ErrorIs(t, err, program.ErrArbitrageFailed, "min profit %d", tc.minProfit)
		}
	}
}

func TestInvalidBuyTagMakesNoCalls(t *testing.T) {
	h := newHarness(t, false)
	h.amm(dex.PoolCLMM, ledgertest.Step{From: h.tokenA(), To: h.wsol(), Out: 1})

	res, err := h.ledger.Execute(h.instruction(twoHop(dex.PoolType(8), dex.PoolCLMM, true, 0), dex.PoolType(8), dex.PoolCLMM))
	assert.ErrorIs(t, err, program.ErrUnsupportedPoolType)
	assert.Empty(t, res.CPIs())
	assert.Equal(t, []error{program.ErrUnsupportedPoolType}, h.observer.outcomes)
}

func TestPumpAsMidHopMakesNoCalls(t *testing.T) {
	h := newHarness(t, true)
	h.amm(dex.PoolCPMM, ledgertest.Step{From: h.wsol(), To: h.tokenA(), Out: 10})
	h.amm(dex.PoolPump)
	h.amm(dex.PoolRaydium)

	p := &params.SwapParams{
		ThreeHop: true,
		Buy:      dex.PoolCPMM,
		Mid:      dex.PoolPump,
		Sell:     dex.PoolRaydium,
		AmountIn: 1_000,
	}
	res, err := h.ledger.Execute(h.instruction(p, dex.PoolCPMM, dex.PoolPump, dex.PoolRaydium))
	assert.ErrorIs(t, err, program.ErrPumpNotSupported)
	assert.Empty(t, res.CPIs())
}

func TestPumpAsMidHopWinsOverShortAccounts(t *testing.T) {
	h := newHarness(t, true)
	p := &params.SwapParams{
		ThreeHop: true,
		Buy:      dex.PoolCPMM,
		Mid:      dex.PoolPump,
		Sell:     dex.PoolRaydium,
		AmountIn: 1_000,
	}
	ix := h.instruction(p, dex.PoolCPMM, dex.PoolPump, dex.PoolRaydium)
	ix.AccountValues = ix.AccountValues[:dex.HeaderLen3Hop+dex.PoolCPMM.AccountCount()]

	res, err := h.ledger.Execute(ix)
	assert.ErrorIs(t, err, program.ErrPumpNotSupported)
	assert.NotErrorIs(t, err, program.ErrNotEnoughAccounts)
	assert.Empty(t, res.CPIs())
}

func TestThreeHopChain(t *testing.T) {
	h := newHarness(t, true)
	h.amm(dex.PoolWhirlpool, ledgertest.Step{From: h.wsol(), To: h.tokenA(), Out: 3_000_000})
	dlmm := h.amm(dex.PoolDLMM, ledgertest.Step{From: h.tokenA(), To: h.tokenB(), Out: 40_000})
	ray := h.amm(dex.PoolRaydium, ledgertest.Step{From: h.tokenB(), To: h.wsol(), Out: 1_000_750})

	p := &params.SwapParams{
		ThreeHop:        true,
		Buy:             dex.PoolWhirlpool,
		Mid:             dex.PoolDLMM,
		Sell:            dex.PoolRaydium,
		IsWsolPool0Buy:  true,
		IsMidZeroToOne:  false,
		IsWsolPool0Sell: false,
		IsSimulate:      true,
		AmountIn:        1_000_000,
		MinProfit:       500,
	}
	res, err := h.ledger.Execute(h.instruction(p, dex.PoolWhirlpool, dex.PoolDLMM, dex.PoolRaydium))
	require.NoError(t, err)

	profit, ok := engine.DecodeProfit(res.ReturnData)
	require.True(t, ok)
	assert.Equal(t, uint64(750), profit)

	assert.Equal(t, engine.EncodeProfit(3_000_000), dlmm.Seen[0][8:16])
	assert.Equal(t, engine.EncodeProfit(40_000), ray.Seen[0][1:9])
	assert.Equal(t, []dex.LegKind{dex.LegBuy, dex.LegMid, dex.LegSell}, h.observer.hops)
}

func TestHopFailureAbortsChain(t *testing.T) {
	h := newHarness(t, false)
	h.amm(dex.PoolDAMMv2, ledgertest.Step{From: h.wsol(), To: h.tokenA(), Out: 7})
	cause := errors.New("exceeded slippage")
	h.amm(dex.PoolPump, ledgertest.Step{Err: cause})

	_, err := h.ledger.Execute(h.instruction(twoHop(dex.PoolDAMMv2, dex.PoolPump, false, 0), dex.PoolDAMMv2, dex.PoolPump))
	assert.ErrorIs(t, err, program.ErrCpiCallFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, uint64(initialWsol), h.balance(h.wsol()))
	assert.Equal(t, uint64(0), h.balance(h.tokenA()))
}

func TestNotEnoughAccounts(t *testing.T) {
	h := newHarness(t, false)
	ix := h.instruction(twoHop(dex.PoolCPMM, dex.PoolCLMM, false, 0), dex.PoolCPMM, dex.PoolCLMM)
	ix.AccountValues = ix.AccountValues[:len(ix.AccountValues)-1]

	res, err := h.ledger.Execute(ix)
	assert.ErrorIs(t, err, program.ErrNotEnoughAccounts)
	assert.Empty(t, res.CPIs())
}

func TestUnknownOpcode(t *testing.T) {
	h := newHarness(t, false)
	ix := h.instruction(twoHop(dex.PoolCPMM, dex.PoolCLMM, false, 0), dex.PoolCPMM, dex.PoolCLMM)
	ix.DataBytes = append([]byte{3}, ix.DataBytes[1:]...)

	_, err := h.ledger.Execute(ix)
	assert.ErrorIs(t, err, program.ErrInvalidInstructionData)

	ix.DataBytes = ix.DataBytes[:10]
	ix.DataBytes[0] = params.OpcodeTwoHop
	_, err = h.ledger.Execute(ix)
	assert.ErrorIs(t, err, program.ErrInstructionDataTooShort)
}

func TestDeterministicInvocations(t *testing.T) {
	run := func() []ledger.Invocation {
		h := newHarness(t, false)
		h.amm(dex.PoolPump, ledgertest.Step{From: h.wsol(), To: h.tokenA(), Out: 900})
		h.amm(dex.PoolWhirlpool, ledgertest.Step{From: h.tokenA(), To: h.wsol(), Out: 1_000_001})
		p := twoHop(dex.PoolPump, dex.PoolWhirlpool, true, 0)
		p.PumpBaseAmountOut = 900
		res, err := h.ledger.Execute(h.instruction(p, dex.PoolPump, dex.PoolWhirlpool))
		require.NoError(t, err)
		return res.CPIs()
	}

	first, second := run(), run()
	require.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestEngineDirectWithRecorder(t *testing.T) {
	hdr := dextest.Header(false)
	require.NoError(t, program.SetTokenAmount(hdr[dex.HeaderWsolAccount], 10))

	accounts := append([]*program.AccountInfo{}, hdr...)
	accounts = append(accounts, dextest.Accounts(dex.RaydiumAccountCount*2)...)

	rt := &dextest.Recorder{}
	_, err := engine.New().Execute(rt, twoHop(dex.PoolRaydium, dex.PoolRaydium, false, 0), accounts)

	// The recorder moves no funds, so the chain cannot be profitable.
	assert.ErrorIs(t, err, program.ErrArbitrageFailed)
	assert.Len(t, rt.Calls, 2)
}
