// internal/dex/leg.go
package dex

import (
	"fmt"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Header account slots. The first nine are shared by both modes, the last
// three carry the second intermediate token of a 3-hop chain.
const (
	HeaderPayer            = 0
	HeaderWsolMint         = 1
	HeaderWsolAccount      = 2
	HeaderTokenProgram     = 3
	HeaderToken2022Program = 4
	HeaderMemoProgram      = 5
	HeaderMintA            = 6
	HeaderProgramA         = 7
	HeaderAccountA         = 8
	HeaderMintB            = 9
	HeaderProgramB         = 10
	HeaderAccountB         = 11

	HeaderLen2Hop = 9
	HeaderLen3Hop = 12
)

// LegKind is the role of a hop in the chain.
type LegKind uint8

const (
	// LegBuy swaps the reference asset into token A.
	LegBuy LegKind = iota
	// LegMid swaps token A into token B.
	LegMid
	// LegSell swaps the last intermediate token back into the reference asset.
	LegSell
)

func (k LegKind) String() string {
	switch k {
	case LegBuy:
		return "buy"
	case LegMid:
		return "mid"
	case LegSell:
		return "sell"
	default:
		return fmt.Sprintf("leg(%d)", uint8(k))
	}
}

// Step is the position of a hop in a 3-hop chain.
type Step uint8

const (
	Step1 Step = 1
	Step2 Step = 2
	Step3 Step = 3
)

// Asset groups the header accounts describing one side of a swap.
type Asset struct {
	Mint    *program.AccountInfo
	Program *program.AccountInfo
	Account *program.AccountInfo
}

// Leg is a resolved swap direction.
type Leg struct {
	Kind LegKind
	In   Asset
	Out  Asset
	// InputIsFirst reports whether In is the pool's first asset
	// (token 0, token A, token X or base depending on the protocol).
	InputIsFirst bool
}

// First returns the asset in the pool's first slot.
func (l Leg) First() Asset {
	if l.InputIsFirst {
		return l.In
	}
	return l.Out
}

// Second returns the asset in the pool's second slot.
func (l Leg) Second() Asset {
	if l.InputIsFirst {
		return l.Out
	}
	return l.In
}

// Payer returns the signer the swap is executed for.
func (h Header) Payer() *program.AccountInfo { return h[HeaderPayer] }

// TokenProgram returns the classic SPL token program slot.
func (h Header) TokenProgram() *program.AccountInfo { return h[HeaderTokenProgram] }

// Token2022Program returns the token-2022 program slot.
func (h Header) Token2022Program() *program.AccountInfo { return h[HeaderToken2022Program] }

// MemoProgram returns the memo program slot.
func (h Header) MemoProgram() *program.AccountInfo { return h[HeaderMemoProgram] }

// Header is the fixed account prefix of the arbitrage instruction.
type Header []*program.AccountInfo

func (h Header) reference() Asset {
	return Asset{Mint: h[HeaderWsolMint], Program: h[HeaderTokenProgram], Account: h[HeaderWsolAccount]}
}

func (h Header) tokenA() Asset {
	return Asset{Mint: h[HeaderMintA], Program: h[HeaderProgramA], Account: h[HeaderAccountA]}
}

func (h Header) tokenB() Asset {
	return Asset{Mint: h[HeaderMintB], Program: h[HeaderProgramB], Account: h[HeaderAccountB]}
}

// ResolveLeg selects input and output accounts for a hop.
//
// For buy and sell legs orderFlag reports whether the reference asset is the
// pool's first asset; for the mid leg it reports whether token A is. A sell
// leg reads from token B when fromSecond is set (step 3 of a 3-hop chain).
func ResolveLeg(header Header, kind LegKind, orderFlag, fromSecond bool) (Leg, error) {
	need := HeaderLen2Hop
	if kind == LegMid || fromSecond {
		need = HeaderLen3Hop
	}
	if len(header) < need {
		return Leg{}, program.ErrNotEnoughAccounts
	}

	switch kind {
	case LegBuy:
		return Leg{Kind: kind, In: header.reference(), Out: header.tokenA(), InputIsFirst: orderFlag}, nil
	case LegMid:
		return Leg{Kind: kind, In: header.tokenA(), Out: header.tokenB(), InputIsFirst: orderFlag}, nil
	case LegSell:
		in := header.tokenA()
		if fromSecond {
			in = header.tokenB()
		}
		return Leg{Kind: kind, In: in, Out: header.reference(), InputIsFirst: !orderFlag}, nil
	default:
		return Leg{}, fmt.Errorf("unknown leg kind %d", kind)
	}
}
