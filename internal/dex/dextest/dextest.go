// internal/dex/dextest/dextest.go

// Package dextest provides deterministic account fixtures and a recording
// runtime for adapter tests.
package dextest

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Key returns a deterministic public key whose bytes are all b except the
// last, which holds i.
func Key(b byte, i int) solana.PublicKey {
	var k solana.PublicKey
	for n := range k {
		k[n] = b
	}
	k[len(k)-1] = byte(i)
	return k
}

// Account returns an account handle with a deterministic key.
func Account(b byte, i int) *program.AccountInfo {
	return &program.AccountInfo{Key: Key(b, i), Data: make([]byte, program.TokenAccountSize)}
}

// Header builds a 9 or 12 slot header. Slot i has key Key(0xAA, i); the payer is a signer.
func Header(threeHop bool) dex.Header {
	n := dex.HeaderLen2Hop
	if threeHop {
		n = dex.HeaderLen3Hop
	}
	h := make(dex.Header, n)
	for i := range h {
		h[i] = Account(0xAA, i)
		h[i].IsWritable = true
	}
	h[dex.HeaderPayer].IsSigner = true
	return h
}

// Accounts builds a protocol account group of n accounts keyed Key(0xBB, i).
func Accounts(n int) []*program.AccountInfo {
	accs := make([]*program.AccountInfo, n)
	for i := range accs {
		accs[i] = Account(0xBB, i)
		accs[i].IsWritable = true
	}
	return accs
}

// Hop builds a hop over a fresh header and protocol group.
func Hop(pool dex.PoolType, threeHop bool, amountIn uint64) dex.Hop {
	return dex.Hop{
		AmountIn:      amountIn,
		BaseAmountOut: amountIn / 2,
		Header:        Header(threeHop),
		Accounts:      Accounts(pool.AccountCount()),
	}
}

// Invocation is one recorded CPI.
type Invocation struct {
	Instruction *solana.GenericInstruction
	Accounts    []*program.AccountInfo
}

// Recorder is a program.Runtime that records invocations and returns Err.
type Recorder struct {
	Calls      []Invocation
	ReturnData []byte
	Err        error
}

var _ program.Runtime = (*Recorder)(nil)

func (r *Recorder) Invoke(ix *solana.GenericInstruction, accounts []*program.AccountInfo) error {
	r.Calls = append(r.Calls, Invocation{Instruction: ix, Accounts: accounts})
	return r.Err
}

func (r *Recorder) SetReturnData(data []byte) {
	r.ReturnData = append([]byte(nil), data...)
}

// Last returns the most recent invocation.
func (r *Recorder) Last() Invocation {
	if len(r.Calls) == 0 {
		return Invocation{}
	}
	return r.Calls[len(r.Calls)-1]
}

// Meta is a comparable view of an account meta.
type Meta struct {
	Key      solana.PublicKey
	Writable bool
	Signer   bool
}

// R, W and WS build expected metas.
func R(acc *program.AccountInfo) Meta  { return Meta{Key: acc.Key} }
func W(acc *program.AccountInfo) Meta  { return Meta{Key: acc.Key, Writable: true} }
func WS(acc *program.AccountInfo) Meta { return Meta{Key: acc.Key, Writable: true, Signer: true} }

// Metas flattens a call's account metas.
func Metas(call *dex.Call) []Meta {
	out := make([]Meta, len(call.Metas))
	for i, m := range call.Metas {
		out[i] = Meta{Key: m.PublicKey, Writable: m.IsWritable, Signer: m.IsSigner}
	}
	return out
}

// InstructionMetas flattens an instruction's account metas.
func InstructionMetas(ix *solana.GenericInstruction) []Meta {
	return Metas(&dex.Call{Metas: ix.AccountValues})
}

// Keys returns the keys of metas in order.
func Keys(metas []Meta) []solana.PublicKey {
	out := make([]solana.PublicKey, len(metas))
	for i, m := range metas {
		out[i] = m.Key
	}
	return out
}
