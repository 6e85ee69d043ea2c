// =============================
// File: internal/dex/dex.go
// =============================

// Package dex holds what the AMM adapters share: pool tags, header slots,
// leg resolution and the CPI call builder.
package dex

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Hop is the input of a single swap.
type Hop struct {
	// AmountIn is the quantity of the input asset to spend.
	AmountIn uint64
	// BaseAmountOut is the desired output of a Pump buy, denominated in base units.
	BaseAmountOut uint64
	// Header is the shared account prefix.
	Header Header
	// Accounts is this hop's protocol account group.
	Accounts []*program.AccountInfo
}

// Builder produces the CPI for one protocol.
type Builder interface {
	PoolType() PoolType
	// Accounts lists the protocol account roles in order.
	Accounts() []AccountSpec
	// Build assembles the instruction for leg. It performs no invocation.
	Build(hop Hop, leg Leg) (*Call, error)
}

// Adapter is a Builder that also executes swaps.
type Adapter interface {
	Builder
	// Swap runs a buy (isBuy) or sell leg of a 2-hop chain. orderFlag reports
	// whether the reference asset is the pool's first asset.
	Swap(rt program.Runtime, hop Hop, isBuy, orderFlag bool) error
	// SwapHop3 runs step 1 (buy), 2 (mid) or 3 (sell from token B) of a 3-hop chain.
	SwapHop3(rt program.Runtime, hop Hop, step Step, orderFlag bool) error
}

// Swap is the shared implementation of Adapter.Swap.
func Swap(rt program.Runtime, b Builder, hop Hop, isBuy, orderFlag bool) error {
	kind := LegSell
	if isBuy {
		kind = LegBuy
	}
	leg, err := ResolveLeg(hop.Header, kind, orderFlag, false)
	if err != nil {
		return err
	}
	return Execute(rt, b, hop, leg)
}

// SwapHop3 is the shared implementation of Adapter.SwapHop3.
func SwapHop3(rt program.Runtime, b Builder, hop Hop, step Step, orderFlag bool) error {
	var (
		leg Leg
		err error
	)
	switch step {
	case Step1:
		leg, err = ResolveLeg(hop.Header, LegBuy, orderFlag, false)
	case Step2:
		leg, err = ResolveLeg(hop.Header, LegMid, orderFlag, false)
	case Step3:
		leg, err = ResolveLeg(hop.Header, LegSell, orderFlag, true)
	default:
		return fmt.Errorf("invalid hop step %d", step)
	}
	if err != nil {
		return err
	}
	return Execute(rt, b, hop, leg)
}

// Execute builds the call for leg and invokes it.
func Execute(rt program.Runtime, b Builder, hop Hop, leg Leg) error {
	call, err := BuildChecked(b, hop, leg)
	if err != nil {
		return err
	}
	return call.Invoke(rt)
}

// BuildChecked verifies the protocol account group size before calling b.Build.
func BuildChecked(b Builder, hop Hop, leg Leg) (*Call, error) {
	if len(hop.Accounts) < b.PoolType().AccountCount() {
		return nil, program.ErrNotEnoughAccounts
	}
	return b.Build(hop, leg)
}

// Call is a CPI under construction: account metas and the parallel list of
// account handles are appended together.
type Call struct {
	ProgramID solana.PublicKey
	Metas     solana.AccountMetaSlice
	Accounts  []*program.AccountInfo
	Data      []byte
}

// NewCall starts a call to programID with the given instruction data.
func NewCall(programID solana.PublicKey, data []byte, metas int) *Call {
	return &Call{
		ProgramID: programID,
		Metas:     make(solana.AccountMetaSlice, 0, metas),
		Accounts:  make([]*program.AccountInfo, 0, metas),
		Data:      data,
	}
}

func (c *Call) add(acc *program.AccountInfo, writable, signer bool) *Call {
	c.Metas = append(c.Metas, acc.Meta(writable, signer))
	c.Accounts = append(c.Accounts, acc)
	return c
}

// Readonly appends a read-only, non-signer account.
func (c *Call) Readonly(acc *program.AccountInfo) *Call { return c.add(acc, false, false) }

// Writable appends a writable, non-signer account.
func (c *Call) Writable(acc *program.AccountInfo) *Call { return c.add(acc, true, false) }

// WritableSigner appends a writable signer (the payer).
func (c *Call) WritableSigner(acc *program.AccountInfo) *Call { return c.add(acc, true, true) }

// Instruction returns the wire instruction.
func (c *Call) Instruction() *solana.GenericInstruction {
	return solana.NewInstruction(c.ProgramID, c.Metas, c.Data)
}

// Invoke performs the CPI. Callee failures surface as ErrCpiCallFailed.
func (c *Call) Invoke(rt program.Runtime) error {
	if err := rt.Invoke(c.Instruction(), c.Accounts); err != nil {
		return program.Wrap(program.ErrCpiCallFailed, err)
	}
	return nil
}
