// internal/arb/params/params.go

// Package params encodes and decodes the arbitrage instruction payload.
package params

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Opcodes of the arbitrage program.
const (
	OpcodeTwoHop   uint8 = 4
	OpcodeThreeHop uint8 = 5
)

// Payload sizes, opcode excluded.
const (
	TwoHopLen   = 25
	ThreeHopLen = 27
)

// SwapParams is the decoded payload. Mid and IsMidZeroToOne are only
// meaningful when ThreeHop is set.
type SwapParams struct {
	ThreeHop bool

	Buy  dex.PoolType
	Mid  dex.PoolType
	Sell dex.PoolType

	IsWsolPool0Buy  bool
	IsMidZeroToOne  bool
	IsWsolPool0Sell bool
	IsSimulate      bool

	AmountIn          uint64
	PumpBaseAmountOut uint64
	MinProfit         uint32
}

// Len returns the payload size for the layout.
func Len(threeHop bool) int {
	if threeHop {
		return ThreeHopLen
	}
	return TwoHopLen
}

// Decode parses data (opcode already consumed). Only the length is
// validated: tags and amounts are taken as is, and flags are true iff the
// byte is 1. Trailing bytes are ignored.
func Decode(data []byte, threeHop bool) (*SwapParams, error) {
	if len(data) < Len(threeHop) {
		return nil, program.ErrInstructionDataTooShort
	}

	r := reader{dec: bin.NewBinDecoder(data)}
	p := &SwapParams{ThreeHop: threeHop}
	if threeHop {
		p.Buy = dex.PoolType(r.u8())
		p.Mid = dex.PoolType(r.u8())
		p.Sell = dex.PoolType(r.u8())
		p.IsWsolPool0Buy = r.flag()
		p.IsMidZeroToOne = r.flag()
		p.IsWsolPool0Sell = r.flag()
	} else {
		p.Buy = dex.PoolType(r.u8())
		p.Sell = dex.PoolType(r.u8())
		p.IsWsolPool0Buy = r.flag()
		p.IsWsolPool0Sell = r.flag()
	}
	p.IsSimulate = r.flag()
	p.AmountIn = r.u64()
	p.PumpBaseAmountOut = r.u64()
	p.MinProfit = r.u32()

	if r.err != nil {
		return nil, program.Wrap(program.ErrInstructionDataTooShort, r.err)
	}
	return p, nil
}

// DecodeInstruction splits off the opcode and decodes the rest.
func DecodeInstruction(data []byte) (*SwapParams, error) {
	if len(data) == 0 {
		return nil, program.ErrInstructionDataTooShort
	}
	switch data[0] {
	case OpcodeTwoHop:
		return Decode(data[1:], false)
	case OpcodeThreeHop:
		return Decode(data[1:], true)
	default:
		return nil, fmt.Errorf("%w: opcode %d", program.ErrInvalidInstructionData, data[0])
	}
}

// MarshalPayload writes the payload without the opcode.
func (p *SwapParams) MarshalPayload() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(Len(p.ThreeHop))
	if err := p.encode(&writer{enc: bin.NewBinEncoder(buf)}); err != nil {
		return nil, fmt.Errorf("failed to encode swap params: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalInstruction writes opcode and payload.
func (p *SwapParams) MarshalInstruction() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(1 + Len(p.ThreeHop))
	w := &writer{enc: bin.NewBinEncoder(buf)}
	w.u8(p.Opcode())
	if err := p.encode(w); err != nil {
		return nil, fmt.Errorf("failed to encode swap instruction: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode is MarshalPayload for callers that write to memory only. It
// panics on an encoder error.
func (p *SwapParams) Encode() []byte {
	data, err := p.MarshalPayload()
	if err != nil {
		panic(err)
	}
	return data
}

// Instruction is MarshalInstruction for callers that write to memory only.
// It panics on an encoder error.
func (p *SwapParams) Instruction() []byte {
	data, err := p.MarshalInstruction()
	if err != nil {
		panic(err)
	}
	return data
}

func (p *SwapParams) encode(w *writer) error {
	w.u8(uint8(p.Buy))
	if p.ThreeHop {
		w.u8(uint8(p.Mid))
	}
	w.u8(uint8(p.Sell))
	w.flag(p.IsWsolPool0Buy)
	if p.ThreeHop {
		w.flag(p.IsMidZeroToOne)
	}
	w.flag(p.IsWsolPool0Sell)
	w.flag(p.IsSimulate)
	w.u64(p.AmountIn)
	w.u64(p.PumpBaseAmountOut)
	w.u32(p.MinProfit)
	return w.err
}

// writer keeps the first encoder error and skips later writes.
type writer struct {
	enc *bin.Encoder
	err error
}

func (w *writer) u8(v uint8) {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
}

func (w *writer) flag(v bool) {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
}

func (w *writer) u32(v uint32) {
	if w.err == nil {
		w.err = w.enc.WriteUint32(v, bin.LE)
	}
}

func (w *writer) u64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, bin.LE)
	}
}

// Opcode returns the opcode selecting this layout.
func (p *SwapParams) Opcode() uint8 {
	if p.ThreeHop {
		return OpcodeThreeHop
	}
	return OpcodeTwoHop
}

// Hops returns the pool tags in execution order.
func (p *SwapParams) Hops() []dex.PoolType {
	if p.ThreeHop {
		return []dex.PoolType{p.Buy, p.Mid, p.Sell}
	}
	return []dex.PoolType{p.Buy, p.Sell}
}

// HeaderLen returns the header account count for the layout.
func (p *SwapParams) HeaderLen() int {
	if p.ThreeHop {
		return dex.HeaderLen3Hop
	}
	return dex.HeaderLen2Hop
}

type reader struct {
	dec *bin.Decoder
	err error
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.err = err
	return v
}

func (r *reader) flag() bool {
	return r.u8() == 1
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(bin.LE)
	r.err = err
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(bin.LE)
	r.err = err
	return v
}
