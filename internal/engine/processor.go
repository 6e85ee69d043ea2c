// internal/engine/processor.go
package engine

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/arb/params"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Processor is the program entrypoint: it dispatches on the opcode byte and
// hands the decoded payload to the engine.
type Processor struct {
	engine *Engine
}

// NewProcessor wraps e. A nil engine uses New().
func NewProcessor(e *Engine) *Processor {
	if e == nil {
		e = New()
	}
	return &Processor{engine: e}
}

// Process handles one instruction. It satisfies program.Entrypoint.
func (p *Processor) Process(rt program.Runtime, programID solana.PublicKey, accounts []*program.AccountInfo, data []byte) error {
	sp, err := params.DecodeInstruction(data)
	if err != nil {
		p.engine.logger.Debug("Rejected instruction", zap.Int("data_len", len(data)), zap.Error(err))
		return err
	}
	_, err = p.engine.Execute(rt, sp, accounts)
	return err
}

var _ program.Entrypoint = (*Processor)(nil).Process
