// internal/blockchain/solbc/error_analyzer.go
package solbc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// ErrorAnalysis is what could be recovered from a failed send or simulation.
//
// Code is only taken from the arbitrage program's own failure. When another
// program failed first (a swap callee, the token program, the ATA program)
// Code is CpiCallFailed and FailedProgram/Reason describe the callee.
type ErrorAnalysis struct {
	Message          string
	SimulationFailed bool
	Logs             []string
	Code             program.Code
	HasCode          bool

	FailedProgram solana.PublicKey
	Reason        string
	Callee        bool
}

// ErrorAnalyzer extracts program error codes and logs from RPC failures.
type ErrorAnalyzer struct {
	programID solana.PublicKey
	logger    *zap.Logger
}

// NewErrorAnalyzer creates an analyzer for failures of programID.
func NewErrorAnalyzer(programID solana.PublicKey, logger *zap.Logger) *ErrorAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorAnalyzer{programID: programID, logger: logger.Named("error-analyzer")}
}

// AnalyzeRPCError inspects err. Preflight failures carry the simulation
// logs in the RPC error data.
func (ea *ErrorAnalyzer) AnalyzeRPCError(err error) *ErrorAnalysis {
	if err == nil {
		return nil
	}
	analysis := &ErrorAnalysis{Message: err.Error()}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		analysis.Message = rpcErr.Message
		analysis.SimulationFailed = strings.Contains(rpcErr.Message, "Transaction simulation failed")
		if data, ok := rpcErr.Data.(map[string]interface{}); ok {
			if logs, ok := data["logs"].([]interface{}); ok {
				for _, entry := range logs {
					if line, ok := entry.(string); ok {
						analysis.Logs = append(analysis.Logs, line)
					}
				}
			}
		}
	}

	ea.resolveCode(analysis)
	return analysis
}

// AnalyzeSimulation inspects a simulation error value and its logs.
func (ea *ErrorAnalyzer) AnalyzeSimulation(simErr interface{}, logs []string) *ErrorAnalysis {
	if simErr == nil {
		return nil
	}
	analysis := &ErrorAnalysis{
		Message:          fmt.Sprintf("%v", simErr),
		SimulationFailed: true,
		Logs:             logs,
	}
	ea.resolveCode(analysis)
	return analysis
}

// resolveCode attributes the failure to the program named by the innermost
// "Program <id> failed: ..." log line. The custom error number in the
// transaction error is the same for every frame of a failed CPI, so it
// cannot tell a callee's code from ours.
func (ea *ErrorAnalyzer) resolveCode(analysis *ErrorAnalysis) {
	id, reason, ok := innermostFailure(analysis.Logs)
	if !ok {
		return
	}
	analysis.Reason = reason
	if pk, err := solana.PublicKeyFromBase58(id); err == nil {
		analysis.FailedProgram = pk
	}

	if id == ea.programID.String() {
		analysis.Code, analysis.HasCode = program.ParseCustomError(reason)
		return
	}

	analysis.Callee = true
	analysis.Code, analysis.HasCode = program.ErrCpiCallFailed, true
	ea.logger.Debug("Failure raised by another program",
		zap.String("program", id),
		zap.String("reason", reason))
}

// innermostFailure returns the first "Program <id> failed: <reason>" line.
// A failing CPI logs its own failure before every caller frame.
func innermostFailure(logs []string) (id, reason string, ok bool) {
	for _, line := range logs {
		rest, found := strings.CutPrefix(line, "Program ")
		if !found {
			continue
		}
		id, rest, found = strings.Cut(rest, " ")
		if !found {
			continue
		}
		if reason, found = strings.CutPrefix(rest, "failed: "); found {
			return id, reason, true
		}
	}
	return "", "", false
}

// Err converts the analysis into an error that matches program codes with
// errors.Is.
func (a *ErrorAnalysis) Err(cause error) error {
	if a == nil {
		return cause
	}
	if cause == nil {
		cause = errors.New(a.Message)
	}
	if a.Callee {
		return program.Wrap(program.ErrCpiCallFailed,
			fmt.Errorf("program %s failed: %s: %w", a.FailedProgram, a.Reason, cause))
	}
	if a.HasCode {
		return program.Wrap(a.Code, cause)
	}
	return cause
}
