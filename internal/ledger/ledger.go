// internal/ledger/ledger.go

// Package ledger is a deterministic in-memory account store that executes
// registered programs with synchronous cross-program invocation. Programs see
// the same semantics they would on chain: CPI privileges are checked, callee
// writes are visible on return, and a failed top-level instruction leaves no
// trace in account state.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

const (
	// MaxInvokeDepth is the deepest nesting allowed, counting the top-level instruction.
	MaxInvokeDepth = 5
	// MaxReturnDataLen bounds the return data a program may publish.
	MaxReturnDataLen = 1024
)

var programOwner = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

var (
	ErrProgramNotFound       = errors.New("program not found")
	ErrMissingAccount        = errors.New("instruction references an account that was not passed")
	ErrPrivilegeEscalation   = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrInvokeDepthExceeded   = errors.New("cross-program invocation call depth too deep")
	ErrReadonlyDataModified  = errors.New("instruction modified data of a read-only account")
	errUnexpectedAccountSize = errors.New("account data length changed")
)

// Invocation records one program execution.
type Invocation struct {
	Depth     int
	ProgramID solana.PublicKey
	Metas     []solana.AccountMeta
	Data      []byte
	Err       error
}

type account struct {
	owner      solana.PublicKey
	lamports   uint64
	data       []byte
	executable bool
}

// Ledger holds accounts and programs. It is safe for concurrent use;
// instructions execute one at a time.
type Ledger struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*account
	programs map[solana.PublicKey]program.Entrypoint

	trace      []Invocation
	returnData []byte
	returnFrom solana.PublicKey

	logger *zap.Logger
}

// New creates an empty ledger.
func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		accounts: make(map[solana.PublicKey]*account),
		programs: make(map[solana.PublicKey]program.Entrypoint),
		logger:   logger.Named("ledger"),
	}
}

// SetAccount creates or replaces an account. data is copied.
func (l *Ledger) SetAccount(key, owner solana.PublicKey, lamports uint64, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[key] = &account{
		owner:    owner,
		lamports: lamports,
		data:     append([]byte(nil), data...),
	}
}

// RegisterProgram makes entry callable at id and creates its executable account.
func (l *Ledger) RegisterProgram(id solana.PublicKey, entry program.Entrypoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.programs[id] = entry
	l.accounts[id] = &account{owner: programOwner, executable: true, lamports: 1}
}

// Account returns a copy of the stored account.
func (l *Ledger) Account(key solana.PublicKey) (program.AccountInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[key]
	if !ok {
		return program.AccountInfo{}, false
	}
	return program.AccountInfo{
		Key:        key,
		Owner:      acc.owner,
		Lamports:   acc.lamports,
		Data:       append([]byte(nil), acc.data...),
		Executable: acc.executable,
	}, true
}

// TokenBalance reads the token amount stored in key.
func (l *Ledger) TokenBalance(key solana.PublicKey) (uint64, error) {
	acc, ok := l.Account(key)
	if !ok {
		return 0, fmt.Errorf("account %s: %w", key, program.ErrInvalidTokenAccountData)
	}
	return program.TokenAmount(&acc)
}

// Result is the outcome of a top-level instruction.
type Result struct {
	ReturnData []byte
	// ReturnProgram is the program that last set return data.
	ReturnProgram solana.PublicKey
	Trace         []Invocation
}

// CPIs returns the invocations made below the top level.
func (r *Result) CPIs() []Invocation {
	var out []Invocation
	for _, inv := range r.Trace {
		if inv.Depth > 1 {
			out = append(out, inv)
		}
	}
	return out
}

// Execute runs ix as a top-level instruction. Signers and writable accounts
// are taken from the metas. On error every account is restored to its state
// before the call and no return data is kept.
func (l *Ledger) Execute(ix *solana.GenericInstruction) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trace = nil
	l.returnData = nil
	l.returnFrom = solana.PublicKey{}

	snap := l.snapshot()
	accounts := make([]*program.AccountInfo, len(ix.AccountValues))
	views := make(map[solana.PublicKey]*program.AccountInfo, len(ix.AccountValues))
	for i, meta := range ix.AccountValues {
		accounts[i] = l.view(meta, views)
	}

	err := l.run(ix.ProgID, ix.AccountValues, accounts, ix.DataBytes, 1)
	res := &Result{Trace: append([]Invocation(nil), l.trace...)}
	if err != nil {
		l.restore(snap)
		l.returnData = nil
		l.logger.Debug("Instruction failed, state rolled back",
			zap.Stringer("program", ix.ProgID),
			zap.Int("invocations", len(res.Trace)),
			zap.Error(err))
		return res, err
	}
	res.ReturnData = append([]byte(nil), l.returnData...)
	res.ReturnProgram = l.returnFrom
	return res, nil
}

// view builds the handle a program sees for meta. Handles for the same key
// within one invocation share identity.
func (l *Ledger) view(meta *solana.AccountMeta, views map[solana.PublicKey]*program.AccountInfo) *program.AccountInfo {
	if v, ok := views[meta.PublicKey]; ok {
		v.IsWritable = v.IsWritable || meta.IsWritable
		v.IsSigner = v.IsSigner || meta.IsSigner
		return v
	}
	acc, ok := l.accounts[meta.PublicKey]
	if !ok {
		acc = &account{owner: solana.SystemProgramID}
		l.accounts[meta.PublicKey] = acc
	}
	v := &program.AccountInfo{
		Key:        meta.PublicKey,
		Owner:      acc.owner,
		Lamports:   acc.lamports,
		Data:       acc.data,
		IsSigner:   meta.IsSigner,
		IsWritable: meta.IsWritable,
		Executable: acc.executable,
	}
	views[meta.PublicKey] = v
	return v
}

func (l *Ledger) run(programID solana.PublicKey, metas []*solana.AccountMeta, accounts []*program.AccountInfo, data []byte, depth int) error {
	inv := Invocation{
		Depth:     depth,
		ProgramID: programID,
		Metas:     copyMetas(metas),
		Data:      append([]byte(nil), data...),
	}
	idx := len(l.trace)
	l.trace = append(l.trace, inv)

	err := l.dispatch(programID, accounts, data, depth)
	l.trace[idx].Err = err
	return err
}

func (l *Ledger) dispatch(programID solana.PublicKey, accounts []*program.AccountInfo, data []byte, depth int) error {
	if depth > MaxInvokeDepth {
		return ErrInvokeDepthExceeded
	}
	entry, ok := l.programs[programID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, programID)
	}

	readonly := readonlySnapshot(accounts)
	f := &frame{ledger: l, program: programID, accounts: accounts, depth: depth}
	if err := entry(f, programID, accounts, data); err != nil {
		return err
	}
	return readonly.verify()
}

func copyMetas(metas []*solana.AccountMeta) []solana.AccountMeta {
	out := make([]solana.AccountMeta, len(metas))
	for i, m := range metas {
		out[i] = *m
	}
	return out
}

type snapshot map[solana.PublicKey][]byte

func (l *Ledger) snapshot() snapshot {
	s := make(snapshot, len(l.accounts))
	for key, acc := range l.accounts {
		s[key] = append([]byte(nil), acc.data...)
	}
	return s
}

// restore writes saved bytes back in place so outstanding handles stay valid.
// Accounts created during the failed instruction are dropped.
func (l *Ledger) restore(s snapshot) {
	for key, acc := range l.accounts {
		saved, ok := s[key]
		if !ok {
			delete(l.accounts, key)
			continue
		}
		copy(acc.data, saved)
	}
}

// Trace returns the invocations of the last executed instruction.
func (l *Ledger) Trace() []Invocation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Invocation(nil), l.trace...)
}
