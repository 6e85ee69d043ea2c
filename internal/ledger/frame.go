// internal/ledger/frame.go
package ledger

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// frame is the runtime handed to an executing program.
type frame struct {
	ledger   *Ledger
	program  solana.PublicKey
	accounts []*program.AccountInfo
	depth    int
}

var _ program.Runtime = (*frame)(nil)

// Invoke checks that every meta is backed by a passed handle the caller holds
// with at least the requested privileges, then runs the callee.
func (f *frame) Invoke(ix *solana.GenericInstruction, accounts []*program.AccountInfo) error {
	callerHeld := make(map[solana.PublicKey]*program.AccountInfo, len(f.accounts))
	for _, acc := range f.accounts {
		held := callerHeld[acc.Key]
		if held == nil {
			callerHeld[acc.Key] = acc
			continue
		}
		if acc.IsWritable || acc.IsSigner {
			merged := *held
			merged.IsWritable = held.IsWritable || acc.IsWritable
			merged.IsSigner = held.IsSigner || acc.IsSigner
			callerHeld[acc.Key] = &merged
		}
	}

	passed := make(map[solana.PublicKey]bool, len(accounts))
	for _, acc := range accounts {
		passed[acc.Key] = true
	}

	for _, meta := range ix.AccountValues {
		if !passed[meta.PublicKey] {
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.PublicKey)
		}
		held, ok := callerHeld[meta.PublicKey]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.PublicKey)
		}
		if meta.IsWritable && !held.IsWritable {
			return fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.PublicKey)
		}
		if meta.IsSigner && !held.IsSigner {
			return fmt.Errorf("%w: %s did not sign", ErrPrivilegeEscalation, meta.PublicKey)
		}
	}

	l := f.ledger
	views := make(map[solana.PublicKey]*program.AccountInfo, len(ix.AccountValues))
	calleeAccounts := make([]*program.AccountInfo, len(ix.AccountValues))
	for i, meta := range ix.AccountValues {
		calleeAccounts[i] = l.view(meta, views)
	}
	return l.run(ix.ProgID, ix.AccountValues, calleeAccounts, ix.DataBytes, f.depth+1)
}

func (f *frame) SetReturnData(data []byte) {
	if len(data) > MaxReturnDataLen {
		data = data[:MaxReturnDataLen]
	}
	f.ledger.returnData = append([]byte(nil), data...)
	f.ledger.returnFrom = f.program
}

// readonlyCheck remembers the data of read-only handles so modification can
// be detected when the program returns.
type readonlyCheck []struct {
	acc  *program.AccountInfo
	data []byte
}

func readonlySnapshot(accounts []*program.AccountInfo) readonlyCheck {
	writable := make(map[solana.PublicKey]bool, len(accounts))
	for _, acc := range accounts {
		if acc.IsWritable {
			writable[acc.Key] = true
		}
	}
	var rc readonlyCheck
	seen := make(map[solana.PublicKey]bool, len(accounts))
	for _, acc := range accounts {
		if writable[acc.Key] || seen[acc.Key] {
			continue
		}
		seen[acc.Key] = true
		rc = append(rc, struct {
			acc  *program.AccountInfo
			data []byte
		}{acc, append([]byte(nil), acc.Data...)})
	}
	return rc
}

func (rc readonlyCheck) verify() error {
	for _, e := range rc {
		if len(e.acc.Data) != len(e.data) {
			return fmt.Errorf("%w: %s", errUnexpectedAccountSize, e.acc.Key)
		}
		if !bytes.Equal(e.acc.Data, e.data) {
			return fmt.Errorf("%w: %s", ErrReadonlyDataModified, e.acc.Key)
		}
	}
	return nil
}
