// internal/engine/partition.go
package engine

import (
	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Layout is the account list split into the shared header and one protocol
// group per hop.
type Layout struct {
	Header dex.Header
	Groups [][]*program.AccountInfo
}

// Partition splits accounts into a header of headerLen accounts followed by
// one group per hop, sized by the pool registry. Every tag is validated
// before anything is sliced. Surplus accounts are ignored.
func Partition(accounts []*program.AccountInfo, headerLen int, hops []dex.PoolType) (*Layout, error) {
	need := headerLen
	for _, pt := range hops {
		if _, err := dex.Lookup(uint8(pt)); err != nil {
			return nil, err
		}
		need += pt.AccountCount()
	}
	if len(accounts) < need {
		return nil, program.ErrNotEnoughAccounts
	}

	layout := &Layout{
		Header: dex.Header(accounts[:headerLen:headerLen]),
		Groups: make([][]*program.AccountInfo, len(hops)),
	}
	rest := accounts[headerLen:]
	for i, pt := range hops {
		n := pt.AccountCount()
		layout.Groups[i] = rest[:n:n]
		rest = rest[n:]
	}
	return layout, nil
}
