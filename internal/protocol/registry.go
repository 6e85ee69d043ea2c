// internal/protocol/registry.go

// Package protocol maps pool tags to their swap adapters.
package protocol

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/dex/clmm"
	"github.com/rovshanmuradov/solana-arb/internal/dex/cpmm"
	"github.com/rovshanmuradov/solana-arb/internal/dex/dammv2"
	"github.com/rovshanmuradov/solana-arb/internal/dex/dlmm"
	"github.com/rovshanmuradov/solana-arb/internal/dex/pumpswap"
	"github.com/rovshanmuradov/solana-arb/internal/dex/raydium"
	"github.com/rovshanmuradov/solana-arb/internal/dex/whirlpool"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

// Registry manages adapter registrations.
type Registry struct {
	mu       sync.RWMutex
	adapters map[dex.PoolType]dex.Adapter
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		adapters: make(map[dex.PoolType]dex.Adapter),
		logger:   logger.Named("protocol_registry"),
	}
}

// Register adds an adapter under its pool type.
func (r *Registry) Register(a dex.Adapter) error {
	pt := a.PoolType()
	if !pt.Valid() {
		return fmt.Errorf("%w: %d", program.ErrUnsupportedPoolType, uint8(pt))
	}
	if got, want := len(a.Accounts()), pt.AccountCount(); got != want {
		return fmt.Errorf("adapter %s declares %d accounts, registry expects %d", pt, got, want)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[pt]; exists {
		return fmt.Errorf("adapter %s already registered", pt)
	}
	r.adapters[pt] = a

	r.logger.Debug("Adapter registered",
		zap.String("pool_type", pt.String()),
		zap.Int("accounts", pt.AccountCount()))
	return nil
}

// Get retrieves the adapter for pt.
func (r *Registry) Get(pt dex.PoolType) (dex.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.adapters[pt]
	if !exists {
		return nil, program.ErrUnsupportedPoolType
	}
	return a, nil
}

// Lookup validates a raw tag and returns its adapter.
func (r *Registry) Lookup(tag uint8) (dex.Adapter, error) {
	pt, err := dex.Lookup(tag)
	if err != nil {
		return nil, err
	}
	return r.Get(pt)
}

// List returns the registered pool types in tag order.
func (r *Registry) List() []dex.PoolType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]dex.PoolType, 0, len(r.adapters))
	for pt := range r.adapters {
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Builtin returns every adapter this module ships, in tag order.
func Builtin() []dex.Adapter {
	return []dex.Adapter{
		cpmm.New(),
		dlmm.New(),
		dammv2.New(),
		pumpswap.New(),
		raydium.New(),
		clmm.New(),
		whirlpool.New(),
	}
}

// NewDefaultRegistry returns a registry holding all builtin adapters.
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	for _, a := range Builtin() {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

// DefaultRegistry is the global adapter registry.
var DefaultRegistry = NewDefaultRegistry(nil)

// Lookup resolves a tag against the default registry.
func Lookup(tag uint8) (dex.Adapter, error) {
	return DefaultRegistry.Lookup(tag)
}
