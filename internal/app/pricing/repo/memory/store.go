// Package memory is an in-process implementation of the product and price ledger
// repositories. Each product mutation runs under a per-product lock; the shared
// maps are guarded by a short-lived lock that is never held while a mutation runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/pkg/keylock"
)

// Store implements contracts.ProductRepository, contracts.PriceHistoryRepository
// and contracts.OrderRepository.
type Store struct {
	locks *keylock.KeyedMutex

	mu       sync.RWMutex
	products map[string]*domain.ProductPriceState
	history  map[string][]*domain.PriceHistoryEntry
	orders   []*domain.Order
}

var (
	_ contracts.ProductRepository      = (*Store)(nil)
	_ contracts.PriceHistoryRepository = (*Store)(nil)
	_ contracts.OrderRepository        = (*Store)(nil)
)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		locks:    keylock.New(),
		products: make(map[string]*domain.ProductPriceState),
		history:  make(map[string][]*domain.PriceHistoryEntry),
	}
}

// Insert stores a new product.
func (s *Store) Insert(ctx context.Context, state *domain.ProductPriceState) error {
	if err := state.CheckInvariant(); err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, state.ID())
	if err != nil {
		return fmt.Errorf("%w: lock product %s: %v", domain.ErrTransientPersistence, state.ID(), err)
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[state.ID()]; ok {
		return fmt.Errorf("%w: %s", domain.ErrProductExists, state.ID())
	}
	s.products[state.ID()] = state.Clone()
	return nil
}

// GetByID returns a snapshot of the product.
func (s *Store) GetByID(ctx context.Context, productID string) (*domain.ProductPriceState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return state.Clone(), nil
}

// List returns snapshots of all products ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*domain.ProductPriceState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	states := make([]*domain.ProductPriceState, 0, len(s.products))
	for _, state := range s.products {
		states = append(states, state.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		if states[i].CreatedAt().Equal(states[j].CreatedAt()) {
			return states[i].ID() < states[j].ID()
		}
		return states[i].CreatedAt().Before(states[j].CreatedAt())
	})
	return states, nil
}

// ListIDs returns all product ids ordered by creation time.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	states, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(states))
	for i, state := range states {
		ids[i] = state.ID()
	}
	return ids, nil
}

// Mutate runs fn against a working copy of the product under its lock and
// publishes the copy and the ledger entry together.
func (s *Store) Mutate(ctx context.Context, productID string, fn contracts.MutateFunc) (*contracts.MutationResult, error) {
	unlock, err := s.locks.Lock(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: lock product %s: %v", domain.ErrTransientPersistence, productID, err)
	}
	defer unlock()

	s.mu.RLock()
	stored, ok := s.products[productID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	working := stored.Clone()
	entry, err := contracts.ApplyMutation(working, fn)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: product %s: %v", domain.ErrTransientPersistence, productID, err)
	}

	s.mu.Lock()
	s.products[productID] = working
	if entry != nil {
		s.history[productID] = append(s.history[productID], entry)
	}
	s.mu.Unlock()

	return &contracts.MutationResult{State: working.Clone(), Entry: entry}, nil
}

// Delete removes the product and cascades its ledger.
func (s *Store) Delete(ctx context.Context, productID string) error {
	unlock, err := s.locks.Lock(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: lock product %s: %v", domain.ErrTransientPersistence, productID, err)
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, productID)
	delete(s.history, productID)
	return nil
}

// MostRecent returns the latest ledger entry.
func (s *Store) MostRecent(ctx context.Context, productID string) (*domain.PriceHistoryEntry, error) {
	entries, err := s.LastN(ctx, productID, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoPriceHistory
	}
	return entries[0], nil
}

// AllForProduct returns the full ledger, oldest first.
func (s *Store) AllForProduct(ctx context.Context, productID string) ([]*domain.PriceHistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[productID]
	out := make([]*domain.PriceHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// LastN returns the newest n entries, oldest first.
func (s *Store) LastN(ctx context.Context, productID string, n int) ([]*domain.PriceHistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []*domain.PriceHistoryEntry{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[productID]
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]*domain.PriceHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}
