package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// SaveOrder appends the order. Order ids are unique.
func (s *Store) SaveOrder(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: save order %s: %v", domain.ErrTransientPersistence, order.ID(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID() == order.ID() {
			return fmt.Errorf("order %s already recorded", order.ID())
		}
	}
	s.orders = append(s.orders, domain.ReconstructOrder(order.ID(), order.Lines(), order.Total(), order.PlacedAt()))
	return nil
}

// ListOrders returns every order ordered by placement time.
func (s *Store) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]*domain.Order, len(s.orders))
	copy(out, s.orders)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PlacedAt().Equal(out[j].PlacedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].PlacedAt().Before(out[j].PlacedAt())
	})
	return out, nil
}
