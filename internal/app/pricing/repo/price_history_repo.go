package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/models/m_price_history"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// PriceHistoryRepo implements PriceHistoryRepository for Spanner.
type PriceHistoryRepo struct {
	client *spanner.Client
	model  *m_price_history.Model
}

var _ contracts.PriceHistoryRepository = (*PriceHistoryRepo)(nil)

// NewPriceHistoryRepo creates a new PriceHistoryRepo.
func NewPriceHistoryRepo(client *spanner.Client) *PriceHistoryRepo {
	return &PriceHistoryRepo{
		client: client,
		model:  m_price_history.NewModel(),
	}
}

// MostRecent returns the newest entry for the product.
func (r *PriceHistoryRepo) MostRecent(ctx context.Context, productID string) (*domain.PriceHistoryEntry, error) {
	entries, err := r.LastN(ctx, productID, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoPriceHistory
	}
	return entries[0], nil
}

// AllForProduct returns the whole ledger in sequence order.
func (r *PriceHistoryRepo) AllForProduct(ctx context.Context, productID string) ([]*domain.PriceHistoryEntry, error) {
	stmt := r.forProduct(productID).
		OrderBy(m_price_history.HistorySeq, query.Asc).
		Build()
	return r.fetch(ctx, stmt)
}

// LastN returns the newest n entries, oldest first.
func (r *PriceHistoryRepo) LastN(ctx context.Context, productID string, n int) ([]*domain.PriceHistoryEntry, error) {
	if n <= 0 {
		return []*domain.PriceHistoryEntry{}, nil
	}

	stmt := r.forProduct(productID).
		OrderBy(m_price_history.HistorySeq, query.Desc).
		Limit(int64(n)).
		Build()

	entries, err := r.fetch(ctx, stmt)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (r *PriceHistoryRepo) forProduct(productID string) *query.Builder {
	return query.From(m_price_history.TableName).
		Select(r.model.ReadColumns()...).
		Where(query.Eq(m_price_history.ProductID, productID))
}

func (r *PriceHistoryRepo) fetch(ctx context.Context, stmt spanner.Statement) ([]*domain.PriceHistoryEntry, error) {
	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	entries := make([]*domain.PriceHistoryEntry, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateErr("read price history", err)
		}

		var data m_price_history.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse price history: %w", err)
		}
		entries = append(entries, dataToEntry(&data))
	}
	return entries, nil
}

func entryToData(entry *domain.PriceHistoryEntry, seq int64) *m_price_history.Data {
	data := &m_price_history.Data{
		ProductID:  entry.ProductID(),
		HistorySeq: seq,
		HistoryID:  entry.ID(),
		OldPrice:   *entry.OldPrice().Rat(),
		NewPrice:   *entry.NewPrice().Rat(),
		Reason:     string(entry.Reason()),
		ChangedAt:  entry.ChangedAt(),
	}
	if entry.Detail() != "" {
		data.Detail = spanner.NullString{StringVal: entry.Detail(), Valid: true}
	}
	return data
}

func dataToEntry(data *m_price_history.Data) *domain.PriceHistoryEntry {
	return domain.ReconstructPriceHistoryEntry(
		data.HistoryID,
		data.ProductID,
		domain.NewMoneyFromRat(&data.OldPrice),
		domain.NewMoneyFromRat(&data.NewPrice),
		data.ChangedAt,
		domain.ChangeReason(data.Reason),
		data.Detail.StringVal,
	)
}
