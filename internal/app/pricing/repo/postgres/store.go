// Package postgres stores product pricing state and the price ledger in
// PostgreSQL, along with completed orders. Each mutation is one transaction
// holding a row lock on the product.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

const (
	productColumns = `product_id, name, category_key, current_price, min_price, max_price,
		sales_count, last_sale_at, created_at, updated_at`
	historyColumns = `history_id, product_id, old_price, new_price, reason, detail, changed_at`
)

// Store implements contracts.ProductRepository and contracts.PriceHistoryRepository.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ contracts.ProductRepository      = (*Store)(nil)
	_ contracts.PriceHistoryRepository = (*Store)(nil)
)

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert stores a new product.
func (s *Store) Insert(ctx context.Context, state *domain.ProductPriceState) error {
	if err := state.CheckInvariant(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		state.ID(),
		state.Name(),
		state.CategoryKey(),
		toNumeric(state.CurrentPrice()),
		toNumeric(state.MinPrice()),
		toNumeric(state.MaxPrice()),
		state.SalesCount(),
		state.LastSaleAt(),
		state.CreatedAt(),
		state.UpdatedAt(),
	)
	if err != nil {
		return translateErr("insert product "+state.ID(), err)
	}
	return nil
}

// GetByID returns the product or ErrProductNotFound.
func (s *Store) GetByID(ctx context.Context, productID string) (*domain.ProductPriceState, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = $1`, productID)
	state, err := scanProduct(row)
	if err != nil {
		return nil, translateErr("read product", err)
	}
	return state, nil
}

// List returns every product ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*domain.ProductPriceState, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, product_id`)
	if err != nil {
		return nil, translateErr("list products", err)
	}
	defer rows.Close()

	states := make([]*domain.ProductPriceState, 0)
	for rows.Next() {
		state, err := scanProduct(rows)
		if err != nil {
			return nil, translateErr("list products", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("list products", err)
	}
	return states, nil
}

// ListIDs returns every product id ordered by creation time.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT product_id FROM products ORDER BY created_at, product_id`)
	if err != nil {
		return nil, translateErr("list product ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translateErr("list product ids", err)
	}
	return ids, nil
}

// Mutate locks the product row, applies fn and writes the product and the ledger
// entry in the same transaction.
func (s *Store) Mutate(ctx context.Context, productID string, fn contracts.MutateFunc) (*contracts.MutationResult, error) {
	var result *contracts.MutationResult

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = $1 FOR UPDATE`, productID)
		state, err := scanProduct(row)
		if err != nil {
			return err
		}

		entry, err := contracts.ApplyMutation(state, fn)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE products
			SET current_price = $2, sales_count = $3, last_sale_at = $4, updated_at = $5
			WHERE product_id = $1`,
			state.ID(),
			toNumeric(state.CurrentPrice()),
			state.SalesCount(),
			state.LastSaleAt(),
			state.UpdatedAt(),
		); err != nil {
			return err
		}

		if entry != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO price_history (`+historyColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				entry.ID(),
				entry.ProductID(),
				toNumeric(entry.OldPrice()),
				toNumeric(entry.NewPrice()),
				string(entry.Reason()),
				entry.Detail(),
				entry.ChangedAt(),
			); err != nil {
				return err
			}
		}

		result = &contracts.MutationResult{State: state, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, translateErr("mutate product "+productID, err)
	}
	return result, nil
}

// Delete removes the product; the foreign key cascades its history.
func (s *Store) Delete(ctx context.Context, productID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, productID)
	if err != nil {
		return translateErr("delete product "+productID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// MostRecent returns the newest ledger entry.
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

// AllForProduct returns the full ledger oldest first.
func (s *Store) AllForProduct(ctx context.Context, productID string) ([]*domain.PriceHistoryEntry, error) {
	return s.queryHistory(ctx, `
		SELECT `+historyColumns+`
		FROM price_history
		WHERE product_id = $1
		ORDER BY seq`, productID)
}

// LastN returns the newest n entries, oldest first.
func (s *Store) LastN(ctx context.Context, productID string, n int) ([]*domain.PriceHistoryEntry, error) {
	if n <= 0 {
		return []*domain.PriceHistoryEntry{}, nil
	}
	return s.queryHistory(ctx, `
		SELECT `+historyColumns+` FROM (
			SELECT seq, `+historyColumns+`
			FROM price_history
			WHERE product_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) newest
		ORDER BY seq`, productID, n)
}

func (s *Store) queryHistory(ctx context.Context, sql string, args ...any) ([]*domain.PriceHistoryEntry, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateErr("read price history", err)
	}
	defer rows.Close()

	entries := make([]*domain.PriceHistoryEntry, 0)
	for rows.Next() {
		var (
			id, productID, reason, detail string
			oldPrice, newPrice            pgtype.Numeric
			changedAt                     time.Time
		)
		if err := rows.Scan(&id, &productID, &oldPrice, &newPrice, &reason, &detail, &changedAt); err != nil {
			return nil, translateErr("read price history", err)
		}
		oldMoney, err := fromNumeric(oldPrice)
		if err != nil {
			return nil, err
		}
		newMoney, err := fromNumeric(newPrice)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.ReconstructPriceHistoryEntry(
			id, productID, oldMoney, newMoney, changedAt.UTC(), domain.ChangeReason(reason), detail,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("read price history", err)
	}
	return entries, nil
}

// withTx executes fn within a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.ProductPriceState, error) {
	var (
		id, name, category   string
		price, minP, maxP    pgtype.Numeric
		salesCount           int64
		lastSaleAt           *time.Time
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &category, &price, &minP, &maxP, &salesCount, &lastSaleAt, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	current, err := fromNumeric(price)
	if err != nil {
		return nil, err
	}
	minPrice, err := fromNumeric(minP)
	if err != nil {
		return nil, err
	}
	maxPrice, err := fromNumeric(maxP)
	if err != nil {
		return nil, err
	}
	if lastSaleAt != nil {
		at := lastSaleAt.UTC()
		lastSaleAt = &at
	}

	return domain.ReconstructProductPriceState(
		id, name, category,
		current,
		domain.PriceBounds{Min: minPrice, Max: maxPrice},
		salesCount,
		lastSaleAt,
		createdAt.UTC(),
		updatedAt.UTC(),
	), nil
}

func toNumeric(m domain.Money) pgtype.Numeric {
	d := m.Decimal()
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) (domain.Money, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return domain.Zero, fmt.Errorf("%w: non-finite numeric in storage", domain.ErrInvariantViolation)
	}
	return domain.NewMoneyFromDecimal(decimal.NewFromBigInt(n.Int, n.Exp)), nil
}

// translateErr maps pgx failures onto domain errors.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsNotFound(err) || domain.IsInvalidInput(err) || domain.IsFatal(err) || domain.IsTransient(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrTransientPersistence, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", domain.ErrProductExists, op)
		case "23514":
			return fmt.Errorf("%w: %s: %s", domain.ErrInvariantViolation, op, pgErr.ConstraintName)
		case "40001", "40P01", "55P03", "57P01":
			return fmt.Errorf("%w: %s: %v", domain.ErrTransientPersistence, op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrTransientPersistence, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
