package place_order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/adjust_price"
	"github.com/light-bringer/dynprice-service/internal/obs"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

// PriceAdjuster applies one sale line.
type PriceAdjuster interface {
	Execute(ctx context.Context, req *adjust_price.Request) (*contracts.MutationResult, error)
}

// Line is one product and quantity in an order.
type Line struct {
	ProductID string
	Quantity  int64
}

// Request is a whole order as submitted at the till.
type Request struct {
	Lines []Line
}

// ReceiptLine is the outcome of one applied line.
type ReceiptLine struct {
	ProductID string
	Quantity  int64
	UnitPrice domain.Money // price after this line's adjustment
}

// OrderReceipt lists the applied lines and their total under the recorded order id.
type OrderReceipt struct {
	OrderID  string
	PlacedAt time.Time
	Lines    []ReceiptLine
	Total    domain.Money
}

// OrderError reports which line stopped the order. Lines before LineIndex were
// applied and stay applied.
type OrderError struct {
	LineIndex int
	ProductID string
	Err       error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order line %d (product %s): %v", e.LineIndex, e.ProductID, e.Err)
}

func (e *OrderError) Unwrap() error { return e.Err }

// Interactor places orders by adjusting prices line by line and records the
// completed order.
type Interactor struct {
	adjuster PriceAdjuster
	orders   contracts.OrderRepository
	clock    clock.Clock
	log      *slog.Logger
}

// NewInteractor creates a new place order interactor.
func NewInteractor(adjuster PriceAdjuster, orders contracts.OrderRepository, clock clock.Clock, log *slog.Logger) *Interactor {
	return &Interactor{
		adjuster: adjuster,
		orders:   orders,
		clock:    clock,
		log:      obs.OrNop(log),
	}
}

// Execute applies every line in order, each as its own atomic unit. It stops at
// the first failing line and returns an *OrderError; nothing is recorded then.
// Once every line is applied the order is saved. A failed save leaves the price
// changes in place and is returned as an error.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*OrderReceipt, error) {
	if req == nil || len(req.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	lines := make([]domain.OrderLine, 0, len(req.Lines))
	for idx, line := range req.Lines {
		res, err := i.adjuster.Execute(ctx, &adjust_price.Request{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
		if err != nil {
			i.log.WarnContext(ctx, "order stopped",
				"line", idx,
				"product_id", line.ProductID,
				"applied_lines", idx,
				"error", err,
			)
			return nil, &OrderError{LineIndex: idx, ProductID: line.ProductID, Err: err}
		}

		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: res.State.CurrentPrice(),
		})
	}

	order, err := domain.NewOrder(uuid.New().String(), lines, i.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("build order: %w", err)
	}
	if err := i.orders.SaveOrder(ctx, order); err != nil {
		i.log.ErrorContext(ctx, "order applied but not recorded",
			"order_id", order.ID(),
			"lines", len(lines),
			"total", order.Total().String(),
			"error", err,
		)
		return nil, fmt.Errorf("record order %s: %w", order.ID(), err)
	}

	receipt := &OrderReceipt{
		OrderID:  order.ID(),
		PlacedAt: order.PlacedAt(),
		Lines:    make([]ReceiptLine, 0, len(lines)),
		Total:    order.Total(),
	}
	for _, line := range lines {
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	i.log.InfoContext(ctx, "order placed",
		"order_id", receipt.OrderID,
		"lines", len(receipt.Lines),
		"total", receipt.Total.String(),
	)
	return receipt, nil
}
