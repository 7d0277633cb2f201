package http

import (
	"encoding/json"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_orders"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/place_order"
)

// ProductResponse is the JSON form of a ProductDisplayView.
type ProductResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Category       string      `json:"category"`
	DemandClass    string      `json:"demand_class"`
	Price          json.Number `json:"price"`
	MinPrice       json.Number `json:"min_price"`
	MaxPrice       json.Number `json:"max_price"`
	SalesCount     int64       `json:"sales_count"`
	LastSaleAt     *time.Time  `json:"last_sale_at,omitempty"`
	PriceChange    *string     `json:"price_change,omitempty"`
	PriceUp        *bool       `json:"price_up,omitempty"`
	PredictedPrice json.Number `json:"predicted_price"`
}

// PriceHistoryResponse is one ledger row.
type PriceHistoryResponse struct {
	ID        string      `json:"id"`
	ChangedAt time.Time   `json:"changed_at"`
	OldPrice  json.Number `json:"old_price"`
	NewPrice  json.Number `json:"new_price"`
	Change    json.Number `json:"change"`
	Reason    string      `json:"reason"`
	Detail    string      `json:"detail,omitempty"`
}

// ReceiptLineResponse is one applied order line.
type ReceiptLineResponse struct {
	ProductID string      `json:"product_id"`
	Quantity  int64       `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
}

// ReceiptResponse is the body of a placed order.
type ReceiptResponse struct {
	OrderID  string                `json:"order_id"`
	PlacedAt time.Time             `json:"placed_at"`
	Lines    []ReceiptLineResponse `json:"lines"`
	Total    json.Number           `json:"total"`
}

// OrdersResponse lists recorded orders with their combined revenue.
type OrdersResponse struct {
	Orders  []ReceiptResponse `json:"orders"`
	Count   int               `json:"count"`
	Revenue json.Number       `json:"revenue"`
}

func moneyJSON(m domain.Money) json.Number {
	return json.Number(m.String())
}

func viewToResponse(v *contracts.ProductDisplayView) ProductResponse {
	resp := ProductResponse{
		ID:             v.ProductID,
		Name:           v.Name,
		Category:       v.CategoryKey,
		DemandClass:    string(v.DemandClass),
		Price:          moneyJSON(v.Price),
		MinPrice:       moneyJSON(v.MinPrice),
		MaxPrice:       moneyJSON(v.MaxPrice),
		SalesCount:     v.SalesCount,
		LastSaleAt:     v.LastSaleAt,
		PriceUp:        v.PriceUp,
		PredictedPrice: moneyJSON(v.PredictedPrice),
	}
	if v.PriceChange != nil {
		change := v.PriceChange.String()
		resp.PriceChange = &change
	}
	return resp
}

func historyToResponse(rows []*contracts.PriceHistoryDTO) []PriceHistoryResponse {
	out := make([]PriceHistoryResponse, len(rows))
	for i, r := range rows {
		out[i] = PriceHistoryResponse{
			ID:        r.HistoryID,
			ChangedAt: r.ChangedAt,
			OldPrice:  moneyJSON(r.OldPrice),
			NewPrice:  moneyJSON(r.NewPrice),
			Change:    moneyJSON(r.Change),
			Reason:    string(r.Reason),
			Detail:    r.Detail,
		}
	}
	return out
}

func receiptToResponse(r *place_order.OrderReceipt) ReceiptResponse {
	lines := make([]ReceiptLineResponse, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = ReceiptLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: moneyJSON(l.UnitPrice),
		}
	}
	return ReceiptResponse{
		OrderID:  r.OrderID,
		PlacedAt: r.PlacedAt,
		Lines:    lines,
		Total:    moneyJSON(r.Total),
	}
}

func ordersToResponse(res *list_orders.Result) OrdersResponse {
	orders := make([]ReceiptResponse, len(res.Orders))
	for i, o := range res.Orders {
		src := o.Lines()
		lines := make([]ReceiptLineResponse, len(src))
		for j, l := range src {
			lines[j] = ReceiptLineResponse{
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: moneyJSON(l.UnitPrice),
			}
		}
		orders[i] = ReceiptResponse{
			OrderID:  o.ID(),
			PlacedAt: o.PlacedAt(),
			Lines:    lines,
			Total:    moneyJSON(o.Total()),
		}
	}
	return OrdersResponse{
		Orders:  orders,
		Count:   len(orders),
		Revenue: moneyJSON(res.Revenue),
	}
}
