package http

import (
	"encoding/json"
	"fmt"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/create_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/place_order"
)

// CreateProductRequest is the body of POST /api/v1/products.
type CreateProductRequest struct {
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	InitialPrice json.Number  `json:"initial_price"`
	MinPrice     *json.Number `json:"min_price,omitempty"`
	MaxPrice     *json.Number `json:"max_price,omitempty"`
}

// OrderItem is one line of POST /api/v1/orders.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// PlaceOrderRequest is the body of POST /api/v1/orders.
type PlaceOrderRequest struct {
	Items []OrderItem `json:"items"`
}

func (r *CreateProductRequest) toApp() (*create_product.Request, error) {
	if r.Name == "" {
		return nil, domain.ErrEmptyName
	}
	if r.Category == "" {
		return nil, domain.ErrEmptyCategory
	}
	if r.InitialPrice == "" {
		return nil, fmt.Errorf("%w: initial_price is required", domain.ErrMalformedPrice)
	}

	initial, err := domain.ParseMoney(string(r.InitialPrice))
	if err != nil {
		return nil, err
	}
	req := &create_product.Request{
		Name:         r.Name,
		CategoryKey:  r.Category,
		InitialPrice: initial,
	}
	if req.MinPrice, err = optionalMoney(r.MinPrice); err != nil {
		return nil, err
	}
	if req.MaxPrice, err = optionalMoney(r.MaxPrice); err != nil {
		return nil, err
	}
	return req, nil
}

func optionalMoney(n *json.Number) (*domain.Money, error) {
	if n == nil || *n == "" {
		return nil, nil
	}
	m, err := domain.ParseMoney(string(*n))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PlaceOrderRequest) toApp() (*place_order.Request, error) {
	if len(r.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	lines := make([]place_order.Line, len(r.Items))
	for i, item := range r.Items {
		lines[i] = place_order.Line{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return &place_order.Request{Lines: lines}, nil
}
