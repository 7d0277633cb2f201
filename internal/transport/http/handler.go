// Package http exposes the pricing use cases as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/get_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_orders"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_price_history"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_products"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/create_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/delete_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/place_order"
	"github.com/light-bringer/dynprice-service/internal/obs"
)

const maxBodyBytes = 1 << 20

// Handler is a thin coordinator that delegates to use cases and queries.
type Handler struct {
	// Commands
	createProduct *create_product.Interactor
	deleteProduct *delete_product.Interactor
	placeOrder    *place_order.Interactor

	// Queries
	getProduct       *get_product.Query
	listProducts     *list_products.Query
	listPriceHistory *list_price_history.Query
	listOrders       *list_orders.Query

	log *slog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	createProduct *create_product.Interactor,
	deleteProduct *delete_product.Interactor,
	placeOrder *place_order.Interactor,
	getProduct *get_product.Query,
	listProducts *list_products.Query,
	listPriceHistory *list_price_history.Query,
	listOrders *list_orders.Query,
	log *slog.Logger,
) *Handler {
	return &Handler{
		createProduct:    createProduct,
		deleteProduct:    deleteProduct,
		placeOrder:       placeOrder,
		getProduct:       getProduct,
		listProducts:     listProducts,
		listPriceHistory: listPriceHistory,
		listOrders:       listOrders,
		log:              obs.OrNop(log),
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /api/v1/products", h.ListProducts)
	mux.HandleFunc("POST /api/v1/products", h.CreateProduct)
	mux.HandleFunc("GET /api/v1/products/{id}", h.GetProduct)
	mux.HandleFunc("DELETE /api/v1/products/{id}", h.DeleteProduct)
	mux.HandleFunc("GET /api/v1/orders", h.ListOrders)
	mux.HandleFunc("POST /api/v1/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/v1/price-history/{id}", h.ListPriceHistory)
	return mux
}

// NewRouter wraps the routes with CORS for the given browser origins.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(withRequestID(withLogging(h.log, h.Routes())))
}

// ListProducts handles GET /api/v1/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	views, err := h.listProducts.Execute(r.Context(), &list_products.Request{
		CategoryKey: q.Get("category"),
		DemandClass: q.Get("demand_class"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]ProductResponse, len(views))
	for i, v := range views {
		out[i] = viewToResponse(v)
	}
	h.write(w, http.StatusOK, out)
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	view, err := h.getProduct.Execute(r.Context(), &get_product.Request{ProductID: r.PathValue("id")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.write(w, http.StatusOK, viewToResponse(view))
}

// CreateProduct handles POST /api/v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var body CreateProductRequest
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := body.toApp()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id, err := h.createProduct.Execute(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.getProduct.Execute(r.Context(), &get_product.Request{ProductID: id})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/products/"+id)
	h.write(w, http.StatusCreated, viewToResponse(view))
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.deleteProduct.Execute(r.Context(), &delete_product.Request{ProductID: r.PathValue("id")}); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlaceOrder handles POST /api/v1/orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body PlaceOrderRequest
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := body.toApp()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	receipt, err := h.placeOrder.Execute(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.write(w, http.StatusCreated, receiptToResponse(receipt))
}

// ListOrders handles GET /api/v1/orders. Optional since and until take RFC 3339
// timestamps.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	since, err := parseTimeParam(r, "since")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	until, err := parseTimeParam(r, "until")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.listOrders.Execute(r.Context(), &list_orders.Request{Since: since, Until: until})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.write(w, http.StatusOK, ordersToResponse(res))
}

// ListPriceHistory handles GET /api/v1/price-history/{id}.
func (h *Handler) ListPriceHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.listPriceHistory.Execute(r.Context(), &list_price_history.Request{ProductID: r.PathValue("id")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.write(w, http.StatusOK, historyToResponse(rows))
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedRequest, name, err)
	}
	return at, nil
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty", domain.ErrMalformedRequest)
		}
		return fmt.Errorf("%w: %v", domain.ErrMalformedRequest, err)
	}
	return nil
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("failed to encode response", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", code,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	h.write(w, code, errorBody(err))
}
