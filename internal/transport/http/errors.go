package http

import (
	"errors"
	"net/http"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/place_order"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	LineIndex *int   `json:"line_index,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrProductExists):
		return http.StatusConflict
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsInvalidInput(err):
		return http.StatusBadRequest
	case domain.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody hides internal details for server-side failures.
func errorBody(err error) ErrorResponse {
	code := statusFor(err)
	body := ErrorResponse{Error: err.Error()}
	switch code {
	case http.StatusServiceUnavailable:
		body.Error = "temporarily unavailable, retry later"
	case http.StatusInternalServerError:
		body.Error = "internal server error"
	}

	var orderErr *place_order.OrderError
	if errors.As(err, &orderErr) {
		idx := orderErr.LineIndex
		body.LineIndex = &idx
	}
	return body
}
