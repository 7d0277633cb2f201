package repo

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// translateErr maps Spanner failures onto domain errors. Errors that already carry
// a domain meaning pass through untouched.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsNotFound(err) || domain.IsInvalidInput(err) || domain.IsFatal(err) || domain.IsTransient(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", domain.ErrTransientPersistence, op, err)
	}

	switch spanner.ErrCode(err) {
	case codes.NotFound:
		return domain.ErrProductNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", domain.ErrProductExists, op)
	case codes.Aborted, codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Canceled:
		return fmt.Errorf("%w: %s: %v", domain.ErrTransientPersistence, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
