package errx

import (
	"context"
	"errors"
	"net/http"
)

// WrapOracle maps language oracle transport errors to the unified AppError
// type. Timeouts and cancellations get a gateway-timeout status; everything
// else is a bad gateway. Both are recovered locally by the callers' fallback
// paths and never propagate to the end user.
func WrapOracle(err error) *AppError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return New(err, http.StatusGatewayTimeout, OracleErrorMessage)
	}

	return New(err, http.StatusBadGateway, OracleErrorMessage)
}
