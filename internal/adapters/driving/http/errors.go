package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIngestInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler writes every error as {"error": msg}.
func errorHandler(err error, c echo.Context) {
	code := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Message != nil {
		msg = fmt.Sprint(he.Message)
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		logger.Error("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
	} else {
		logger.Debug("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
	}

	if c.Response().Committed {
		return
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}
