package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-formkit/internal/backend"
	"github.com/goliatone/go-formkit/internal/store"
	"github.com/goliatone/go-formkit/pkg/document"
	"github.com/goliatone/go-formkit/pkg/model"
)

var (
	errBadRequest = errors.New("bad request")
	errBackend    = errors.New("backend unavailable")
)

// apiError is the JSON body of every failed request.
type apiError struct {
	Status  int                 `json:"-"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	FieldID string              `json:"fieldId,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Issues  []document.Issue    `json:"issues,omitempty"`
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// classify maps err onto a status and body. Schema violations are the
// caller's fault and stale versions are conflicts.
func classify(err error) apiError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return apiError{Status: he.Code, Code: "http_error", Message: fmt.Sprint(he.Message)}
	}

	var schemaErr *model.SchemaError
	if errors.As(err, &schemaErr) {
		status := http.StatusUnprocessableEntity
		if schemaErr.Kind == model.KindStaleVersion {
			status = http.StatusConflict
		}
		return apiError{Status: status, Code: string(schemaErr.Kind), Message: schemaErr.Message, FieldID: schemaErr.FieldID}
	}

	var docErr *document.Error
	if errors.As(err, &docErr) {
		return apiError{Status: http.StatusUnprocessableEntity, Code: "invalidDocument", Message: "the form document is not valid", Issues: docErr.Issues}
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return apiError{Status: http.StatusNotFound, Code: "notFound", Message: err.Error()}
	case errors.Is(err, store.ErrExists):
		return apiError{Status: http.StatusConflict, Code: "exists", Message: err.Error()}
	case errors.Is(err, errBadRequest), errors.Is(err, document.ErrSyntax):
		return apiError{Status: http.StatusBadRequest, Code: "badRequest", Message: err.Error()}
	case errors.Is(err, backend.ErrRejected), errors.Is(err, errBackend):
		return apiError{Status: http.StatusBadGateway, Code: "backend", Message: err.Error()}
	}
	return apiError{Status: http.StatusInternalServerError, Code: "internal", Message: http.StatusText(http.StatusInternalServerError)}
}

// fail writes the error response for err. Server side failures are logged
// with the request they belong to.
func (s *Server) fail(c echo.Context, err error) error {
	body := classify(err)
	if body.Status >= http.StatusInternalServerError {
		s.logger.Error("API error",
			"err", err,
			"method", c.Request().Method,
			"url", c.Request().URL.String(),
			slog.Int("status", body.Status),
		)
	}
	return c.JSON(body.Status, body)
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if writeErr := s.fail(c, err); writeErr != nil {
		s.logger.Error("write error response", "err", writeErr)
	}
}
