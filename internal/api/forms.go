package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-formkit/internal/store"
	"github.com/goliatone/go-formkit/pkg/document"
	"github.com/goliatone/go-formkit/pkg/model"
)

const maxDocumentSize = 1 << 20

// echo does not name these headers.
const (
	headerETag    = "ETag"
	headerIfMatch = "If-Match"
)

type formList struct {
	Forms []model.FormSchema `json:"forms"`
}

type detailsRequest struct {
	ExpectedVersion *int   `json:"expectedVersion"`
	Title           string `json:"title"`
	Description     string `json:"description"`
}

// createForm stores a new form from a JSON or YAML document.
func (s *Server) createForm(c echo.Context) error {
	schema, err := readDocument(c)
	if err != nil {
		return s.fail(c, err)
	}
	now := s.now()
	schema.CreatedAt = model.Stamp(now)
	schema.UpdatedAt = model.Stamp(now)

	if err := s.store.Create(c.Request().Context(), schema); err != nil {
		return s.fail(c, err)
	}
	s.logger.Info("form created", "form_id", schema.ID, "version", schema.Version, "fields", len(schema.Fields))
	c.Response().Header().Set(echo.HeaderLocation, "/api/forms/"+schema.ID)
	return s.writeSchema(c, http.StatusCreated, schema)
}

func (s *Server) listForms(c echo.Context) error {
	forms, err := s.store.List(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	if forms == nil {
		forms = []model.FormSchema{}
	}
	return c.JSON(http.StatusOK, formList{Forms: forms})
}

// getForm returns the stored schema, or its document form when
// format=yaml or format=document is requested.
func (s *Server) getForm(c echo.Context) error {
	schema, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	switch c.QueryParam("format") {
	case "", "json":
		return s.writeSchema(c, http.StatusOK, schema)
	case "yaml":
		return s.writeDocument(c, schema, document.FormatYAML, "application/yaml")
	case "document":
		return s.writeDocument(c, schema, document.FormatJSON, echo.MIMEApplicationJSON)
	default:
		return s.fail(c, badRequest("unknown format %q", c.QueryParam("format")))
	}
}

// replaceForm swaps the whole definition. The expected version comes from
// If-Match or the version query parameter.
func (s *Server) replaceForm(c echo.Context) error {
	expected, err := versionPrecondition(c)
	if err != nil {
		return s.fail(c, err)
	}
	next, err := readDocument(c)
	if err != nil {
		return s.fail(c, err)
	}
	id := c.Param("id")
	if next.ID != id {
		return s.fail(c, badRequest("document id %q does not match %q", next.ID, id))
	}

	ctx := c.Request().Context()
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return s.fail(c, err)
	}
	if current.Version != expected {
		return s.fail(c, model.NewSchemaError(model.KindStaleVersion, "", "expected version %d, schema is at %d", expected, current.Version))
	}
	next.Version = current.Version + 1
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = model.Stamp(s.now())
	if err := s.store.Save(ctx, next, expected); err != nil {
		return s.fail(c, err)
	}
	s.logger.Info("form replaced", "form_id", id, "version", next.Version)
	return s.writeSchema(c, http.StatusOK, next)
}

func (s *Server) updateDetails(c echo.Context) error {
	var req detailsRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("%v", err))
	}
	return s.mutate(c, req.ExpectedVersion, func(schema model.FormSchema, expected int) (model.FormSchema, error) {
		return s.builder.SetDetails(schema, expected, req.Title, req.Description)
	})
}

func (s *Server) deleteForm(c echo.Context) error {
	expected, err := versionPrecondition(c)
	if err != nil {
		return s.fail(c, err)
	}
	id := c.Param("id")
	if err := s.store.Delete(c.Request().Context(), id, expected); err != nil {
		return s.fail(c, err)
	}
	s.logger.Info("form deleted", "form_id", id, "version", expected)
	return c.NoContent(http.StatusNoContent)
}

// mutate runs a builder operation against the stored schema and persists
// the result guarded by the version it was computed from.
func (s *Server) mutate(c echo.Context, expected *int, fn func(model.FormSchema, int) (model.FormSchema, error)) error {
	if expected == nil {
		return s.fail(c, badRequest("expectedVersion is required"))
	}
	id := c.Param("id")
	next, err := store.Mutate(c.Request().Context(), s.store, id, func(current model.FormSchema) (model.FormSchema, error) {
		return fn(current, *expected)
	})
	if err != nil {
		return s.fail(c, err)
	}
	s.logger.Info("form updated", "form_id", id, "version", next.Version, "route", c.Path())
	return s.writeSchema(c, http.StatusOK, next)
}

func (s *Server) writeSchema(c echo.Context, status int, schema model.FormSchema) error {
	c.Response().Header().Set(headerETag, strconv.Quote(strconv.Itoa(schema.Version)))
	return c.JSON(status, schema)
}

func (s *Server) writeDocument(c echo.Context, schema model.FormSchema, format document.Format, contentType string) error {
	data, err := document.Encode(schema, format)
	if err != nil {
		return s.fail(c, err)
	}
	c.Response().Header().Set(headerETag, strconv.Quote(strconv.Itoa(schema.Version)))
	return c.Blob(http.StatusOK, contentType, data)
}

// readDocument parses the request body as a form document. YAML is
// accepted when the content type says so; everything else is read as JSON.
func readDocument(c echo.Context) (model.FormSchema, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentSize+1))
	if err != nil {
		return model.FormSchema{}, badRequest("read body: %v", err)
	}
	if len(data) > maxDocumentSize {
		return model.FormSchema{}, badRequest("document exceeds %d bytes", maxDocumentSize)
	}
	source := "request"
	if strings.Contains(c.Request().Header.Get(echo.HeaderContentType), "yaml") {
		source = "request.yaml"
	}
	return document.Parse(data, source)
}

// versionPrecondition reads the expected schema version from If-Match
// ("3", W/"3" or 3) or the version query parameter.
func versionPrecondition(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(headerIfMatch))
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	if raw == "" {
		raw = strings.TrimSpace(c.QueryParam("version"))
	}
	if raw == "" {
		return 0, badRequest("an If-Match header or version parameter is required")
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version < 0 {
		return 0, badRequest("invalid version %q", raw)
	}
	return version, nil
}
