package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-formkit/internal/backend"
	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/openapi"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/submission"
)

type submitRequest struct {
	SchemaID string        `json:"schemaId"`
	Version  *int          `json:"version"`
	Answers  model.Answers `json:"answers"`
}

type submitResponse struct {
	Submission submission.Submission `json:"submission"`
	Receipt    backend.Receipt       `json:"receipt"`
}

type hydrateResponse struct {
	Answers  model.Answers        `json:"answers"`
	Warnings []submission.Warning `json:"warnings"`
	View     render.FormView      `json:"view"`
}

// submit validates the answers against the current schema version,
// serializes them and forwards the result with the caller's token.
func (s *Server) submit(c echo.Context) error {
	ctx := c.Request().Context()
	schema, err := s.store.Get(ctx, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}

	req, err := readSubmission(c, schema)
	if err != nil {
		return s.fail(c, err)
	}
	if req.SchemaID != "" && req.SchemaID != schema.ID {
		return s.fail(c, badRequest("submission is for form %q", req.SchemaID))
	}
	if req.Version == nil {
		return s.fail(c, badRequest("the form version is required"))
	}
	if *req.Version != schema.Version {
		return s.fail(c, model.NewSchemaError(model.KindStaleVersion, "", "the form changed from version %d to %d, reload it", *req.Version, schema.Version))
	}

	sub, report, err := submission.Prepare(schema, req.Answers)
	if errors.Is(err, submission.ErrInvalidSubmission) {
		return c.JSON(http.StatusUnprocessableEntity, apiError{
			Code:    "invalidSubmission",
			Message: "some answers are not valid",
			Errors:  report.Messages(),
		})
	}
	if err != nil {
		return s.fail(c, err)
	}
	sub.SubmittedAt = model.Stamp(s.now())

	if err := openapi.ValidateSubmission(openapi.SubmissionSchema(schema), sub); err != nil {
		return s.fail(c, fmt.Errorf("api: serialized submission for %s: %w", schema.ID, err))
	}

	receipt, err := s.forwarder.Forward(ctx, sub, bearerToken(c))
	if err != nil {
		if !errors.Is(err, backend.ErrRejected) {
			err = fmt.Errorf("%w: %v", errBackend, err)
		}
		return s.fail(c, err)
	}
	return c.JSON(http.StatusAccepted, submitResponse{Submission: sub, Receipt: receipt})
}

// hydrate turns a stored submission back into answers for the current
// schema. Values that no longer fit are dropped and logged.
func (s *Server) hydrate(c echo.Context) error {
	var sub submission.Submission
	if err := c.Bind(&sub); err != nil {
		return s.fail(c, badRequest("%v", err))
	}
	schema, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if sub.SchemaID != "" && sub.SchemaID != schema.ID {
		return s.fail(c, badRequest("submission is for form %q", sub.SchemaID))
	}

	answers, warnings := submission.Hydrate(schema, sub)
	for _, w := range warnings {
		s.logger.Warn("hydration dropped a value",
			"form_id", schema.ID,
			"submitted_version", sub.Version,
			"version", schema.Version,
			"field_id", w.FieldID,
			"kind", string(w.Kind),
			"reason", w.Message,
		)
	}
	if warnings == nil {
		warnings = []submission.Warning{}
	}
	view := render.Model(schema, answers, render.WithAction(submitPath(schema.ID)))
	return c.JSON(http.StatusOK, hydrateResponse{Answers: answers, Warnings: warnings, View: view})
}

// contract returns the submission body schema, or the full OpenAPI
// document with document=true.
func (s *Server) contract(c echo.Context) error {
	schema, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if full, _ := strconv.ParseBool(c.QueryParam("document")); full {
		doc := openapi.Document(schema, submitPath(schema.ID))
		if err := openapi.ValidateDocument(c.Request().Context(), doc); err != nil {
			return s.fail(c, err)
		}
		return c.JSON(http.StatusOK, doc)
	}
	return c.JSON(http.StatusOK, openapi.SubmissionSchema(schema))
}

// readSubmission accepts a JSON body or a posted HTML form. Form values are
// matched to fields by id; multiple_choice fields keep every value and file
// inputs become file metadata.
func readSubmission(c echo.Context, schema model.FormSchema) (submitRequest, error) {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEApplicationForm) && !strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		var req submitRequest
		if err := c.Bind(&req); err != nil {
			return req, badRequest("%v", err)
		}
		return req, nil
	}

	values, err := c.FormParams()
	if err != nil {
		return submitRequest{}, badRequest("read form: %v", err)
	}
	req := submitRequest{SchemaID: values.Get(render.SchemaIDField), Answers: model.Answers{}}
	if raw := values.Get(render.VersionName); raw != "" {
		version, err := strconv.Atoi(raw)
		if err != nil {
			return req, badRequest("invalid version %q", raw)
		}
		req.Version = &version
	}

	var files map[string][]*multipartFile
	if form := c.Request().MultipartForm; form != nil {
		files = make(map[string][]*multipartFile, len(form.File))
		for name, headers := range form.File {
			for _, h := range headers {
				files[name] = append(files[name], &multipartFile{name: h.Filename, size: h.Size, contentType: h.Header.Get(echo.HeaderContentType)})
			}
		}
	}

	for _, field := range schema.Ordered() {
		switch field.Type {
		case fieldtype.MultipleChoice:
			if list, ok := values[field.ID]; ok {
				req.Answers[field.ID] = list
			}
		case fieldtype.FileUpload:
			if list := files[field.ID]; len(list) > 0 && list[0].name != "" {
				f := list[0]
				req.Answers[field.ID] = fieldtype.File{Name: f.name, Size: f.size, ContentType: f.contentType}
			}
		default:
			if _, ok := values[field.ID]; ok {
				req.Answers[field.ID] = values.Get(field.ID)
			}
		}
	}
	return req, nil
}

type multipartFile struct {
	name        string
	size        int64
	contentType string
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
