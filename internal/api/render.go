package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/validation"
)

type renderRequest struct {
	Answers  model.Answers `json:"answers"`
	Validate bool          `json:"validate"`
	Renderer string        `json:"renderer"`
}

func submitPath(id string) string {
	return "/api/forms/" + id + "/submissions"
}

// renderForm returns the view for a partially filled form, through the
// json renderer unless another one is named.
func (s *Server) renderForm(c echo.Context) error {
	var req renderRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("%v", err))
	}
	schema, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}

	opts := []render.Option{render.WithAction(submitPath(schema.ID))}
	if req.Validate {
		opts = append(opts, render.WithReport(validation.Validate(schema, req.Answers)))
	}
	name := req.Renderer
	if name == "" {
		name = "json"
	}
	return s.writeView(c, name, render.Model(schema, req.Answers, opts...))
}

// formPage serves the HTML form that posts back to the submissions route.
func (s *Server) formPage(c echo.Context) error {
	schema, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return s.writeView(c, "html", render.Model(schema, nil, render.WithAction(submitPath(schema.ID))))
}

func (s *Server) writeView(c echo.Context, renderer string, view render.FormView) error {
	data, contentType, err := s.renderers.Render(c.Request().Context(), renderer, view)
	if errors.Is(err, render.ErrRendererNotFound) {
		return s.fail(c, badRequest("unknown renderer %q", renderer))
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.Blob(http.StatusOK, contentType, data)
}
