package api

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-formkit/pkg/builder"
	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/visibility/expr"
)

type addFieldRequest struct {
	ExpectedVersion *int                  `json:"expectedVersion"`
	Field           model.FieldDefinition `json:"field"`
	// VisibleWhen is the text form of Field.VisibilityRule and wins over it.
	VisibleWhen string `json:"visibleWhen,omitempty"`
}

type updateFieldRequest struct {
	ExpectedVersion *int                    `json:"expectedVersion"`
	Type            *fieldtype.Type         `json:"type,omitempty"`
	Label           *string                 `json:"label,omitempty"`
	HelpText        *string                 `json:"helpText,omitempty"`
	Placeholder     *string                 `json:"placeholder,omitempty"`
	Required        *bool                   `json:"required,omitempty"`
	Options         *[]model.Option         `json:"options,omitempty"`
	ValidationRules *[]model.ValidationRule `json:"validationRules,omitempty"`
}

type moveFieldRequest struct {
	ExpectedVersion *int `json:"expectedVersion"`
	Order           *int `json:"order,omitempty"`
	Delta           *int `json:"delta,omitempty"`
}

type visibilityRequest struct {
	ExpectedVersion *int                  `json:"expectedVersion"`
	Rule            *model.VisibilityRule `json:"rule,omitempty"`
	Expression      string                `json:"expression,omitempty"`
}

func (s *Server) addField(c echo.Context) error {
	var req addFieldRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("%v", err))
	}
	if strings.TrimSpace(req.VisibleWhen) != "" {
		rule, err := expr.Parse(req.VisibleWhen)
		if err != nil {
			return s.fail(c, err)
		}
		req.Field.VisibilityRule = rule
	}
	return s.mutate(c, req.ExpectedVersion, func(schema model.FormSchema, expected int) (model.FormSchema, error) {
		return s.builder.AddField(schema, expected, req.Field)
	})
}

func (s *Server) updateField(c echo.Context) error {
	var req updateFieldRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("%v", err))
	}
	patch := builder.FieldPatch{
		Type:            req.Type,
		Label:           req.Label,
		HelpText:        req.HelpText,
		Placeholder:     req.Placeholder,
		Required:        req.Required,
		Options:         req.Options,
		ValidationRules: req.ValidationRules,
	}
	fieldID := c.Param("fieldId")
	return s.mutate(c, req.ExpectedVersion, func(schema model.FormSchema, expected int) (model.FormSchema, error) {
		return s.builder.UpdateField(schema, expected, fieldID, patch)
	})
}

// removeField takes the expected version as a query parameter since
// DELETE requests carry no body.
func (s *Server) removeField(c echo.Context) error {
	raw := c.QueryParam("expectedVersion")
	if raw == "" {
		return s.fail(c, badRequest("expectedVersion is required"))
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return s.fail(c, badRequest("invalid expectedVersion %q", raw))
	}
	fieldID := c.Param("fieldId")
	return s.mutate(c, &version, func(schema model.FormSchema, expected int) (model.FormSchema, error) {
		return s.builder.RemoveField(schema, expected, fieldID)
	})
}

// moveField accepts either an absolute order or a relative delta.
func (s *Server) moveField(c echo.Context) error {
	var req moveFieldRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("%v", err))
	}
	if (req.Order == nil) == (req.Delta == nil) {
		return s.fail(c, badRequest("exactly one of order or delta is required"))
	}
	fieldID := c.Param("fieldId")
	return s.mutate(c, req.ExpectedVersion, func(schema model.FormSchema, expected int) (model.FormSchema, error) {
		if req.Order != nil {
			return s.builder.MoveField(schema, expected, fieldID, *req.Order)
		}
		return s.builder.ShiftField(schema, expected, fieldID, *req.Delta)
	})
}

// setVisibility replaces the rule of a field. An empty request clears it.
func (s *Server) setVisibility(c echo.Context) error {
	var req visibilityRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("%v", err))
	}
	rule := req.Rule
	if strings.TrimSpace(req.Expression) != "" {
		parsed, err := expr.Parse(req.Expression)
		if err != nil {
			return s.fail(c, err)
		}
		rule = parsed
	}
	fieldID := c.Param("fieldId")
	return s.mutate(c, req.ExpectedVersion, func(schema model.FormSchema, expected int) (model.FormSchema, error) {
		return s.builder.SetVisibilityRule(schema, expected, fieldID, rule)
	})
}
