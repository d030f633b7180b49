package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/submission"
	"github.com/goliatone/go-formkit/pkg/visibility/expr"
)

// Extension keys carried by generated schemas. Conditional behaviour has no
// JSON Schema equivalent, so it is described with vendor extensions.
const (
	ExtVisibleWhen  = "x-formkit-visible-when"
	ExtRequired     = "x-formkit-required"
	ExtMinDate      = "x-formkit-min-date"
	ExtMaxDate      = "x-formkit-max-date"
	ExtAllowedTypes = "x-formkit-allowed-types"
	ExtFieldType    = "x-formkit-field-type"
)

// ComponentName is the components/schemas key of the submission payload.
const ComponentName = "FormSubmission"

const datePattern = `^\d{4}-\d{2}-\d{2}$`

// ErrContractViolation is returned by ValidateSubmission.
var ErrContractViolation = errors.New("openapi: payload violates the submission contract")

// SubmissionSchema describes the JSON body of a submission for schema.
// Fields are optional unless they are required and always visible; values
// with unknown field ids are rejected.
func SubmissionSchema(schema model.FormSchema) *openapi3.Schema {
	values := openapi3.NewObjectSchema().WithoutAdditionalProperties()
	values.Properties = openapi3.Schemas{}
	var required []string
	for _, field := range schema.Ordered() {
		values.Properties[field.ID] = openapi3.NewSchemaRef("", FieldSchema(field))
		if field.Required && field.VisibilityRule == nil {
			required = append(required, field.ID)
		}
	}
	sort.Strings(required)
	values.Required = required

	out := openapi3.NewObjectSchema()
	out.Title = schema.Title
	out.Description = fmt.Sprintf("Submission of form %s, version %d.", schema.ID, schema.Version)
	out.Properties = openapi3.Schemas{
		"schemaId":    openapi3.NewSchemaRef("", openapi3.NewStringSchema().WithEnum(schema.ID)),
		"version":     openapi3.NewSchemaRef("", openapi3.NewIntegerSchema().WithEnum(float64(schema.Version))),
		"submittedAt": openapi3.NewSchemaRef("", openapi3.NewDateTimeSchema()),
		"values":      openapi3.NewSchemaRef("", values),
	}
	out.Required = []string{"schemaId", "values", "version"}
	return out
}

// FieldSchema maps one field definition onto a JSON Schema fragment.
func FieldSchema(field model.FieldDefinition) *openapi3.Schema {
	var out *openapi3.Schema
	switch field.Type {
	case fieldtype.Number:
		out = openapi3.NewFloat64Schema()
	case fieldtype.SingleChoice:
		out = openapi3.NewStringSchema()
		if values := field.OptionValues(); len(values) > 0 {
			out.Enum = toAny(values)
		}
	case fieldtype.MultipleChoice:
		item := openapi3.NewStringSchema()
		if values := field.OptionValues(); len(values) > 0 {
			item.Enum = toAny(values)
		}
		out = openapi3.NewArraySchema().WithItems(item).WithUniqueItems(true)
	case fieldtype.Date:
		out = openapi3.NewStringSchema().WithFormat("date").WithPattern(datePattern)
	case fieldtype.Checkbox:
		out = openapi3.NewBoolSchema()
		if field.Required && field.VisibilityRule == nil {
			out.Enum = []any{true}
		}
	case fieldtype.FileUpload:
		out = fileSchema()
	default:
		out = openapi3.NewStringSchema()
	}

	out.Title = field.Label
	out.Description = field.HelpText
	out.Extensions = map[string]any{ExtFieldType: string(field.Type)}
	if field.Required {
		out.Extensions[ExtRequired] = true
	}
	if field.VisibilityRule != nil {
		out.Extensions[ExtVisibleWhen] = expr.Format(field.VisibilityRule)
	}
	applyRules(out, field)
	return out
}

func fileSchema() *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Properties = openapi3.Schemas{
		"name":        openapi3.NewSchemaRef("", openapi3.NewStringSchema().WithMinLength(1)),
		"size":        openapi3.NewSchemaRef("", openapi3.NewInt64Schema().WithMin(0)),
		"contentType": openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"url":         openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
	}
	out.Required = []string{"name", "size"}
	return out
}

func applyRules(out *openapi3.Schema, field model.FieldDefinition) {
	for _, rule := range field.CompileRules() {
		switch rule.Kind {
		case fieldtype.RuleMinLength:
			out.WithMinLength(int64(rule.Number))
		case fieldtype.RuleMaxLength:
			out.WithMaxLength(int64(rule.Number))
		case fieldtype.RulePattern:
			out.WithPattern(rule.Pattern.String())
		case fieldtype.RuleMin:
			out.WithMin(rule.Number).WithExclusiveMin(rule.Exclusive)
		case fieldtype.RuleMax:
			out.WithMax(rule.Number).WithExclusiveMax(rule.Exclusive)
		case fieldtype.RuleMinSelected:
			out.WithMinItems(int64(rule.Number))
		case fieldtype.RuleMaxSelected:
			out.WithMaxItems(int64(rule.Number))
		case fieldtype.RuleMinDate:
			out.Extensions[ExtMinDate] = rule.Date.Format(fieldtype.DateLayout)
		case fieldtype.RuleMaxDate:
			out.Extensions[ExtMaxDate] = rule.Date.Format(fieldtype.DateLayout)
		case fieldtype.RuleMaxFileSize:
			if size := out.Properties["size"]; size != nil && size.Value != nil {
				size.Value.WithMax(rule.Number)
			}
		case fieldtype.RuleAllowedTypes:
			out.Extensions[ExtAllowedTypes] = strings.Join(rule.Types, ",")
		}
	}
}

// Document wraps the submission schema in an OpenAPI 3 document with a
// single POST operation at submitPath.
func Document(schema model.FormSchema, submitPath string) *openapi3.T {
	title := schema.Title
	if title == "" {
		title = schema.ID
	}
	body := SubmissionSchema(schema)

	errorsSchema := openapi3.NewObjectSchema()
	errorsSchema.Properties = openapi3.Schemas{
		"errors": openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithAdditionalProperties(
			openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()),
		)),
	}

	op := openapi3.NewOperation()
	op.OperationID = "submit-" + schema.ID
	op.Summary = "Submit " + title
	op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(body)}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusAccepted, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Submission accepted")}),
		openapi3.WithStatus(http.StatusConflict, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("The form changed since it was rendered")}),
		openapi3.WithStatus(http.StatusUnprocessableEntity, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Validation failed").WithJSONSchema(errorsSchema)}),
	)

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{ComponentName: openapi3.NewSchemaRef("", body)}

	return &openapi3.T{
		OpenAPI:    "3.0.3",
		Info:       &openapi3.Info{Title: title, Version: strconv.Itoa(schema.Version)},
		Paths:      openapi3.NewPaths(openapi3.WithPath(submitPath, &openapi3.PathItem{Post: op})),
		Components: &components,
	}
}

// ValidateDocument runs kin-openapi's own checks over doc.
func ValidateDocument(ctx context.Context, doc *openapi3.T) error {
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return fmt.Errorf("openapi: invalid document: %w", err)
	}
	return nil
}

// ValidateSubmission checks the JSON form of sub against contract.
func ValidateSubmission(contract *openapi3.Schema, sub submission.Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("openapi: encode submission: %w", err)
	}
	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return fmt.Errorf("openapi: decode submission: %w", err)
	}
	if err := contract.VisitJSON(value, openapi3.MultiErrors(), openapi3.VisitAsRequest()); err != nil {
		return fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
