package builder

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
)

// AnyVersion disables the optimistic version check of a mutation.
const AnyVersion = -1

// Builder applies authoring mutations to form schemas. Every operation takes
// the current schema value and returns a new one; the input is never
// modified, so a failed call leaves the caller's schema exactly as it was.
type Builder struct {
	newID     func() string
	now       func() time.Time
	sanitizer *Sanitizer
}

// Option configures a Builder.
type Option func(*Builder)

// WithIDGenerator overrides the generator used for fields added without an
// id.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(fn func() time.Time) Option {
	return func(b *Builder) {
		if fn != nil {
			b.now = fn
		}
	}
}

// WithSanitizer replaces the display string sanitizer. Passing nil keeps
// strings verbatim.
func WithSanitizer(s *Sanitizer) Option {
	return func(b *Builder) {
		b.sanitizer = s
	}
}

// New constructs a Builder with uuid field ids, the wall clock and the
// default sanitizer.
func New(options ...Option) *Builder {
	b := &Builder{
		newID:     uuid.NewString,
		now:       time.Now,
		sanitizer: DefaultSanitizer(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// FieldPatch lists the editable properties of a field. Nil members are left
// untouched. The id and order of a field cannot be patched.
type FieldPatch struct {
	Type            *fieldtype.Type
	Label           *string
	HelpText        *string
	Placeholder     *string
	Required        *bool
	Options         *[]model.Option
	ValidationRules *[]model.ValidationRule
}

// NewSchema returns an empty schema at version 0.
func (b *Builder) NewSchema(id, title string) model.FormSchema {
	id = strings.TrimSpace(id)
	if id == "" {
		id = b.newID()
	}
	now := b.now()
	return model.FormSchema{
		ID:        id,
		Title:     b.sanitizer.Plain(title),
		Fields:    []model.FieldDefinition{},
		CreatedAt: model.Stamp(now),
		UpdatedAt: model.Stamp(now),
	}
}

// SetDetails updates the form title and description.
func (b *Builder) SetDetails(s model.FormSchema, expected int, title, description string) (model.FormSchema, error) {
	next, err := b.begin(s, expected)
	if err != nil {
		return s, err
	}
	next.Title = b.sanitizer.Plain(title)
	next.Description = b.sanitizer.Rich(description)
	return b.commit(s, next)
}

// AddField appends def at the end of the form. A missing id is generated.
func (b *Builder) AddField(s model.FormSchema, expected int, def model.FieldDefinition) (model.FormSchema, error) {
	next, err := b.begin(s, expected)
	if err != nil {
		return s, err
	}

	field := def.Clone()
	field.ID = strings.TrimSpace(field.ID)
	if field.ID == "" {
		field.ID = b.newID()
	}
	if next.Index(field.ID) >= 0 {
		return s, model.NewSchemaError(model.KindDuplicateField, field.ID, "a field with this id already exists")
	}
	field.Order = len(next.Fields)
	field.VisibilityRule = normalizeRule(field.VisibilityRule)
	b.sanitizer.Field(&field)

	if err := model.CheckField(field); err != nil {
		return s, err
	}
	next.Fields = append(next.Fields, field)
	if err := model.CheckVisibility(next, field); err != nil {
		return s, err
	}
	return b.commit(s, next)
}

// UpdateField applies patch to the field identified by id.
func (b *Builder) UpdateField(s model.FormSchema, expected int, id string, patch FieldPatch) (model.FormSchema, error) {
	next, err := b.begin(s, expected)
	if err != nil {
		return s, err
	}
	idx := next.Index(id)
	if idx < 0 {
		return s, unknownField(id)
	}

	field := &next.Fields[idx]
	if patch.Type != nil {
		field.Type = *patch.Type
	}
	if patch.Label != nil {
		field.Label = *patch.Label
	}
	if patch.HelpText != nil {
		field.HelpText = *patch.HelpText
	}
	if patch.Placeholder != nil {
		field.Placeholder = *patch.Placeholder
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Options != nil {
		field.Options = append([]model.Option(nil), (*patch.Options)...)
	}
	if patch.ValidationRules != nil {
		rules := make([]model.ValidationRule, len(*patch.ValidationRules))
		for i, rule := range *patch.ValidationRules {
			rules[i] = rule.Clone()
		}
		field.ValidationRules = rules
	}
	b.sanitizer.Field(field)

	if err := model.CheckField(*field); err != nil {
		return s, err
	}
	return b.commit(s, next)
}

// RemoveField deletes a field. It fails while any other field's visibility
// rule still references it.
func (b *Builder) RemoveField(s model.FormSchema, expected int, id string) (model.FormSchema, error) {
	next, err := b.begin(s, expected)
	if err != nil {
		return s, err
	}
	idx := next.Index(id)
	if idx < 0 {
		return s, unknownField(id)
	}
	if dependents := next.Dependents(id); len(dependents) > 0 {
		return s, model.NewSchemaError(model.KindReferencedByVisibility, id, "referenced by %s", strings.Join(dependents, ", "))
	}

	next.Fields = append(next.Fields[:idx], next.Fields[idx+1:]...)
	return b.commit(s, next)
}

// MoveField places the field at newOrder, shifting the fields in between.
// Moving a field to its current position is a no-op and keeps the version.
func (b *Builder) MoveField(s model.FormSchema, expected int, id string, newOrder int) (model.FormSchema, error) {
	next, err := b.begin(s, expected)
	if err != nil {
		return s, err
	}
	idx := next.Index(id)
	if idx < 0 {
		return s, unknownField(id)
	}
	if newOrder < 0 || newOrder >= len(next.Fields) {
		return s, model.NewSchemaError(model.KindInvalidOrder, id, "order %d is outside 0..%d", newOrder, len(next.Fields)-1)
	}
	if newOrder == idx {
		return s, nil
	}

	moved := next.Fields[idx]
	rest := append(next.Fields[:idx:idx], next.Fields[idx+1:]...)
	reordered := make([]model.FieldDefinition, 0, len(next.Fields))
	reordered = append(reordered, rest[:newOrder]...)
	reordered = append(reordered, moved)
	reordered = append(reordered, rest[newOrder:]...)
	next.Fields = reordered
	densify(&next)

	if err := checkBackwardReferences(next); err != nil {
		return s, err
	}
	return b.commit(s, next)
}

// ShiftField moves a field by delta positions (negative moves it up).
// Shifting past either end stops at the edge.
func (b *Builder) ShiftField(s model.FormSchema, expected int, id string, delta int) (model.FormSchema, error) {
	field, ok := s.Field(id)
	if !ok {
		return s, unknownField(id)
	}
	target := field.Order + delta
	if target < 0 {
		target = 0
	}
	if last := len(s.Fields) - 1; target > last {
		target = last
	}
	return b.MoveField(s, expected, id, target)
}

// SetVisibilityRule replaces the visibility rule of a field. A nil rule, or
// one without conditions, makes the field always visible.
func (b *Builder) SetVisibilityRule(s model.FormSchema, expected int, id string, rule *model.VisibilityRule) (model.FormSchema, error) {
	next, err := b.begin(s, expected)
	if err != nil {
		return s, err
	}
	idx := next.Index(id)
	if idx < 0 {
		return s, unknownField(id)
	}
	next.Fields[idx].VisibilityRule = normalizeRule(rule.Clone())
	if err := model.CheckVisibility(next, next.Fields[idx]); err != nil {
		return s, err
	}
	return b.commit(s, next)
}

func (b *Builder) begin(s model.FormSchema, expected int) (model.FormSchema, error) {
	if expected != AnyVersion && expected != s.Version {
		return s, model.NewSchemaError(model.KindStaleVersion, "", "expected version %d, schema is at %d", expected, s.Version)
	}
	next := s.Clone()
	sort.SliceStable(next.Fields, func(i, j int) bool {
		return next.Fields[i].Order < next.Fields[j].Order
	})
	return next, nil
}

// commit re-densifies the order, verifies every schema invariant and bumps
// the version. Any failure returns the original schema.
func (b *Builder) commit(original, next model.FormSchema) (model.FormSchema, error) {
	densify(&next)
	if err := model.Check(next); err != nil {
		return original, err
	}
	next.Version = original.Version + 1
	now := b.now()
	next.UpdatedAt = model.Stamp(now)
	if next.CreatedAt == nil {
		next.CreatedAt = model.Stamp(now)
	}
	return next, nil
}

func densify(s *model.FormSchema) {
	for idx := range s.Fields {
		s.Fields[idx].Order = idx
	}
}

func checkBackwardReferences(s model.FormSchema) error {
	for _, field := range s.Fields {
		if field.VisibilityRule == nil {
			continue
		}
		for _, ref := range field.VisibilityRule.References() {
			target, ok := s.Field(ref)
			if ok && target.Order >= field.Order {
				return model.NewSchemaError(model.KindForwardReferenceViolation, field.ID, "would be placed at or before %q, which its visibility rule depends on", ref)
			}
		}
	}
	return nil
}

func normalizeRule(rule *model.VisibilityRule) *model.VisibilityRule {
	if rule == nil || len(rule.Conditions) == 0 {
		return nil
	}
	for i := range rule.Conditions {
		rule.Conditions[i].FieldID = strings.TrimSpace(rule.Conditions[i].FieldID)
	}
	return rule
}

func unknownField(id string) error {
	return model.NewSchemaError(model.KindUnknownField, id, "no such field")
}
