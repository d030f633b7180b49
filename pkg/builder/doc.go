// Package builder implements the authoring side of the form engine: adding,
// editing, removing and reordering fields and attaching visibility rules.
//
// Operations are value transformations. Each one receives a schema plus the
// version the caller last saw and returns a new schema with Version+1, or a
// *model.SchemaError and the untouched input. Pass AnyVersion to skip the
// optimistic check. After every successful call the field order is dense
// and every visibility rule only references earlier fields.
package builder
