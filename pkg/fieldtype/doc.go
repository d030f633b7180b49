// Package fieldtype enumerates the field kinds a form schema can declare and
// the value semantics attached to each of them: the canonical value shape,
// the validation rule kinds that apply, how raw respondent input is coerced
// into that shape, and the value an unanswered field starts with.
//
// The registry is closed. Describe dispatches on the Type tag and every
// descriptor is immutable, so callers can share them freely.
package fieldtype
