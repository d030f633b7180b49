// Package visibility evaluates the conditional visibility rules of a form
// schema against the answers collected so far.
//
// Evaluation is pure and runs in O(fields): fields are processed in
// ascending order, so every condition only looks at values that have
// already been resolved. A condition on a field that is hidden or has no
// usable answer treats that field as unset: equals and in fail, notEquals
// and notIn hold, isSet fails and isNotSet holds.
package visibility
