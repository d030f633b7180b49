// Package model defines the persisted form schema: an ordered list of typed
// field definitions, their validation rules and the conditional visibility
// rules that tie later fields to answers given earlier in the form.
//
// Field order is dense (0..n-1) and visibility rules may only reference
// fields with a strictly smaller order, which keeps the dependency graph
// acyclic by construction. Check verifies every invariant of a schema value;
// the builder package enforces them on each mutation. Validation rules carry
// their parameters as strings (Params["value"], Params["pattern"],
// Params["types"]) so JSON snapshots stay deterministic; CompileRule turns
// them into typed bounds.
package model
