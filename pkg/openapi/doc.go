// Package openapi derives the submission contract of a form with
// kin-openapi. The generated schema is what the HTTP API publishes for
// backend collaborators and what it checks outgoing submissions against.
package openapi
