// Package validation checks respondent answers against a form schema.
//
// Validate never fails: a malformed submission produces a Report whose
// field errors are plain data, ready to be shown next to each input or
// returned to an API client. Hidden fields are skipped entirely.
package validation
