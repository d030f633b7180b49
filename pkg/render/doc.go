// Package render turns a schema and a respondent's answers into a view model
// that concrete renderers (JSON, HTML, terminal) can display, and tracks a
// single filling session through Instance.
package render
