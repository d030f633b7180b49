// Package document reads and writes form schemas as JSON or YAML files.
//
// A document lists fields in display order; the position in the list becomes
// the field order. Visibility can be written either as a visibleWhen
// expression (see package expr) or as an explicit visibilityRule object:
//
//	id: event-registration
//	title: Event registration
//	fields:
//	  - id: attending
//	    type: single_choice
//	    required: true
//	    options: [yes, no]
//	  - id: guests
//	    type: number
//	    rules:
//	      - {kind: max, value: 4}
//	    visibleWhen: attending == "yes"
//
// Documents are checked against an embedded JSON Schema before they are
// converted, and the resulting schema must satisfy model.Check.
package document
