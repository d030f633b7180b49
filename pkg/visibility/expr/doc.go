// Package expr reads and writes visibility rules in a compact text form:
//
//	attending == "yes" && guests in [1, 2, 3] && email isSet
//
// Supported operators are ==, !=, in, notIn, isSet and isNotSet. Conditions
// are combined with && only; || and ! are rejected because a visibility rule
// is a plain conjunction. Literals are double or single quoted strings,
// numbers and true/false. Field ids are bare words.
package expr
