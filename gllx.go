/*
Package gllx is the compilation core of a GLL parser generator.

Consists of subpackages:
  - grammar: interned context-free rule graph, named rules, field maps;
  - compile: translates rules to a control-flow automaton program driven by a GLL-style runtime;
  - forest: parse node kinds and shapes, shared packed parse forests, and ambiguity-safe forest reading.

Typical usage is:

1. Build the rule graph through a grammar.Context and register named rules
in a grammar.Grammar.

2. Call compile.Generate to obtain a compile.Program: automaton code for
every named rule plus the parse node kind and shape tables.

3. Feed the program to a GLL runtime. The runtime fills a forest.Forest
through its recording methods while parsing.

4. Read results back through forest.Handle. Ambiguous parts of the forest
surface as forest.Ambiguity values, never as silently picked interpretations.

The textual grammar syntax, output formatting, and the runtime engine itself
are outside of this module; compile emits instructions against the fixed
runtime surface declared in the compile package.
*/
package gllx

import (
	"fmt"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	GrammarErrors = 1   // used by grammar
	CompileErrors = 101 // used by compile
	ForestErrors  = 201 // used by forest
)

// Error is the error type used by gllx subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including rule and field names if provided.
	Message string

	// Rule contains the name or description of the offending rule or empty string.
	Rule string

	// Field contains the offending field name or empty string.
	Field string
}

// NewError creates new Error structure.
// rule and field will be added to error message if provided (non-empty).
func NewError(code int, msg, rule, field string) *Error {
	if rule != "" {
		msg += " in rule " + rule
	}
	if field != "" {
		msg += " field " + field
	}
	return &Error{code, msg, rule, field}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// FormatError creates new Error structure using fmt.Sprintf.
func FormatError(code int, msg string, params ...interface{}) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", "")
}

// FormatRuleError creates new Error structure for a specific rule (and field, if non-empty).
func FormatRuleError(rule, field string, code int, msg string, params ...interface{}) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, rule, field)
}
