package compile

import (
	"github.com/ava12/gllx"
)

const (
	EmptyOrError = gllx.CompileErrors + iota
	UndefinedRuleError
)

func emptyOrError(rule, desc string) *gllx.Error {
	return gllx.FormatRuleError(rule, "", EmptyOrError,
		"alternation %s needs at least two cases", desc)
}

func undefinedRuleError(rule, name string) *gllx.Error {
	return gllx.FormatRuleError(rule, "", UndefinedRuleError,
		"call to undefined rule %q", name)
}
