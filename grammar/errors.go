package grammar

import (
	"strconv"
	"strings"

	"github.com/ava12/gllx"
)

const (
	RuleDefinedError = gllx.GrammarErrors + iota
	FieldPathError
)

func ruleDefinedError(name string) *gllx.Error {
	return gllx.FormatRuleError(name, "", RuleDefinedError, "rule %q already defined", name)
}

func fieldPathError(rule, field string, path []int) *gllx.Error {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return gllx.FormatRuleError(rule, field, FieldPathError,
		"field path [%s] does not address a rule child", strings.Join(parts, " "))
}
