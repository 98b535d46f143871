package grammar

import (
	"strconv"
	"strings"
)

// Context is the interning arena for rules. All rules must be created through
// its constructors; structurally equal rules intern to the same RuleRef.
// A Context stays valid for the whole lifetime of every grammar built on it.
type Context struct {
	rules []Rule
	index map[string]RuleRef
}

func NewContext() *Context {
	return &Context{
		rules: make([]Rule, 0),
		index: make(map[string]RuleRef),
	}
}

// Rule returns the interned rule for a handle.
func (c *Context) Rule(r RuleRef) Rule {
	return c.rules[r]
}

// Len returns the number of distinct interned rules.
func (c *Context) Len() int {
	return len(c.rules)
}

func (c *Context) intern(key string, r Rule) RuleRef {
	ref, has := c.index[key]
	if has {
		return ref
	}

	ref = RuleRef(len(c.rules))
	c.rules = append(c.rules, r)
	c.index[key] = ref
	return ref
}

func refList(refs []RuleRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = strconv.Itoa(int(r))
	}
	return strings.Join(parts, ",")
}

func repeatKey(tag string, elem, sep RuleRef, kind SepKind) string {
	key := tag + "(" + strconv.Itoa(int(elem))
	if sep != NoRule {
		key += ";" + strconv.Itoa(int(sep))
		if kind == SepTrailing {
			key += "t"
		}
	}
	return key + ")"
}

// Empty returns the rule matching zero input.
func (c *Context) Empty() RuleRef {
	return c.intern("empty", Rule{Tag: Empty})
}

// Eat returns the rule consuming one pattern match.
func (c *Context) Eat(p Pat) RuleRef {
	return c.intern("eat("+p.String()+")", Rule{Tag: Eat, Pat: p})
}

// NamedCall returns the rule invoking a named rule.
func (c *Context) NamedCall(name string) RuleRef {
	return c.intern("call("+name+")", Rule{Tag: Call, Name: name})
}

// Concat returns the ordered pair rule. More than two rules fold into nested
// binary pairs, left to right.
func (c *Context) Concat(rules ...RuleRef) RuleRef {
	if len(rules) == 0 {
		return c.Empty()
	}

	result := rules[0]
	for _, r := range rules[1:] {
		key := "cat(" + strconv.Itoa(int(result)) + "," + strconv.Itoa(int(r)) + ")"
		result = c.intern(key, Rule{Tag: Concat, Left: result, Right: r})
	}
	return result
}

// Or returns the alternation rule. Case counts are not checked here:
// an alternation with fewer than two cases is rejected by compile.Generate.
func (c *Context) Or(cases ...RuleRef) RuleRef {
	cs := make([]RuleRef, len(cases))
	copy(cs, cases)
	return c.intern("or("+refList(cs)+")", Rule{Tag: Or, Cases: cs})
}

// Opt returns the optional rule.
func (c *Context) Opt(inner RuleRef) RuleRef {
	return c.intern("opt("+strconv.Itoa(int(inner))+")", Rule{Tag: Opt, Inner: inner})
}

// Many returns the zero-or-more repetition, separated if sep is not NoRule.
func (c *Context) Many(elem, sep RuleRef, kind SepKind) RuleRef {
	key := repeatKey("many", elem, sep, kind)
	return c.intern(key, Rule{Tag: RepeatMany, Elem: elem, Sep: sep, SepKind: kind})
}

// More returns the one-or-more repetition, separated if sep is not NoRule.
func (c *Context) More(elem, sep RuleRef, kind SepKind) RuleRef {
	key := repeatKey("more", elem, sep, kind)
	return c.intern(key, Rule{Tag: RepeatMore, Elem: elem, Sep: sep, SepKind: kind})
}
