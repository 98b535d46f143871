package grammar

// Field maps a field name to the set of structural paths locating the matched
// sub-rule. Each path is a sequence of child indexes through Concat, Or, and
// Opt nodes, in rule order.
type Field struct {
	Name  string
	Paths [][]int
}

// NamedRule is a top-level production: a rule plus its fields, if any.
// Fieldless rules compile without any forest-recording instructions.
type NamedRule struct {
	Name   string
	Rule   RuleRef
	Fields []Field
}

// HasFields reports whether the production records anything into the forest.
func (nr *NamedRule) HasFields() bool {
	return len(nr.Fields) > 0
}

// Variant is one algebraic case of a named rule whose top rule is Or and
// whose fields partition cleanly per branch.
type Variant struct {
	Rule   RuleRef
	Name   string
	Fields []Field
}

// Grammar is an ordered table of named rules sharing one Context.
type Grammar struct {
	rules []*NamedRule
	index map[string]int
}

func New() *Grammar {
	return &Grammar{
		rules: make([]*NamedRule, 0),
		index: make(map[string]int),
	}
}

// Define registers a named rule. Field paths are checked against the rule
// structure; a path addressing a nonexistent child is a grammar author error.
func (g *Grammar) Define(cx *Context, name string, rule RuleRef, fields ...Field) error {
	_, has := g.index[name]
	if has {
		return ruleDefinedError(name)
	}

	for _, f := range fields {
		for _, path := range f.Paths {
			if !validPath(cx, rule, path) {
				return fieldPathError(name, f.Name, path)
			}
		}
	}

	g.index[name] = len(g.rules)
	g.rules = append(g.rules, &NamedRule{name, rule, fields})
	return nil
}

// Get returns the named rule or nil.
func (g *Grammar) Get(name string) *NamedRule {
	i, has := g.index[name]
	if !has {
		return nil
	}
	return g.rules[i]
}

// Rules returns named rules in definition order.
func (g *Grammar) Rules() []*NamedRule {
	return g.rules
}

// validPath checks that every path step addresses an existing child.
// The empty path is valid anywhere except inside Or and Opt, matching the
// addressing rules of field resolution: an Or or Opt node is transparent for
// paths, never a field target itself.
func validPath(cx *Context, r RuleRef, path []int) bool {
	rule := cx.Rule(r)
	switch rule.Tag {
	case Empty, Eat, Call, RepeatMany, RepeatMore:
		return len(path) == 0
	case Concat:
		if len(path) == 0 {
			return true
		}
		switch path[0] {
		case 0:
			return validPath(cx, rule.Left, path[1:])
		case 1:
			return validPath(cx, rule.Right, path[1:])
		}
		return false
	case Or:
		if len(path) == 0 || path[0] < 0 || path[0] >= len(rule.Cases) {
			return false
		}
		return validPath(cx, rule.Cases[path[0]], path[1:])
	case Opt:
		if len(path) == 0 || path[0] != 0 {
			return false
		}
		return validPath(cx, rule.Inner, path[1:])
	}
	return false
}

// Refutable reports whether a field may be absent on some parses: either the
// field has several alternative paths, or its single path threads an Or
// branch or an Opt body.
func Refutable(cx *Context, r RuleRef, f Field) bool {
	if len(f.Paths) != 1 {
		return true
	}
	return pathRefutable(cx, r, f.Paths[0])
}

func pathRefutable(cx *Context, r RuleRef, path []int) bool {
	if len(path) == 0 {
		return false
	}

	rule := cx.Rule(r)
	switch rule.Tag {
	case Concat:
		if path[0] == 0 {
			return pathRefutable(cx, rule.Left, path[1:])
		}
		return pathRefutable(cx, rule.Right, path[1:])
	case Or, Opt:
		return true
	}
	return false
}

// Variants partitions the rule's fields per top-level Or branch. Each branch
// must be named by exactly one length-1 field path; longer paths attach their
// field to the branch they lead through. A nameless or doubly named branch,
// or an empty field path, disables variant encoding for the whole rule and
// Variants returns nil: the rule keeps its plain record encoding.
func (nr *NamedRule) Variants(cx *Context) []Variant {
	top := cx.Rule(nr.Rule)
	if top.Tag != Or || len(nr.Fields) == 0 {
		return nil
	}

	names := make([]string, len(top.Cases))
	fields := make([][]Field, len(top.Cases))
	for _, f := range nr.Fields {
		for _, path := range f.Paths {
			if len(path) == 0 {
				return nil
			}

			branch := path[0]
			if len(path) == 1 {
				if names[branch] != "" {
					return nil
				}
				names[branch] = f.Name
			} else {
				fields[branch] = addFieldPath(fields[branch], f.Name, path[1:])
			}
		}
	}

	variants := make([]Variant, len(top.Cases))
	for i, caseRule := range top.Cases {
		if names[i] == "" {
			return nil
		}
		variants[i] = Variant{caseRule, names[i], fields[i]}
	}
	return variants
}

func addFieldPath(fields []Field, name string, path []int) []Field {
	for i := range fields {
		if fields[i].Name == name {
			fields[i].Paths = append(fields[i].Paths, path)
			return fields
		}
	}
	return append(fields, Field{name, [][]int{path}})
}
