package cond

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	npcStatRe  = regexp.MustCompile(`^npc\.([a-z][a-z0-9_]*)\.([a-z][a-z0-9_]*)\s*(==|!=|>=|<=|>|<)\s*(-?\d+(?:\.\d+)?)$`)
	npcFieldRe = regexp.MustCompile(`^npc\.([a-z][a-z0-9_]*)\.([a-z][a-z0-9_]*)\s*(==|!=)\s*['"]([^'"]*)['"]$`)
	varNumRe   = regexp.MustCompile(`^vars\.([a-z][a-z0-9_]*)\s*(==|!=|>=|<=|>|<)\s*(-?\d+(?:\.\d+)?)$`)
	varBoolRe  = regexp.MustCompile(`^vars\.([a-z][a-z0-9_]*)\s*(==|!=)\s*(true|false)$`)
	flagRe     = regexp.MustCompile(`^flags\.([a-z][a-z0-9_]*)\s*(==|!=)\s*(true|false|null)$`)
	hasItemRe  = regexp.MustCompile(`^has_item\(\s*['"]?([a-z][a-z0-9_]*)['"]?\s*\)$`)
	turnRe     = regexp.MustCompile(`^system\.turn\s*(==|!=|>=|<=|>|<)\s*(\d+)$`)
	turnLimRe  = regexp.MustCompile(`^system\.turn\s*(==|!=|>=|<=|>|<)\s*turn_limit$`)
	selfStatRe = regexp.MustCompile(`^([a-z][a-z0-9_]*)\s*(==|!=|>=|<=|>|<)\s*(-?\d+(?:\.\d+)?)$`)
)

// Parse turns a condition string into a predicate tree. "or" has the
// lowest precedence, "and" binds tighter. An empty expression parses
// to Literal{true} so optional conditions read as unconditional.
func Parse(expr string) (Expr, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Literal{Value: true}, nil
	}

	orParts := splitLogical(expr, " or ")
	if len(orParts) > 1 {
		terms := make([]Expr, 0, len(orParts))
		for _, part := range orParts {
			t, err := Parse(part)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		return &Or{Terms: terms}, nil
	}

	andParts := splitLogical(expr, " and ")
	if len(andParts) > 1 {
		terms := make([]Expr, 0, len(andParts))
		for _, part := range andParts {
			t, err := parseClause(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		return &And{Terms: terms}, nil
	}

	return parseClause(expr)
}

func parseClause(clause string) (Expr, error) {
	switch clause {
	case "true":
		return &Literal{Value: true}, nil
	case "false":
		return &Literal{Value: false}, nil
	}

	if m := npcFieldRe.FindStringSubmatch(clause); m != nil {
		return &FieldEquals{NPCID: m[1], Field: m[2], Op: Op(m[3]), Value: m[4]}, nil
	}
	if m := npcStatRe.FindStringSubmatch(clause); m != nil {
		v, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number in %q: %w", clause, err)
		}
		return &StatCompare{NPCID: m[1], Stat: m[2], Op: Op(m[3]), Value: v}, nil
	}
	if m := varBoolRe.FindStringSubmatch(clause); m != nil {
		return &VarBoolEquals{Name: m[1], Op: Op(m[2]), Value: m[3] == "true"}, nil
	}
	if m := varNumRe.FindStringSubmatch(clause); m != nil {
		v, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number in %q: %w", clause, err)
		}
		return &VarCompare{Name: m[1], Op: Op(m[2]), Value: v}, nil
	}
	if m := flagRe.FindStringSubmatch(clause); m != nil {
		fe := &FlagEquals{Name: m[1], Op: Op(m[2])}
		switch m[3] {
		case "true":
			t := true
			fe.Value = &t
		case "false":
			f := false
			fe.Value = &f
		}
		return fe, nil
	}
	if m := hasItemRe.FindStringSubmatch(clause); m != nil {
		return &HasItem{ItemID: m[1]}, nil
	}
	if m := turnLimRe.FindStringSubmatch(clause); m != nil {
		return &TurnCompare{Op: Op(m[1]), AgainstLimit: true}, nil
	}
	if m := turnRe.FindStringSubmatch(clause); m != nil {
		v, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("bad turn number in %q: %w", clause, err)
		}
		return &TurnCompare{Op: Op(m[1]), Value: v}, nil
	}
	if m := selfStatRe.FindStringSubmatch(clause); m != nil {
		v, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number in %q: %w", clause, err)
		}
		return &SelfStatCompare{Stat: m[1], Op: Op(m[2]), Value: v}, nil
	}

	return nil, fmt.Errorf("unrecognized condition clause: %q", clause)
}

// splitLogical splits on a lowercase connective, ignoring occurrences
// inside quoted strings.
func splitLogical(s, sep string) []string {
	var parts []string
	var quote rune
	start := 0
	for i := 0; i < len(s); i++ {
		c := rune(s[i])
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		if strings.HasPrefix(s[i:], sep) {
			parts = append(parts, strings.TrimSpace(s[start:i]))
			i += len(sep) - 1
			start = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}
