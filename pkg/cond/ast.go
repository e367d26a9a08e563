// Package cond implements the scenario condition language: one parser
// and one evaluator shared by every gate in the engine (endings, locks,
// item actions, acquire conditions, memory rewrite rules, NPC phase
// transitions).
package cond

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpGt Op = ">"
	OpLt Op = "<"
	OpGe Op = ">="
	OpLe Op = "<="
)

// Expr is a parsed predicate tree.
type Expr interface {
	isExpr()
}

// And is a conjunction of terms.
type And struct {
	Terms []Expr
}

// Or is a disjunction of terms. "or" binds loosest, "and" tighter.
type Or struct {
	Terms []Expr
}

// StatCompare compares npc.<id>.<stat> against a number.
type StatCompare struct {
	NPCID string
	Stat  string
	Op    Op
	Value float64
}

// FieldEquals compares npc.<id>.<field> against a quoted string. The
// field is the status by convention; unknown fields fall back to the
// NPC's memory bookkeeping.
type FieldEquals struct {
	NPCID string
	Field string
	Op    Op // == or !=
	Value string
}

// SelfStatCompare is the phase-transition form: a bare identifier
// compared against a number, resolved against the evaluating NPC's own
// stat map.
type SelfStatCompare struct {
	Stat  string
	Op    Op
	Value float64
}

// VarCompare compares vars.<name> numerically.
type VarCompare struct {
	Name  string
	Op    Op
	Value float64
}

// VarBoolEquals compares vars.<name> against a boolean literal.
type VarBoolEquals struct {
	Name  string
	Op    Op // == or !=
	Value bool
}

// FlagEquals compares flags.<name> against true, false or null.
// A nil Value means the null form, which checks both the flags map and
// the vars map for absence.
type FlagEquals struct {
	Name  string
	Op    Op // == or !=
	Value *bool
}

// HasItem tests inventory membership.
type HasItem struct {
	ItemID string
}

// TurnCompare compares system.turn against a number, or against the
// scenario turn limit when AgainstLimit is set.
type TurnCompare struct {
	Op           Op
	Value        int
	AgainstLimit bool
}

// Literal is a constant predicate; "true" is the conventional
// always-allowed item action condition.
type Literal struct {
	Value bool
}

// ContainsSelfStat reports whether any clause in the tree is the
// phase-transition bare-identifier form. World-state gates must not
// contain it; cmd/validate rejects it there and the evaluator treats
// it as false without a self-stat map.
func ContainsSelfStat(e Expr) bool {
	switch n := e.(type) {
	case *SelfStatCompare:
		return true
	case *And:
		for _, t := range n.Terms {
			if ContainsSelfStat(t) {
				return true
			}
		}
	case *Or:
		for _, t := range n.Terms {
			if ContainsSelfStat(t) {
				return true
			}
		}
	}
	return false
}

func (*And) isExpr()             {}
func (*Or) isExpr()              {}
func (*StatCompare) isExpr()     {}
func (*FieldEquals) isExpr()     {}
func (*SelfStatCompare) isExpr() {}
func (*VarCompare) isExpr()      {}
func (*VarBoolEquals) isExpr()   {}
func (*FlagEquals) isExpr()      {}
func (*HasItem) isExpr()         {}
func (*TurnCompare) isExpr()     {}
func (*Literal) isExpr()         {}
