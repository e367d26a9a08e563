package cond

import (
	"log/slog"

	"github.com/jwebster45206/nightloop/pkg/state"
)

// Context carries everything an expression may reference.
type Context struct {
	World     *state.WorldState
	TurnLimit int

	// Extra holds scenario-provided variables consulted when a var is
	// absent from world state.
	Extra map[string]state.Value

	// SelfStats resolves bare-identifier comparisons; set only when
	// evaluating an NPC's phase-transition condition.
	SelfStats map[string]int
}

// Evaluate parses and evaluates an expression, fail-closed: a parse
// error logs a warning and yields false, so a malformed gate never
// fires. cmd/validate surfaces the same parse errors at authoring time.
func Evaluate(expr string, ctx *Context, logger *slog.Logger) bool {
	tree, err := Parse(expr)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("unparseable condition evaluated as false", "condition", expr, "error", err)
		return false
	}
	if ctx.SelfStats == nil && ContainsSelfStat(tree) {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("bare-identifier condition outside a phase transition evaluated as false", "condition", expr)
		return false
	}
	return Eval(tree, ctx)
}

// Eval evaluates a parsed predicate tree.
func Eval(e Expr, ctx *Context) bool {
	switch n := e.(type) {
	case *Literal:
		return n.Value
	case *And:
		for _, t := range n.Terms {
			if !Eval(t, ctx) {
				return false
			}
		}
		return true
	case *Or:
		for _, t := range n.Terms {
			if Eval(t, ctx) {
				return true
			}
		}
		return false
	case *StatCompare:
		if ctx.World == nil {
			return false
		}
		npc, ok := ctx.World.NPCs[n.NPCID]
		if !ok {
			return false
		}
		return compareFloat(float64(npc.Stats[n.Stat]), n.Op, n.Value)
	case *FieldEquals:
		return evalFieldEquals(n, ctx)
	case *SelfStatCompare:
		if ctx.SelfStats == nil {
			return false
		}
		return compareFloat(float64(ctx.SelfStats[n.Stat]), n.Op, n.Value)
	case *VarCompare:
		return compareFloat(lookupVarNumber(n.Name, ctx), n.Op, n.Value)
	case *VarBoolEquals:
		v, ok := lookupVar(n.Name, ctx)
		if !ok {
			return false
		}
		b, ok := v.AsBool()
		if !ok {
			return false
		}
		return (b == n.Value) == (n.Op == OpEq)
	case *FlagEquals:
		return evalFlagEquals(n, ctx)
	case *HasItem:
		return ctx.World != nil && ctx.World.HasItem(n.ItemID)
	case *TurnCompare:
		if ctx.World == nil {
			return false
		}
		target := n.Value
		if n.AgainstLimit {
			target = ctx.TurnLimit
		}
		return compareFloat(float64(ctx.World.Turn), n.Op, float64(target))
	default:
		return false
	}
}

func evalFieldEquals(n *FieldEquals, ctx *Context) bool {
	if ctx.World == nil {
		return false
	}
	npc, ok := ctx.World.NPCs[n.NPCID]
	if !ok {
		return false
	}
	var got string
	switch {
	case n.Field == "status":
		got = string(npc.Status)
	default:
		// Absent stat: fall back to memory bookkeeping fields.
		f, ok := npc.Memory.Field(n.Field)
		if !ok {
			return false
		}
		got = f
	}
	return (got == n.Value) == (n.Op == OpEq)
}

// evalFlagEquals handles true/false equality on the flags map. The
// null form checks flags first and falls back to vars, so older
// scenarios that kept flag-like values in vars still match.
func evalFlagEquals(n *FlagEquals, ctx *Context) bool {
	if ctx.World == nil {
		return false
	}
	if n.Value != nil {
		v, ok := ctx.World.Flags[n.Name]
		if !ok {
			return n.Op == OpNe
		}
		b, ok := v.AsBool()
		if !ok {
			return n.Op == OpNe
		}
		return (b == *n.Value) == (n.Op == OpEq)
	}
	isNull := flagIsNull(n.Name, ctx)
	return isNull == (n.Op == OpEq)
}

func flagIsNull(name string, ctx *Context) bool {
	if v, ok := ctx.World.Flags[name]; ok && !v.IsNull() {
		return false
	}
	if v, ok := lookupVar(name, ctx); ok && !v.IsNull() {
		return false
	}
	return true
}

func lookupVar(name string, ctx *Context) (state.Value, bool) {
	if ctx.World != nil {
		if v, ok := ctx.World.Vars[name]; ok {
			return v, true
		}
	}
	if v, ok := ctx.Extra[name]; ok {
		return v, true
	}
	return state.Null(), false
}

// lookupVarNumber defaults missing or non-numeric vars to 0 so numeric
// comparisons stay total.
func lookupVarNumber(name string, ctx *Context) float64 {
	v, ok := lookupVar(name, ctx)
	if !ok {
		return 0
	}
	n, ok := v.AsNumber()
	if !ok {
		return 0
	}
	return n
}

func compareFloat(a float64, op Op, b float64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGe:
		return a >= b
	case OpLe:
		return a <= b
	default:
		return false
	}
}
