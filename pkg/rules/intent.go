package rules

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// ActiveNPCTarget is the sentinel rewrite rules use to mean "whichever
// NPC the player is currently interacting with".
const ActiveNPCTarget = "npc.target"

var intentWhenRe = regexp.MustCompile(`^intent\s*==\s*['"]([^'"]+)['"]$`)

// IntentEngine matches the player's classified intent against the
// scenario's rewrite rules and compiles the matched effects.
type IntentEngine struct {
	compiler *Compiler
	logger   *slog.Logger
}

func NewIntentEngine(logger *slog.Logger) *IntentEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentEngine{compiler: NewCompiler(logger), logger: logger}
}

// Apply evaluates every rewrite rule against the intent and returns
// the merged delta of all matches. activeNPC resolves the sentinel
// target.
func (e *IntentEngine) Apply(intent string, rules scenario.MemoryRules, activeNPC string, ws *state.WorldState) *state.Delta {
	out := state.NewDelta()
	if intent == "" {
		return out
	}
	for _, rule := range rules.RewriteRules {
		want, ok := parseIntentWhen(rule.When)
		if !ok {
			e.logger.Warn("rewrite rule has unsupported when clause", "rule", rule.ID, "when", rule.When)
			continue
		}
		if !strings.EqualFold(want, intent) {
			continue
		}
		compiled := e.compiler.Compile(rule.Effects, activeNPC, ws, "")
		out = state.Merge(out, compiled.Delta)
	}
	return out
}

func parseIntentWhen(when string) (string, bool) {
	m := intentWhenRe.FindStringSubmatch(strings.TrimSpace(when))
	if m == nil {
		return "", false
	}
	return m[1], true
}
