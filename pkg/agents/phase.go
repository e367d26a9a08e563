package agents

import (
	"log/slog"

	"github.com/jwebster45206/nightloop/pkg/cond"
	"github.com/jwebster45206/nightloop/pkg/scenario"
)

// ResolvePhase walks the NPC's ordered phase list from the current
// phase and advances past every phase whose transition condition holds
// against the stat map. A phase with an empty transition condition is
// terminal. Returns the resolved phase; an empty phase list resolves
// to a zero Phase.
func ResolvePhase(phases []scenario.Phase, stats map[string]int, currentPhaseID string, logger *slog.Logger) scenario.Phase {
	if len(phases) == 0 {
		return scenario.Phase{}
	}

	idx := 0
	if currentPhaseID != "" {
		for i := range phases {
			if phases[i].ID == currentPhaseID {
				idx = i
				break
			}
		}
	}

	ctx := &cond.Context{SelfStats: stats}
	for idx+1 < len(phases) {
		c := phases[idx].Transition.Condition
		if c == "" {
			break
		}
		tree, err := cond.Parse(c)
		if err != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("unparseable phase transition", "phase", phases[idx].ID, "error", err)
			break
		}
		if !cond.Eval(tree, ctx) {
			break
		}
		idx++
	}
	return phases[idx]
}
