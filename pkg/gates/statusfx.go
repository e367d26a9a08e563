package gates

import (
	"log/slog"
	"sort"

	"github.com/jwebster45206/nightloop/pkg/state"
)

// StatusTicker tracks timed status effects and emits each restoring
// delta exactly once, at expiry. At most one effect is active per NPC;
// on conflict the higher priority wins.
type StatusTicker struct {
	effects map[string]state.StatusEffect
	logger  *slog.Logger
}

func NewStatusTicker(logger *slog.Logger) *StatusTicker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusTicker{effects: make(map[string]state.StatusEffect), logger: logger}
}

// Register adds an effect. An existing effect on the same NPC is
// replaced only by an equal or higher priority.
func (t *StatusTicker) Register(fx state.StatusEffect) {
	if cur, ok := t.effects[fx.TargetNPC]; ok {
		if fx.Priority < cur.Priority {
			t.logger.Debug("status effect outranked", "npc", fx.TargetNPC, "priority", fx.Priority)
			return
		}
		// Preserve the pre-effect status across replacements so expiry
		// restores the true original.
		fx.Original = cur.Original
	}
	t.effects[fx.TargetNPC] = fx
}

// Tick removes every effect whose expiry turn has been reached and
// returns the merged restoration delta.
func (t *StatusTicker) Tick(currentTurn int) *state.Delta {
	d := state.NewDelta()
	for npcID, fx := range t.effects {
		if currentTurn < fx.ExpiresAt {
			continue
		}
		d.SetNPCStatus(npcID, fx.Original)
		delete(t.effects, npcID)
		t.logger.Debug("status effect expired", "npc", npcID, "restored", fx.Original)
	}
	return d
}

// Active returns the current effects for persistence.
func (t *StatusTicker) Active() []state.StatusEffect {
	out := make([]state.StatusEffect, 0, len(t.effects))
	for _, fx := range t.effects {
		out = append(out, fx)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].TargetNPC < out[b].TargetNPC })
	return out
}

// Restore reloads effects from a persisted snapshot.
func (t *StatusTicker) Restore(effects []state.StatusEffect) {
	t.effects = make(map[string]state.StatusEffect, len(effects))
	for _, fx := range effects {
		t.Register(fx)
	}
}
