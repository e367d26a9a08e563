// Package gates holds the condition-gated side computations that run
// after state changes: ending detection, information locks, timed
// status effects, and item acquisition.
package gates

import (
	"log/slog"

	"github.com/jwebster45206/nightloop/pkg/cond"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// EndingInfo describes a matched ending.
type EndingInfo struct {
	ID             string
	Name           string
	EpiloguePrompt string
}

// EndingCheckResult reports whether an ending was reached and the
// delta its on-enter events compile to.
type EndingCheckResult struct {
	Reached bool
	Ending  *EndingInfo
	Delta   *state.Delta
}

// EndingChecker evaluates the scenario's endings in authored order and
// returns the first match. Authoring order is priority.
type EndingChecker struct {
	logger *slog.Logger
}

func NewEndingChecker(logger *slog.Logger) *EndingChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &EndingChecker{logger: logger}
}

// Check evaluates endings against the world state. When skipHasItem is
// set, endings whose condition contains an inventory membership test
// are passed over; the passive post-turn check uses this so that mere
// possession of an item never ends the game on its own.
func (c *EndingChecker) Check(ws *state.WorldState, assets *scenario.Assets, skipHasItem bool) EndingCheckResult {
	ctx := &cond.Context{World: ws, TurnLimit: assets.TurnLimit}
	for _, ending := range assets.Endings {
		tree, err := cond.Parse(ending.Condition)
		if err != nil {
			c.logger.Warn("unparseable ending condition", "ending", ending.ID, "error", err)
			continue
		}
		if skipHasItem && containsHasItem(tree) {
			continue
		}
		if !cond.Eval(tree, ctx) {
			continue
		}
		return EndingCheckResult{
			Reached: true,
			Ending: &EndingInfo{
				ID:             ending.ID,
				Name:           ending.Name,
				EpiloguePrompt: ending.EpiloguePrompt,
			},
			Delta: compileEvents(ending.OnEnterEvents, c.logger),
		}
	}
	return EndingCheckResult{}
}

func containsHasItem(e cond.Expr) bool {
	switch n := e.(type) {
	case *cond.HasItem:
		return true
	case *cond.And:
		for _, t := range n.Terms {
			if containsHasItem(t) {
				return true
			}
		}
	case *cond.Or:
		for _, t := range n.Terms {
			if containsHasItem(t) {
				return true
			}
		}
	}
	return false
}

func compileEvents(events []scenario.Event, logger *slog.Logger) *state.Delta {
	d := state.NewDelta()
	for _, ev := range events {
		switch ev.Type {
		case "flag_set":
			d.SetFlag(ev.Key, ev.Value)
		case "var_set":
			d.SetVar(ev.Key, ev.Value)
		default:
			logger.Warn("unknown on-enter event type", "type", ev.Type, "key", ev.Key)
		}
	}
	return d
}
