// Package items implements item usage and acquisition: the three-phase
// validate/simulate/commit use resolver, the player-initiated acquire
// resolver, and the auto-acquisition scanner.
package items

import (
	"log/slog"

	"github.com/jwebster45206/nightloop/pkg/cond"
	"github.com/jwebster45206/nightloop/pkg/gates"
	"github.com/jwebster45206/nightloop/pkg/rules"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// FailureReason tags why an item use was refused.
type FailureReason string

const (
	FailUnknownItem     FailureReason = "unknown_item"
	FailNotInInventory  FailureReason = "not_in_inventory"
	FailNoActions       FailureReason = "no_actions"
	FailConditionNotMet FailureReason = "condition_not_met"
)

// UseResult is the outcome of one item use. On failure the delta is
// empty and the caller's world state is guaranteed untouched.
type UseResult struct {
	Success  bool
	ItemID   string
	ActionID string
	Reason   FailureReason
	Message  string

	Delta           *state.Delta
	StatusEffects   []state.StatusEffect
	TriggeredEvents []string
	Consumed        bool
	EndingPreview   *gates.EndingInfo
}

// UseResolver runs the item-use transaction. It never mutates the
// world state passed in; only the returned delta does, if the caller
// applies it.
type UseResolver struct {
	compiler *rules.Compiler
	endings  *gates.EndingChecker
	logger   *slog.Logger
}

func NewUseResolver(logger *slog.Logger) *UseResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &UseResolver{
		compiler: rules.NewCompiler(logger),
		endings:  gates.NewEndingChecker(logger),
		logger:   logger,
	}
}

// Resolve runs validate, simulate, commit, in that order. targetNPC
// resolves npc.target effect references.
func (r *UseResolver) Resolve(itemID, targetNPC string, ws *state.WorldState, assets *scenario.Assets) UseResult {
	// Validate.
	item := assets.ItemByID(itemID)
	if item == nil {
		return failure(itemID, FailUnknownItem, "Nothing happens.")
	}
	if !ws.HasItem(itemID) {
		return failure(itemID, FailNotInInventory, "You are not carrying that.")
	}
	if len(item.Use.Actions) == 0 {
		return failure(itemID, FailNoActions, "There is no way to use that.")
	}

	action := r.chooseAction(item, targetNPC, ws, assets)
	ctx := &cond.Context{World: ws, TurnLimit: assets.TurnLimit}
	if !cond.Evaluate(action.AllowedWhen, ctx, r.logger) {
		msg := action.FailureMessage
		if msg == "" {
			msg = "That does not work here."
		}
		out := failure(itemID, FailConditionNotMet, msg)
		out.ActionID = action.ID
		return out
	}

	// Simulate: compile effects, apply the candidate to a throwaway
	// copy, and probe for an ending in the hypothetical state.
	compiled := r.compiler.Compile(action.Effects, targetNPC, ws, item.ID)
	consumed := item.Consumed()

	candidate := state.Merge(compiled.Delta)
	if consumed {
		candidate.InventoryRemove = append(candidate.InventoryRemove, item.ID)
	}

	var preview *gates.EndingInfo
	probe := ws.Clone()
	state.NewDeltaWorker(probe, assets.VarBounds(), r.logger).Apply(candidate)
	if check := r.endings.Check(probe, assets, false); check.Reached {
		preview = check.Ending
	}

	// Commit.
	return UseResult{
		Success:         true,
		ItemID:          item.ID,
		ActionID:        action.ID,
		Message:         action.SuccessMessage,
		Delta:           candidate,
		StatusEffects:   compiled.StatusEffects,
		TriggeredEvents: compiled.TriggeredEvents,
		Consumed:        consumed,
		EndingPreview:   preview,
	}
}

// chooseAction picks the first action whose allowed_when holds,
// defaulting to the first action when none does. Single-action items
// resolve trivially.
func (r *UseResolver) chooseAction(item *scenario.Item, targetNPC string, ws *state.WorldState, assets *scenario.Assets) *scenario.Action {
	actions := item.Use.Actions
	if len(actions) == 1 {
		return &actions[0]
	}
	ctx := &cond.Context{World: ws, TurnLimit: assets.TurnLimit}
	for i := range actions {
		if cond.Evaluate(actions[i].AllowedWhen, ctx, r.logger) {
			return &actions[i]
		}
	}
	return &actions[0]
}

func failure(itemID string, reason FailureReason, message string) UseResult {
	return UseResult{
		ItemID:  itemID,
		Reason:  reason,
		Message: message,
		Delta:   state.NewDelta(),
	}
}
