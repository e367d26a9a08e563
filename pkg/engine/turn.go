package engine

import (
	"context"

	"github.com/jwebster45206/nightloop/pkg/gates"
	"github.com/jwebster45206/nightloop/pkg/items"
	"github.com/jwebster45206/nightloop/pkg/night"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// DayAction is one player turn: a classified intent, the NPC being
// addressed (if any), an optional item use or acquisition, and the
// free-text description logged for the night agenda.
type DayAction struct {
	Intent        string
	NPCID         string
	UseItemID     string
	AcquireItemID string
	Description   string
}

// TurnReport is what a day turn hands back to the caller.
type TurnReport struct {
	Events          []string
	Delta           *state.Delta
	UseResult       *items.UseResult
	Acquisition     *items.AcquisitionResult
	NewlyAcquired   []string
	NewlyUnlocked   []gates.UnlockedInfo
	TriggeredEvents []string
	Ending          *gates.EndingInfo
}

// DayTurn runs one player turn end to end: status-effect tick, item
// and intent deltas merged and applied, then the dependent gates in
// order (auto-acquire scan, lock check, passive ending check).
func (s *Session) DayTurn(ctx context.Context, action DayAction) (*TurnReport, error) {
	if s.World.IsEnded {
		return nil, ErrSessionEnded
	}

	report := &TurnReport{}

	// Expired status effects restore before anything else sees the
	// world.
	s.apply(s.ticker.Tick(s.World.Turn))

	deltas := []*state.Delta{}

	if action.UseItemID != "" {
		use := s.resolver.Resolve(action.UseItemID, action.NPCID, s.World, s.Assets)
		report.UseResult = &use
		report.Events = append(report.Events, use.Message)
		if use.Success {
			deltas = append(deltas, use.Delta)
			for _, fx := range use.StatusEffects {
				s.ticker.Register(fx)
			}
			report.TriggeredEvents = append(report.TriggeredEvents, use.TriggeredEvents...)
		}
	}

	if action.AcquireItemID != "" {
		acq := s.acquirer.Resolve(action.AcquireItemID, s.World, s.Assets)
		report.Acquisition = &acq
		report.Events = append(report.Events, acq.Message)
		if acq.Success {
			deltas = append(deltas, acq.Delta)
		}
	}

	deltas = append(deltas, s.intents.Apply(action.Intent, s.Assets.MemoryRules, action.NPCID, s.World))

	merged := state.Merge(deltas...)
	merged.TurnIncrement = 1
	s.apply(merged)
	report.Delta = merged

	if action.Description != "" {
		s.actionLog = append(s.actionLog, action.Description)
	}

	scan := s.scanner.Scan(s.World, s.Assets)
	if len(scan.NewlyAcquired) > 0 {
		s.apply(scan.Delta)
		report.NewlyAcquired = scan.NewlyAcquired
	}

	s.runGates(report)
	return report, nil
}

// NightPhase runs the autonomous simulation, applies its delta, and
// re-checks the gates against the morning state. The day log is
// consumed.
func (s *Session) NightPhase(ctx context.Context) (*night.Result, *TurnReport, error) {
	if s.World.IsEnded {
		return nil, nil, ErrSessionEnded
	}

	s.apply(s.ticker.Tick(s.World.Turn))

	result := s.night.Run(ctx, s.World, s.Assets, s.actionLog)
	s.apply(result.Delta)
	s.actionLog = nil

	report := &TurnReport{Delta: result.Delta}
	s.runGates(report)
	return result, report, nil
}

// runGates applies the post-apply gate sequence: locks, then the
// passive ending check. The passive check skips endings gated on item
// possession so holding an item never ends the game by itself.
func (s *Session) runGates(report *TurnReport) {
	lockRes := s.locks.Check(s.World, s.Assets)
	if len(lockRes.NewlyUnlocked) > 0 {
		s.apply(lockRes.Delta)
		report.NewlyUnlocked = lockRes.NewlyUnlocked
		report.TriggeredEvents = append(report.TriggeredEvents, lockRes.TriggeredEvents...)
	}

	ending := s.endings.Check(s.World, s.Assets, true)
	if ending.Reached {
		s.apply(ending.Delta)
		s.World.IsEnded = true
		s.World.EndingID = ending.Ending.ID
		report.Ending = ending.Ending
		s.logger.Info("ending reached", "ending", ending.Ending.ID, "turn", s.World.Turn)
	}
}
