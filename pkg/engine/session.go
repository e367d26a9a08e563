// Package engine owns the per-session component graph and the turn
// pipeline. One Session is created per game and passed by handle into
// every turn call; there are no package-level singletons.
package engine

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/jwebster45206/nightloop/pkg/gates"
	"github.com/jwebster45206/nightloop/pkg/items"
	"github.com/jwebster45206/nightloop/pkg/memory"
	"github.com/jwebster45206/nightloop/pkg/night"
	"github.com/jwebster45206/nightloop/pkg/postprocess"
	"github.com/jwebster45206/nightloop/pkg/rules"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// ErrSessionEnded is returned by turn calls after an ending fires.
var ErrSessionEnded = errors.New("session has ended")

// Session is one game: the world state, the scenario, and one instance
// of every engine component. It is logically single-writer; only the
// turn pipeline applies deltas.
type Session struct {
	ID     uuid.UUID
	World  *state.WorldState
	Assets *scenario.Assets

	ticker   *gates.StatusTicker
	resolver *items.UseResolver
	acquirer *items.AcquireResolver
	scanner  *items.Scanner
	locks    *gates.LockManager
	endings  *gates.EndingChecker
	intents  *rules.IntentEngine
	night    *night.Orchestrator

	actionLog []string
	logger    *slog.Logger
}

// NewSession builds the component graph and the initial world from the
// scenario's schema defaults. The seed drives all night-phase
// randomness, so a fixed seed reproduces a run.
func NewSession(assets *scenario.Assets, gen night.TextGenerator, post postprocess.Postprocessor, seed int64, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	store := memory.NewStore(logger)
	return &Session{
		ID:       uuid.New(),
		World:    assets.InitialWorld(),
		Assets:   assets,
		ticker:   gates.NewStatusTicker(logger),
		resolver: items.NewUseResolver(logger),
		acquirer: items.NewAcquireResolver(logger),
		scanner:  items.NewScanner(logger),
		locks:    gates.NewLockManager(store, logger),
		endings:  gates.NewEndingChecker(logger),
		intents:  rules.NewIntentEngine(logger),
		night:    night.NewOrchestrator(gen, post, rand.New(rand.NewSource(seed)), logger),
		logger:   logger,
	}
}

// apply is the session's single write path for deltas.
func (s *Session) apply(d *state.Delta) {
	state.NewDeltaWorker(s.World, s.Assets.VarBounds(), s.logger).Apply(d)
}

// ActionLog returns the day's accumulated event lines; the night phase
// consumes and clears it.
func (s *Session) ActionLog() []string {
	return append([]string{}, s.actionLog...)
}

// Snapshot captures everything a session needs to resume: world state,
// pending status effects, the auto-acquire ratchet, and the day log.
type Snapshot struct {
	World         *state.WorldState    `json:"world"`
	StatusEffects []state.StatusEffect `json:"status_effects,omitempty"`
	AutoGranted   []string             `json:"auto_granted,omitempty"`
	ActionLog     []string             `json:"action_log,omitempty"`
}

func (s *Session) Snapshot() *Snapshot {
	return &Snapshot{
		World:         s.World,
		StatusEffects: s.ticker.Active(),
		AutoGranted:   s.scanner.Granted(),
		ActionLog:     s.ActionLog(),
	}
}

// Restore replaces the session's live state with a snapshot.
func (s *Session) Restore(snap *Snapshot) {
	s.World = snap.World
	s.ticker.Restore(snap.StatusEffects)
	s.scanner.RestoreGranted(snap.AutoGranted)
	s.actionLog = append([]string{}, snap.ActionLog...)
}
