package gates

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/cond"
	"github.com/jwebster45206/nightloop/pkg/memory"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// UnlockedSecretImportance is the importance assigned to injected
// unlocked-secret memories; high enough to survive any eviction and
// dominate retrieval.
const UnlockedSecretImportance = 9.5

// UnlockedInfo describes one lock that opened this check.
type UnlockedInfo struct {
	LockID string
	Title  string
}

// LockCheckResult carries the locks that opened, the delta marking
// them unlocked, and any reveal trigger event ids for the caller.
type LockCheckResult struct {
	NewlyUnlocked   []UnlockedInfo
	Delta           *state.Delta
	TriggeredEvents []string
}

// LockManager evaluates information locks. When a lock opens, the
// secret is pushed into the memory stream of every NPC on its allow
// list so the cognitive pipeline can surface it.
type LockManager struct {
	store  *memory.Store
	logger *slog.Logger
}

func NewLockManager(store *memory.Store, logger *slog.Logger) *LockManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LockManager{store: store, logger: logger}
}

// Check evaluates every still-locked definition. Memory injection
// happens immediately; the lock overwrites come back as a delta for
// the turn pipeline to apply.
func (m *LockManager) Check(ws *state.WorldState, assets *scenario.Assets) LockCheckResult {
	result := LockCheckResult{Delta: state.NewDelta()}
	ctx := &cond.Context{World: ws, TurnLimit: assets.TurnLimit}

	for _, lock := range assets.Locks {
		if ws.Locks[lock.ID] {
			continue
		}
		// A lock without a condition stays shut rather than opening on
		// the first check.
		if strings.TrimSpace(lock.UnlockCondition) == "" {
			m.logger.Warn("lock has no unlock condition", "lock", lock.ID)
			continue
		}
		if !cond.Evaluate(lock.UnlockCondition, ctx, m.logger) {
			continue
		}

		result.Delta.SetLock(lock.ID, true)
		result.NewlyUnlocked = append(result.NewlyUnlocked, UnlockedInfo{LockID: lock.ID, Title: lock.Title})
		if lock.RevealTrigger != "" {
			result.TriggeredEvents = append(result.TriggeredEvents, lock.RevealTrigger)
		}

		for _, npcID := range lock.Access.AllowedNPCs {
			npc, ok := ws.NPCs[npcID]
			if !ok {
				m.logger.Warn("lock allow-list names unknown NPC", "lock", lock.ID, "npc", npcID)
				continue
			}
			entry := memory.NewEntry(npcID,
				fmt.Sprintf("%s: %s", lock.Title, lock.Description),
				UnlockedSecretImportance, ws.Turn, state.MemoryUnlockedSecret)
			m.store.Append(npc.Memory, entry)
		}
		m.logger.Info("lock opened", "lock", lock.ID, "turn", ws.Turn)
	}
	return result
}
