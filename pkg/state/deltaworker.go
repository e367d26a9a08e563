package state

import (
	"log/slog"
	"sort"
)

// Stat values are clamped to this range on apply.
const (
	StatMin = 0
	StatMax = 100
)

// VarBounds optionally clamps a var on apply; the bounds come from the
// scenario's state schema.
type VarBounds struct {
	Min *float64
	Max *float64
}

// DeltaWorker applies merged deltas to a world state. It is the only
// component that writes WorldState.
type DeltaWorker struct {
	ws     *WorldState
	bounds map[string]VarBounds
	logger *slog.Logger
}

func NewDeltaWorker(ws *WorldState, bounds map[string]VarBounds, logger *slog.Logger) *DeltaWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeltaWorker{ws: ws, bounds: bounds, logger: logger}
}

// Apply mutates the world state with the delta. Adds are processed
// before removes, so a remove wins over an add of the same item id
// within a single delta.
func (w *DeltaWorker) Apply(d *Delta) {
	if d.IsEmpty() {
		return
	}
	w.applyNPCStats(d)
	w.applyNPCStatus(d)
	w.applyFlags(d)
	w.applyVars(d)
	w.applyInventory(d)
	w.applyLocks(d)
	w.ws.Turn += d.TurnIncrement
	if d.NextScene != "" {
		w.ws.Scene = d.NextScene
	}
}

func (w *DeltaWorker) applyNPCStats(d *Delta) {
	npcIDs := make([]string, 0, len(d.NPCStats))
	for id := range d.NPCStats {
		npcIDs = append(npcIDs, id)
	}
	sort.Strings(npcIDs)
	for _, npcID := range npcIDs {
		npc, ok := w.ws.NPCs[npcID]
		if !ok {
			w.logger.Warn("stat delta for unknown NPC", "npc", npcID)
			continue
		}
		if npc.Stats == nil {
			npc.Stats = make(map[string]int)
		}
		for stat, amount := range d.NPCStats[npcID] {
			v := npc.Stats[stat] + amount
			if v < StatMin {
				v = StatMin
			}
			if v > StatMax {
				v = StatMax
			}
			npc.Stats[stat] = v
		}
	}
}

func (w *DeltaWorker) applyNPCStatus(d *Delta) {
	for npcID, status := range d.NPCStatus {
		npc, ok := w.ws.NPCs[npcID]
		if !ok {
			w.logger.Warn("status delta for unknown NPC", "npc", npcID)
			continue
		}
		npc.Status = status
	}
}

func (w *DeltaWorker) applyFlags(d *Delta) {
	for name, v := range d.Flags {
		w.ws.Flags[name] = v
	}
}

func (w *DeltaWorker) applyVars(d *Delta) {
	for name, v := range d.Vars {
		cur, exists := w.ws.Vars[name]
		if exists && cur.Kind() == KindNumber && v.Kind() == KindNumber {
			curN, _ := cur.AsNumber()
			dN, _ := v.AsNumber()
			w.ws.Vars[name] = Number(w.clampVar(name, curN+dN))
			continue
		}
		if v.Kind() == KindNumber {
			n, _ := v.AsNumber()
			w.ws.Vars[name] = Number(w.clampVar(name, n))
			continue
		}
		w.ws.Vars[name] = v
	}
}

func (w *DeltaWorker) clampVar(name string, v float64) float64 {
	b, ok := w.bounds[name]
	if !ok {
		return v
	}
	if b.Min != nil && v < *b.Min {
		v = *b.Min
	}
	if b.Max != nil && v > *b.Max {
		v = *b.Max
	}
	return v
}

func (w *DeltaWorker) applyInventory(d *Delta) {
	for _, itemID := range d.InventoryAdd {
		if !w.ws.HasItem(itemID) {
			w.ws.Inventory = append(w.ws.Inventory, itemID)
		}
	}
	for _, itemID := range d.InventoryRemove {
		for i, have := range w.ws.Inventory {
			if have == itemID {
				w.ws.Inventory = append(w.ws.Inventory[:i], w.ws.Inventory[i+1:]...)
				break
			}
		}
	}
}

func (w *DeltaWorker) applyLocks(d *Delta) {
	for lockID, unlocked := range d.Locks {
		w.ws.Locks[lockID] = unlocked
	}
}
