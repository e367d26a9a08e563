package state

// Delta is a small, mergeable, declarative description of a change to
// world state. Every mutation source (tools, the rule engine, ending
// triggers, night cognition) produces one of these and nothing mutates
// WorldState any other way.
type Delta struct {
	// NPCStats holds per-NPC stat increments, summed on merge.
	NPCStats map[string]map[string]int `json:"npc_stats,omitempty"`

	// NPCStatus holds status overwrites, last writer wins.
	NPCStatus map[string]NPCStatus `json:"npc_status,omitempty"`

	// Flags are overwrites, last writer wins.
	Flags map[string]Value `json:"flags,omitempty"`

	// Vars merge additively when both sides are numeric, otherwise the
	// later value overwrites.
	Vars map[string]Value `json:"vars,omitempty"`

	InventoryAdd    []string        `json:"inventory_add,omitempty"`
	InventoryRemove []string        `json:"inventory_remove,omitempty"`
	Locks           map[string]bool `json:"locks,omitempty"`

	// TurnIncrement is summed on merge.
	TurnIncrement int `json:"turn_increment,omitempty"`

	// NextScene is last-writer-wins; empty means no scene change.
	NextScene string `json:"next_scene,omitempty"`
}

func NewDelta() *Delta {
	return &Delta{}
}

func (d *Delta) IsEmpty() bool {
	if d == nil {
		return true
	}
	return len(d.NPCStats) == 0 && len(d.NPCStatus) == 0 &&
		len(d.Flags) == 0 && len(d.Vars) == 0 &&
		len(d.InventoryAdd) == 0 && len(d.InventoryRemove) == 0 &&
		len(d.Locks) == 0 && d.TurnIncrement == 0 && d.NextScene == ""
}

// AddNPCStat accumulates a stat increment on the delta.
func (d *Delta) AddNPCStat(npcID, stat string, amount int) {
	if d.NPCStats == nil {
		d.NPCStats = make(map[string]map[string]int)
	}
	if d.NPCStats[npcID] == nil {
		d.NPCStats[npcID] = make(map[string]int)
	}
	d.NPCStats[npcID][stat] += amount
}

// AddVar accumulates a numeric var increment, or overwrites when the
// existing entry is non-numeric.
func (d *Delta) AddVar(name string, amount float64) {
	if d.Vars == nil {
		d.Vars = make(map[string]Value)
	}
	if cur, ok := d.Vars[name]; ok {
		if n, numeric := cur.AsNumber(); numeric {
			d.Vars[name] = Number(n + amount)
			return
		}
	}
	d.Vars[name] = Number(amount)
}

func (d *Delta) SetFlag(name string, v Value) {
	if d.Flags == nil {
		d.Flags = make(map[string]Value)
	}
	d.Flags[name] = v
}

func (d *Delta) SetVar(name string, v Value) {
	if d.Vars == nil {
		d.Vars = make(map[string]Value)
	}
	d.Vars[name] = v
}

func (d *Delta) SetNPCStatus(npcID string, status NPCStatus) {
	if d.NPCStatus == nil {
		d.NPCStatus = make(map[string]NPCStatus)
	}
	d.NPCStatus[npcID] = status
}

func (d *Delta) SetLock(lockID string, unlocked bool) {
	if d.Locks == nil {
		d.Locks = make(map[string]bool)
	}
	d.Locks[lockID] = unlocked
}

// Merge folds deltas left to right into a new delta. Numeric fields
// (stat deltas, numeric vars, turn increment) sum, so merging is
// associative for them. Overwrite fields (status, flags, locks, next
// scene, non-numeric vars) are last-writer-wins: merge order matters
// for those by design.
func Merge(deltas ...*Delta) *Delta {
	out := NewDelta()
	for _, d := range deltas {
		if d == nil {
			continue
		}
		for npcID, stats := range d.NPCStats {
			for stat, amount := range stats {
				out.AddNPCStat(npcID, stat, amount)
			}
		}
		for npcID, status := range d.NPCStatus {
			out.SetNPCStatus(npcID, status)
		}
		for name, v := range d.Flags {
			out.SetFlag(name, v)
		}
		for name, v := range d.Vars {
			if n, numeric := v.AsNumber(); numeric && v.Kind() == KindNumber {
				out.AddVar(name, n)
			} else {
				out.SetVar(name, v)
			}
		}
		out.InventoryAdd = append(out.InventoryAdd, d.InventoryAdd...)
		out.InventoryRemove = append(out.InventoryRemove, d.InventoryRemove...)
		for lockID, unlocked := range d.Locks {
			out.SetLock(lockID, unlocked)
		}
		out.TurnIncrement += d.TurnIncrement
		if d.NextScene != "" {
			out.NextScene = d.NextScene
		}
	}
	return out
}
