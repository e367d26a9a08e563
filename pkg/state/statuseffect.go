package state

// StatusEffect is a time-bounded override of an NPC's status field.
// The ticker emits its restoring delta exactly once, at expiry.
type StatusEffect struct {
	TargetNPC  string    `json:"target_npc"`
	Applied    NPCStatus `json:"applied"`
	Original   NPCStatus `json:"original"`
	ExpiresAt  int       `json:"expires_at"`
	SourceItem string    `json:"source_item,omitempty"`
	Priority   int       `json:"priority"`
}
