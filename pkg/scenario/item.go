package scenario

// Item types that are consumed on use.
const (
	ItemTypeConsumable = "consumable"
	ItemTypeTool       = "tool"
	ItemTypeGift       = "gift"
	ItemTypeKey        = "key"
	ItemTypeEvidence   = "evidence"
)

// Item is an inventory item definition.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Acquire     Acquire `json:"acquire,omitempty"`
	Use         Use     `json:"use,omitempty"`
}

// Consumed reports whether using this item removes it from inventory.
func (it *Item) Consumed() bool {
	switch it.Type {
	case ItemTypeConsumable, ItemTypeTool, ItemTypeGift:
		return true
	default:
		return false
	}
}

// Acquire describes how the item enters the inventory. Method "auto",
// "unlock" and "reward" items are granted by the scanner when their
// condition becomes true; "manual" items resolve on player request.
type Acquire struct {
	Method         string `json:"method,omitempty"`
	Location       string `json:"location,omitempty"`
	Condition      string `json:"condition,omitempty"`
	SuccessMessage string `json:"success_message,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

// Use holds the item's action list.
type Use struct {
	Actions []Action `json:"actions,omitempty"`
}

// Action is one way to use an item. Multi-action items resolve to the
// first action whose allowed_when condition holds.
type Action struct {
	ID             string       `json:"id"`
	AllowedWhen    string       `json:"allowed_when,omitempty"`
	Effects        []EffectSpec `json:"effects,omitempty"`
	SuccessMessage string       `json:"success_message,omitempty"`
	FailureMessage string       `json:"failure_message,omitempty"`
}
