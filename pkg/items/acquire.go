package items

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/cond"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// Acquisition methods granted automatically by the scanner.
const (
	MethodAuto   = "auto"
	MethodUnlock = "unlock"
	MethodReward = "reward"
	MethodManual = "manual"
)

// AcquisitionResult is the outcome of a player-initiated acquire or
// one scanner grant.
type AcquisitionResult struct {
	Success bool
	ItemID  string
	Message string
	Delta   *state.Delta
}

// AcquireResolver handles explicit "take the X" requests.
type AcquireResolver struct {
	logger *slog.Logger
}

func NewAcquireResolver(logger *slog.Logger) *AcquireResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &AcquireResolver{logger: logger}
}

// Resolve checks the item's acquire condition and optional location
// gate and returns an inventory-add delta on success.
func (r *AcquireResolver) Resolve(itemID string, ws *state.WorldState, assets *scenario.Assets) AcquisitionResult {
	item := assets.ItemByID(itemID)
	if item == nil {
		return AcquisitionResult{ItemID: itemID, Message: "There is no such thing here.", Delta: state.NewDelta()}
	}
	if ws.HasItem(itemID) {
		return AcquisitionResult{ItemID: itemID, Message: "You already have it.", Delta: state.NewDelta()}
	}

	fail := item.Acquire.FailureMessage
	if fail == "" {
		fail = "You cannot take that."
	}

	if loc := item.Acquire.Location; loc != "" {
		here, _ := ws.Vars["location"].AsString()
		if here != loc {
			return AcquisitionResult{ItemID: itemID, Message: fail, Delta: state.NewDelta()}
		}
	}

	ctx := &cond.Context{World: ws, TurnLimit: assets.TurnLimit}
	if !cond.Evaluate(item.Acquire.Condition, ctx, r.logger) {
		return AcquisitionResult{ItemID: itemID, Message: fail, Delta: state.NewDelta()}
	}

	d := state.NewDelta()
	d.InventoryAdd = append(d.InventoryAdd, itemID)
	msg := item.Acquire.SuccessMessage
	if msg == "" {
		msg = "Taken."
	}
	return AcquisitionResult{Success: true, ItemID: itemID, Message: msg, Delta: d}
}

// ScanResult lists the items the scanner granted this pass.
type ScanResult struct {
	NewlyAcquired []string
	Delta         *state.Delta
}

// Scanner auto-grants items whose acquire condition became true. The
// granted set is a ratchet: once an item is auto-granted it is never
// granted again, even if its condition later flips false and back.
type Scanner struct {
	granted map[string]bool
	logger  *slog.Logger
}

func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{granted: make(map[string]bool), logger: logger}
}

// Scan runs after every action.
func (s *Scanner) Scan(ws *state.WorldState, assets *scenario.Assets) ScanResult {
	result := ScanResult{Delta: state.NewDelta()}
	ctx := &cond.Context{World: ws, TurnLimit: assets.TurnLimit}

	for i := range assets.Items {
		item := &assets.Items[i]
		switch item.Acquire.Method {
		case MethodAuto, MethodUnlock, MethodReward:
		default:
			continue
		}
		if s.granted[item.ID] || ws.HasItem(item.ID) {
			continue
		}
		// An unconditional scanner item would be granted on the first
		// scan; that is never authorial intent.
		if strings.TrimSpace(item.Acquire.Condition) == "" {
			s.logger.Warn("scanner item has no acquire condition", "item", item.ID)
			continue
		}
		if !cond.Evaluate(item.Acquire.Condition, ctx, s.logger) {
			continue
		}
		s.granted[item.ID] = true
		result.NewlyAcquired = append(result.NewlyAcquired, item.ID)
		result.Delta.InventoryAdd = append(result.Delta.InventoryAdd, item.ID)
		s.logger.Info("item auto-acquired", "item", item.ID, "turn", ws.Turn)
	}
	return result
}

// Granted exposes the ratchet set for persistence.
func (s *Scanner) Granted() []string {
	out := make([]string, 0, len(s.granted))
	for id := range s.granted {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RestoreGranted reloads the ratchet set from a persisted snapshot.
func (s *Scanner) RestoreGranted(ids []string) {
	s.granted = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.granted[id] = true
	}
}
