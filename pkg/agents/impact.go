package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/state"
)

// ImpactClamp bounds each per-NPC stat delta from impact analysis.
const ImpactClamp = 2

// ImpactAnalyzer asks the generator to estimate how a conversation
// moved each participant's stats, and parses the constrained reply
// into a delta.
type ImpactAnalyzer struct {
	gen    TextGenerator
	logger *slog.Logger
}

func NewImpactAnalyzer(gen TextGenerator, logger *slog.Logger) *ImpactAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImpactAnalyzer{gen: gen, logger: logger}
}

// Analyze returns the conversation's stat delta. Any generation or
// parse failure yields an empty delta, never an error into the night
// pipeline.
func (a *ImpactAnalyzer) Analyze(ctx context.Context, conv []Utterance, participants []Participant) *state.Delta {
	if len(conv) == 0 || a.gen == nil || !a.gen.Available(ctx) {
		return state.NewDelta()
	}

	var roster strings.Builder
	for _, p := range participants {
		fmt.Fprintf(&roster, "- %s (id %s), stats: %s\n", p.Def.Name, p.State.ID, formatStats(p.State.Stats))
	}
	transcript := strings.Join(FormatTranscript(conv), "\n")
	prompt := fmt.Sprintf(
		"Characters:\n%s\nConversation:\n%s\nEstimate how the conversation shifted each character's stats. "+
			"Reply with only a JSON object of the form {\"npc_id\": {\"stat\": delta}} using integer deltas between -%d and %d.",
		roster.String(), transcript, ImpactClamp, ImpactClamp)

	reply := generate(ctx, a.gen, prompt, GenerateOptions{MaxTokens: 300, Temperature: 0.2})
	parsed, err := ParseImpact(reply)
	if err != nil {
		a.logger.Warn("impact analysis reply unusable", "error", err)
		return state.NewDelta()
	}

	known := make(map[string]bool, len(participants))
	for _, p := range participants {
		known[p.State.ID] = true
	}

	d := state.NewDelta()
	for npcID, stats := range parsed {
		if !known[npcID] {
			a.logger.Warn("impact analysis named unknown NPC", "npc", npcID)
			continue
		}
		for stat, amount := range stats {
			n := int(amount)
			if n > ImpactClamp {
				n = ImpactClamp
			}
			if n < -ImpactClamp {
				n = -ImpactClamp
			}
			if n != 0 {
				d.AddNPCStat(npcID, stat, n)
			}
		}
	}
	return d
}

// ParseImpact extracts the stat-delta object from a generator reply:
// a fenced json block when present, otherwise the first bare JSON
// object.
func ParseImpact(reply string) (map[string]map[string]float64, error) {
	raw := extractJSON(reply)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	var parsed map[string]map[string]float64
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("malformed impact JSON: %w", err)
	}
	return parsed, nil
}

func extractJSON(reply string) string {
	if i := strings.Index(reply, "```json"); i >= 0 {
		rest := reply[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start >= 0 && end > start {
		return reply[start : end+1]
	}
	return ""
}
