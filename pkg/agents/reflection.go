package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/memory"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

const (
	ReflectionWindow        = 5
	ReflectionMinImportance = 5.0
	ReflectionMaxCandidates = 10
	ReflectionMaxQuestions  = 3
	ReflectionInsightFloor  = 7.0
)

// Reflector runs the phase-transition-triggered reflection step.
type Reflector struct {
	gen    TextGenerator
	store  *memory.Store
	logger *slog.Logger
}

func NewReflector(gen TextGenerator, store *memory.Store, logger *slog.Logger) *Reflector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reflector{gen: gen, store: store, logger: logger}
}

// MaybeReflect fires at most once per distinct phase id: the phase
// guard on the memory container makes repeated trigger checks
// idempotent. Returns the stored insights, or nil when reflection did
// not fire.
func (r *Reflector) MaybeReflect(ctx context.Context, npc *state.NPCState, def *scenario.NPC, currentTurn int) []string {
	phase := ResolvePhase(def.Phases, npc.Stats, npc.Memory.LastReflectedPhase, r.logger)
	if phase.ID == "" || phase.ID == npc.Memory.LastReflectedPhase {
		return nil
	}

	candidates := r.gatherCandidates(npc, currentTurn)
	insights := r.generateInsights(ctx, npc, def, phase, candidates)

	for _, insight := range insights {
		importance := ScoreImportance(ctx, r.gen, insight)
		if importance < ReflectionInsightFloor {
			importance = ReflectionInsightFloor
		}
		r.store.Append(npc.Memory, memory.NewEntry(npc.ID, insight, importance, currentTurn, state.MemoryReflection))
	}
	r.store.MarkReflected(npc.Memory, phase.ID)
	r.logger.Info("reflection fired", "npc", npc.ID, "phase", phase.ID, "insights", len(insights))
	return insights
}

// gatherCandidates pulls recent important memories: inside the
// lookback window, importance at or above the floor, highest first,
// capped.
func (r *Reflector) gatherCandidates(npc *state.NPCState, currentTurn int) []state.MemoryEntry {
	var out []state.MemoryEntry
	for _, e := range r.store.Stream(npc.Memory) {
		if e.CreationTurn < currentTurn-ReflectionWindow {
			continue
		}
		if e.Importance < ReflectionMinImportance {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	if len(out) > ReflectionMaxCandidates {
		out = out[:ReflectionMaxCandidates]
	}
	return out
}

func (r *Reflector) generateInsights(ctx context.Context, npc *state.NPCState, def *scenario.NPC, phase scenario.Phase, candidates []state.MemoryEntry) []string {
	if r.gen == nil || !r.gen.Available(ctx) || len(candidates) == 0 {
		return []string{cannedInsight(def, phase)}
	}

	var sb strings.Builder
	for _, e := range candidates {
		fmt.Fprintf(&sb, "- %s\n", e.Description)
	}
	questionPrompt := fmt.Sprintf(
		"You are %s. %s\nGiven only these recent memories, write up to %d short questions you keep returning to, one per line:\n%s",
		def.Name, def.Persona.Summary, ReflectionMaxQuestions, sb.String())

	reply := generate(ctx, r.gen, questionPrompt, GenerateOptions{MaxTokens: 200, Temperature: 0.7})
	questions := splitLines(reply, ReflectionMaxQuestions)
	if len(questions) == 0 {
		return []string{cannedInsight(def, phase)}
	}

	var insights []string
	for _, q := range questions {
		insightPrompt := fmt.Sprintf(
			"You are %s. %s\nMemories:\n%sAnswer this question about yourself in one sentence, as a private realization: %s",
			def.Name, def.Persona.Summary, sb.String(), q)
		insight := strings.TrimSpace(generate(ctx, r.gen, insightPrompt, GenerateOptions{MaxTokens: 120, Temperature: 0.7}))
		if insight == "" {
			continue
		}
		insights = append(insights, insight)
	}
	if len(insights) == 0 {
		return []string{cannedInsight(def, phase)}
	}
	return insights
}

// cannedInsight is the generator-unavailable fallback, colored by the
// phase the NPC just entered.
func cannedInsight(def *scenario.NPC, phase scenario.Phase) string {
	if guide := strings.TrimSpace(phase.BehaviorGuide); guide != "" {
		return fmt.Sprintf("%s feels something shifting. %s", def.Name, guide)
	}
	return fmt.Sprintf("%s feels something shifting and resolves to watch more carefully.", def.Name)
}

// splitLines extracts up to max non-empty lines, stripping list
// markers.
func splitLines(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}
