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

// Planner generates the one-time long-term plan and the nightly
// short-term plan.
type Planner struct {
	gen    TextGenerator
	store  *memory.Store
	logger *slog.Logger
}

func NewPlanner(gen TextGenerator, store *memory.Store, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{gen: gen, store: store, logger: logger}
}

// EnsureLongTermPlan generates the long-term plan from the NPC's goal
// and initial phase the first time it is called; later calls return
// the stored plan unchanged.
func (p *Planner) EnsureLongTermPlan(ctx context.Context, npc *state.NPCState, def *scenario.NPC) string {
	if npc.Memory.LongTermPlan != "" {
		return npc.Memory.LongTermPlan
	}

	plan := ""
	if p.gen != nil && p.gen.Available(ctx) {
		initialPhase := ""
		if len(def.Phases) > 0 {
			initialPhase = def.Phases[0].BehaviorGuide
		}
		prompt := fmt.Sprintf(
			"You are %s. %s\nYour private goal: %s\nHow you carry yourself right now: %s\nWrite your long-term intention in two sentences, first person.",
			def.Name, def.Persona.Summary, def.Goal, initialPhase)
		plan = strings.TrimSpace(generate(ctx, p.gen, prompt, GenerateOptions{MaxTokens: 150, Temperature: 0.7}))
	}
	if plan == "" {
		plan = def.Goal
	}
	if plan == "" {
		plan = fmt.Sprintf("%s intends to keep things as they are.", def.Name)
	}
	p.store.SetLongTermPlan(npc.Memory, plan)
	return plan
}

// PlanNight produces the short-term plan for the coming day from the
// NPC's current stats, long-term plan, phase behavior guide, and the
// day's agenda digest. The plan is stored as a plan-type memory.
func (p *Planner) PlanNight(ctx context.Context, npc *state.NPCState, def *scenario.NPC, phase scenario.Phase, actionLog []string, currentTurn int) string {
	agenda := FormatAgenda(actionLog, def.Persona.Triggers)

	plan := ""
	if p.gen != nil && p.gen.Available(ctx) {
		prompt := fmt.Sprintf(
			"You are %s. %s\nYour long-term intention: %s\nHow you carry yourself right now: %s\nYour current state: %s\nToday:\n%s\nWrite what you will do tomorrow, two sentences, first person.",
			def.Name, def.Persona.Summary, npc.Memory.LongTermPlan, phase.BehaviorGuide,
			formatStats(npc.Stats), agenda)
		plan = strings.TrimSpace(generate(ctx, p.gen, prompt, GenerateOptions{MaxTokens: 150, Temperature: 0.7}))
	}
	if plan == "" {
		plan = fmt.Sprintf("%s will keep to the routine and watch for an opening.", def.Name)
	}

	p.store.SetCurrentPlan(npc.Memory, plan, currentTurn)
	p.store.Append(npc.Memory, memory.NewEntry(npc.ID, plan, ReflectionMinImportance, currentTurn, state.MemoryPlan))
	return plan
}

// FormatAgenda turns the day's action log into a bulleted digest.
// Lines touching one of the NPC's trigger keywords carry a severity
// prefix: [!] for alarming, [+] for welcome.
func FormatAgenda(actionLog []string, triggers scenario.Triggers) string {
	if len(actionLog) == 0 {
		return "- an uneventful day"
	}
	var sb strings.Builder
	for _, line := range actionLog {
		lower := strings.ToLower(line)
		tag := ""
		if matchesAny(lower, triggers.Minus) {
			tag = "[!] "
		} else if matchesAny(lower, triggers.Plus) {
			tag = "[+] "
		}
		fmt.Fprintf(&sb, "- %s%s\n", tag, line)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func formatStats(stats map[string]int) string {
	if len(stats) == 0 {
		return "steady"
	}
	parts := make([]string, 0, len(stats))
	for _, k := range sortedKeys(stats) {
		parts = append(parts, fmt.Sprintf("%s %d", k, stats[k]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
