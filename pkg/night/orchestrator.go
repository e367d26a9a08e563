// Package night runs the autonomous NPC simulation between days:
// reflection, planning, dialogue and impact analysis, in that strict
// order, producing one night-level delta.
package night

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/agents"
	"github.com/jwebster45206/nightloop/pkg/memory"
	"github.com/jwebster45206/nightloop/pkg/postprocess"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// Result is the outcome of one night phase.
type Result struct {
	Delta        *state.Delta
	Conversation []agents.Utterance
	Transcript   []string
	Narrative    string
}

// Orchestrator owns one instance of each cognitive component. The
// random source is explicit so night outcomes reproduce under a fixed
// seed.
type Orchestrator struct {
	gen       TextGenerator
	store     *memory.Store
	reflector *agents.Reflector
	planner   *agents.Planner
	dialogue  *agents.DialogueEngine
	impact    *agents.ImpactAnalyzer
	logger    *slog.Logger
}

// TextGenerator aliases the capability interface for constructors.
type TextGenerator = agents.TextGenerator

func NewOrchestrator(gen TextGenerator, post postprocess.Postprocessor, rng *rand.Rand, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	store := memory.NewStore(logger)
	retriever := memory.NewRetriever(store, nil)
	return &Orchestrator{
		gen:       gen,
		store:     store,
		reflector: agents.NewReflector(gen, store, logger),
		planner:   agents.NewPlanner(gen, store, logger),
		dialogue:  agents.NewDialogueEngine(gen, store, retriever, post, rng, logger),
		impact:    agents.NewImpactAnalyzer(gen, logger),
		logger:    logger,
	}
}

// Run executes one night. The world state is only read; mutations come
// back in the result delta, which the caller merges and applies like
// any day-turn delta.
func (o *Orchestrator) Run(ctx context.Context, ws *state.WorldState, assets *scenario.Assets, actionLog []string) *Result {
	participants := o.gatherParticipants(ws, assets)

	o.seedObservations(ctx, participants, actionLog, ws.Turn)

	for _, p := range participants {
		o.reflector.MaybeReflect(ctx, p.State, p.Def, ws.Turn)
	}

	for _, p := range participants {
		o.planner.EnsureLongTermPlan(ctx, p.State, p.Def)
		phase := agents.ResolvePhase(p.Def.Phases, p.State.Stats, p.State.Memory.LastReflectedPhase, o.logger)
		o.planner.PlanNight(ctx, p.State, p.Def, phase, actionLog, ws.Turn)
	}

	conv := o.converse(ctx, participants, ws.Turn)
	if len(conv) > 0 {
		o.dialogue.StoreConversation(ctx, conv, participants, ws.Turn)
	}

	delta := o.impact.Analyze(ctx, conv, participants)
	delta.TurnIncrement = 1

	transcript := agents.FormatTranscript(conv)
	return &Result{
		Delta:        delta,
		Conversation: conv,
		Transcript:   transcript,
		Narrative:    o.narrate(ctx, transcript),
	}
}

// gatherParticipants selects the NPCs that take part tonight: those
// present and awake. A drugged or missing NPC sits the night out.
func (o *Orchestrator) gatherParticipants(ws *state.WorldState, assets *scenario.Assets) []agents.Participant {
	var out []agents.Participant
	for _, id := range ws.NPCIDs() {
		npc := ws.NPCs[id]
		if npc.Status != state.StatusAlive {
			continue
		}
		def := assets.NPCByID(id)
		if def == nil {
			o.logger.Warn("NPC in world state has no definition", "npc", id)
			continue
		}
		out = append(out, agents.Participant{State: npc, Def: def})
	}
	return out
}

// seedObservations writes the day's events into each participant's
// stream so reflection and retrieval can see them.
func (o *Orchestrator) seedObservations(ctx context.Context, participants []agents.Participant, actionLog []string, turn int) {
	for _, line := range actionLog {
		importance := agents.ScoreImportance(ctx, nil, line)
		for _, p := range participants {
			o.store.Append(p.State.Memory, memory.NewEntry(p.State.ID, line, importance, turn, state.MemoryObservation))
		}
	}
}

func (o *Orchestrator) converse(ctx context.Context, participants []agents.Participant, turn int) []agents.Utterance {
	switch {
	case len(participants) >= 3:
		return o.dialogue.GroupRound(ctx, participants, turn)
	case len(participants) == 2:
		return o.dialogue.PairExchange(ctx, participants[0], participants[1], turn)
	default:
		return nil
	}
}

// narrate produces the night's framing text, fail-soft.
func (o *Orchestrator) narrate(ctx context.Context, transcript []string) string {
	fallback := "The house settles. Low voices carry through the walls until the small hours."
	if len(transcript) == 0 {
		return "The house is silent tonight."
	}
	if o.gen == nil || !o.gen.Available(ctx) {
		return fallback
	}
	prompt := fmt.Sprintf(
		"Summarize this overheard night-time conversation in two atmospheric sentences, third person:\n%s",
		strings.Join(transcript, "\n"))
	text, err := o.gen.Generate(ctx, prompt, agents.GenerateOptions{MaxTokens: 120, Temperature: 0.8})
	if err != nil || strings.TrimSpace(text) == "" {
		return fallback
	}
	return strings.TrimSpace(text)
}
