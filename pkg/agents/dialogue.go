package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/nightloop/pkg/memory"
	"github.com/jwebster45206/nightloop/pkg/postprocess"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

const (
	// PairUtterances is the length of a pairwise exchange: two full
	// back-and-forths.
	PairUtterances = 4

	// GroupUtterances is the length of a group round.
	GroupUtterances = 6

	// DialogueMemoryMaxRunes caps the summarized conversation memory.
	DialogueMemoryMaxRunes = 200

	// dialogueHistoryLines is how much running conversation goes into
	// each utterance prompt.
	dialogueHistoryLines = 4

	// HumanityStat drives the corruption level fed to the
	// postprocessor; NPCs without it speak uncorrupted.
	HumanityStat = "humanity"
)

var titleCaser = cases.Title(language.English)

// Utterance is one spoken line.
type Utterance struct {
	Speaker string
	Name    string
	Text    string
}

// Participant pairs an NPC's live state with its definition.
type Participant struct {
	State *state.NPCState
	Def   *scenario.NPC
}

// DialogueEngine generates NPC conversation one utterance at a time.
type DialogueEngine struct {
	gen       TextGenerator
	store     *memory.Store
	retriever *memory.Retriever
	post      postprocess.Postprocessor
	rng       *rand.Rand
	logger    *slog.Logger
}

func NewDialogueEngine(gen TextGenerator, store *memory.Store, retriever *memory.Retriever, post postprocess.Postprocessor, rng *rand.Rand, logger *slog.Logger) *DialogueEngine {
	if post == nil {
		post = postprocess.Passthrough{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DialogueEngine{gen: gen, store: store, retriever: retriever, post: post, rng: rng, logger: logger}
}

// Utterance produces one line for the speaker, postprocessed through
// the corruption filter boundary. On generation failure the speaker
// falls back to a short in-character line.
func (d *DialogueEngine) Utterance(ctx context.Context, speaker Participant, listenerName string, conversation []Utterance, turn int) string {
	query := "a conversation with " + listenerName
	recalled := d.retriever.Retrieve(speaker.State.Memory, query, turn, memory.DefaultTopK)

	var mem strings.Builder
	for _, e := range recalled {
		fmt.Fprintf(&mem, "- %s\n", e.Description)
	}
	history := formatHistory(conversation, dialogueHistoryLines)

	prompt := fmt.Sprintf(
		"You are %s. %s\nYour state: %s\nYour plan: %s\nYou remember:\n%sThe conversation so far:\n%s\nSay your next line to %s. One or two sentences, speech only.",
		speaker.Def.Name, speaker.Def.Persona.Summary, formatStats(speaker.State.Stats),
		speaker.State.Memory.CurrentPlan, mem.String(), history, listenerName)

	text := strings.TrimSpace(generate(ctx, d.gen, prompt, GenerateOptions{MaxTokens: 120, Temperature: 0.8}))
	text = strings.Trim(text, `"`)
	if text == "" {
		text = fallbackLine(speaker.Def)
	}

	level := 1
	if humanity, ok := speaker.State.Stats[HumanityStat]; ok {
		level = postprocess.CorruptionLevel(humanity)
	}
	return d.post.Postprocess(text, speaker.State.ID, level)
}

// PairExchange alternates two speakers for a fixed number of lines.
func (d *DialogueEngine) PairExchange(ctx context.Context, a, b Participant, turn int) []Utterance {
	pair := [2]Participant{a, b}
	conv := make([]Utterance, 0, PairUtterances)
	for i := 0; i < PairUtterances; i++ {
		speaker := pair[i%2]
		listener := pair[(i+1)%2]
		text := d.Utterance(ctx, speaker, listener.Def.Name, conv, turn)
		conv = append(conv, Utterance{Speaker: speaker.State.ID, Name: speaker.Def.Name, Text: text})
	}
	return conv
}

// GroupRound picks a random speaker for each line, never the same
// speaker twice in a row.
func (d *DialogueEngine) GroupRound(ctx context.Context, participants []Participant, turn int) []Utterance {
	if len(participants) < 2 {
		return nil
	}
	conv := make([]Utterance, 0, GroupUtterances)
	last := -1
	for i := 0; i < GroupUtterances; i++ {
		idx := d.rng.Intn(len(participants))
		if idx == last {
			idx = (idx + 1) % len(participants)
		}
		last = idx
		speaker := participants[idx]
		text := d.Utterance(ctx, speaker, "the others", conv, turn)
		conv = append(conv, Utterance{Speaker: speaker.State.ID, Name: speaker.Def.Name, Text: text})
	}
	return conv
}

// StoreConversation writes a summarized dialogue memory into each
// participant's stream.
func (d *DialogueEngine) StoreConversation(ctx context.Context, conv []Utterance, participants []Participant, turn int) {
	if len(conv) == 0 {
		return
	}
	for _, p := range participants {
		others := make([]string, 0, len(participants)-1)
		for _, o := range participants {
			if o.State.ID != p.State.ID {
				others = append(others, o.Def.Name)
			}
		}
		summary := summarizeConversation(conv, others)
		importance := ScoreImportance(ctx, d.gen, summary)
		d.store.Append(p.State.Memory, memory.NewEntry(p.State.ID, summary, importance, turn, state.MemoryDialogue))
	}
}

// FormatTranscript renders the conversation for display, one line per
// utterance with the speaker name title-cased.
func FormatTranscript(conv []Utterance) []string {
	out := make([]string, len(conv))
	for i, u := range conv {
		out[i] = fmt.Sprintf("%s: %s", titleCaser.String(u.Name), u.Text)
	}
	return out
}

func summarizeConversation(conv []Utterance, others []string) string {
	var quoted string
	for _, u := range conv {
		if u.Text != "" {
			quoted = u.Text
			break
		}
	}
	summary := fmt.Sprintf("talked with %s; they said: %s", strings.Join(others, " and "), quoted)
	runes := []rune(summary)
	if len(runes) > DialogueMemoryMaxRunes {
		summary = string(runes[:DialogueMemoryMaxRunes])
	}
	return summary
}

func formatHistory(conv []Utterance, max int) string {
	if len(conv) == 0 {
		return "(the conversation is just beginning)"
	}
	start := 0
	if len(conv) > max {
		start = len(conv) - max
	}
	var sb strings.Builder
	for _, u := range conv[start:] {
		fmt.Fprintf(&sb, "%s: %s\n", u.Name, u.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func fallbackLine(def *scenario.NPC) string {
	return "I don't have the words tonight."
}
