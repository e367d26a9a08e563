package memory

import (
	"math"
	"sort"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/state"
)

// Retrieval scoring weights and decay constant.
const (
	AlphaRecency   = 1.0
	BetaImportance = 1.0
	GammaRelevance = 1.0
	RecencyDecay   = 0.95
	DefaultTopK    = 5
)

// RelevanceScorer rates how well a memory matches a query in [0,1].
// The default is keyword overlap; a semantic scorer is a drop-in
// replacement.
type RelevanceScorer interface {
	Score(description, query string) float64
}

// KeywordRelevance scores by token-overlap ratio against the query.
type KeywordRelevance struct{}

func (KeywordRelevance) Score(description, query string) float64 {
	qTokens := tokenize(query)
	if len(qTokens) == 0 {
		return 0.5
	}
	dTokens := make(map[string]bool)
	for _, t := range tokenize(description) {
		dTokens[t] = true
	}
	hits := 0
	for _, t := range qTokens {
		if dTokens[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(qTokens))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// Retriever ranks memories by combined recency, importance and
// relevance.
type Retriever struct {
	store     *Store
	relevance RelevanceScorer
}

func NewRetriever(store *Store, relevance RelevanceScorer) *Retriever {
	if relevance == nil {
		relevance = KeywordRelevance{}
	}
	return &Retriever{store: store, relevance: relevance}
}

// Retrieve returns up to k entries ordered by non-increasing score,
// ties broken by original stream order. The long-term plan and the
// most recent reflection are pinned ahead of the ranked entries when
// present. Returned entries have their last-access turn refreshed.
func (r *Retriever) Retrieve(mc *state.MemoryContainer, query string, currentTurn, k int) []state.MemoryEntry {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(mc.Stream) == 0 && mc.LongTermPlan == "" {
		return nil
	}

	var out []state.MemoryEntry
	pinned := make(map[string]bool)

	if mc.LongTermPlan != "" {
		out = append(out, state.MemoryEntry{
			NPCID:       firstNPCID(mc),
			Description: mc.LongTermPlan,
			Type:        state.MemoryPlan,
			Importance:  10,
		})
	}
	if ref := latestReflection(mc); ref != nil {
		out = append(out, *ref)
		pinned[ref.ID] = true
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(mc.Stream))
	for i := range mc.Stream {
		e := &mc.Stream[i]
		if pinned[e.ID] {
			continue
		}
		recency := math.Pow(RecencyDecay, math.Max(0, float64(currentTurn-e.LastAccessTurn)))
		importance := e.Importance / 10
		relevance := r.relevance.Score(e.Description, query)
		ranked = append(ranked, scored{
			idx:   i,
			score: AlphaRecency*recency + BetaImportance*importance + GammaRelevance*relevance,
		})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	for _, sc := range ranked {
		if len(out) >= k {
			break
		}
		out = append(out, mc.Stream[sc.idx])
	}
	if len(out) > k {
		out = out[:k]
	}

	ids := make([]string, 0, len(out))
	for _, e := range out {
		if e.ID != "" {
			ids = append(ids, e.ID)
		}
	}
	r.store.RefreshAccess(mc, ids, currentTurn)
	return out
}

func latestReflection(mc *state.MemoryContainer) *state.MemoryEntry {
	for i := len(mc.Stream) - 1; i >= 0; i-- {
		if mc.Stream[i].Type == state.MemoryReflection {
			e := mc.Stream[i]
			return &e
		}
	}
	return nil
}

func firstNPCID(mc *state.MemoryContainer) string {
	if len(mc.Stream) > 0 {
		return mc.Stream[0].NPCID
	}
	return ""
}
