package agents

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

var (
	highSignalWords = []string{"death", "dead", "murder", "secret", "betray", "blood", "ritual", "buried", "vanish"}
	midSignalWords  = []string{"suspect", "afraid", "plan", "hide", "lie", "key", "lock", "whisper", "threat"}
)

// ScoreImportance rates a memory description on the 1-10 scale. When
// the generator is usable its rating is parsed from the reply;
// otherwise a keyword heuristic stands in.
func ScoreImportance(ctx context.Context, gen TextGenerator, text string) float64 {
	if gen != nil && gen.Available(ctx) {
		prompt := "On a scale of 1 to 10, rate how important this memory is to the character who holds it. " +
			"Reply with a single number.\n\nMemory: " + text
		reply := generate(ctx, gen, prompt, GenerateOptions{MaxTokens: 8, Temperature: 0})
		if m := numberRe.FindString(reply); m != "" {
			if n, err := strconv.ParseFloat(m, 64); err == nil && n >= 1 && n <= 10 {
				return n
			}
		}
	}
	return heuristicImportance(text)
}

func heuristicImportance(text string) float64 {
	lower := strings.ToLower(text)
	for _, w := range highSignalWords {
		if strings.Contains(lower, w) {
			return 8
		}
	}
	for _, w := range midSignalWords {
		if strings.Contains(lower, w) {
			return 6
		}
	}
	return 4
}
