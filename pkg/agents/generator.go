// Package agents implements the NPC cognitive steps: phase resolution,
// reflection, planning, dialogue, and impact analysis.
package agents

import "context"

// GenerateOptions tune one text-generation call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// TextGenerator is the opaque text-generation capability. It must
// tolerate being unavailable: failures return an empty string and an
// error, never panic, and callers substitute deterministic fallbacks.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Available(ctx context.Context) bool
}

// generate is the fail-soft wrapper every cognitive step uses: any
// error or unavailable generator yields "".
func generate(ctx context.Context, gen TextGenerator, prompt string, opts GenerateOptions) string {
	if gen == nil {
		return ""
	}
	text, err := gen.Generate(ctx, prompt, opts)
	if err != nil {
		return ""
	}
	return text
}
