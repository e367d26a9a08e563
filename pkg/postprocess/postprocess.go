// Package postprocess defines the stylistic postprocessor boundary.
// The corruption filters themselves live outside the engine; the core
// only derives the corruption level and hands text across this
// interface.
package postprocess

// Postprocessor transforms dialogue text after generation. It must be
// a pure text transform.
type Postprocessor interface {
	Postprocess(text, npcID string, corruptionLevel int) string
}

// Passthrough applies no transformation.
type Passthrough struct{}

func (Passthrough) Postprocess(text, _ string, _ int) string { return text }

// CorruptionLevel derives the voice-corruption tier from a
// humanity-like stat: 1 is untouched, 3 is far gone.
func CorruptionLevel(humanity int) int {
	switch {
	case humanity >= 70:
		return 1
	case humanity >= 40:
		return 2
	default:
		return 3
	}
}
