// Package rules compiles declarative scenario effects into state
// deltas: the item-effect compiler and the intent rule engine.
package rules

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// PlayerVarPrefix namespaces player.* effect targets inside the vars
// map.
const PlayerVarPrefix = "player_"

// Compiled is the output of compiling one effect list.
type Compiled struct {
	Delta           *state.Delta
	StatusEffects   []state.StatusEffect
	TriggeredEvents []string
}

// Compiler turns effect spec lists into deltas. A malformed effect is
// logged and skipped; it never aborts its siblings.
type Compiler struct {
	logger *slog.Logger
}

func NewCompiler(logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{logger: logger}
}

// Compile processes the effect list against the current world state.
// targetNPC resolves npc.target.* references; sourceItem is recorded
// on any status effects created.
func (c *Compiler) Compile(effects []scenario.EffectSpec, targetNPC string, ws *state.WorldState, sourceItem string) *Compiled {
	out := &Compiled{Delta: state.NewDelta()}
	for i, spec := range effects {
		if err := c.compileOne(spec, targetNPC, ws, sourceItem, out); err != nil {
			c.logger.Warn("skipping malformed effect",
				"index", i, "type", spec.Type, "target", spec.Target, "error", err)
		}
	}
	return out
}

func (c *Compiler) compileOne(spec scenario.EffectSpec, targetNPC string, ws *state.WorldState, sourceItem string, out *Compiled) error {
	switch spec.Type {
	case "stat_add", "npc_stat_add":
		return c.compileStat(spec, targetNPC, ws, out, 1)
	case "stat_sub", "npc_stat_sub":
		return c.compileStat(spec, targetNPC, ws, out, -1)
	case "var_add", "var_sub":
		n, ok := spec.Value.AsNumber()
		if !ok {
			return fmt.Errorf("%s needs a numeric value", spec.Type)
		}
		if spec.Type == "var_sub" {
			n = -n
		}
		out.Delta.AddVar(varName(spec.Target), n)
		return nil
	case "var_set", "set_env":
		out.Delta.SetVar(varName(spec.Target), spec.Value)
		return nil
	case "flag_set":
		if spec.Target == "" {
			return fmt.Errorf("flag_set needs a target")
		}
		out.Delta.SetFlag(spec.Target, spec.Value)
		return nil
	case "set_state":
		return c.compileSetState(spec, targetNPC, ws, sourceItem, out)
	case "unlock_ending":
		if spec.EndingID == "" {
			return fmt.Errorf("unlock_ending needs an ending_id")
		}
		out.Delta.SetFlag("ending_unlocked_"+spec.EndingID, state.Bool(true))
		return nil
	case "change_scene":
		scene := spec.Scene
		if scene == "" {
			scene, _ = spec.Value.AsString()
		}
		if scene == "" {
			return fmt.Errorf("change_scene needs a scene")
		}
		out.Delta.NextScene = scene
		return nil
	case "trigger_event":
		id := spec.EventID
		if id == "" {
			id, _ = spec.Value.AsString()
		}
		if id == "" {
			return fmt.Errorf("trigger_event needs an event_id")
		}
		out.TriggeredEvents = append(out.TriggeredEvents, id)
		return nil
	default:
		return fmt.Errorf("unknown effect type %q", spec.Type)
	}
}

func (c *Compiler) compileStat(spec scenario.EffectSpec, targetNPC string, ws *state.WorldState, out *Compiled, sign float64) error {
	n, ok := spec.Value.AsNumber()
	if !ok {
		return fmt.Errorf("%s needs a numeric value", spec.Type)
	}
	amount := int(sign * n)

	npcIDs, key, isPlayer, err := resolveTarget(spec.Target, targetNPC, ws)
	if err != nil {
		return err
	}
	if isPlayer {
		out.Delta.AddVar(PlayerVarPrefix+key, sign*n)
		return nil
	}
	for _, id := range npcIDs {
		out.Delta.AddNPCStat(id, key, amount)
	}
	return nil
}

func (c *Compiler) compileSetState(spec scenario.EffectSpec, targetNPC string, ws *state.WorldState, sourceItem string, out *Compiled) error {
	npcIDs, key, isPlayer, err := resolveTarget(spec.Target, targetNPC, ws)
	if err != nil {
		return err
	}
	if isPlayer || key != "status" {
		return fmt.Errorf("set_state targets npc status, got %q", spec.Target)
	}
	s, ok := spec.Value.AsString()
	if !ok {
		return fmt.Errorf("set_state needs a string value")
	}
	applied := state.NPCStatus(s)
	for _, id := range npcIDs {
		npc, ok := ws.NPCs[id]
		if !ok {
			return fmt.Errorf("unknown NPC %q", id)
		}
		out.Delta.SetNPCStatus(id, applied)
		if spec.Duration > 0 {
			out.StatusEffects = append(out.StatusEffects, state.StatusEffect{
				TargetNPC:  id,
				Applied:    applied,
				Original:   npc.Status,
				ExpiresAt:  ws.Turn + spec.Duration,
				SourceItem: sourceItem,
				Priority:   spec.Priority,
			})
		}
	}
	return nil
}

// resolveTarget handles the four target reference forms:
// npc.target.<key>, npc.<id>.<key>, npc.all.<key>, player.<key>.
// npc.all expands against the NPC ids present in world state at apply
// time, sorted for determinism.
func resolveTarget(target, targetNPC string, ws *state.WorldState) (npcIDs []string, key string, isPlayer bool, err error) {
	parts := strings.Split(target, ".")
	if len(parts) == 2 && parts[0] == "player" {
		return nil, parts[1], true, nil
	}
	if len(parts) != 3 || parts[0] != "npc" {
		return nil, "", false, fmt.Errorf("unresolvable target %q", target)
	}
	key = parts[2]
	switch parts[1] {
	case "target":
		if targetNPC == "" {
			return nil, "", false, fmt.Errorf("npc.target used with no interaction target")
		}
		return []string{targetNPC}, key, false, nil
	case "all":
		return ws.NPCIDs(), key, false, nil
	default:
		if _, ok := ws.NPCs[parts[1]]; !ok {
			return nil, "", false, fmt.Errorf("unknown NPC %q", parts[1])
		}
		return []string{parts[1]}, key, false, nil
	}
}

func varName(target string) string {
	return strings.TrimPrefix(target, "vars.")
}
