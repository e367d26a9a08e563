package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/nightloop/pkg/cond"
	"github.com/jwebster45206/nightloop/pkg/items"
	"github.com/jwebster45206/nightloop/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &ScenarioValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Scenario file is valid!")
}

type ScenarioValidator struct {
	errors []string
}

func (v *ScenarioValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	// Validate filename format
	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("scenario file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidID(nameWithoutExt) {
		return fmt.Errorf("scenario filename '%s' must be lowercase snake_case (e.g., my_scenario.json, not my-scenario.json or MyScenario.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var a scenario.Assets
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&a); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateAssets(&a)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *ScenarioValidator) validateAssets(a *scenario.Assets) {
	v.validateIDFormat("scenario ID", a.ID)
	if a.TurnLimit <= 0 {
		v.addError("turn_limit must be positive")
	}

	for name := range a.StateSchema.Vars {
		v.validateIDFormat("var name", name)
	}
	for name := range a.StateSchema.Flags {
		v.validateIDFormat("flag name", name)
	}

	npcIDs := make(map[string]bool, len(a.NPCs))
	for i := range a.NPCs {
		npc := &a.NPCs[i]
		v.validateIDFormat("NPC ID", npc.ID)
		if npcIDs[npc.ID] {
			v.addError(fmt.Sprintf("duplicate NPC ID '%s'", npc.ID))
		}
		npcIDs[npc.ID] = true

		for j, phase := range npc.Phases {
			v.validateIDFormat("phase ID", phase.ID)
			if phase.Transition.Condition != "" {
				v.validatePhaseCondition(phase.Transition.Condition,
					fmt.Sprintf("phase '%s' transition on NPC '%s'", phase.ID, npc.ID))
			} else if j < len(npc.Phases)-1 {
				v.addError(fmt.Sprintf("phase '%s' on NPC '%s' has no transition condition but is not the last phase", phase.ID, npc.ID))
			}
		}
	}

	for i := range a.Items {
		v.validateItem(&a.Items[i], npcIDs)
	}

	for _, ending := range a.Endings {
		v.validateIDFormat("ending ID", ending.ID)
		v.validateCondition(ending.Condition, fmt.Sprintf("ending '%s'", ending.ID))
		for _, ev := range ending.OnEnterEvents {
			if ev.Type != "flag_set" && ev.Type != "var_set" {
				v.addError(fmt.Sprintf("ending '%s' has unsupported on-enter event type '%s'", ending.ID, ev.Type))
			}
		}
	}

	for _, lock := range a.Locks {
		v.validateIDFormat("lock ID", lock.ID)
		v.validateCondition(lock.UnlockCondition, fmt.Sprintf("lock '%s'", lock.ID))
		for _, npcID := range lock.Access.AllowedNPCs {
			if !npcIDs[npcID] {
				v.addError(fmt.Sprintf("lock '%s' allows unknown NPC '%s'", lock.ID, npcID))
			}
		}
	}

	for _, rule := range a.MemoryRules.RewriteRules {
		v.validateIDFormat("rewrite rule ID", rule.ID)
		if !intentWhenRe.MatchString(strings.TrimSpace(rule.When)) {
			v.addError(fmt.Sprintf("rewrite rule '%s' has unsupported when clause '%s' (expected intent == '<name>')", rule.ID, rule.When))
		}
		v.validateEffects(rule.Effects, fmt.Sprintf("rewrite rule '%s'", rule.ID), npcIDs)
	}
}

func (v *ScenarioValidator) validateItem(item *scenario.Item, npcIDs map[string]bool) {
	v.validateIDFormat("item ID", item.ID)

	switch item.Type {
	case scenario.ItemTypeConsumable, scenario.ItemTypeTool, scenario.ItemTypeGift,
		scenario.ItemTypeKey, scenario.ItemTypeEvidence:
	default:
		v.addError(fmt.Sprintf("item '%s' has unknown type '%s'", item.ID, item.Type))
	}

	switch item.Acquire.Method {
	case items.MethodAuto, items.MethodUnlock, items.MethodReward:
		// Scanner-eligible items are granted the moment their condition
		// holds, so the condition is mandatory.
		if strings.TrimSpace(item.Acquire.Condition) == "" {
			v.addError(fmt.Sprintf("item '%s' has acquire method '%s' but no acquire condition", item.ID, item.Acquire.Method))
		}
	}
	if item.Acquire.Condition != "" {
		v.validateCondition(item.Acquire.Condition, fmt.Sprintf("acquire condition of item '%s'", item.ID))
	}

	for _, action := range item.Use.Actions {
		v.validateIDFormat("action ID", action.ID)
		if action.AllowedWhen != "" {
			v.validateCondition(action.AllowedWhen,
				fmt.Sprintf("allowed_when of action '%s' on item '%s'", action.ID, item.ID))
		}
		v.validateEffects(action.Effects,
			fmt.Sprintf("action '%s' on item '%s'", action.ID, item.ID), npcIDs)
	}
}

var effectTypes = map[string]bool{
	"stat_add":      true,
	"stat_sub":      true,
	"npc_stat_add":  true,
	"npc_stat_sub":  true,
	"var_add":       true,
	"var_sub":       true,
	"var_set":       true,
	"set_env":       true,
	"flag_set":      true,
	"set_state":     true,
	"unlock_ending": true,
	"change_scene":  true,
	"trigger_event": true,
}

func (v *ScenarioValidator) validateEffects(effects []scenario.EffectSpec, context string, npcIDs map[string]bool) {
	for _, fx := range effects {
		if !effectTypes[fx.Type] {
			v.addError(fmt.Sprintf("%s has unknown effect type '%s'", context, fx.Type))
			continue
		}
		if !strings.HasPrefix(fx.Target, "npc.") {
			continue
		}
		parts := strings.Split(fx.Target, ".")
		if len(parts) < 3 {
			v.addError(fmt.Sprintf("%s has malformed NPC target '%s'", context, fx.Target))
			continue
		}
		if parts[1] != "target" && parts[1] != "all" && !npcIDs[parts[1]] {
			v.addError(fmt.Sprintf("%s targets unknown NPC '%s'", context, parts[1]))
		}
	}
}

// validateCondition checks world-state gates; the bare-identifier
// phase form is rejected here because it has nothing to resolve
// against outside a phase transition.
func (v *ScenarioValidator) validateCondition(expr string, context string) {
	if strings.TrimSpace(expr) == "" {
		v.addError(fmt.Sprintf("%s has an empty condition", context))
		return
	}
	tree, err := cond.Parse(expr)
	if err != nil {
		v.addError(fmt.Sprintf("%s has an invalid condition: %v", context, err))
		return
	}
	if cond.ContainsSelfStat(tree) {
		v.addError(fmt.Sprintf("%s uses a bare stat name, which only phase transitions may do (did you mean vars.<name> or npc.<id>.<stat>?)", context))
	}
}

// validatePhaseCondition checks phase transitions, where bare stat
// names resolve against the NPC's own stats.
func (v *ScenarioValidator) validatePhaseCondition(expr string, context string) {
	if strings.TrimSpace(expr) == "" {
		v.addError(fmt.Sprintf("%s has an empty condition", context))
		return
	}
	if _, err := cond.Parse(expr); err != nil {
		v.addError(fmt.Sprintf("%s has an invalid condition: %v", context, err))
	}
}

func (v *ScenarioValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *ScenarioValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	intentWhenRe = regexp.MustCompile(`^intent\s*==\s*['"]([^'"]+)['"]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
