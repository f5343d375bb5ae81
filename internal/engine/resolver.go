package engine

import (
	"context"
	"fmt"
	"sort"

	"atelier/pkg/cel"
)

// MaxRounds caps fixed-point iteration. Rule sets that chain auto-selects
// can be cyclic by authoring mistake; the cap turns non-termination into a
// reported diagnostic.
const MaxRounds = 10

// Resolver computes the effective configuration view for a selection.
// Resolution is a pure function of (model, selection): no I/O, no shared
// state, safe for concurrent use.
type Resolver struct {
	evaluator *cel.Evaluator
}

func NewResolver() (*Resolver, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}
	return &Resolver{evaluator: evaluator}, nil
}

// Resolve iterates rule application until the adjusted selection stops
// changing or MaxRounds is exhausted. The view is recomputed from model
// defaults every round, so a stable selection implies a stable view and
// price multipliers are applied exactly once.
func (r *Resolver) Resolve(ctx context.Context, model *Model, selection Selection) Result {
	rules := orderedRules(model.Rules)
	working := normalizeSelection(model, selection)

	var (
		view        View
		diagnostics []Diagnostic
		converged   bool
		rounds      int
	)

	for rounds < MaxRounds {
		rounds++
		next, roundView, roundDiags := r.round(ctx, model, rules, working)
		view = roundView
		diagnostics = roundDiags

		if next.Equal(working) {
			working = next
			converged = true
			break
		}
		working = next
	}

	if !converged {
		diagnostics = append(diagnostics, Diagnostic{
			Kind:    DiagnosticNonConvergence,
			Message: fmt.Sprintf("no fixed point after %d rounds; rule set likely cyclic", MaxRounds),
		})
	}

	return Result{
		View:              view,
		AdjustedSelection: working,
		Diagnostics:       diagnostics,
		Converged:         converged,
		Rounds:            rounds,
	}
}

// round applies every active rule once, in sequence order, against a view
// initialized from model defaults. Conditions are evaluated against the
// round-start selection; actions mutate the working copy.
func (r *Resolver) round(ctx context.Context, model *Model, rules []LogicRule, selection Selection) (Selection, View, []Diagnostic) {
	view := defaultView(model)
	working := selection.Clone()
	var diagnostics []Diagnostic

	for _, rule := range rules {
		if !rule.Active {
			continue
		}

		fired, err := r.conditionMet(ctx, model, rule, selection)
		if err != nil {
			diagnostics = append(diagnostics, malformed(rule.ID, err))
			continue
		}
		if !fired {
			continue
		}

		if err := r.applyAction(model, rule, view, working); err != nil {
			diagnostics = append(diagnostics, malformed(rule.ID, err))
		}
	}

	// A previously chosen option that exclusions made invisible must be
	// re-chosen, by the user or by a later round's auto-select.
	for settingID, optionID := range working {
		sv := view[settingID]
		if sv == nil {
			delete(working, settingID)
			continue
		}
		if sv.Hidden || !sv.visible(optionID) {
			delete(working, settingID)
		}
	}

	return working, view, diagnostics
}

func (r *Resolver) conditionMet(ctx context.Context, model *Model, rule LogicRule, selection Selection) (bool, error) {
	if rule.ConditionExpression != "" {
		return r.evaluator.EvaluateCondition(ctx, rule.ConditionExpression, model.ProductID, map[string]string(selection))
	}

	setting, ok := model.Setting(rule.ConditionSettingID)
	if !ok {
		return false, fmt.Errorf("condition references unknown setting %q", rule.ConditionSettingID)
	}
	if _, ok := setting.Option(rule.ConditionOptionID); !ok {
		return false, fmt.Errorf("condition references unknown option %q in setting %q", rule.ConditionOptionID, rule.ConditionSettingID)
	}

	return selection[rule.ConditionSettingID] == rule.ConditionOptionID, nil
}

func (r *Resolver) applyAction(model *Model, rule LogicRule, view View, working Selection) error {
	target, ok := model.Setting(rule.TargetSettingID)
	if !ok {
		return fmt.Errorf("action targets unknown setting %q", rule.TargetSettingID)
	}
	for _, optionID := range rule.TargetOptionIDs {
		if _, ok := target.Option(optionID); !ok {
			return fmt.Errorf("action targets unknown option %q in setting %q", optionID, rule.TargetSettingID)
		}
	}

	sv := view[target.ID]

	switch rule.ActionType {
	case ActionExcludeOptions:
		sv.VisibleOptionIDs = subtract(sv.VisibleOptionIDs, rule.TargetOptionIDs)

	case ActionIncludeOnly:
		// Intersection with the currently visible set: never re-admits an
		// option an earlier rule excluded.
		sv.VisibleOptionIDs = intersect(sv.VisibleOptionIDs, rule.TargetOptionIDs)

	case ActionExcludeSetting:
		sv.Hidden = true
		delete(working, target.ID)

	case ActionSetRequired:
		sv.Required = true

	case ActionSetOptional:
		sv.Required = false

	case ActionAutoSelect:
		optionID, err := singleTarget(rule)
		if err != nil {
			return err
		}
		sv.AutoSelectedOptionID = optionID
		current, chosen := working[target.ID]
		if !chosen || !sv.visible(current) {
			working[target.ID] = optionID
		}

	case ActionProposeSelection:
		optionID, err := singleTarget(rule)
		if err != nil {
			return err
		}
		sv.ProposedOptionID = optionID

	case ActionSetPriceMultiplier:
		if rule.PriceMultiplier <= 0 {
			return fmt.Errorf("price multiplier must be positive, got %v", rule.PriceMultiplier)
		}
		sv.PriceMultiplier *= rule.PriceMultiplier

	default:
		return fmt.Errorf("unknown action type %q", rule.ActionType)
	}

	return nil
}

func defaultView(model *Model) View {
	view := make(View, len(model.Settings))
	for _, setting := range model.Settings {
		visible := make([]string, 0, len(setting.Options))
		for _, opt := range setting.Options {
			if opt.Active {
				visible = append(visible, opt.ID)
			}
		}
		view[setting.ID] = &SettingView{
			SettingID:        setting.ID,
			VisibleOptionIDs: visible,
			Required:         setting.Required,
			PriceMultiplier:  1.0,
		}
	}
	return view
}

// normalizeSelection drops entries that reference settings or options the
// model does not know about, so the loop only ever sees resolvable state.
func normalizeSelection(model *Model, selection Selection) Selection {
	out := make(Selection, len(selection))
	for settingID, optionID := range selection {
		setting, ok := model.Setting(settingID)
		if !ok {
			continue
		}
		if _, ok := setting.Option(optionID); !ok {
			continue
		}
		out[settingID] = optionID
	}
	return out
}

func orderedRules(rules []LogicRule) []LogicRule {
	out := make([]LogicRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

func singleTarget(rule LogicRule) (string, error) {
	if len(rule.TargetOptionIDs) != 1 {
		return "", fmt.Errorf("%s requires exactly one target option, got %d", rule.ActionType, len(rule.TargetOptionIDs))
	}
	return rule.TargetOptionIDs[0], nil
}

func malformed(ruleID string, err error) Diagnostic {
	return Diagnostic{
		Kind:    DiagnosticMalformedRule,
		RuleID:  ruleID,
		Message: err.Error(),
	}
}

func subtract(visible, excluded []string) []string {
	out := make([]string, 0, len(visible))
	for _, id := range visible {
		if !contains(excluded, id) {
			out = append(out, id)
		}
	}
	return out
}

func intersect(visible, allowed []string) []string {
	out := make([]string, 0, len(visible))
	for _, id := range visible {
		if contains(allowed, id) {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
