package scoring

import (
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// AdjustmentRule is one (predicate, effect) pair of the signal bonus and
// penalty table. A rule fires when its classification predicate holds
// and the model's capability on Dimension clears (or, for Below rules,
// falls short of) the threshold. Rules accumulate independently; they
// are data so magnitudes can be recalibrated without touching the
// algorithm.
type AdjustmentRule struct {
	Name      string
	Delta     float64
	Dimension types.Dimension
	Threshold float64
	Below     bool
	When      func(c *types.Classification) bool
}

// Fires evaluates the rule against a classification and capability vector.
func (r AdjustmentRule) Fires(c *types.Classification, caps types.CapabilityVector) bool {
	if !r.When(c) {
		return false
	}
	v := caps.Get(r.Dimension)
	if r.Below {
		return v < r.Threshold
	}
	return v >= r.Threshold
}

// DefaultRules returns the calibrated adjustment table in evaluation
// order. Deltas are overridable from configuration by rule name.
func DefaultRules() []AdjustmentRule {
	return []AdjustmentRule{
		{
			Name: "code_signal_strong_codegen", Delta: 5,
			Dimension: types.DimCodeGeneration, Threshold: 0.75,
			When: func(c *types.Classification) bool { return c.Signals.HasCode },
		},
		{
			Name: "stack_trace_strong_debugging", Delta: 6,
			Dimension: types.DimDebugging, Threshold: 0.70,
			When: func(c *types.Classification) bool { return c.Signals.HasStackTrace },
		},
		{
			Name: "strict_format_structured", Delta: 5,
			Dimension: types.DimStructuredOutput, Threshold: 0.75,
			When: func(c *types.Classification) bool { return c.Signals.StrictFormat },
		},
		{
			Name: "recency_strong", Delta: 5,
			Dimension: types.DimKnowledgeRecency, Threshold: 0.80,
			When: func(c *types.Classification) bool { return c.NeedsRecency },
		},
		{
			Name: "recency_weak", Delta: -8,
			Dimension: types.DimKnowledgeRecency, Threshold: 0.70, Below: true,
			When: func(c *types.Classification) bool { return c.NeedsRecency },
		},
		{
			Name: "high_stakes_weak_reasoning", Delta: -12,
			Dimension: types.DimReasoning, Threshold: 0.70, Below: true,
			When: func(c *types.Classification) bool { return c.Stakes == types.StakesHigh },
		},
		{
			Name: "medium_stakes_weak_reasoning", Delta: -6,
			Dimension: types.DimReasoning, Threshold: 0.60, Below: true,
			When: func(c *types.Classification) bool { return c.Stakes == types.StakesMedium },
		},
		{
			Name: "code_category_weak_codegen", Delta: -8,
			Dimension: types.DimCodeGeneration, Threshold: 0.60, Below: true,
			When: func(c *types.Classification) bool {
				return c.Category == types.CategoryCodeGen || c.Category == types.CategoryDebug
			},
		},
		{
			Name: "concise_slow", Delta: -5,
			Dimension: types.DimSpeed, Threshold: 0.50, Below: true,
			When: func(c *types.Classification) bool { return c.Signals.Concise },
		},
		{
			Name: "concise_fast", Delta: 4,
			Dimension: types.DimSpeed, Threshold: 0.85,
			When: func(c *types.Classification) bool { return c.Signals.Concise },
		},
		{
			Name: "long_form_strong_reasoning", Delta: 6,
			Dimension: types.DimReasoning, Threshold: 0.75,
			When: func(c *types.Classification) bool { return c.Signals.LongForm },
		},
		{
			Name: "long_form_strong_instruction", Delta: 3,
			Dimension: types.DimInstructionFollowing, Threshold: 0.85,
			When: func(c *types.Classification) bool { return c.Signals.LongForm },
		},
		{
			Name: "long_form_weak_reasoning", Delta: -6,
			Dimension: types.DimReasoning, Threshold: 0.55, Below: true,
			When: func(c *types.Classification) bool { return c.Signals.LongForm },
		},
	}
}

// ApplyDeltaOverrides returns a copy of the rule table with per-rule
// delta overrides applied. Unknown names are ignored; validation of the
// override map happens at config load.
func ApplyDeltaOverrides(rules []AdjustmentRule, overrides map[string]float64) []AdjustmentRule {
	if len(overrides) == 0 {
		return rules
	}
	out := make([]AdjustmentRule, len(rules))
	copy(out, rules)
	for i := range out {
		if delta, ok := overrides[out[i].Name]; ok {
			out[i].Delta = delta
		}
	}
	return out
}

// RuleNames lists the known rule names, used by config validation.
func RuleNames() []string {
	rules := DefaultRules()
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}
