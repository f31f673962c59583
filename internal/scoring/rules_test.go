package scoring

import (
	"testing"

	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

func ruleByName(t *testing.T, name string) AdjustmentRule {
	t.Helper()
	for _, r := range DefaultRules() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %s not found", name)
	return AdjustmentRule{}
}

func TestRuleFires(t *testing.T) {
	tests := []struct {
		name string
		rule string
		cls  types.Classification
		caps types.CapabilityVector
		want bool
	}{
		{
			name: "code signal rewards strong codegen",
			rule: "code_signal_strong_codegen",
			cls:  types.Classification{Signals: types.Signals{HasCode: true}},
			caps: types.CapabilityVector{CodeGeneration: 0.80},
			want: true,
		},
		{
			name: "code signal ignores weak codegen",
			rule: "code_signal_strong_codegen",
			cls:  types.Classification{Signals: types.Signals{HasCode: true}},
			caps: types.CapabilityVector{CodeGeneration: 0.70},
			want: false,
		},
		{
			name: "no code signal no bonus",
			rule: "code_signal_strong_codegen",
			cls:  types.Classification{},
			caps: types.CapabilityVector{CodeGeneration: 0.95},
			want: false,
		},
		{
			name: "high stakes penalizes weak reasoning",
			rule: "high_stakes_weak_reasoning",
			cls:  types.Classification{Stakes: types.StakesHigh},
			caps: types.CapabilityVector{Reasoning: 0.60},
			want: true,
		},
		{
			name: "high stakes spares strong reasoning",
			rule: "high_stakes_weak_reasoning",
			cls:  types.Classification{Stakes: types.StakesHigh},
			caps: types.CapabilityVector{Reasoning: 0.70},
			want: false,
		},
		{
			name: "recency penalty below threshold",
			rule: "recency_weak",
			cls:  types.Classification{NeedsRecency: true},
			caps: types.CapabilityVector{KnowledgeRecency: 0.65},
			want: true,
		},
		{
			name: "concise rewards fast models",
			rule: "concise_fast",
			cls:  types.Classification{Signals: types.Signals{Concise: true}},
			caps: types.CapabilityVector{Speed: 0.90},
			want: true,
		},
		{
			name: "debug category penalizes weak codegen",
			rule: "code_category_weak_codegen",
			cls:  types.Classification{Category: types.CategoryDebug},
			caps: types.CapabilityVector{CodeGeneration: 0.55},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := ruleByName(t, tt.rule)
			if got := rule.Fires(&tt.cls, tt.caps); got != tt.want {
				t.Errorf("Fires = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDeltaOverrides(t *testing.T) {
	rules := DefaultRules()
	overridden := ApplyDeltaOverrides(rules, map[string]float64{
		"stack_trace_strong_debugging": 10,
	})

	for _, r := range overridden {
		if r.Name == "stack_trace_strong_debugging" && r.Delta != 10 {
			t.Errorf("override not applied, delta = %v", r.Delta)
		}
	}

	// The source table stays untouched.
	for _, r := range rules {
		if r.Name == "stack_trace_strong_debugging" && r.Delta != 6 {
			t.Errorf("original table mutated, delta = %v", r.Delta)
		}
	}
}

func TestRuleNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range RuleNames() {
		if seen[name] {
			t.Errorf("duplicate rule name %s", name)
		}
		seen[name] = true
	}
}
