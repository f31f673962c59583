package catalog

import (
	"fmt"

	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// DefaultProfiles returns the shipped roster. The numbers are calibration
// artifacts; deployments override them through configuration, not code.
func DefaultProfiles() []types.ModelProfile {
	return []types.ModelProfile{
		{
			ID:          "gpt-4o",
			DisplayName: "GPT-4o",
			Provider:    "openai",
			Tier:        types.TierStandard,
			Vision:      true,
			Capabilities: types.CapabilityVector{
				Reasoning:            0.88,
				CodeGeneration:       0.85,
				Debugging:            0.84,
				StructuredOutput:     0.90,
				InstructionFollowing: 0.88,
				Speed:                0.72,
				CostEfficiency:       0.45,
				KnowledgeRecency:     0.85,
			},
		},
		{
			ID:          "gpt-4o-mini",
			DisplayName: "GPT-4o mini",
			Provider:    "openai",
			Tier:        types.TierLite,
			Vision:      true,
			Capabilities: types.CapabilityVector{
				Reasoning:            0.68,
				CodeGeneration:       0.72,
				Debugging:            0.66,
				StructuredOutput:     0.78,
				InstructionFollowing: 0.75,
				Speed:                0.90,
				CostEfficiency:       0.90,
				KnowledgeRecency:     0.82,
			},
		},
		{
			ID:          "claude-3-5-sonnet",
			DisplayName: "Claude 3.5 Sonnet",
			Provider:    "anthropic",
			Tier:        types.TierStandard,
			Vision:      false,
			Capabilities: types.CapabilityVector{
				Reasoning:            0.92,
				CodeGeneration:       0.93,
				Debugging:            0.92,
				StructuredOutput:     0.85,
				InstructionFollowing: 0.92,
				Speed:                0.68,
				CostEfficiency:       0.50,
				KnowledgeRecency:     0.80,
			},
		},
		{
			ID:          "claude-3-opus",
			DisplayName: "Claude 3 Opus",
			Provider:    "anthropic",
			Tier:        types.TierFlagship,
			Vision:      false,
			Capabilities: types.CapabilityVector{
				Reasoning:            0.95,
				CodeGeneration:       0.88,
				Debugging:            0.87,
				StructuredOutput:     0.82,
				InstructionFollowing: 0.90,
				Speed:                0.40,
				CostEfficiency:       0.25,
				KnowledgeRecency:     0.70,
			},
		},
		{
			ID:          "claude-3-haiku",
			DisplayName: "Claude 3 Haiku",
			Provider:    "anthropic",
			Tier:        types.TierLite,
			Vision:      false,
			Capabilities: types.CapabilityVector{
				Reasoning:            0.60,
				CodeGeneration:       0.62,
				Debugging:            0.58,
				StructuredOutput:     0.70,
				InstructionFollowing: 0.72,
				Speed:                0.98,
				CostEfficiency:       0.99,
				KnowledgeRecency:     0.75,
			},
		},
	}
}

// DefaultWeights returns the per-category importance profiles.
func DefaultWeights() map[types.TaskCategory]types.TaskWeightProfile {
	return map[types.TaskCategory]types.TaskWeightProfile{
		types.CategoryGeneral: {
			Reasoning: 0.7, CodeGeneration: 0.3, Debugging: 0.2, StructuredOutput: 0.3,
			InstructionFollowing: 0.8, Speed: 0.6, CostEfficiency: 0.6, KnowledgeRecency: 0.4,
		},
		types.CategoryQA: {
			Reasoning: 0.3, CodeGeneration: 0.1, Debugging: 0.1, StructuredOutput: 0.2,
			InstructionFollowing: 0.6, Speed: 1.0, CostEfficiency: 1.0, KnowledgeRecency: 0.3,
		},
		types.CategoryCodeGen: {
			Reasoning: 0.7, CodeGeneration: 1.0, Debugging: 0.5, StructuredOutput: 0.5,
			InstructionFollowing: 0.6, Speed: 0.3, CostEfficiency: 0.3, KnowledgeRecency: 0.3,
		},
		types.CategoryDebug: {
			Reasoning: 0.8, CodeGeneration: 0.6, Debugging: 1.0, StructuredOutput: 0.2,
			InstructionFollowing: 0.4, Speed: 0.2, CostEfficiency: 0.3, KnowledgeRecency: 0.1,
		},
		types.CategoryAnalysis: {
			Reasoning: 1.0, CodeGeneration: 0.2, Debugging: 0.1, StructuredOutput: 0.4,
			InstructionFollowing: 0.7, Speed: 0.2, CostEfficiency: 0.3, KnowledgeRecency: 0.5,
		},
		types.CategoryCreative: {
			Reasoning: 0.6, CodeGeneration: 0.1, Debugging: 0.1, StructuredOutput: 0.2,
			InstructionFollowing: 0.8, Speed: 0.4, CostEfficiency: 0.4, KnowledgeRecency: 0.3,
		},
		types.CategorySummarize: {
			Reasoning: 0.5, CodeGeneration: 0.1, Debugging: 0.1, StructuredOutput: 0.4,
			InstructionFollowing: 0.9, Speed: 0.7, CostEfficiency: 0.6, KnowledgeRecency: 0.2,
		},
		types.CategoryVision: {
			Reasoning: 0.7, CodeGeneration: 0.3, Debugging: 0.2, StructuredOutput: 0.4,
			InstructionFollowing: 0.7, Speed: 0.5, CostEfficiency: 0.4, KnowledgeRecency: 0.3,
		},
		types.CategoryComplex: {
			Reasoning: 1.0, CodeGeneration: 0.7, Debugging: 0.4, StructuredOutput: 0.4,
			InstructionFollowing: 0.7, Speed: 0.1, CostEfficiency: 0.1, KnowledgeRecency: 0.2,
		},
	}
}

// DefaultRoles returns the shipped role assignments.
func DefaultRoles() Roles {
	return Roles{
		SafeDefault:   "gpt-4o",
		Workhorse:     "claude-3-5-sonnet",
		DeepReasoning: "claude-3-opus",
		VisionLight:   "gpt-4o-mini",
		VisionHeavy:   "gpt-4o",
		Classifier:    "claude-3-haiku",
	}
}

// Default returns the built-in catalog. It panics only on a programming
// error in the shipped tables, which the tests lock down.
func Default() *Catalog {
	c, err := New(DefaultProfiles(), DefaultWeights(), DefaultRoles())
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid built-in tables: %v", err))
	}
	return c
}

// Merge applies deployment overrides on top of the defaults. Override
// profiles replace same-ID defaults or extend the roster; override
// weights replace whole category profiles.
func Merge(profiles []types.ModelProfile, weights map[types.TaskCategory]types.TaskWeightProfile, roles Roles) (*Catalog, error) {
	merged := DefaultProfiles()
	index := make(map[string]int, len(merged))
	for i, p := range merged {
		index[p.ID] = i
	}
	for _, p := range profiles {
		if i, ok := index[p.ID]; ok {
			merged[i] = p
		} else {
			index[p.ID] = len(merged)
			merged = append(merged, p)
		}
	}

	mergedWeights := DefaultWeights()
	for cat, w := range weights {
		mergedWeights[cat] = w
	}

	mergedRoles := DefaultRoles()
	if roles.SafeDefault != "" {
		mergedRoles.SafeDefault = roles.SafeDefault
	}
	if roles.Workhorse != "" {
		mergedRoles.Workhorse = roles.Workhorse
	}
	if roles.DeepReasoning != "" {
		mergedRoles.DeepReasoning = roles.DeepReasoning
	}
	if roles.VisionLight != "" {
		mergedRoles.VisionLight = roles.VisionLight
	}
	if roles.VisionHeavy != "" {
		mergedRoles.VisionHeavy = roles.VisionHeavy
	}
	if roles.Classifier != "" {
		mergedRoles.Classifier = roles.Classifier
	}

	return New(merged, mergedWeights, mergedRoles)
}
