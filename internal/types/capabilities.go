package types

// Dimension names one of the eight fixed capability axes every model is
// scored on. The set is closed; adding a dimension is a code change, not
// a configuration change.
type Dimension string

const (
	DimReasoning            Dimension = "reasoning"
	DimCodeGeneration       Dimension = "code_generation"
	DimDebugging            Dimension = "debugging"
	DimStructuredOutput     Dimension = "structured_output"
	DimInstructionFollowing Dimension = "instruction_following"
	DimSpeed                Dimension = "speed"
	DimCostEfficiency       Dimension = "cost_efficiency"
	DimKnowledgeRecency     Dimension = "knowledge_recency"
)

// Dimensions returns all capability dimensions in their canonical order.
// Scoring iterates this slice so that breakdowns are reproducible.
func Dimensions() []Dimension {
	return []Dimension{
		DimReasoning,
		DimCodeGeneration,
		DimDebugging,
		DimStructuredOutput,
		DimInstructionFollowing,
		DimSpeed,
		DimCostEfficiency,
		DimKnowledgeRecency,
	}
}

// Label returns a human-readable name for the dimension, used in key factors.
func (d Dimension) Label() string {
	switch d {
	case DimReasoning:
		return "Reasoning depth"
	case DimCodeGeneration:
		return "Code generation"
	case DimDebugging:
		return "Debugging"
	case DimStructuredOutput:
		return "Structured output"
	case DimInstructionFollowing:
		return "Instruction following"
	case DimSpeed:
		return "Response speed"
	case DimCostEfficiency:
		return "Cost efficiency"
	case DimKnowledgeRecency:
		return "Knowledge recency"
	default:
		return string(d)
	}
}

// CapabilityVector holds a model's fixed competence score per dimension.
// All values are in [0,1] and immutable after startup validation.
type CapabilityVector struct {
	Reasoning            float64 `yaml:"reasoning" json:"reasoning"`
	CodeGeneration       float64 `yaml:"code_generation" json:"code_generation"`
	Debugging            float64 `yaml:"debugging" json:"debugging"`
	StructuredOutput     float64 `yaml:"structured_output" json:"structured_output"`
	InstructionFollowing float64 `yaml:"instruction_following" json:"instruction_following"`
	Speed                float64 `yaml:"speed" json:"speed"`
	CostEfficiency       float64 `yaml:"cost_efficiency" json:"cost_efficiency"`
	KnowledgeRecency     float64 `yaml:"knowledge_recency" json:"knowledge_recency"`
}

// Get returns the capability score for a dimension.
func (v CapabilityVector) Get(d Dimension) float64 {
	switch d {
	case DimReasoning:
		return v.Reasoning
	case DimCodeGeneration:
		return v.CodeGeneration
	case DimDebugging:
		return v.Debugging
	case DimStructuredOutput:
		return v.StructuredOutput
	case DimInstructionFollowing:
		return v.InstructionFollowing
	case DimSpeed:
		return v.Speed
	case DimCostEfficiency:
		return v.CostEfficiency
	case DimKnowledgeRecency:
		return v.KnowledgeRecency
	default:
		return 0
	}
}

// TaskWeightProfile holds the relative importance of each dimension for a
// task category. Weights are non-negative and do not need to sum to 1.
type TaskWeightProfile struct {
	Reasoning            float64 `yaml:"reasoning" json:"reasoning"`
	CodeGeneration       float64 `yaml:"code_generation" json:"code_generation"`
	Debugging            float64 `yaml:"debugging" json:"debugging"`
	StructuredOutput     float64 `yaml:"structured_output" json:"structured_output"`
	InstructionFollowing float64 `yaml:"instruction_following" json:"instruction_following"`
	Speed                float64 `yaml:"speed" json:"speed"`
	CostEfficiency       float64 `yaml:"cost_efficiency" json:"cost_efficiency"`
	KnowledgeRecency     float64 `yaml:"knowledge_recency" json:"knowledge_recency"`
}

// Get returns the weight for a dimension.
func (p TaskWeightProfile) Get(d Dimension) float64 {
	switch d {
	case DimReasoning:
		return p.Reasoning
	case DimCodeGeneration:
		return p.CodeGeneration
	case DimDebugging:
		return p.Debugging
	case DimStructuredOutput:
		return p.StructuredOutput
	case DimInstructionFollowing:
		return p.InstructionFollowing
	case DimSpeed:
		return p.Speed
	case DimCostEfficiency:
		return p.CostEfficiency
	case DimKnowledgeRecency:
		return p.KnowledgeRecency
	default:
		return 0
	}
}

// Sum returns the total weight across all dimensions.
func (p TaskWeightProfile) Sum() float64 {
	total := 0.0
	for _, d := range Dimensions() {
		total += p.Get(d)
	}
	return total
}

// ModelTier classifies models by cost/latency class. The override layer
// uses tiers to keep uploaded-file requests off the cheapest models.
type ModelTier string

const (
	TierLite     ModelTier = "lite"     // cheapest/fastest class
	TierStandard ModelTier = "standard" // everyday workhorse class
	TierFlagship ModelTier = "flagship" // deep-reasoning class
)

// ModelProfile combines a model identifier with display metadata and its
// capability vector. Every identifier the engine can return has exactly
// one profile.
type ModelProfile struct {
	ID           string           `yaml:"id" json:"id"`
	DisplayName  string           `yaml:"display_name" json:"display_name"`
	Provider     string           `yaml:"provider" json:"provider"`
	Tier         ModelTier        `yaml:"tier" json:"tier"`
	Vision       bool             `yaml:"vision" json:"vision"`
	Capabilities CapabilityVector `yaml:"capabilities" json:"capabilities"`
}
