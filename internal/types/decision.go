package types

// ConfidenceLevel is the calibrated confidence bucket attached to a
// scoring result.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// Scalar maps the confidence level onto the 0..1 range reported in the
// final routing decision.
func (l ConfidenceLevel) Scalar() float64 {
	switch l {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.7
	default:
		return 0.45
	}
}

// DimensionScore is one row of a model's per-dimension scoring breakdown.
type DimensionScore struct {
	Dimension  Dimension `json:"dimension"`
	Capability float64   `json:"capability"`
	Weight     float64   `json:"weight"`
	Weighted   float64   `json:"weighted"`
}

// AppliedAdjustment records one bonus/penalty rule that fired for a model.
type AppliedAdjustment struct {
	Rule  string  `json:"rule"`
	Delta float64 `json:"delta"`
}

// ScoredModel is the scoring engine's per-model output. RawScore is the
// unclamped weighted average times 100 and is informational only; the
// adjusted score is always an integer in [0,100].
type ScoredModel struct {
	ModelID     string              `json:"model_id"`
	RawScore    float64             `json:"raw_score"`
	Adjusted    int                 `json:"adjusted_score"`
	Breakdown   []DimensionScore    `json:"breakdown"`
	Adjustments []AppliedAdjustment `json:"adjustments,omitempty"`
}

// KeyFactor is one of the top dimensions explaining a selection.
type KeyFactor struct {
	Label  string `json:"label"`
	Score  int    `json:"score"` // capability expressed 0-100
	Reason string `json:"reason"`
}

// ScoringResult is the full transparency record for a chosen model:
// expected success, calibrated confidence, the top explanatory factors
// and a one-sentence rationale. Computed once per request, immutable.
type ScoringResult struct {
	ModelID         string          `json:"model_id"`
	ExpectedSuccess int             `json:"expected_success"`
	Confidence      ConfidenceLevel `json:"confidence"`
	KeyFactors      []KeyFactor     `json:"key_factors"`
	Rationale       string          `json:"rationale"`
	RunnerUp        string          `json:"runner_up,omitempty"`
	ScoreGap        int             `json:"score_gap"`
}

// Decision source markers.
const (
	DecisionSourceScored   = "scored"
	DecisionSourceOverride = "override"
	DecisionSourceFallback = "fallback"
)

// RoutingDecision is the single contract the engine exposes outward.
type RoutingDecision struct {
	RequestID   string       `json:"request_id,omitempty"`
	Intent      string       `json:"intent"`
	Category    TaskCategory `json:"category"`
	ChosenModel string       `json:"chosen_model"`
	Confidence  float64      `json:"confidence"` // 0..1
	Explanation string       `json:"explanation"`
	Source      string       `json:"source"`
}
