package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// Weights below this threshold are dropped from the key-factor list.
const negligibleWeight = 0.05

// Scorer ranks catalog models for a classification. All computations are
// pure over immutable inputs, so one Scorer serves concurrent requests
// without locking.
type Scorer struct {
	catalog *catalog.Catalog
	rules   []AdjustmentRule
	logger  *logrus.Logger
}

// NewScorer creates a scorer over the catalog with the given adjustment
// table.
func NewScorer(cat *catalog.Catalog, rules []AdjustmentRule, logger *logrus.Logger) *Scorer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Scorer{
		catalog: cat,
		rules:   rules,
		logger:  logger,
	}
}

// ScoreModel computes the full scored record for one model: weighted
// base score, accumulated signal adjustments, and the per-dimension
// breakdown. The adjusted score is clamped to [0,100] and rounded; the
// raw score is informational only.
func (s *Scorer) ScoreModel(profile types.ModelProfile, weights types.TaskWeightProfile, cls *types.Classification) types.ScoredModel {
	breakdown := make([]types.DimensionScore, 0, 8)
	weightedSum := 0.0
	weightTotal := weights.Sum()

	for _, d := range types.Dimensions() {
		capability := profile.Capabilities.Get(d)
		weight := weights.Get(d)
		weighted := capability * weight
		weightedSum += weighted
		breakdown = append(breakdown, types.DimensionScore{
			Dimension:  d,
			Capability: capability,
			Weight:     weight,
			Weighted:   weighted,
		})
	}

	raw := 50.0
	if weightTotal > 0 {
		raw = 100 * weightedSum / weightTotal
	}

	adjusted := raw
	var applied []types.AppliedAdjustment
	for _, rule := range s.rules {
		if rule.Fires(cls, profile.Capabilities) {
			adjusted += rule.Delta
			applied = append(applied, types.AppliedAdjustment{Rule: rule.Name, Delta: rule.Delta})
		}
	}

	return types.ScoredModel{
		ModelID:     profile.ID,
		RawScore:    raw,
		Adjusted:    clampRound(adjusted),
		Breakdown:   breakdown,
		Adjustments: applied,
	}
}

// RankAll scores every catalog model and returns them sorted by adjusted
// score descending, with the model identifier as deterministic tie-break.
func (s *Scorer) RankAll(cls *types.Classification) ([]types.ScoredModel, error) {
	ids := s.catalog.Models()
	if len(ids) == 0 {
		return nil, fmt.Errorf("no models available to score")
	}

	weights := s.catalog.TaskWeights(cls.Category)
	scored := make([]types.ScoredModel, 0, len(ids))
	for _, id := range ids {
		profile, err := s.catalog.Profile(id)
		if err != nil {
			return nil, err
		}
		scored = append(scored, s.ScoreModel(profile, weights, cls))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Adjusted != scored[j].Adjusted {
			return scored[i].Adjusted > scored[j].Adjusted
		}
		return scored[i].ModelID < scored[j].ModelID
	})

	return scored, nil
}

// Result scores the full roster and assembles the transparency record
// for the winner.
func (s *Scorer) Result(cls *types.Classification) (*types.ScoringResult, error) {
	ranked, err := s.RankAll(cls)
	if err != nil {
		return nil, err
	}
	return s.assemble(ranked[0], ranked, cls)
}

// ResultFor recomputes the full breakdown for an already-chosen model.
// Confidence is still calibrated against the true best, so a chosen
// runner-up honestly reports a smaller (or zero) gap.
func (s *Scorer) ResultFor(modelID string, cls *types.Classification) (*types.ScoringResult, error) {
	ranked, err := s.RankAll(cls)
	if err != nil {
		return nil, err
	}
	for _, sm := range ranked {
		if sm.ModelID == modelID {
			return s.assemble(sm, ranked, cls)
		}
	}
	return nil, fmt.Errorf("unknown model identifier: %s", modelID)
}

func (s *Scorer) assemble(chosen types.ScoredModel, ranked []types.ScoredModel, cls *types.Classification) (*types.ScoringResult, error) {
	profile, err := s.catalog.Profile(chosen.ModelID)
	if err != nil {
		return nil, err
	}

	// Gap against the best of the other models; negative when the chosen
	// model is not the true winner.
	gap := 0
	runnerUp := ""
	for _, sm := range ranked {
		if sm.ModelID == chosen.ModelID {
			continue
		}
		gap = chosen.Adjusted - sm.Adjusted
		runnerUp = sm.ModelID
		break
	}

	level := ConfidenceLevel(gap, cls.Band, chosen.Adjusted)

	result := &types.ScoringResult{
		ModelID:         chosen.ModelID,
		ExpectedSuccess: chosen.Adjusted,
		Confidence:      level,
		KeyFactors:      keyFactors(chosen),
		Rationale:       rationale(profile.DisplayName, cls.Category, chosen.Adjusted),
		RunnerUp:        runnerUp,
		ScoreGap:        gap,
	}

	s.logger.WithFields(logrus.Fields{
		"model":      result.ModelID,
		"score":      result.ExpectedSuccess,
		"gap":        gap,
		"confidence": result.Confidence,
		"category":   cls.Category,
	}).Debug("Scoring completed")

	return result, nil
}

// ConfidenceLevel is the calibration mapping, exposed as a pure function
// so the boundary table is unit-testable in isolation. Points: score gap
// (>=12: 3, >=6: 2, >=3: 1), classifier band (high 2, medium 1), plus
// one when the top score reaches 70. Totals of 4+ map to High, 2+ to
// Medium, the rest to Low.
func ConfidenceLevel(gap int, band types.ConfidenceBand, topScore int) types.ConfidenceLevel {
	points := 0
	switch {
	case gap >= 12:
		points += 3
	case gap >= 6:
		points += 2
	case gap >= 3:
		points += 1
	}
	points += band.Points()
	if topScore >= 70 {
		points++
	}

	switch {
	case points >= 4:
		return types.ConfidenceHigh
	case points >= 2:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// keyFactors selects the winner's top explanatory dimensions: negligible
// weights are dropped, the rest ordered by weight then capability, and
// the top four kept.
func keyFactors(sm types.ScoredModel) []types.KeyFactor {
	rows := make([]types.DimensionScore, 0, len(sm.Breakdown))
	for _, row := range sm.Breakdown {
		if row.Weight >= negligibleWeight {
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Weight != rows[j].Weight {
			return rows[i].Weight > rows[j].Weight
		}
		return rows[i].Capability > rows[j].Capability
	})

	if len(rows) > 4 {
		rows = rows[:4]
	}

	factors := make([]types.KeyFactor, 0, len(rows))
	for _, row := range rows {
		score := clampRound(row.Capability * 100)
		factors = append(factors, types.KeyFactor{
			Label:  row.Dimension.Label(),
			Score:  score,
			Reason: factorReason(row.Dimension, score),
		})
	}
	return factors
}

func factorReason(d types.Dimension, score int) string {
	label := strings.ToLower(d.Label())
	switch {
	case score >= 80:
		return fmt.Sprintf("excels at %s", label)
	case score >= 60:
		return fmt.Sprintf("solid, reliable %s", label)
	default:
		return fmt.Sprintf("basic but adequate %s", label)
	}
}

// rationale assembles the one-sentence explanation. Deterministic string
// templates keep decisions reproducible.
func rationale(displayName string, category types.TaskCategory, score int) string {
	label := category.Label()
	switch {
	case score >= 85:
		return fmt.Sprintf("%s is an excellent match for %s, with an expected success of %d%%.", displayName, label, score)
	case score >= 75:
		return fmt.Sprintf("%s is a strong fit for %s (expected success %d%%).", displayName, label, score)
	case score >= 65:
		return fmt.Sprintf("%s is a good fit for %s (expected success %d%%).", displayName, label, score)
	default:
		return fmt.Sprintf("%s is the best available option for %s (expected success %d%%).", displayName, label, score)
	}
}

func clampRound(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
