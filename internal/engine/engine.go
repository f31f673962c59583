package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/classify"
	"github.com/tributary-ai/llm-decision-engine/internal/override"
	"github.com/tributary-ai/llm-decision-engine/internal/scoring"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// Engine merges the override and scored paths into the single outward
// decision contract. It holds no mutable state: every request-scoped
// object lives and dies inside one Decide call, so concurrent requests
// need no synchronization.
type Engine struct {
	catalog    *catalog.Catalog
	classifier classify.Classifier
	scorer     *scoring.Scorer
	overrides  *override.Layer
	roster     map[string]bool
	logger     *logrus.Logger
}

// New wires the engine and runs the startup invariants: the provider
// roster and the capability table must cover each other exactly. A
// mismatch is fatal here, never a per-request condition.
func New(cat *catalog.Catalog, classifier classify.Classifier, scorer *scoring.Scorer, overrides *override.Layer, roster []string, logger *logrus.Logger) (*Engine, error) {
	if err := cat.ValidateRoster(roster); err != nil {
		return nil, fmt.Errorf("invalid provider roster: %w", err)
	}

	allowed := make(map[string]bool, len(roster))
	for _, id := range roster {
		allowed[id] = true
	}
	for _, id := range cat.Models() {
		if !allowed[id] {
			return nil, fmt.Errorf("catalog model %s is not in the provider roster", id)
		}
	}

	return &Engine{
		catalog:    cat,
		classifier: classifier,
		scorer:     scorer,
		overrides:  overrides,
		roster:     allowed,
		logger:     logger,
	}, nil
}

// Decide routes one request. Overrides are evaluated first; otherwise
// the request is classified (with deterministic fallback) and scored.
// The caller always receives a decision: internal fallbacks surface only
// as an honestly lowered confidence.
func (e *Engine) Decide(ctx context.Context, prompt string, attachments *types.AttachmentContext) (*types.RoutingDecision, error) {
	if decision := e.overrides.Evaluate(prompt, attachments); decision != nil {
		return decision, nil
	}

	cls, err := e.classifier.Classify(ctx, prompt, attachments)
	if err != nil || cls == nil {
		// The fallback classifier is pure and cannot fail, so this only
		// happens when the engine is configured with a bare external
		// classifier. Degrade to the safe default rather than erroring.
		e.logger.WithField("error", fmt.Sprintf("%v", err)).Warn("Classification unavailable, using safe default")
		return e.safeDefault(types.CategoryGeneral, "classification was unavailable"), nil
	}

	if cls.Confidence < classify.ConfidenceFloor {
		e.logger.WithFields(logrus.Fields{
			"confidence": cls.Confidence,
			"category":   cls.Category,
		}).Info("Classifier confidence below floor, using safe default")
		return e.safeDefault(cls.Category, "the request could not be classified with enough confidence"), nil
	}

	result, err := e.scorer.Result(cls)
	if err != nil {
		// Unreachable with a validated catalog; surfaced loudly instead
		// of silently guessing.
		e.logger.WithError(err).Error("Scoring produced no ranking")
		return nil, fmt.Errorf("no applicable override or score: %w", err)
	}

	decision := &types.RoutingDecision{
		Intent:      string(cls.Category),
		Category:    cls.Category,
		ChosenModel: result.ModelID,
		Confidence:  result.Confidence.Scalar(),
		Explanation: explanation(result),
		Source:      types.DecisionSourceScored,
	}

	e.logger.WithFields(logrus.Fields{
		"model":      decision.ChosenModel,
		"category":   decision.Category,
		"confidence": decision.Confidence,
		"classifier": cls.Source,
		"score":      result.ExpectedSuccess,
	}).Info("Request routed")

	return decision, nil
}

// Explain recomputes the full scoring breakdown for an already-chosen
// model, for transparency displays. The identifier must belong to the
// roster.
func (e *Engine) Explain(ctx context.Context, prompt, modelID string) (*types.ScoringResult, error) {
	if !e.roster[modelID] {
		return nil, fmt.Errorf("unknown model identifier: %s", modelID)
	}

	cls, err := e.classifier.Classify(ctx, prompt, nil)
	if err != nil || cls == nil {
		return nil, fmt.Errorf("classification unavailable: %v", err)
	}

	return e.scorer.ResultFor(modelID, cls)
}

// Models exposes the roster for the read-only listing endpoint.
func (e *Engine) Models() []types.ModelProfile {
	return e.catalog.Profiles()
}

func (e *Engine) safeDefault(category types.TaskCategory, reason string) *types.RoutingDecision {
	roles := e.catalog.Roles()
	profile, _ := e.catalog.Profile(roles.SafeDefault)
	return &types.RoutingDecision{
		Intent:      "low_confidence_fallback",
		Category:    category,
		ChosenModel: roles.SafeDefault,
		Confidence:  0,
		Explanation: fmt.Sprintf("%s, so the request goes to %s, the safest general-purpose model.", capitalize(reason), profile.DisplayName),
		Source:      types.DecisionSourceFallback,
	}
}

// explanation joins the rationale with the key-factor reasons into the
// single outward explanation string.
func explanation(result *types.ScoringResult) string {
	if len(result.KeyFactors) == 0 {
		return result.Rationale
	}
	reasons := make([]string, 0, len(result.KeyFactors))
	for _, f := range result.KeyFactors {
		reasons = append(reasons, f.Reason)
	}
	return fmt.Sprintf("%s Key factors: %s.", result.Rationale, strings.Join(reasons, "; "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
