package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/classify"
	"github.com/tributary-ai/llm-decision-engine/internal/override"
	"github.com/tributary-ai/llm-decision-engine/internal/scoring"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// stubClassifier returns a fixed classification, standing in for an
// external classifier in tests.
type stubClassifier struct {
	cls *types.Classification
	err error
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(context.Context, string, *types.AttachmentContext) (*types.Classification, error) {
	return s.cls, s.err
}

func testEngine(t *testing.T, classifier classify.Classifier) *Engine {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	cat := catalog.Default()
	if classifier == nil {
		classifier = classify.NewHeuristic()
	}
	scorer := scoring.NewScorer(cat, scoring.DefaultRules(), logger)
	overrides := override.NewLayer(cat, override.DefaultConfig(), logger)

	eng, err := New(cat, classifier, scorer, overrides, cat.Models(), logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func TestNewRejectsRosterMismatch(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	cat := catalog.Default()
	scorer := scoring.NewScorer(cat, scoring.DefaultRules(), logger)
	overrides := override.NewLayer(cat, override.DefaultConfig(), logger)
	classifier := classify.NewHeuristic()

	if _, err := New(cat, classifier, scorer, overrides, []string{"gpt-4o"}, logger); err == nil {
		t.Error("partial roster must be rejected at startup")
	}
	if _, err := New(cat, classifier, scorer, overrides, append(cat.Models(), "phantom"), logger); err == nil {
		t.Error("roster entry outside the catalog must be rejected at startup")
	}
}

func TestDecideIsIdempotent(t *testing.T) {
	eng := testEngine(t, nil)
	prompt := "Fix this bug: TypeError: cannot read property 'length' of undefined"

	first, err := eng.Decide(context.Background(), prompt, nil)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		again, err := eng.Decide(context.Background(), prompt, nil)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		againJSON, err := json.Marshal(again)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(firstJSON, againJSON) {
			t.Fatalf("decision changed between identical calls:\n%s\n%s", firstJSON, againJSON)
		}
	}
}

func TestDecideScoredPath(t *testing.T) {
	eng := testEngine(t, nil)

	decision, err := eng.Decide(context.Background(), "Fix this bug: panic: runtime error: invalid memory address", nil)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if decision.Source != types.DecisionSourceScored {
		t.Errorf("source = %s, want scored", decision.Source)
	}
	if decision.Category != types.CategoryDebug {
		t.Errorf("category = %s, want debug", decision.Category)
	}
	if decision.ChosenModel != "claude-3-5-sonnet" {
		t.Errorf("chosen = %s, want claude-3-5-sonnet", decision.ChosenModel)
	}
	if decision.Explanation == "" {
		t.Error("explanation must not be empty")
	}
}

func TestDecideLowConfidenceUsesSafeDefault(t *testing.T) {
	classifier := &stubClassifier{cls: &types.Classification{
		Category:   types.CategoryCreative,
		Confidence: 0.4,
		Band:       types.BandLow,
		Source:     "llm",
	}}
	eng := testEngine(t, classifier)

	decision, err := eng.Decide(context.Background(), "mmph", nil)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if decision.ChosenModel != "gpt-4o" {
		t.Errorf("chosen = %s, want safe default gpt-4o", decision.ChosenModel)
	}
	if decision.Confidence != 0 {
		t.Errorf("confidence = %.2f, want 0", decision.Confidence)
	}
	if decision.Source != types.DecisionSourceFallback {
		t.Errorf("source = %s, want fallback", decision.Source)
	}
	// The category survives for transparency even though it was not trusted.
	if decision.Category != types.CategoryCreative {
		t.Errorf("category = %s, want creative", decision.Category)
	}
}

func TestDecideClassifierErrorUsesSafeDefault(t *testing.T) {
	eng := testEngine(t, &stubClassifier{err: errors.New("upstream down")})

	decision, err := eng.Decide(context.Background(), "hello there", nil)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.ChosenModel != "gpt-4o" || decision.Source != types.DecisionSourceFallback {
		t.Errorf("classifier failure should land on the safe default, got %+v", decision)
	}
}

func TestDecideOverrideBeatsScoring(t *testing.T) {
	eng := testEngine(t, nil)

	att := &types.AttachmentContext{ImageCount: 1}
	decision, err := eng.Decide(context.Background(), "what is in this picture?", att)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if decision.Source != types.DecisionSourceOverride {
		t.Errorf("source = %s, want override", decision.Source)
	}
	if decision.ChosenModel != "gpt-4o-mini" {
		t.Errorf("chosen = %s, want gpt-4o-mini", decision.ChosenModel)
	}
}

func TestExplain(t *testing.T) {
	eng := testEngine(t, nil)

	result, err := eng.Explain(context.Background(), "compare redis and memcached for caching", "claude-3-haiku")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if result.ModelID != "claude-3-haiku" {
		t.Errorf("model = %s, want claude-3-haiku", result.ModelID)
	}
	if len(result.KeyFactors) == 0 {
		t.Error("expected key factors in the breakdown")
	}

	if _, err := eng.Explain(context.Background(), "anything", "phantom-model"); err == nil {
		t.Error("expected error for a model outside the roster")
	}
}
