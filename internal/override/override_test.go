package override

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

func testLayer(t *testing.T) *Layer {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return NewLayer(catalog.Default(), DefaultConfig(), logger)
}

func TestNoAttachmentsFallsThrough(t *testing.T) {
	l := testLayer(t)

	if d := l.Evaluate("write a function that parses dates", nil); d != nil {
		t.Errorf("expected fall-through without attachments, got %+v", d)
	}

	// Code-looking prompt without attachments still defers to scoring.
	att := &types.AttachmentContext{PromptLooksCode: true}
	if d := l.Evaluate("refactor this loop", att); d != nil {
		t.Errorf("code prompt without attachments must not override, got %+v", d)
	}
}

func TestImageOverride(t *testing.T) {
	l := testLayer(t)

	t.Run("simple image request routes light", func(t *testing.T) {
		att := &types.AttachmentContext{ImageCount: 1}
		d := l.Evaluate("What does this chart show?", att)
		if d == nil {
			t.Fatal("expected an override decision")
		}
		if d.ChosenModel != "gpt-4o-mini" {
			t.Errorf("chosen = %s, want gpt-4o-mini", d.ChosenModel)
		}
		if d.Category != types.CategoryVision {
			t.Errorf("category = %s, want vision", d.Category)
		}
		if d.Source != types.DecisionSourceOverride {
			t.Errorf("source = %s, want override", d.Source)
		}
		if d.Confidence < 0.9 {
			t.Errorf("confidence = %.2f, want >= 0.9", d.Confidence)
		}
	})

	t.Run("complex image request routes heavy", func(t *testing.T) {
		att := &types.AttachmentContext{ImageCount: 1}
		d := l.Evaluate("Review the architecture in this diagram and propose a migration plan", att)
		if d == nil {
			t.Fatal("expected an override decision")
		}
		if d.ChosenModel != "gpt-4o" {
			t.Errorf("chosen = %s, want gpt-4o", d.ChosenModel)
		}
	})

	t.Run("many images route heavy", func(t *testing.T) {
		att := &types.AttachmentContext{ImageCount: 5}
		d := l.Evaluate("describe these", att)
		if d == nil || d.ChosenModel != "gpt-4o" {
			t.Errorf("five images should route heavy, got %+v", d)
		}
	})

	t.Run("images outrank files", func(t *testing.T) {
		att := &types.AttachmentContext{ImageCount: 1, TextFileCount: 2, TotalTextChars: 9000}
		d := l.Evaluate("look at this", att)
		if d == nil {
			t.Fatal("expected an override decision")
		}
		if d.Category != types.CategoryVision {
			t.Errorf("image rule must take precedence, got category %s", d.Category)
		}
	})
}

func TestUploadedFilesOverride(t *testing.T) {
	l := testLayer(t)

	t.Run("plain file review routes to workhorse", func(t *testing.T) {
		att := &types.AttachmentContext{
			TextFileCount:  1,
			TotalTextChars: 3000,
			Gists:          []types.AttachmentGist{{Kind: "code", Language: "go", Topic: "http handler"}},
		}
		d := l.Evaluate("any issues in this file?", att)
		if d == nil {
			t.Fatal("expected an override decision")
		}
		if d.ChosenModel != "claude-3-5-sonnet" {
			t.Errorf("chosen = %s, want claude-3-5-sonnet", d.ChosenModel)
		}
		if d.ChosenModel == "claude-3-haiku" || d.ChosenModel == "gpt-4o-mini" {
			t.Error("uploaded files must never land on the cheapest tier")
		}
	})

	t.Run("large volume escalates to deep reasoning", func(t *testing.T) {
		att := &types.AttachmentContext{TextFileCount: 4, TotalTextChars: 15000}
		d := l.Evaluate("look through these", att)
		if d == nil {
			t.Fatal("expected an override decision")
		}
		if d.ChosenModel != "claude-3-opus" {
			t.Errorf("chosen = %s, want claude-3-opus", d.ChosenModel)
		}
		if d.Category != types.CategoryComplex {
			t.Errorf("category = %s, want complex", d.Category)
		}
	})

	t.Run("complex prompt escalates regardless of volume", func(t *testing.T) {
		att := &types.AttachmentContext{TextFileCount: 2, TotalTextChars: 4000}
		d := l.Evaluate("Identify architectural problems and cross-file inconsistencies", att)
		if d == nil || d.ChosenModel != "claude-3-opus" {
			t.Errorf("complexity cue should escalate, got %+v", d)
		}
	})
}

func TestOverrideExplanationsUseMetadataOnly(t *testing.T) {
	l := testLayer(t)

	att := &types.AttachmentContext{
		TextFileCount:  2,
		TotalTextChars: 5000,
		Gists: []types.AttachmentGist{
			{Kind: "code", Language: "python", Topic: "etl pipeline"},
			{Kind: "text", Topic: "etl pipeline"},
		},
	}
	d := l.Evaluate("review these", att)
	if d == nil {
		t.Fatal("expected an override decision")
	}

	if !strings.Contains(d.Explanation, "2 file(s)") {
		t.Errorf("explanation should mention file count: %q", d.Explanation)
	}
	if !strings.Contains(d.Explanation, "etl pipeline") {
		t.Errorf("explanation should surface gist topics: %q", d.Explanation)
	}
	if strings.Count(d.Explanation, "etl pipeline") != 1 {
		t.Errorf("duplicate topics should be deduplicated: %q", d.Explanation)
	}
}
