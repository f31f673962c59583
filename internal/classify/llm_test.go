package classify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

type stubBackend struct {
	reply string
	err   error
	delay time.Duration
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Complete(ctx context.Context, model, system, prompt string) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestParseClassifierReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"category":"debug","confidence":0.9,"rationale":"stack trace"}`,
		},
		{
			name:    "fenced json",
			content: "```json\n{\"category\":\"qa\",\"confidence\":0.8}\n```",
		},
		{
			name:    "missing category",
			content: `{"confidence":0.8}`,
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			content: `{"category":"qa","confidence":1.4}`,
			wantErr: true,
		},
		{
			name:    "prose instead of json",
			content: "This looks like a debugging request.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseClassifierReply(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLLMClassifierValidatesReply(t *testing.T) {
	cat := catalog.Default()

	t.Run("valid reply merges deterministic signals", func(t *testing.T) {
		backend := &stubBackend{reply: `{"category":"debug","candidate_model":"claude-3-5-sonnet","confidence":0.85,"rationale":"error report"}`}
		c := NewLLMClassifier(backend, "claude-3-haiku", cat, testLogger())

		cls, err := c.Classify(context.Background(), "panic: nil pointer dereference in the exporter", nil)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Category != types.CategoryDebug {
			t.Errorf("category = %s, want debug", cls.Category)
		}
		if cls.CandidateModel != "claude-3-5-sonnet" {
			t.Errorf("candidate = %s", cls.CandidateModel)
		}
		if !cls.Signals.HasStackTrace {
			t.Error("deterministic stack trace signal should be merged in")
		}
		if cls.Band != types.BandHigh {
			t.Errorf("band = %s, want high", cls.Band)
		}
	})

	t.Run("unknown category is an error", func(t *testing.T) {
		backend := &stubBackend{reply: `{"category":"poetry_review","confidence":0.9}`}
		c := NewLLMClassifier(backend, "claude-3-haiku", cat, testLogger())

		if _, err := c.Classify(context.Background(), "hello", nil); err == nil {
			t.Error("expected error for unknown category")
		}
	})

	t.Run("candidate outside roster is dropped", func(t *testing.T) {
		backend := &stubBackend{reply: `{"category":"qa","candidate_model":"gpt-99","confidence":0.8}`}
		c := NewLLMClassifier(backend, "claude-3-haiku", cat, testLogger())

		cls, err := c.Classify(context.Background(), "what is dns", nil)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.CandidateModel != "" {
			t.Errorf("non-roster candidate should be dropped, got %s", cls.CandidateModel)
		}
	})
}

func TestFallbackClassifier(t *testing.T) {
	cat := catalog.Default()
	fallback := NewHeuristic()

	t.Run("primary error falls back", func(t *testing.T) {
		backend := &stubBackend{err: fmt.Errorf("upstream 500")}
		primary := NewLLMClassifier(backend, "claude-3-haiku", cat, testLogger())
		c := WithFallback(primary, fallback, time.Second, testLogger())

		cls, err := c.Classify(context.Background(), "What is the capital of Peru?", nil)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Source != "heuristic" {
			t.Errorf("source = %s, want heuristic", cls.Source)
		}
		if cls.Category != types.CategoryQA {
			t.Errorf("category = %s, want qa", cls.Category)
		}
	})

	t.Run("primary timeout falls back without retry", func(t *testing.T) {
		backend := &stubBackend{reply: `{"category":"qa","confidence":0.9}`, delay: 500 * time.Millisecond}
		primary := NewLLMClassifier(backend, "claude-3-haiku", cat, testLogger())
		c := WithFallback(primary, fallback, 20*time.Millisecond, testLogger())

		start := time.Now()
		cls, err := c.Classify(context.Background(), "What is the capital of Peru?", nil)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Source != "heuristic" {
			t.Errorf("source = %s, want heuristic", cls.Source)
		}
		if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
			t.Errorf("fallback took %v, should not wait for the primary", elapsed)
		}
	})

	t.Run("primary success is used", func(t *testing.T) {
		backend := &stubBackend{reply: `{"category":"creative","confidence":0.9,"rationale":"story request"}`}
		primary := NewLLMClassifier(backend, "claude-3-haiku", cat, testLogger())
		c := WithFallback(primary, fallback, time.Second, testLogger())

		cls, err := c.Classify(context.Background(), "write a poem about rivers", nil)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Source != "llm" {
			t.Errorf("source = %s, want llm", cls.Source)
		}
		if cls.Category != types.CategoryCreative {
			t.Errorf("category = %s, want creative", cls.Category)
		}
	})
}
