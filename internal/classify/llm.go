package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

const classifierSystemPrompt = `You are a routing classifier for an LLM gateway.
Classify the user request into exactly one category and optionally suggest a model.
Return ONLY JSON, no prose: {"category":"...","candidate_model":"...","confidence":0.0,"rationale":"..."}.
Confidence is your own certainty in [0,1].`

// LLMClassifier is the external classification path: a bounded call to a
// cheap reasoning model that returns structured category data. Signals
// and stakes still come from the deterministic pass, because the external
// contract only covers category, candidate, confidence, and rationale.
type LLMClassifier struct {
	backend Backend
	model   string
	catalog *catalog.Catalog
	logger  *logrus.Logger
}

// NewLLMClassifier builds the external classifier. The model is expected
// to be the catalog's designated (cheapest-tier) classifier model.
func NewLLMClassifier(backend Backend, model string, cat *catalog.Catalog, logger *logrus.Logger) *LLMClassifier {
	return &LLMClassifier{
		backend: backend,
		model:   model,
		catalog: cat,
		logger:  logger,
	}
}

// Name identifies the strategy and its backend.
func (l *LLMClassifier) Name() string { return "llm/" + l.backend.Name() }

// Classify asks the backend for a category and validates the structured
// reply. Malformed output is returned as an error so the fallback
// wrapper can recover deterministically.
func (l *LLMClassifier) Classify(ctx context.Context, prompt string, attachments *types.AttachmentContext) (*types.Classification, error) {
	raw, err := l.backend.Complete(ctx, l.model, classifierSystemPrompt, l.buildPrompt(prompt))
	if err != nil {
		return nil, fmt.Errorf("classifier call failed: %w", err)
	}

	pick, err := parseClassifierReply(raw)
	if err != nil {
		return nil, fmt.Errorf("classifier reply invalid: %w", err)
	}

	category := types.TaskCategory(pick.Category)
	if !category.IsValid() {
		return nil, fmt.Errorf("classifier returned unknown category %q", pick.Category)
	}

	// A candidate outside the roster is ignored, not an error: the
	// scored path decides on its own.
	candidate := pick.CandidateModel
	if candidate != "" && !l.catalog.Has(candidate) {
		l.logger.WithField("candidate", candidate).Debug("Classifier suggested model outside roster, dropping")
		candidate = ""
	}

	lower := strings.ToLower(prompt)
	cls := &types.Classification{
		Category:       category,
		Stakes:         detectStakes(lower),
		Signals:        ExtractSignals(prompt, attachments),
		NeedsRecency:   containsAny(lower, recencyWords),
		Confidence:     pick.Confidence,
		Band:           types.BandFromScore(pick.Confidence),
		CandidateModel: candidate,
		Rationale:      pick.Rationale,
		Source:         "llm",
	}

	l.logger.WithFields(logrus.Fields{
		"category":   cls.Category,
		"confidence": cls.Confidence,
		"candidate":  candidate,
		"backend":    l.backend.Name(),
	}).Debug("External classification completed")

	return cls, nil
}

func (l *LLMClassifier) buildPrompt(userPrompt string) string {
	var sb strings.Builder
	sb.WriteString("Categories:\n")
	for _, cat := range types.Categories() {
		sb.WriteString("- ")
		sb.WriteString(string(cat))
		sb.WriteString(": ")
		sb.WriteString(cat.Label())
		sb.WriteString("\n")
	}
	sb.WriteString("\nAvailable models: ")
	sb.WriteString(strings.Join(l.catalog.Models(), ", "))
	sb.WriteString("\n\nUser request:\n")
	sb.WriteString(userPrompt)
	return sb.String()
}

type classifierReply struct {
	Category       string  `json:"category"`
	CandidateModel string  `json:"candidate_model"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale"`
}

// parseClassifierReply tolerates markdown fences around the JSON body
// but nothing else.
func parseClassifierReply(content string) (*classifierReply, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var reply classifierReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, err
	}
	if reply.Category == "" {
		return nil, fmt.Errorf("missing category")
	}
	if reply.Confidence < 0 || reply.Confidence > 1 {
		return nil, fmt.Errorf("confidence %.2f out of range", reply.Confidence)
	}
	return &reply, nil
}
