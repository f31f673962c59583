package override

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/classify"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// Config holds the override layer thresholds. Like the scoring deltas,
// these are calibration values surfaced through configuration.
type Config struct {
	// Combined prompt+attachment character volume under which an image
	// request counts as simple.
	SimpleVisionMaxChars int `yaml:"simple_vision_max_chars"`
	// Image count above which a request is no longer simple.
	SimpleVisionMaxImages int `yaml:"simple_vision_max_images"`
	// Total attached text size that forces deep-reasoning escalation.
	EscalationCharThreshold int `yaml:"escalation_char_threshold"`
}

// DefaultConfig returns the shipped thresholds.
func DefaultConfig() Config {
	return Config{
		SimpleVisionMaxChars:    1200,
		SimpleVisionMaxImages:   2,
		EscalationCharThreshold: 8000,
	}
}

// Rule is one (predicate, effect) entry of the override table. A nil
// decision means the rule does not apply and evaluation continues.
type Rule struct {
	Name     string
	Evaluate func(prompt string, att *types.AttachmentContext) *types.RoutingDecision
}

// Layer evaluates the hard attachment rules before any scoring result is
// trusted. Overrides are absolute: a firing rule is never weighed
// against the scored ranking.
type Layer struct {
	catalog *catalog.Catalog
	config  Config
	logger  *logrus.Logger
	rules   []Rule
}

// NewLayer builds the override layer with its ordered rule table.
func NewLayer(cat *catalog.Catalog, config Config, logger *logrus.Logger) *Layer {
	l := &Layer{
		catalog: cat,
		config:  config,
		logger:  logger,
	}
	l.rules = []Rule{
		{Name: "image_attachments", Evaluate: l.imageRule},
		{Name: "uploaded_files", Evaluate: l.uploadedFilesRule},
	}
	return l
}

// Evaluate runs the rules in precedence order. A nil result means no
// override applies and the scored path decides. Code-looking prompts
// without attachments deliberately fall through: category routing may
// still pick a lightweight model for them.
func (l *Layer) Evaluate(prompt string, att *types.AttachmentContext) *types.RoutingDecision {
	if att.Empty() {
		if att != nil && (att.PromptLooksCode || classify.LooksCode(prompt)) {
			l.logger.Debug("Code-related prompt without attachments, deferring to scored routing")
		}
		return nil
	}

	for _, rule := range l.rules {
		if decision := rule.Evaluate(prompt, att); decision != nil {
			l.logger.WithFields(logrus.Fields{
				"rule":     rule.Name,
				"model":    decision.ChosenModel,
				"category": decision.Category,
			}).Info("Attachment override applied")
			return decision
		}
	}
	return nil
}

// imageRule forces the vision family whenever an image is attached. The
// lightweight variant serves simple requests, the heavy variant the rest.
func (l *Layer) imageRule(prompt string, att *types.AttachmentContext) *types.RoutingDecision {
	if !att.HasImages() {
		return nil
	}

	roles := l.catalog.Roles()
	volume := len(strings.TrimSpace(prompt)) + att.TotalTextChars
	simple := volume < l.config.SimpleVisionMaxChars &&
		att.ImageCount <= l.config.SimpleVisionMaxImages &&
		!classify.LooksComplex(prompt)

	model := roles.VisionHeavy
	confidence := 0.90
	variant := "higher-capability"
	if simple {
		model = roles.VisionLight
		confidence = 0.92
		variant = "lightweight"
	}

	return &types.RoutingDecision{
		Intent:      "image_request",
		Category:    types.CategoryVision,
		ChosenModel: model,
		Confidence:  confidence,
		Explanation: l.describeAttachments(att, fmt.Sprintf("routed to the %s vision model", variant)),
		Source:      types.DecisionSourceOverride,
	}
}

// uploadedFilesRule keeps uploaded-file requests off the cheapest tier
// and escalates to the deep-reasoning model when the independent
// complexity check fires.
func (l *Layer) uploadedFilesRule(prompt string, att *types.AttachmentContext) *types.RoutingDecision {
	if !att.HasTextFiles() {
		return nil
	}

	roles := l.catalog.Roles()
	escalate := classify.LooksComplex(prompt) || att.TotalTextChars > l.config.EscalationCharThreshold

	if escalate {
		return &types.RoutingDecision{
			Intent:      "complex_file_work",
			Category:    types.CategoryComplex,
			ChosenModel: roles.DeepReasoning,
			Confidence:  0.88,
			Explanation: l.describeAttachments(att, "escalated to the deep-reasoning model for cross-file or architecture-scale work"),
			Source:      types.DecisionSourceOverride,
		}
	}

	return &types.RoutingDecision{
		Intent:      "file_review",
		Category:    fileCategory(att),
		ChosenModel: roles.Workhorse,
		Confidence:  0.85,
		Explanation: l.describeAttachments(att, "routed to the workhorse model used for uploaded files"),
		Source:      types.DecisionSourceOverride,
	}
}

// fileCategory infers a category from attachment gists so the decision
// stays informative even though scoring never ran.
func fileCategory(att *types.AttachmentContext) types.TaskCategory {
	for _, g := range att.Gists {
		if g.Kind == "code" {
			return types.CategoryCodeGen
		}
	}
	return types.CategoryAnalysis
}

// describeAttachments synthesizes the explanation from attachment
// metadata: kinds, counts, languages, and topics, never scoring data.
func (l *Layer) describeAttachments(att *types.AttachmentContext, action string) string {
	var parts []string
	if att.ImageCount > 0 {
		parts = append(parts, fmt.Sprintf("%d image(s)", att.ImageCount))
	}
	if att.TextFileCount > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) totaling %d characters", att.TextFileCount, att.TotalTextChars))
	}

	detail := ""
	if topics := gistSummary(att.Gists); topics != "" {
		detail = " covering " + topics
	}

	return fmt.Sprintf("Attached %s%s; %s.", strings.Join(parts, " and "), detail, action)
}

func gistSummary(gists []types.AttachmentGist) string {
	seen := make(map[string]bool)
	var topics []string
	for _, g := range gists {
		label := g.Topic
		if label == "" {
			label = g.Language
		}
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		topics = append(topics, label)
		if len(topics) == 3 {
			break
		}
	}
	return strings.Join(topics, ", ")
}
