package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// Prompt-length boundaries for the concise/long-form signals, in characters.
const (
	conciseMaxChars  = 80
	longFormMinChars = 1200
)

var (
	stackTraceRe = regexp.MustCompile(`(?i)(\w+(Error|Exception)\b\s*:|Traceback \(most recent call last\)|panic:|goroutine \d+ \[|segmentation fault|\bat [\w$.]+\s*\()`)
	codeRe       = regexp.MustCompile("(?m)```|\\bfunc \\w+\\(|\\bdef \\w+\\(|\\bclass \\w+\\s*[({:]|=>\\s*[{(]|^\\s*(import|package|#include)\\b|</?[a-zA-Z]+>")
)

// keyword trigger tables, checked lowercase. Order matters: the first
// category with a hit wins, so the more specific intents come first.
var categoryTriggers = []struct {
	category types.TaskCategory
	words    []string
}{
	{types.CategoryComplex, []string{"architecture", "architectural", "refactor across", "system design", "design a system", "scalab", "distributed system", "migration plan", "cross-file"}},
	{types.CategoryDebug, []string{"fix this", "fix the", "debug", "bug", "broken", "not working", "stack trace", "crashes", "exception", "error:"}},
	{types.CategoryCodeGen, []string{"implement", "write a function", "write code", "refactor", "unit test", "code review", "api endpoint", "script", "snippet"}},
	{types.CategoryAnalysis, []string{"compare", "comparison", "versus", " vs ", "vs.", "analyze", "analyse", "evaluate", "trade-off", "tradeoff", "pros and cons", "which is better"}},
	{types.CategorySummarize, []string{"summarize", "summarise", "summary", "tl;dr", "tldr", "condense", "key points"}},
	{types.CategoryCreative, []string{"story", "poem", "blog post", "slogan", "tagline", "creative", "brainstorm", "song"}},
	{types.CategoryQA, []string{"what is", "what are", "how do", "how does", "why", "when", "who", "explain", "tell me", "?"}},
}

var highStakesWords = []string{"executive", "board", "public", "production", "legal", "compliance", "investor", "press release", "regulator"}

var mediumStakesWords = []string{"client", "customer", "stakeholder", "deadline", "important", "interview"}

var recencyWords = []string{"latest", "current", "recent", "today", "this week", "this month", "news", "up to date", "up-to-date"}

var strictFormatWords = []string{"json", "yaml", "csv", "xml", "markdown table", "as a table", "strict format", "schema", "bullet points", "numbered list"}

// Heuristic is the deterministic classification path: a pure keyword and
// regex pass with no failure mode. Unrecognized input yields a
// low-confidence general classification.
type Heuristic struct{}

// NewHeuristic returns the deterministic classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name identifies the strategy.
func (h *Heuristic) Name() string { return "heuristic" }

// Classify derives category, stakes, signals, and a rule-count-based
// confidence from the prompt text. It never returns an error.
func (h *Heuristic) Classify(_ context.Context, prompt string, attachments *types.AttachmentContext) (*types.Classification, error) {
	lower := strings.ToLower(prompt)
	fired := 0

	// Concise/LongForm are descriptive only: every prompt has a length,
	// so the length signals never count as recognition.
	signals := ExtractSignals(prompt, attachments)
	if signals.HasCode {
		fired++
	}
	if signals.HasStackTrace {
		fired++
	}
	if signals.StrictFormat {
		fired++
	}

	category := types.CategoryGeneral
	matched := false
	if signals.HasStackTrace {
		// Stack-trace tokens outrank every keyword table.
		category = types.CategoryDebug
		matched = true
		fired++
	} else {
		for _, entry := range categoryTriggers {
			if containsAny(lower, entry.words) {
				category = entry.category
				matched = true
				fired++
				break
			}
		}
	}

	stakes := detectStakes(lower)
	if stakes != types.StakesLow {
		fired++
	}

	needsRecency := containsAny(lower, recencyWords)
	if needsRecency {
		fired++
	}

	confidence := 0.5 + 0.1*float64(fired)
	if confidence > 0.95 {
		confidence = 0.95
	}
	if !matched && fired == 0 {
		// Nothing recognized: low-confidence default, which the engine
		// maps to the safe default model.
		confidence = 0.4
	}

	return &types.Classification{
		Category:     category,
		Stakes:       stakes,
		Signals:      signals,
		NeedsRecency: needsRecency,
		Confidence:   confidence,
		Band:         types.BandFromScore(confidence),
		Source:       "heuristic",
	}, nil
}

// ExtractSignals computes the boolean input signals. It is shared with
// the LLM path, which classifies category but does not report signals.
func ExtractSignals(prompt string, attachments *types.AttachmentContext) types.Signals {
	lower := strings.ToLower(prompt)
	trimmed := strings.TrimSpace(prompt)

	return types.Signals{
		HasCode:       codeRe.MatchString(prompt) || (attachments != nil && attachments.PromptLooksCode),
		HasStackTrace: stackTraceRe.MatchString(prompt),
		StrictFormat:  containsAny(lower, strictFormatWords),
		Concise:       len(trimmed) > 0 && len(trimmed) < conciseMaxChars,
		LongForm:      len(trimmed) >= longFormMinChars,
	}
}

// LooksCode reports whether the prompt text alone reads as code-related.
// The override layer uses this when no attachments are present.
func LooksCode(prompt string) bool {
	lower := strings.ToLower(prompt)
	return codeRe.MatchString(prompt) ||
		stackTraceRe.MatchString(prompt) ||
		containsAny(lower, []string{"function", "compile", "refactor", "implement", "debug", "unit test"})
}

// LooksComplex reports whether the prompt asks for architecture-scale or
// multi-step reasoning work. The override layer combines this with the
// attachment volume check to decide on escalation.
func LooksComplex(prompt string) bool {
	lower := strings.ToLower(prompt)
	return containsAny(lower, categoryTriggers[0].words) ||
		containsAny(lower, []string{"step by step plan", "multi-step", "in depth analysis", "deep dive", "comprehensive review"})
}

func detectStakes(lower string) types.StakesLevel {
	if containsAny(lower, highStakesWords) {
		return types.StakesHigh
	}
	if containsAny(lower, mediumStakesWords) {
		return types.StakesMedium
	}
	return types.StakesLow
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
