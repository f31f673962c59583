package types

// TaskCategory is the closed set of request categories the engine routes on.
type TaskCategory string

const (
	CategoryGeneral   TaskCategory = "general"
	CategoryQA        TaskCategory = "qa"
	CategoryCodeGen   TaskCategory = "code_gen"
	CategoryDebug     TaskCategory = "debug"
	CategoryAnalysis  TaskCategory = "analysis"
	CategoryCreative  TaskCategory = "creative"
	CategorySummarize TaskCategory = "summarize"
	CategoryVision    TaskCategory = "vision"
	CategoryComplex   TaskCategory = "complex"
)

// Categories returns every routable task category.
func Categories() []TaskCategory {
	return []TaskCategory{
		CategoryGeneral,
		CategoryQA,
		CategoryCodeGen,
		CategoryDebug,
		CategoryAnalysis,
		CategoryCreative,
		CategorySummarize,
		CategoryVision,
		CategoryComplex,
	}
}

// IsValid reports whether the category belongs to the closed enumeration.
func (c TaskCategory) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Label returns the descriptive label used in rationale sentences.
func (c TaskCategory) Label() string {
	switch c {
	case CategoryGeneral:
		return "general assistance"
	case CategoryQA:
		return "quick question answering"
	case CategoryCodeGen:
		return "code generation"
	case CategoryDebug:
		return "debugging"
	case CategoryAnalysis:
		return "comparative analysis"
	case CategoryCreative:
		return "creative writing"
	case CategorySummarize:
		return "summarization"
	case CategoryVision:
		return "image understanding"
	case CategoryComplex:
		return "complex reasoning"
	default:
		return string(c)
	}
}

// StakesLevel captures how costly a wrong answer is for the requester.
type StakesLevel string

const (
	StakesLow    StakesLevel = "low"
	StakesMedium StakesLevel = "medium"
	StakesHigh   StakesLevel = "high"
)

// ConfidenceBand is the classifier's self-reported confidence bucket.
type ConfidenceBand string

const (
	BandLow    ConfidenceBand = "low"
	BandMedium ConfidenceBand = "medium"
	BandHigh   ConfidenceBand = "high"
)

// BandFromScore buckets a 0..1 confidence value into the closed band set.
func BandFromScore(v float64) ConfidenceBand {
	switch {
	case v >= 0.8:
		return BandHigh
	case v >= 0.5:
		return BandMedium
	default:
		return BandLow
	}
}

// Points converts a band into the 0-2 confidence calibration points.
func (b ConfidenceBand) Points() int {
	switch b {
	case BandHigh:
		return 2
	case BandMedium:
		return 1
	default:
		return 0
	}
}

// Signals holds the named boolean input signals extracted from a prompt.
type Signals struct {
	HasCode       bool `json:"has_code"`
	HasStackTrace bool `json:"has_stack_trace"`
	StrictFormat  bool `json:"strict_format"`
	Concise       bool `json:"concise"`
	LongForm      bool `json:"long_form"`
}

// Classification is the structured view of a request the scoring engine
// and override layer consume. Created once per request, never mutated.
type Classification struct {
	Category       TaskCategory   `json:"category"`
	Stakes         StakesLevel    `json:"stakes"`
	Signals        Signals        `json:"signals"`
	NeedsRecency   bool           `json:"needs_recency"`
	Confidence     float64        `json:"confidence"` // 0..1 self-reported
	Band           ConfidenceBand `json:"band"`
	CandidateModel string         `json:"candidate_model,omitempty"` // external classifier suggestion
	Rationale      string         `json:"rationale,omitempty"`
	Source         string         `json:"source"` // "heuristic" or "llm"
}

// AttachmentGist is the short structured summary the attachment pipeline
// produces per uploaded file.
type AttachmentGist struct {
	Kind     string   `json:"kind"` // "image", "code", "text"
	Language string   `json:"language,omitempty"`
	Topic    string   `json:"topic,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// AttachmentContext describes uploaded content alongside a prompt. It is
// supplied by the ingestion pipeline and read-only inside the engine.
type AttachmentContext struct {
	ImageCount      int              `json:"image_count"`
	TextFileCount   int              `json:"text_file_count"`
	TotalTextChars  int              `json:"total_text_chars"`
	Filenames       []string         `json:"filenames,omitempty"`
	Gists           []AttachmentGist `json:"gists,omitempty"`
	PromptLooksCode bool             `json:"prompt_looks_code"`
}

// HasImages reports whether any image attachment is present.
func (a *AttachmentContext) HasImages() bool {
	return a != nil && a.ImageCount > 0
}

// HasTextFiles reports whether any text or code file is attached.
func (a *AttachmentContext) HasTextFiles() bool {
	return a != nil && a.TextFileCount > 0
}

// Empty reports whether the context carries no attachments at all.
func (a *AttachmentContext) Empty() bool {
	return a == nil || (a.ImageCount == 0 && a.TextFileCount == 0)
}
