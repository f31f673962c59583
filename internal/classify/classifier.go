package classify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// Classifier maps a prompt (plus optional attachment context) to a
// Classification. Both strategies satisfy the same contract so the
// scoring engine never knows which one produced its input.
type Classifier interface {
	Classify(ctx context.Context, prompt string, attachments *types.AttachmentContext) (*types.Classification, error)
	Name() string
}

// ConfidenceFloor is the classifier confidence below which the engine
// ignores the category and routes to the safe default.
const ConfidenceFloor = 0.5

// FallbackClassifier races the primary classifier against a timer and
// falls back to the secondary on timeout, error, or malformed output.
// The abandoned call is never retried.
type FallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	timeout  time.Duration
	logger   *logrus.Logger
}

// WithFallback wraps a primary classifier with a deterministic fallback.
func WithFallback(primary, fallback Classifier, timeout time.Duration, logger *logrus.Logger) *FallbackClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FallbackClassifier{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

// Name identifies the composite strategy.
func (f *FallbackClassifier) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

// Classify runs the primary classifier under a bounded deadline. The
// fallback path is pure and synchronous, so it cannot itself fail.
func (f *FallbackClassifier) Classify(ctx context.Context, prompt string, attachments *types.AttachmentContext) (*types.Classification, error) {
	raceCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	type outcome struct {
		c   *types.Classification
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		c, err := f.primary.Classify(raceCtx, prompt, attachments)
		ch <- outcome{c: c, err: err}
	}()

	select {
	case out := <-ch:
		if out.err == nil && out.c != nil {
			return out.c, nil
		}
		f.logger.WithFields(logrus.Fields{
			"classifier": f.primary.Name(),
			"error":      errString(out.err),
		}).Warn("Primary classifier failed, using deterministic fallback")
	case <-raceCtx.Done():
		f.logger.WithFields(logrus.Fields{
			"classifier": f.primary.Name(),
			"timeout_ms": f.timeout.Milliseconds(),
		}).Warn("Primary classifier timed out, using deterministic fallback")
	}

	return f.fallback.Classify(ctx, prompt, attachments)
}

func errString(err error) string {
	if err == nil {
		return "empty classification"
	}
	return err.Error()
}
