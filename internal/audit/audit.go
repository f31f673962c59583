package audit

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// Config holds decision trail configuration.
type Config struct {
	Enabled       bool          `yaml:"enabled"`
	BufferSize    int           `yaml:"buffer_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Record is one entry of the decision trail. It captures what was
// decided and why, never the prompt text itself.
type Record struct {
	RequestID  string             `json:"request_id"`
	Timestamp  time.Time          `json:"timestamp"`
	Category   types.TaskCategory `json:"category"`
	Model      string             `json:"model"`
	Confidence float64            `json:"confidence"`
	Source     string             `json:"source"`
	CallerID   string             `json:"caller_id,omitempty"`
	LatencyMS  int64              `json:"latency_ms"`
}

// Trail buffers decision records and writes them out on a background
// goroutine so the request path never blocks on audit I/O.
type Trail struct {
	config *Config
	logger *logrus.Logger
	buffer chan *Record

	mu      sync.Mutex
	dropped int64
	stopped bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewTrail creates a decision trail. When disabled, Record is a no-op.
func NewTrail(config *Config, logger *logrus.Logger) *Trail {
	if config.BufferSize == 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = 10 * time.Second
	}

	t := &Trail{
		config: config,
		logger: logger,
		buffer: make(chan *Record, config.BufferSize),
		stop:   make(chan struct{}),
	}
	if config.Enabled {
		t.wg.Add(1)
		go t.drain()
	}
	return t
}

// Record enqueues one decision. The record is dropped, with a counter,
// when the buffer is full.
func (t *Trail) Record(rec *Record) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	select {
	case t.buffer <- rec:
	default:
		t.mu.Lock()
		t.dropped++
		t.mu.Unlock()
		t.logger.Warn("Decision trail buffer full, dropping record")
	}
}

// Dropped reports how many records were lost to backpressure.
func (t *Trail) Dropped() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Stop flushes remaining records and terminates the writer goroutine.
func (t *Trail) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	if t.config.Enabled {
		close(t.stop)
		t.wg.Wait()
	}
}

func (t *Trail) drain() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case rec := <-t.buffer:
			t.write(rec)
		case <-ticker.C:
			t.flush()
		case <-t.stop:
			t.flush()
			return
		}
	}
}

func (t *Trail) flush() {
	for {
		select {
		case rec := <-t.buffer:
			t.write(rec)
		default:
			return
		}
	}
}

func (t *Trail) write(rec *Record) {
	t.logger.WithFields(logrus.Fields{
		"audit":      true,
		"request_id": rec.RequestID,
		"category":   rec.Category,
		"model":      rec.Model,
		"confidence": rec.Confidence,
		"source":     rec.Source,
		"caller_id":  rec.CallerID,
		"latency_ms": rec.LatencyMS,
	}).Info("Decision recorded")
}
