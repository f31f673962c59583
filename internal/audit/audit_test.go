package audit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

func TestTrailWritesRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	trail := NewTrail(&Config{Enabled: true, BufferSize: 10, FlushInterval: 10 * time.Millisecond}, logger)

	trail.Record(&Record{
		RequestID:  "req-1",
		Category:   types.CategoryDebug,
		Model:      "claude-3-5-sonnet",
		Confidence: 0.9,
		Source:     types.DecisionSourceScored,
		LatencyMS:  3,
	})
	trail.Stop()

	out := buf.String()
	require.NotEmpty(t, out)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.SplitN(out, "\n", 2)[0]), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "claude-3-5-sonnet", entry["model"])
	assert.Equal(t, "scored", entry["source"])
	assert.Equal(t, true, entry["audit"])
}

func TestTrailDisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	trail := NewTrail(&Config{Enabled: false}, logger)
	trail.Record(&Record{RequestID: "req-1"})
	trail.Stop()

	assert.Empty(t, buf.String())
	assert.Zero(t, trail.Dropped())
}

// slowWriter stalls each log write so the drain goroutine falls behind.
type slowWriter struct{}

func (slowWriter) Write(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return len(p), nil
}

func TestTrailCountsDrops(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(slowWriter{})

	trail := NewTrail(&Config{Enabled: true, BufferSize: 1, FlushInterval: time.Hour}, logger)
	defer trail.Stop()

	for i := 0; i < 100; i++ {
		trail.Record(&Record{RequestID: "req"})
	}
	assert.Greater(t, trail.Dropped(), int64(0))
}

func TestRecordAfterStopIsIgnored(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	trail := NewTrail(&Config{Enabled: true}, logger)
	trail.Stop()
	trail.Record(&Record{RequestID: "late"})
	trail.Stop()
}
