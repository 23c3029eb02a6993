package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput records entries for assertions.
type captureOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (c *captureOutput) Write(e LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureOutput) Sync() error  { return nil }
func (c *captureOutput) Close() error { return nil }

func TestLoggerSeverityFilter(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{out}})

	ctx := context.Background()
	logger.Debug(ctx, "dropped")
	logger.Info(ctx, "dropped")
	logger.Warn(ctx, "kept")
	logger.Error(ctx, "kept too")

	require.Len(t, out.entries, 2)
	assert.Equal(t, WARN, out.entries[0].Severity)
	assert.Equal(t, "kept", out.entries[0].Message)
	assert.Equal(t, ERROR, out.entries[1].Severity)
}

func TestLoggerContextFields(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})

	ctx := WithGeneration(WithRunID(context.Background(), "run-42"), 3)
	logger.Info(ctx, "accepted %d proposals", 7)

	require.Len(t, out.entries, 1)
	entry := out.entries[0]
	assert.Equal(t, "run-42", entry.RunID)
	assert.Equal(t, 3, entry.Generation)
	assert.Equal(t, "accepted 7 proposals", entry.Message)
	assert.True(t, strings.HasSuffix(entry.File, ".go"))
}

func TestLoggerDefaultFields(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{
		Severity:      INFO,
		Outputs:       []Output{out},
		DefaultFields: map[string]interface{}{"sampler": "ABC-SMC"},
	})

	logger.Info(context.Background(), "starting")
	require.Len(t, out.entries, 1)
	assert.Equal(t, "ABC-SMC", out.entries[0].Fields["sampler"])

	// No generation attached: sentinel stays -1.
	assert.Equal(t, -1, out.entries[0].Generation)
}

func TestGenerationDone(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: INFO, Outputs: []Output{out}})

	stats := &RunInfo{Proposed: 40, Accepted: 20}
	logger.GenerationDone(context.Background(), 1, 4.0, stats)

	require.Len(t, out.entries, 1)
	entry := out.entries[0]
	assert.Contains(t, entry.Message, "generation 1 complete")
	assert.Contains(t, entry.Message, "50.00% accepted")

	// Threshold and stats travel as structured fields, not just message text.
	assert.Equal(t, 1, entry.Generation)
	assert.Equal(t, 4.0, entry.Threshold)
	require.NotNil(t, entry.RunStats)
	assert.Equal(t, 40, entry.RunStats.Proposed)
	assert.Equal(t, 20, entry.RunStats.Accepted)
}

func TestFileOutputCarriesGenerationFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	out, err := NewFileOutput(path)
	require.NoError(t, err)

	logger := NewLogger(Config{Severity: INFO, Outputs: []Output{out}})
	logger.GenerationDone(WithRunID(context.Background(), "run-7"), 2, 4.5,
		&RunInfo{Proposed: 10, Accepted: 5})
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		RunID      string   `json:"run_id"`
		Generation *int     `json:"generation"`
		Threshold  *float64 `json:"threshold"`
		Stats      *struct {
			Proposed int `json:"proposed"`
			Accepted int `json:"accepted"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "run-7", decoded.RunID)
	require.NotNil(t, decoded.Generation)
	assert.Equal(t, 2, *decoded.Generation)
	require.NotNil(t, decoded.Threshold)
	assert.Equal(t, 4.5, *decoded.Threshold)
	require.NotNil(t, decoded.Stats)
	assert.Equal(t, 10, decoded.Stats.Proposed)
	assert.Equal(t, 5, decoded.Stats.Accepted)
}

func TestRunInfoAcceptanceRate(t *testing.T) {
	assert.Equal(t, 0.0, (&RunInfo{}).AcceptanceRate())
	assert.InDelta(t, 0.25, (&RunInfo{Proposed: 8, Accepted: 2}).AcceptanceRate(), 1e-12)
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, DEBUG, ParseSeverity("DEBUG"))
	assert.Equal(t, FATAL, ParseSeverity("FATAL"))
	assert.Equal(t, INFO, ParseSeverity("bogus"))
}
