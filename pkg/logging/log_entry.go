package logging

// LogEntry represents a structured log record with fields particularly
// relevant to sampler runs.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Sampler-specific fields
	RunID      string   // Identifier of the inference run
	Generation int      // Generation index, -1 when not applicable
	Threshold  float64  // Acceptance threshold in force
	RunStats   *RunInfo // Cumulative run statistics

	// General structured data
	Fields map[string]interface{}
}

// RunInfo tracks proposal throughput for acceptance-rate monitoring.
type RunInfo struct {
	Proposed int
	Accepted int
}

// AcceptanceRate returns the fraction of proposals accepted so far.
func (r *RunInfo) AcceptanceRate() float64 {
	if r.Proposed == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Proposed)
}
