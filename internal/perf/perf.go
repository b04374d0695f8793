// Package perf tracks per-query performance metrics: wall time, token
// usage, API and tool call counts. Each finished query appends one
// JSON line to a log file, which Stats aggregates for the stats
// command.
package perf

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogFileName is the append-only metrics log under the data directory.
const LogFileName = "performance_logs.jsonl"

// Metrics is one query's worth of counters. A Tracker's counter
// methods are safe for concurrent use; tool executions fan out.
type Metrics struct {
	StartTime        float64 `json:"start_time"`
	EndTime          float64 `json:"end_time"`
	DurationSeconds  float64 `json:"duration_seconds"`
	TotalTokens      int     `json:"total_tokens"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	APICalls         int     `json:"api_calls"`
	ToolCalls        int     `json:"tool_calls"`
	Errors           int     `json:"errors"`
	Query            string  `json:"query"`

	StartTimeISO      string `json:"start_time_iso"`
	EndTimeISO        string `json:"end_time_iso,omitempty"`
	DurationFormatted string `json:"duration_formatted"`
}

// Tracker accumulates metrics for a single query.
type Tracker struct {
	mu      sync.Mutex
	m       Metrics
	start   time.Time
	logPath string
	now     func() time.Time
}

// NewTracker starts tracking a query. dataDir is where the JSONL log
// lives; an empty dataDir disables persistence.
func NewTracker(dataDir, query string) *Tracker {
	t := &Tracker{now: time.Now}
	t.start = t.now()
	t.m = Metrics{
		StartTime:    float64(t.start.UnixNano()) / 1e9,
		StartTimeISO: t.start.Format("2006-01-02T15:04:05"),
		Query:        query,
	}
	if dataDir != "" {
		t.logPath = filepath.Join(dataDir, LogFileName)
	}
	return t
}

// AddTokens records token usage from one model response.
func (t *Tracker) AddTokens(prompt, completion int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.PromptTokens += prompt
	t.m.CompletionTokens += completion
	t.m.TotalTokens = t.m.PromptTokens + t.m.CompletionTokens
}

// AddAPICall increments the model call counter.
func (t *Tracker) AddAPICall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.APICalls++
}

// AddToolCall increments the tool call counter.
func (t *Tracker) AddToolCall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.ToolCalls++
}

// AddError increments the error counter.
func (t *Tracker) AddError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.Errors++
}

// Finish stamps the end time and computes the duration. Calling it
// more than once extends the duration to the latest call.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	end := t.now()
	t.m.EndTime = float64(end.UnixNano()) / 1e9
	t.m.EndTimeISO = end.Format("2006-01-02T15:04:05")
	t.m.DurationSeconds = end.Sub(t.start).Seconds()
	t.m.DurationFormatted = fmt.Sprintf("%.2fs", t.m.DurationSeconds)
}

// Metrics returns a snapshot of the current counters.
func (t *Tracker) Metrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m
}

// Save appends the metrics as one JSON line to the log file. It never
// fails the query: persistence problems are returned for logging and
// otherwise ignored.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.logPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(t.logPath), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}

	line, err := json.Marshal(t.m)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	f, err := os.OpenFile(t.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open metrics log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append metrics: %w", err)
	}
	return nil
}

// Stats aggregates recent queries from the metrics log.
type Stats struct {
	TotalQueries   int     `json:"total_queries"`
	AvgDuration    float64 `json:"avg_duration"`
	AvgTokens      float64 `json:"avg_tokens"`
	TotalAPICalls  int     `json:"total_api_calls"`
	TotalToolCalls int     `json:"total_tool_calls"`
	TotalErrors    int     `json:"total_errors"`
}

// ReadStats summarizes log entries from the last N days. Corrupt
// lines are skipped; a missing log file returns an error so the
// caller can tell the user nothing has been recorded yet.
func ReadStats(dataDir string, days int) (*Stats, error) {
	logPath := filepath.Join(dataDir, LogFileName)
	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no performance logs found")
		}
		return nil, fmt.Errorf("read performance logs: %w", err)
	}
	defer f.Close()

	cutoff := float64(time.Now().AddDate(0, 0, -days).UnixNano()) / 1e9

	stats := &Stats{}
	var durations, tokens float64

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var m Metrics
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			continue
		}
		if m.StartTime < cutoff {
			continue
		}
		stats.TotalQueries++
		durations += m.DurationSeconds
		tokens += float64(m.TotalTokens)
		stats.TotalAPICalls += m.APICalls
		stats.TotalToolCalls += m.ToolCalls
		stats.TotalErrors += m.Errors
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read performance logs: %w", err)
	}

	if stats.TotalQueries > 0 {
		stats.AvgDuration = durations / float64(stats.TotalQueries)
		stats.AvgTokens = tokens / float64(stats.TotalQueries)
	}
	return stats, nil
}
