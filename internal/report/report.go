// Package report turns load-test result files (K6 summary exports and
// Artillery report JSON) into a consolidated performance report with
// pass/fail threshold evaluation.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownFormat indicates the input matched neither supported tool.
	ErrUnknownFormat = errors.New("unrecognized result format")
	// ErrEmptyInput indicates a result file with no samples.
	ErrEmptyInput = errors.New("result contains no requests")
)

// Latency summarizes response times in milliseconds.
type Latency struct {
	Avg float64 `json:"avg_ms"`
	P95 float64 `json:"p95_ms"`
	P99 float64 `json:"p99_ms"`
	Max float64 `json:"max_ms"`
}

// Run is the normalized result of one load-test execution.
type Run struct {
	Source    string  `json:"source"` // "k6" or "artillery"
	Requests  int64   `json:"requests"`
	Failures  int64   `json:"failures"`
	ErrorRate float64 `json:"error_rate"` // 0..1
	Latency   Latency `json:"latency"`
	MaxVUs    int     `json:"max_vus,omitempty"`
}

// Thresholds are the limits a run must stay under to pass. Zero values
// disable the corresponding check.
type Thresholds struct {
	MaxErrorRate float64 `json:"max_error_rate,omitempty"`
	MaxP95       float64 `json:"max_p95_ms,omitempty"`
	MaxP99       float64 `json:"max_p99_ms,omitempty"`
}

// Report is the consolidated output across all parsed runs.
type Report struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Runs        []Run      `json:"runs"`
	Combined    Run        `json:"combined"`
	Thresholds  Thresholds `json:"thresholds"`
	Passed      bool       `json:"passed"`
	Violations  []string   `json:"violations,omitempty"`
}

// Parse detects the tool that produced the data and normalizes it.
func Parse(data []byte) (*Run, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	if _, ok := probe["metrics"]; ok {
		return ParseK6(data)
	}
	if _, ok := probe["aggregate"]; ok {
		return ParseArtillery(data)
	}
	return nil, ErrUnknownFormat
}

// Build consolidates runs and evaluates them against the thresholds.
func Build(runs []Run, th Thresholds) *Report {
	rep := &Report{
		GeneratedAt: time.Now(),
		Runs:        runs,
		Combined:    combine(runs),
		Thresholds:  th,
		Passed:      true,
	}

	c := rep.Combined
	if th.MaxErrorRate > 0 && c.ErrorRate > th.MaxErrorRate {
		rep.fail(fmt.Sprintf("error rate %.2f%% exceeds %.2f%%", c.ErrorRate*100, th.MaxErrorRate*100))
	}
	if th.MaxP95 > 0 && c.Latency.P95 > th.MaxP95 {
		rep.fail(fmt.Sprintf("p95 latency %.1fms exceeds %.1fms", c.Latency.P95, th.MaxP95))
	}
	if th.MaxP99 > 0 && c.Latency.P99 > th.MaxP99 {
		rep.fail(fmt.Sprintf("p99 latency %.1fms exceeds %.1fms", c.Latency.P99, th.MaxP99))
	}
	return rep
}

func (r *Report) fail(msg string) {
	r.Passed = false
	r.Violations = append(r.Violations, msg)
}

// combine merges runs: counts add up, the error rate is request-weighted,
// and percentiles take the worst run.
func combine(runs []Run) Run {
	c := Run{Source: "combined"}
	var weightedAvg float64
	for _, r := range runs {
		c.Requests += r.Requests
		c.Failures += r.Failures
		weightedAvg += r.Latency.Avg * float64(r.Requests)
		if r.Latency.P95 > c.Latency.P95 {
			c.Latency.P95 = r.Latency.P95
		}
		if r.Latency.P99 > c.Latency.P99 {
			c.Latency.P99 = r.Latency.P99
		}
		if r.Latency.Max > c.Latency.Max {
			c.Latency.Max = r.Latency.Max
		}
		if r.MaxVUs > c.MaxVUs {
			c.MaxVUs = r.MaxVUs
		}
	}
	if c.Requests > 0 {
		c.ErrorRate = float64(c.Failures) / float64(c.Requests)
		c.Latency.Avg = weightedAvg / float64(c.Requests)
	}
	return c
}
