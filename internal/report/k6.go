package report

import (
	"encoding/json"
	"fmt"
	"math"
)

// k6Summary is the shape written by `k6 run --summary-export`.
type k6Summary struct {
	Metrics map[string]k6Metric `json:"metrics"`
}

type k6Metric struct {
	Count  float64 `json:"count"`
	Value  float64 `json:"value"`
	Avg    float64 `json:"avg"`
	Max    float64 `json:"max"`
	P90    float64 `json:"p(90)"`
	P95    float64 `json:"p(95)"`
	P99    float64 `json:"p(99)"`
	Passes float64 `json:"passes"`
	Fails  float64 `json:"fails"`
}

// ParseK6 normalizes a K6 summary export. Durations are already in
// milliseconds. The p99 falls back to max when the export was not
// configured with a p(99) trend stat.
func ParseK6(data []byte) (*Run, error) {
	var summary k6Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parsing k6 summary: %w", err)
	}

	reqs, ok := summary.Metrics["http_reqs"]
	if !ok || reqs.Count == 0 {
		return nil, ErrEmptyInput
	}

	run := &Run{
		Source:   "k6",
		Requests: int64(reqs.Count),
	}

	if failed, ok := summary.Metrics["http_req_failed"]; ok {
		// Rate metric: value is the failure fraction, passes counts the
		// failed requests.
		run.ErrorRate = failed.Value
		run.Failures = int64(math.Round(failed.Value * reqs.Count))
	}

	if dur, ok := summary.Metrics["http_req_duration"]; ok {
		run.Latency = Latency{
			Avg: dur.Avg,
			P95: dur.P95,
			P99: dur.P99,
			Max: dur.Max,
		}
		if run.Latency.P99 == 0 {
			run.Latency.P99 = dur.Max
		}
	}

	if vus, ok := summary.Metrics["vus_max"]; ok {
		run.MaxVUs = int(vus.Value)
	}

	return run, nil
}
