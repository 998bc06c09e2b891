package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// artilleryReport is the shape written by `artillery run --output`.
type artilleryReport struct {
	Aggregate struct {
		Counters  map[string]int64            `json:"counters"`
		Summaries map[string]artillerySummary `json:"summaries"`
	} `json:"aggregate"`
}

type artillerySummary struct {
	Mean float64 `json:"mean"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
	Max  float64 `json:"max"`
}

// ParseArtillery normalizes an Artillery report. Failures are the non-2xx
// response codes plus transport-level errors.
func ParseArtillery(data []byte) (*Run, error) {
	var ar artilleryReport
	if err := json.Unmarshal(data, &ar); err != nil {
		return nil, fmt.Errorf("parsing artillery report: %w", err)
	}

	counters := ar.Aggregate.Counters
	requests := counters["http.requests"]
	if requests == 0 {
		return nil, ErrEmptyInput
	}

	var failures int64
	for name, count := range counters {
		if code, ok := strings.CutPrefix(name, "http.codes."); ok {
			if code >= "400" {
				failures += count
			}
			continue
		}
		if strings.HasPrefix(name, "errors.") {
			failures += count
		}
	}

	run := &Run{
		Source:    "artillery",
		Requests:  requests,
		Failures:  failures,
		ErrorRate: float64(failures) / float64(requests),
	}

	if rt, ok := ar.Aggregate.Summaries["http.response_time"]; ok {
		run.Latency = Latency{
			Avg: rt.Mean,
			P95: rt.P95,
			P99: rt.P99,
			Max: rt.Max,
		}
	}

	if vus, ok := counters["vusers.created"]; ok {
		run.MaxVUs = int(vus)
	}

	return run, nil
}
