package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const k6Sample = `{
  "metrics": {
    "http_reqs": {"count": 1200, "rate": 40.0},
    "http_req_duration": {"avg": 120.5, "min": 12.1, "med": 98.0, "max": 900.2, "p(90)": 310.0, "p(95)": 450.7},
    "http_req_failed": {"value": 0.015, "passes": 18, "fails": 1182},
    "vus_max": {"value": 50}
  }
}`

const artillerySample = `{
  "aggregate": {
    "counters": {
      "http.requests": 800,
      "http.codes.200": 770,
      "http.codes.500": 20,
      "errors.ETIMEDOUT": 10,
      "vusers.created": 40
    },
    "summaries": {
      "http.response_time": {"mean": 95.2, "p95": 380.4, "p99": 610.0, "max": 1200.0}
    }
  }
}`

func TestParseK6(t *testing.T) {
	run, err := ParseK6([]byte(k6Sample))
	require.NoError(t, err)
	require.Equal(t, "k6", run.Source)
	require.Equal(t, int64(1200), run.Requests)
	require.Equal(t, int64(18), run.Failures)
	require.InDelta(t, 0.015, run.ErrorRate, 0.0001)
	require.InDelta(t, 450.7, run.Latency.P95, 0.001)
	// No p(99) in the export: fall back to max.
	require.InDelta(t, 900.2, run.Latency.P99, 0.001)
	require.Equal(t, 50, run.MaxVUs)
}

func TestParseArtillery(t *testing.T) {
	run, err := ParseArtillery([]byte(artillerySample))
	require.NoError(t, err)
	require.Equal(t, "artillery", run.Source)
	require.Equal(t, int64(800), run.Requests)
	require.Equal(t, int64(30), run.Failures)
	require.InDelta(t, 0.0375, run.ErrorRate, 0.0001)
	require.InDelta(t, 610.0, run.Latency.P99, 0.001)
	require.Equal(t, 40, run.MaxVUs)
}

func TestParse_Detects(t *testing.T) {
	run, err := Parse([]byte(k6Sample))
	require.NoError(t, err)
	require.Equal(t, "k6", run.Source)

	run, err = Parse([]byte(artillerySample))
	require.NoError(t, err)
	require.Equal(t, "artillery", run.Source)

	_, err = Parse([]byte(`{"something": "else"}`))
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Parse([]byte(`not json`))
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParse_Empty(t *testing.T) {
	_, err := ParseK6([]byte(`{"metrics":{}}`))
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = ParseArtillery([]byte(`{"aggregate":{"counters":{}}}`))
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestBuild_CombinesAndEvaluates(t *testing.T) {
	k6Run, err := ParseK6([]byte(k6Sample))
	require.NoError(t, err)
	artRun, err := ParseArtillery([]byte(artillerySample))
	require.NoError(t, err)

	rep := Build([]Run{*k6Run, *artRun}, Thresholds{
		MaxErrorRate: 0.05,
		MaxP95:       500,
		MaxP99:       1000,
	})
	require.True(t, rep.Passed)
	require.Empty(t, rep.Violations)
	require.Equal(t, int64(2000), rep.Combined.Requests)
	require.Equal(t, int64(48), rep.Combined.Failures)
	// Percentiles take the worst run.
	require.InDelta(t, 450.7, rep.Combined.Latency.P95, 0.001)
	require.InDelta(t, 900.2, rep.Combined.Latency.P99, 0.001)
}

func TestBuild_FailsThresholds(t *testing.T) {
	run := Run{
		Source:    "k6",
		Requests:  100,
		Failures:  10,
		ErrorRate: 0.1,
		Latency:   Latency{Avg: 200, P95: 800, P99: 950, Max: 1500},
	}

	rep := Build([]Run{run}, Thresholds{MaxErrorRate: 0.05, MaxP95: 500})
	require.False(t, rep.Passed)
	require.Len(t, rep.Violations, 2)
}

func TestWriteFiles(t *testing.T) {
	run, err := ParseK6([]byte(k6Sample))
	require.NoError(t, err)
	rep := Build([]Run{*run}, Thresholds{MaxErrorRate: 0.05})

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteFiles(dir, rep))

	html, err := os.ReadFile(filepath.Join(dir, "report.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), "PASS")
	require.Contains(t, string(html), "1200")

	jsonData, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	require.Contains(t, string(jsonData), `"passed": true`)
}

func TestRenderHTML_ShowsViolations(t *testing.T) {
	rep := Build([]Run{{
		Source: "artillery", Requests: 10, Failures: 5, ErrorRate: 0.5,
	}}, Thresholds{MaxErrorRate: 0.01})

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, rep))
	require.Contains(t, buf.String(), "FAIL")
	require.True(t, strings.Contains(buf.String(), "error rate"))
}
