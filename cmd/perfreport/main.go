package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/docopt/docopt-go"

	"github.com/zoptal/collabd/internal/report"
)

const perfReportVersion = "0.1.0"

func main() {
	usage := `Performance report generator.

Consolidates K6 summary exports and Artillery report JSON into a single
HTML and JSON report, with optional pass/fail thresholds. Inputs may be
result files or directories of them.

Usage:
    perfreport generate <input>... [--out=<dir>]
        [--max-error-rate=<rate>] [--max-p95=<ms>] [--max-p99=<ms>]
    perfreport check <input>...
        [--max-error-rate=<rate>] [--max-p95=<ms>] [--max-p99=<ms>]

Options:
    -h --help                Show this screen.
    --version                Show version.
    --out=<dir>              Output directory [default: perf-report].
    --max-error-rate=<rate>  Fail above this error rate (0..1).
    --max-p95=<ms>           Fail above this p95 latency.
    --max-p99=<ms>           Fail above this p99 latency.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], perfReportVersion)
	if err != nil {
		panic(err)
	}

	inputs := opts["<input>"].([]string)
	thresholds := report.Thresholds{
		MaxErrorRate: floatOpt(opts, "--max-error-rate"),
		MaxP95:       floatOpt(opts, "--max-p95"),
		MaxP99:       floatOpt(opts, "--max-p99"),
	}

	files := expandInputs(inputs)
	if len(files) == 0 {
		fatalf("no result files found")
	}

	runs := make([]report.Run, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fatalf("reading %s: %v", path, err)
		}
		run, err := report.Parse(data)
		if err != nil {
			fatalf("parsing %s: %v", path, err)
		}
		runs = append(runs, *run)
	}

	rep := report.Build(runs, thresholds)

	if generate, _ := opts.Bool("generate"); generate {
		out, _ := opts.String("--out")
		if err := report.WriteFiles(out, rep); err != nil {
			fatalf("writing report: %v", err)
		}
		fmt.Printf("wrote %s/report.html and %s/report.json\n", out, out)
	} else {
		if err := report.RenderJSON(os.Stdout, rep); err != nil {
			fatalf("rendering report: %v", err)
		}
	}

	if !rep.Passed {
		for _, v := range rep.Violations {
			fmt.Fprintf(os.Stderr, "threshold violated: %s\n", v)
		}
		os.Exit(1)
	}
}

// expandInputs flattens directory arguments into the JSON files they hold.
func expandInputs(inputs []string) []string {
	var files []string
	for _, path := range inputs {
		info, err := os.Stat(path)
		if err != nil {
			fatalf("stat %s: %v", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(path, "*.json"))
		if err != nil {
			fatalf("listing %s: %v", path, err)
		}
		files = append(files, matches...)
	}
	return files
}

func floatOpt(opts docopt.Opts, name string) float64 {
	raw, ok := opts[name].(string)
	if !ok || raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fatalf("invalid %s: %v", name, err)
	}
	return v
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
