package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) },
	"ms":  func(v float64) string { return fmt.Sprintf("%.1f ms", v) },
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// RenderHTML writes the report as a standalone HTML page.
func RenderHTML(w io.Writer, rep *Report) error {
	return htmlTemplate.Execute(w, rep)
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteFiles renders report.html and report.json into dir.
func WriteFiles(dir string, rep *Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	htmlFile, err := os.Create(filepath.Join(dir, "report.html"))
	if err != nil {
		return err
	}
	defer htmlFile.Close()
	if err := RenderHTML(htmlFile, rep); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}

	jsonFile, err := os.Create(filepath.Join(dir, "report.json"))
	if err != nil {
		return err
	}
	defer jsonFile.Close()
	if err := RenderJSON(jsonFile, rep); err != nil {
		return fmt.Errorf("rendering json: %w", err)
	}
	return nil
}
