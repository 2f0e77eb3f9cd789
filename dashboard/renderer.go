package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"email_sla/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders and writes dashboard HTML files.
type Renderer struct {
	cfg  config.Config
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer(cfg config.Config) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	return &Renderer{cfg: cfg, tmpl: tmpl}, nil
}

// writePage writes the rendered bytes to name under dir and refreshes
// latest.html alongside it.
func writePage(dir, name string, content []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	latest := filepath.Join(dir, "latest.html")
	if err := os.WriteFile(latest, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", latest, err)
	}
	return path, nil
}

// KPI is one headline card on a dashboard.
type KPI struct {
	Label string
	Value string
	Sub   string
}

func fmtMinutes(v *float64) string {
	if v == nil {
		return "no data"
	}
	return fmt.Sprintf("%.1f min", *v)
}

func fmtPercent(v *float64) string {
	if v == nil {
		return "no data"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "no data"
	}
	return fmt.Sprintf("%.1f", *v)
}
