// Package view renders the HTML pages.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"eegweb/internal/config"
	"eegweb/internal/service"
)

//go:embed templates/*.html
var templates embed.FS

var funcs = template.FuncMap{
	"power": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

// Views holds the parsed page templates. It is safe for concurrent use.
type Views struct {
	index    *template.Template
	result   *template.Template
	analysis config.AnalysisConfig
}

// New parses the embedded templates.
func New(analysis config.AnalysisConfig) (*Views, error) {
	index, err := template.New("index.html").Funcs(funcs).ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	result, err := template.New("result.html").Funcs(funcs).ParseFS(templates, "templates/result.html")
	if err != nil {
		return nil, fmt.Errorf("parse result template: %w", err)
	}
	return &Views{index: index, result: result, analysis: analysis}, nil
}

// Index writes the upload form.
func (v *Views) Index(w io.Writer) error {
	return v.index.Execute(w, v.analysis)
}

// Result writes the results page for res.
func (v *Views) Result(w io.Writer, res *service.AnalysisResult) error {
	return v.result.Execute(w, res)
}
