package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/pkg/logger"
)

//go:embed files/*.tmpl
var embedded embed.FS

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager holds a parsed template set
type Manager struct {
	templates *template.Template
}

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"printf": fmt.Sprintf,
		"abs":    math.Abs,
		"upper":  strings.ToUpper,
		"lt":     func(a, b float64) bool { return a < b },
		"gt":     func(a, b float64) bool { return a > b },
		"add":    func(a, b int) int { return a + b },
		"mul100": func(v float64) float64 { return v * 100 },
	}
}

// Default loads the templates compiled into the binary
func Default() (*Manager, error) {
	return NewManager(embedded, "files/*.tmpl")
}

// NewManager parses every template matching patterns in fsys
func NewManager(fsys fs.FS, patterns ...string) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(GetDefaultFuncMap()).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	count := len(tmpl.Templates())
	if count <= 1 { // "root" template doesn't count
		return nil, fmt.Errorf("no templates found for %v", patterns)
	}

	logger.Debug("templates loaded", zap.Int("count", count))

	return &Manager{templates: tmpl}, nil
}

// MustDefault is like Default but panics on error
func MustDefault() *Manager {
	m, err := Default()
	if err != nil {
		panic(err)
	}
	return m
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data any) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}
