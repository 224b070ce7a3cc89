// Package intake turns input files into analysis intakes.
package intake

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/symptia/internal/model"
)

// ErrUnsupportedFormat is returned when no adapter handles a file
var ErrUnsupportedFormat = errors.New("unsupported intake format")

// Adapter parses one input format
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter understands the file name
	CanHandle(filename string) bool

	// Parse converts the raw file content into intakes
	Parse(data []byte) ([]model.Intake, error)
}

// Registry selects adapters by file name
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewJSONLinesAdapter())
	r.Register(NewYAMLAdapter())
	r.Register(NewHTMLAdapter())
	r.Register(NewTextAdapter())
	return r
}

// Register adds an adapter; earlier registrations win
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter returns the first adapter that handles filename
func (r *Registry) FindAdapter(filename string) (Adapter, error) {
	for _, a := range r.adapters {
		if a.CanHandle(filename) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
}

// ReadFile reads and parses an intake file
func (r *Registry) ReadFile(path string) ([]model.Intake, error) {
	adapter, err := r.FindAdapter(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intake file: %w", err)
	}

	intakes, err := adapter.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", adapter.Name(), err)
	}
	return intakes, nil
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
