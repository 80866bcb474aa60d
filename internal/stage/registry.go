package stage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/flarebyte/nbrun/internal/errors"
)

// DefaultNotebooks is the built-in execution order used when no project
// file overrides it.
var DefaultNotebooks = []string{
	"01_eda.ipynb",
	"02_preprocess_feature.ipynb",
	"03_mining_or_clustering.ipynb",
	"04_modeling.ipynb",
	"04b_semi_supervised.ipynb",
	"05_evaluation_report.ipynb",
}

// Descriptor identifies one stage and its position in the registry.
type Descriptor struct {
	Name  string
	Index int
}

func (d Descriptor) String() string { return fmt.Sprintf("%d:%s", d.Index, d.Name) }

// Registry is the fixed, ordered list of stages. It is immutable once built.
type Registry struct {
	stages []Descriptor
}

// New builds a registry from stage names in execution order. Names are
// notebook file names relative to the notebooks directory; the same name may
// appear more than once.
func New(names ...string) (*Registry, error) {
	r := &Registry{stages: make([]Descriptor, 0, len(names))}
	for i, n := range names {
		if err := validateName(n); err != nil {
			return nil, ErrInvalidName{index: i, name: n, reason: err.Error()}
		}
		r.stages = append(r.stages, Descriptor{Name: n, Index: i})
	}
	return r, nil
}

// Default returns the registry for DefaultNotebooks.
func Default() *Registry {
	r, _ := New(DefaultNotebooks...)
	return r
}

// Len returns the number of stages.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.stages)
}

// Descriptors returns the stages in execution order.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	return append([]Descriptor(nil), r.stages...)
}

// Names returns the stage names in execution order.
func (r *Registry) Names() []string {
	out := make([]string, 0, r.Len())
	for _, d := range r.Descriptors() {
		out = append(out, d.Name)
	}
	return out
}

func validateName(n string) error {
	if strings.TrimSpace(n) == "" {
		return errors.New("empty name")
	}
	if n != strings.TrimSpace(n) {
		return errors.New("leading or trailing whitespace")
	}
	if strings.ContainsAny(n, `/\`) || n != filepath.Base(n) {
		return errors.New("must be a file name, not a path")
	}
	if n == "." || n == ".." {
		return errors.New("must be a file name, not a path")
	}
	return nil
}

// ErrInvalidName is returned by New for an unusable stage name.
type ErrInvalidName struct {
	index  int
	name   string
	reason string
}

func (e ErrInvalidName) Error() string {
	return fmt.Sprintf("invalid stage %d %q: %s", e.index, e.name, e.reason)
}
