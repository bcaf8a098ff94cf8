// Package template models the infrastructure template submitted to the stack API:
// a mapping of logical resource names to resource descriptions plus exported outputs.
package template

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/funcstack/funcstack/internal/errors"
)

// FormatVersion is the only template format version the stack API accepts.
const FormatVersion = "2010-09-09"

// Document is a complete template or a fragment of one.
// Builders return fragments; the assembler merges them into one document.
type Document struct {
	FormatVersion string              `json:"AWSTemplateFormatVersion,omitempty"`
	Description   string              `json:"Description,omitempty"`
	Resources     map[string]Resource `json:"Resources"`
	Outputs       map[string]Output   `json:"Outputs,omitempty"`
}

// Resource describes one logical resource.
// Properties holds one of the typed property structs of this package, or a raw map.
type Resource struct {
	Type           string   `json:"Type"`
	Properties     any      `json:"Properties,omitempty"`
	DependsOn      []string `json:"DependsOn,omitempty"`
	DeletionPolicy string   `json:"DeletionPolicy,omitempty"`
}

// DeletionPolicyRetain keeps the physical resource when it leaves the template.
const DeletionPolicyRetain = "Retain"

// Output is one exported stack output.
type Output struct {
	Description string  `json:"Description,omitempty"`
	Value       any     `json:"Value"`
	Export      *Export `json:"Export,omitempty"`
}

// Export names an output for cross-stack imports.
type Export struct {
	Name any `json:"Name"`
}

// New returns an empty fragment.
func New() *Document {
	return &Document{
		Resources: make(map[string]Resource),
		Outputs:   make(map[string]Output),
	}
}

// NewTemplate returns an empty, submittable document.
func NewTemplate(description string) *Document {
	d := New()
	d.FormatVersion = FormatVersion
	d.Description = description
	return d
}

// Put inserts or replaces the resource called name.
func (d *Document) Put(name string, r Resource) {
	d.ensure()
	d.Resources[name] = r
}

// Add inserts the resource called name, failing if the name is taken.
func (d *Document) Add(name string, r Resource) error {
	d.ensure()
	if _, exists := d.Resources[name]; exists {
		return apperrors.ErrTemplateConflict(fmt.Sprintf("resource %q is already defined", name), nil)
	}
	d.Resources[name] = r
	return nil
}

// PutOutput inserts or replaces the output called name.
func (d *Document) PutOutput(name string, o Output) {
	d.ensure()
	d.Outputs[name] = o
}

// Get returns the resource called name.
func (d *Document) Get(name string) (Resource, bool) {
	r, ok := d.Resources[name]
	return r, ok
}

// Has reports whether a resource called name exists.
func (d *Document) Has(name string) bool {
	_, ok := d.Resources[name]
	return ok
}

// Len returns the number of resources.
func (d *Document) Len() int {
	return len(d.Resources)
}

// Names returns every resource name in sorted order.
func (d *Document) Names() []string {
	return sortedKeys(d.Resources)
}

// NamesOfType returns the sorted names of every resource of the given type.
func (d *Document) NamesOfType(resourceType string) []string {
	var names []string
	for name, r := range d.Resources {
		if r.Type == resourceType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Merge copies every resource and output of src into d, replacing entries with the
// same name (last writer wins). It returns the sorted names that were replaced.
func (d *Document) Merge(src *Document) []string {
	if src == nil {
		return nil
	}
	d.ensure()

	var overwritten []string
	for name, r := range src.Resources {
		if _, exists := d.Resources[name]; exists {
			overwritten = append(overwritten, name)
		}
		d.Resources[name] = r
	}
	for name, o := range src.Outputs {
		if _, exists := d.Outputs[name]; exists {
			overwritten = append(overwritten, "output:"+name)
		}
		d.Outputs[name] = o
	}

	sort.Strings(overwritten)
	return overwritten
}

// MergeDisjoint copies src into d only if no resource or output name collides.
// On collision d is left untouched and a TEMPLATE_CONFLICT error lists every clash.
func (d *Document) MergeDisjoint(src *Document) error {
	if src == nil {
		return nil
	}
	d.ensure()

	var clashes []string
	for name := range src.Resources {
		if _, exists := d.Resources[name]; exists {
			clashes = append(clashes, name)
		}
	}
	for name := range src.Outputs {
		if _, exists := d.Outputs[name]; exists {
			clashes = append(clashes, "output:"+name)
		}
	}
	if len(clashes) > 0 {
		sort.Strings(clashes)
		return apperrors.ErrTemplateConflict(
			fmt.Sprintf("logical names defined twice: %s", strings.Join(clashes, ", ")), nil)
	}

	d.Merge(src)
	return nil
}

func (d *Document) ensure() {
	if d.Resources == nil {
		d.Resources = make(map[string]Resource)
	}
	if d.Outputs == nil {
		d.Outputs = make(map[string]Output)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
