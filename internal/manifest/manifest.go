// Package manifest describes the functions, HTTP routes and triggers of an application
// and resolves per-function settings through the manifest-wide default entry.
package manifest

import (
	"slices"
	"sort"
	"strings"

	"github.com/funcstack/funcstack/internal/constants"
)

// Manifest is the parsed, immutable description of an application.
type Manifest struct {
	Functions     map[string]Function       `yaml:"functions" validate:"dive,keys,alphanum,endkeys"`
	Routes        RouteMap                  `yaml:"routes"`
	RouteDefaults RouteDefaults             `yaml:"routeDefaults"`
	Resources     map[string]CustomResource `yaml:"resources" validate:"dive,keys,alphanum,endkeys"`
	Outputs       map[string]CustomOutput   `yaml:"outputs" validate:"dive,keys,alphanum,endkeys"`
}

// Function is one manifest entry. Zero values mean "not set" and fall back to the
// manifest default entry, then to the built-in defaults.
type Function struct {
	Handler     string            `yaml:"handler"`
	Runtime     string            `yaml:"runtime"`
	Package     string            `yaml:"package"`
	Memory      int               `yaml:"memory" validate:"omitempty,gte=128,lte=10240"`
	Timeout     int               `yaml:"timeout" validate:"omitempty,gte=1,lte=900"`
	Environment map[string]string `yaml:"environment"`
	Triggers    []Trigger         `yaml:"triggers"`
	// Bare functions are deployed but skipped by the post-deploy health check.
	Bare bool `yaml:"bare"`
}

// CustomResource is a raw template resource merged over the synthesized document.
type CustomResource struct {
	Type       string         `yaml:"type" validate:"required"`
	Properties map[string]any `yaml:"properties"`
	DependsOn  []string       `yaml:"dependsOn"`
}

// CustomOutput is a raw template output merged over the synthesized document.
type CustomOutput struct {
	Description string `yaml:"description"`
	Value       any    `yaml:"value" validate:"required"`
	Export      string `yaml:"export"`
}

// FunctionNames returns every deployable function name in sorted order.
// The reserved default entry is excluded.
func (m *Manifest) FunctionNames() []string {
	names := make([]string, 0, len(m.Functions))
	for name := range m.Functions {
		if name == constants.DefaultFunctionName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Function returns the entry for name and whether it was declared.
func (m *Manifest) Function(name string) (Function, bool) {
	fn, ok := m.Functions[name]
	return fn, ok
}

func (m *Manifest) defaults() Function {
	return m.Functions[constants.DefaultFunctionName]
}

// TimeoutFor resolves the timeout of name: function entry, manifest default, built-in.
func (m *Manifest) TimeoutFor(name string) int {
	return firstPositive(m.Functions[name].Timeout, m.defaults().Timeout, constants.DefaultFunctionTimeout)
}

// MemoryFor resolves the memory size of name: function entry, manifest default, built-in.
func (m *Manifest) MemoryFor(name string) int {
	return firstPositive(m.Functions[name].Memory, m.defaults().Memory, constants.DefaultFunctionMemory)
}

// RuntimeFor resolves the runtime of name: function entry, manifest default, built-in.
func (m *Manifest) RuntimeFor(name string) string {
	return firstNonEmpty(m.Functions[name].Runtime, m.defaults().Runtime, constants.DefaultFunctionRuntime)
}

// HandlerFor resolves the handler of name: function entry, manifest default, built-in.
func (m *Manifest) HandlerFor(name string) string {
	return firstNonEmpty(m.Functions[name].Handler, m.defaults().Handler, constants.DefaultFunctionHandler)
}

// TriggersFor resolves the trigger list of name: function entry, then manifest default.
func (m *Manifest) TriggersFor(name string) []Trigger {
	if triggers := m.Functions[name].Triggers; len(triggers) > 0 {
		return triggers
	}
	return m.defaults().Triggers
}

// EnvironmentFor merges the manifest default environment with the function's own, function winning.
func (m *Manifest) EnvironmentFor(name string) map[string]string {
	merged := make(map[string]string)
	for k, v := range m.defaults().Environment {
		merged[k] = v
	}
	for k, v := range m.Functions[name].Environment {
		merged[k] = v
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// IsBare reports whether name opted out of the post-deploy health check.
func (m *Manifest) IsBare(name string) bool {
	return m.Functions[name].Bare
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// HTTPMethods lists the verbs accepted in a route map, upper-cased.
var HTTPMethods = []string{"ANY", "DELETE", "GET", "HEAD", "OPTIONS", "PATCH", "POST", "PUT"}

// IsHTTPMethod reports whether method (any case) is an accepted verb.
func IsHTTPMethod(method string) bool {
	return slices.Contains(HTTPMethods, strings.ToUpper(method))
}
