package manifest

import "sort"

// RouteMap maps a URL path to the methods it serves.
type RouteMap map[string]Methods

// Methods maps an HTTP method (any case) to its handler binding.
type Methods map[string]Binding

// Binding attaches one HTTP method of a path to a function.
type Binding struct {
	Function string `yaml:"function"`
	// CORS overrides RouteDefaults.CORS for this method when set.
	CORS *bool `yaml:"cors"`
}

// RouteDefaults carries route-wide settings.
type RouteDefaults struct {
	CORS bool `yaml:"cors"`
}

// CORSEnabled resolves the CORS flag of b: explicit per-method flag, else the route default.
func (b Binding) CORSEnabled(defaults RouteDefaults) bool {
	if b.CORS != nil {
		return *b.CORS
	}
	return defaults.CORS
}

// Paths returns the route paths in sorted order.
func (r RouteMap) Paths() []string {
	paths := make([]string, 0, len(r))
	for path := range r {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Names returns the declared methods in sorted order, as written in the manifest.
func (m Methods) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
