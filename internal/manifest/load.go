package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/funcstack/funcstack/internal/constants"
	apperrors "github.com/funcstack/funcstack/internal/errors"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Load reads and validates the manifest at path.
// Relative package paths are resolved against the manifest directory.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, apperrors.ErrInvalidManifest("failed to read manifest", err)
	}

	m, err := Parse(content)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	for name, fn := range m.Functions {
		if fn.Package != "" && !filepath.IsAbs(fn.Package) {
			fn.Package = filepath.Join(baseDir, fn.Package)
			m.Functions[name] = fn
		}
	}

	return m, nil
}

// Parse decodes and validates a manifest document.
func Parse(content []byte) (*Manifest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.ErrInvalidManifest("failed to parse manifest", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks field ranges, names and that every route binds a declared function.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return apperrors.ErrInvalidManifest("manifest validation failed", err)
	}

	var problems []string
	for _, path := range m.Routes.Paths() {
		methods := m.Routes[path]
		for _, method := range methods.Names() {
			binding := methods[method]
			if !IsHTTPMethod(method) {
				problems = append(problems, fmt.Sprintf("route %s: unknown method %q", path, method))
				continue
			}
			if binding.Function == "" {
				problems = append(problems, fmt.Sprintf("route %s %s: no function", path, strings.ToUpper(method)))
				continue
			}
			if binding.Function == constants.DefaultFunctionName {
				problems = append(problems, fmt.Sprintf("route %s %s: %q is reserved",
					path, strings.ToUpper(method), constants.DefaultFunctionName))
				continue
			}
			if _, ok := m.Functions[binding.Function]; !ok {
				problems = append(problems, fmt.Sprintf("route %s %s: function %q is not declared",
					path, strings.ToUpper(method), binding.Function))
			}
		}
	}

	if len(problems) > 0 {
		return apperrors.ErrInvalidManifest("manifest validation failed", errors.New(strings.Join(problems, "; ")))
	}

	return nil
}
