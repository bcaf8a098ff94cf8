package template

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/funcstack/funcstack/internal/errors"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/template.schema.json
var schemaSource string

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema

	subPlaceholder = regexp.MustCompile(`\$\{([^}]+)\}`)
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("template.schema.json", schemaSource)
	})
	return compiledSchema, schemaErr
}

// Validate checks the document shape against the embedded schema and verifies
// that every cross-resource reference resolves. It runs before every submission.
func (d *Document) Validate() error {
	sch, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to compile template schema: %w", err)
	}

	generic, err := d.generic()
	if err != nil {
		return err
	}

	if err := sch.Validate(generic); err != nil {
		return apperrors.ErrInvalidTemplate("template does not match schema", err)
	}

	return d.checkReferences(generic)
}

// CheckReferences verifies that every Ref, Fn::GetAtt, Fn::Sub placeholder and
// DependsOn entry names a resource of the document. Pseudo parameters are allowed.
func (d *Document) CheckReferences() error {
	generic, err := d.generic()
	if err != nil {
		return err
	}
	return d.checkReferences(generic)
}

func (d *Document) generic() (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, apperrors.ErrInvalidTemplate("failed to encode template", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, apperrors.ErrInvalidTemplate("failed to decode template", err)
	}
	return generic, nil
}

func (d *Document) checkReferences(generic map[string]any) error {
	missing := make(map[string][]string)

	resources, _ := generic["Resources"].(map[string]any)
	for name, raw := range resources {
		resource, _ := raw.(map[string]any)
		refs := collectRefs(resource["Properties"], nil)
		if deps, ok := resource["DependsOn"].([]any); ok {
			for _, dep := range deps {
				if s, ok := dep.(string); ok {
					refs = append(refs, s)
				}
			}
		}
		for _, ref := range refs {
			if !d.Has(ref) {
				missing[name] = append(missing[name], ref)
			}
		}
	}

	outputs, _ := generic["Outputs"].(map[string]any)
	for name, raw := range outputs {
		for _, ref := range collectRefs(raw, nil) {
			if !d.Has(ref) {
				missing["output:"+name] = append(missing["output:"+name], ref)
			}
		}
	}

	if len(missing) == 0 {
		return nil
	}

	problems := make([]string, 0, len(missing))
	for _, owner := range sortedKeys(missing) {
		refs := missing[owner]
		sort.Strings(refs)
		problems = append(problems, fmt.Sprintf("%s -> %s", owner, strings.Join(refs, ",")))
	}
	return apperrors.ErrInvalidTemplate(
		"template references undefined resources: "+strings.Join(problems, "; "), nil)
}

func collectRefs(node any, acc []string) []string {
	switch v := node.(type) {
	case map[string]any:
		for key, value := range v {
			switch key {
			case "Ref":
				if s, ok := value.(string); ok && !isPseudo(s) {
					acc = append(acc, s)
				}
				continue
			case "Fn::GetAtt":
				if name := getAttTarget(value); name != "" {
					acc = append(acc, name)
				}
				continue
			case "Fn::Sub":
				acc = append(acc, subTargets(value)...)
			}
			acc = collectRefs(value, acc)
		}
	case []any:
		for _, item := range v {
			acc = collectRefs(item, acc)
		}
	}
	return acc
}

func getAttTarget(value any) string {
	switch v := value.(type) {
	case []any:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	case string:
		name, _, _ := strings.Cut(v, ".")
		return name
	}
	return ""
}

func subTargets(value any) []string {
	format, ok := value.(string)
	if !ok {
		// The list form carries its own variable map; only the literal is checked.
		list, isList := value.([]any)
		if !isList || len(list) == 0 {
			return nil
		}
		format, _ = list[0].(string)
		if len(list) > 1 {
			return nil
		}
	}

	var targets []string
	for _, match := range subPlaceholder.FindAllStringSubmatch(format, -1) {
		expr := match[1]
		if strings.HasPrefix(expr, "!") || isPseudo(expr) {
			continue
		}
		name, _, _ := strings.Cut(expr, ".")
		targets = append(targets, name)
	}
	return targets
}

func isPseudo(name string) bool {
	return strings.HasPrefix(name, "AWS::")
}
