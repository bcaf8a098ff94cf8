package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Trigger is one declared event source, written as a single-key mapping of kind to config:
//
//	triggers:
//	  - events: {schedule: rate(5 minutes)}
type Trigger struct {
	Kind   string
	Config map[string]any
}

// UnmarshalYAML decodes the single-key mapping form.
func (t *Trigger) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: trigger must be a mapping with exactly one kind", node.Line)
	}

	t.Kind = node.Content[0].Value

	config := map[string]any{}
	if err := node.Content[1].Decode(&config); err != nil {
		return fmt.Errorf("line %d: trigger %q: %w", node.Line, t.Kind, err)
	}
	t.Config = config

	return nil
}

// MarshalYAML writes the single-key mapping form back.
func (t Trigger) MarshalYAML() (any, error) {
	return map[string]any{t.Kind: t.Config}, nil
}
