package template

import (
	"encoding/json"

	apperrors "github.com/funcstack/funcstack/internal/errors"

	"sigs.k8s.io/yaml"
)

// JSON renders the document as the compact JSON body submitted to the stack API.
func (d *Document) JSON() ([]byte, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, apperrors.ErrInvalidTemplate("failed to encode template", err)
	}
	return body, nil
}

// IndentedJSON renders the document for humans.
func (d *Document) IndentedJSON() ([]byte, error) {
	body, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, apperrors.ErrInvalidTemplate("failed to encode template", err)
	}
	return body, nil
}

// YAML renders the document as YAML. Keys keep the JSON field names.
func (d *Document) YAML() ([]byte, error) {
	body, err := d.JSON()
	if err != nil {
		return nil, err
	}

	out, err := yaml.JSONToYAML(body)
	if err != nil {
		return nil, apperrors.ErrInvalidTemplate("failed to convert template to yaml", err)
	}
	return out, nil
}
