package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lherron/wilds/internal/domain"
)

// ErrUnknownFormat is returned when input matches no import format
var ErrUnknownFormat = errors.New("unknown import format")

// Format represents supported import formats
type Format string

const (
	FormatShare  Format = "share"
	FormatLegacy Format = "legacy"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

var legacyPattern = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// DetectFormat attempts to determine the format of the input data.
// Returns an error if the format cannot be reliably determined.
func DetectFormat(data []byte) (Format, error) {
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, Prefix) {
		return FormatShare, nil
	}

	// Check for JSON - validate it's actually valid JSON
	if strings.HasPrefix(trimmed, "{") {
		var js json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &js); err == nil {
			return FormatJSON, nil
		}
		// If it starts with { but isn't valid JSON, that's an error
		return "", fmt.Errorf("input appears to be JSON but is invalid")
	}

	// Legacy share strings decode to an escaped JSON object
	if legacyPattern.MatchString(trimmed) {
		if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && bytes.HasPrefix(decoded, []byte("%7B")) {
			return FormatLegacy, nil
		}
	}

	// YAML parser is very permissive - plain text is valid YAML.
	// Only treat it as YAML if it is a mapping.
	var yamlTest interface{}
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		if _, ok := yamlTest.(map[string]interface{}); ok {
			return FormatYAML, nil
		}
	}

	return "", ErrUnknownFormat
}

// ParseJSON parses a JSON tracker
func ParseJSON(data []byte) (*domain.Tracker, error) {
	var t domain.Tracker
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &t, nil
}

// ParseYAML parses a YAML tracker. Keys are the JSON field names.
func ParseYAML(data []byte) (*domain.Tracker, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	raw, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	t, err := ParseJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", errors.Unwrap(err))
	}
	return t, nil
}

// Parse parses tracker data in the specified format.
// If format is empty, auto-detects the format.
func Parse(data []byte, format Format) (*domain.Tracker, Format, error) {
	if format == "" {
		detected, err := DetectFormat(data)
		if err != nil {
			return nil, "", err
		}
		format = detected
	}

	var t *domain.Tracker
	var err error
	switch format {
	case FormatShare, FormatLegacy:
		t, err = Decode(string(data))
	case FormatJSON:
		t, err = ParseJSON(data)
	case FormatYAML, "yml":
		format = FormatYAML
		t, err = ParseYAML(data)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, format, err
	}
	return t, format, nil
}

// jsonCompatible converts YAML mappings with non-string keys into string
// keyed maps so the document can be re-encoded as JSON.
func jsonCompatible(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, val := range x {
			x[k] = jsonCompatible(val)
		}
		return x
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []interface{}:
		for i, val := range x {
			x[i] = jsonCompatible(val)
		}
		return x
	}
	return v
}
