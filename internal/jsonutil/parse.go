// Package jsonutil decodes structured documents that users paste by hand:
// JSON, JSON wrapped in markdown code fences, or YAML.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when the input has no content after trimming.
var ErrEmptyDocument = errors.New("empty document")

// StripMarkdownFences removes ```json ... ``` or ``` ... ``` wrapping from text.
// Returns the content between the fences, or the original text if no fences are found.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	startIdx := 1 // skip the opening ``` line
	endIdx := len(lines) - 1

	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}

	return strings.Join(lines[startIdx:endIdx], "\n")
}

// DecodeMapping parses text into a generic mapping. JSON is tried first; if
// that fails the text is parsed as YAML, which also accepts the relaxed JSON
// people copy out of design tools (trailing commas excepted).
func DecodeMapping(raw string) (map[string]any, error) {
	text := StripMarkdownFences(raw)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	var doc map[string]any
	jsonErr := json.Unmarshal([]byte(text), &doc)
	if jsonErr == nil {
		if doc == nil {
			return nil, fmt.Errorf("document is not a mapping")
		}
		return doc, nil
	}

	doc = nil
	if yamlErr := yaml.Unmarshal([]byte(text), &doc); yamlErr != nil {
		return nil, fmt.Errorf("invalid document: %w (text: %s)", jsonErr, preview(text))
	}
	if doc == nil {
		return nil, fmt.Errorf("document is not a mapping (text: %s)", preview(text))
	}
	return doc, nil
}

// preview truncates text for inclusion in error messages.
func preview(text string) string {
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}
