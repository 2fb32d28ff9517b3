// Package tokens models brand design tokens: the colors, corner radii and
// shadow styles that describe a visual identity.
package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/jsonutil"
)

// ErrMalformedTokens is returned when a token document cannot be parsed or is
// missing one of the required sections.
var ErrMalformedTokens = errors.New("malformed tokens")

// DefaultBrandName is used in prompts when a document carries no brand.
const DefaultBrandName = "Brand"

// BrandTokens is a parsed brand token document.
type BrandTokens struct {
	Brand  string `json:"brand,omitempty" yaml:"brand,omitempty"`
	Colors Colors `json:"colors" yaml:"colors"`
	Radius Radius `json:"radius" yaml:"radius"`
	Shadow Shadow `json:"shadow" yaml:"shadow"`
}

// Colors maps semantic color roles to CSS-compatible color strings.
type Colors struct {
	Primary     string `json:"primary" yaml:"primary"`
	Secondary   string `json:"secondary" yaml:"secondary"`
	Background  string `json:"background" yaml:"background"`
	Surface     string `json:"surface" yaml:"surface"`
	TextOnDark  string `json:"text_on_dark" yaml:"text_on_dark"`
	TextOnLight string `json:"text_on_light" yaml:"text_on_light"`
	Link        string `json:"link" yaml:"link"`
	Success     string `json:"success" yaml:"success"`
	Warning     string `json:"warning" yaml:"warning"`
	Error       string `json:"error" yaml:"error"`
}

// Radius holds corner radii in pixels.
type Radius struct {
	Button int `json:"button" yaml:"button"`
	Card   int `json:"card" yaml:"card"`
	Input  int `json:"input" yaml:"input"`
	Chip   int `json:"chip" yaml:"chip"`
}

// Shadow holds CSS box-shadow strings per elevation level.
type Shadow struct {
	Elevation1 string `json:"elevation1" yaml:"elevation1"`
	Elevation2 string `json:"elevation2" yaml:"elevation2"`
}

// ColorRole pairs a role name with its value, in document order.
type ColorRole struct {
	Role  string
	Value string
}

// Roles returns every color role in a stable order.
func (c Colors) Roles() []ColorRole {
	return []ColorRole{
		{"primary", c.Primary},
		{"secondary", c.Secondary},
		{"background", c.Background},
		{"surface", c.Surface},
		{"text_on_dark", c.TextOnDark},
		{"text_on_light", c.TextOnLight},
		{"link", c.Link},
		{"success", c.Success},
		{"warning", c.Warning},
		{"error", c.Error},
	}
}

// DisplayName returns the brand name, or DefaultBrandName when unset.
func (t *BrandTokens) DisplayName() string {
	if strings.TrimSpace(t.Brand) == "" {
		return DefaultBrandName
	}
	return t.Brand
}

// JSON serializes the document as indented JSON.
func (t *BrandTokens) JSON() (string, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tokens: %w", err)
	}
	return string(data), nil
}

// Parse reads a token document from JSON, fenced JSON, or YAML text.
// The colors, radius and shadow sections are required; individual roles
// inside them are optional and default to their zero values.
func Parse(text string) (*BrandTokens, error) {
	doc, err := jsonutil.DecodeMapping(text)
	if err != nil {
		log.Debug().Err(err).Msg("Token document could not be decoded")
		return nil, fmt.Errorf("%w: %v", ErrMalformedTokens, err)
	}

	colors, err := section(doc, "colors")
	if err != nil {
		return nil, err
	}
	radius, err := section(doc, "radius")
	if err != nil {
		return nil, err
	}
	shadow, err := section(doc, "shadow")
	if err != nil {
		return nil, err
	}

	t := &BrandTokens{Brand: stringValue(doc["brand"])}

	t.Colors = Colors{
		Primary:     stringValue(colors["primary"]),
		Secondary:   stringValue(colors["secondary"]),
		Background:  stringValue(colors["background"]),
		Surface:     stringValue(colors["surface"]),
		TextOnDark:  stringValue(colors["text_on_dark"]),
		TextOnLight: stringValue(colors["text_on_light"]),
		Link:        stringValue(colors["link"]),
		Success:     stringValue(colors["success"]),
		Warning:     stringValue(colors["warning"]),
		Error:       stringValue(colors["error"]),
	}

	for _, f := range []struct {
		key string
		dst *int
	}{
		{"button", &t.Radius.Button},
		{"card", &t.Radius.Card},
		{"input", &t.Radius.Input},
		{"chip", &t.Radius.Chip},
	} {
		v, ok := radius[f.key]
		if !ok || v == nil {
			continue
		}
		n, err := intValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: radius.%s: %v", ErrMalformedTokens, f.key, err)
		}
		*f.dst = n
	}

	t.Shadow = Shadow{
		Elevation1: stringValue(shadow["elevation1"]),
		Elevation2: stringValue(shadow["elevation2"]),
	}

	log.Debug().
		Str("brand", t.DisplayName()).
		Str("primary", t.Colors.Primary).
		Msg("Parsed brand tokens")

	return t, nil
}

// section returns the named top-level mapping, or ErrMalformedTokens when it
// is missing or not a mapping.
func section(doc map[string]any, key string) (map[string]any, error) {
	v, ok := doc[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedTokens, key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a mapping", ErrMalformedTokens, key)
	}
	return m, nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// intValue coerces JSON numbers, YAML integers and numeric strings to int.
func intValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("not a finite number")
		}
		return int(n), nil
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(n), "px")
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
