// Package restyle turns brand tokens into an ordered plan of image edits and
// runs that plan against an edit backend, one step at a time.
package restyle

import (
	"errors"
	"strings"
)

// ErrInvalidStepSelection is returned when a request asks for both light and
// dark mode conversion.
var ErrInvalidStepSelection = errors.New("select either light mode or dark mode conversion, not both")

// StepKey identifies an entry in the step catalog.
type StepKey string

const (
	ConvertLightMode      StepKey = "convert_light_mode"
	ConvertDarkMode       StepKey = "convert_dark_mode"
	GlobalBrandRefresh    StepKey = "global_brand_refresh"
	PrimaryActions        StepKey = "primary_actions"
	SecondaryAndLinks     StepKey = "secondary_and_links"
	SurfacesAndBackground StepKey = "surfaces_and_background"
	CornerRadii           StepKey = "corner_radii"
	ShadowsAndElevation   StepKey = "shadows_and_elevation"
	HairlinesAndOutlines  StepKey = "hairlines_and_outlines"
	ChartsAndDataviz      StepKey = "charts_and_dataviz"
)

// StepDefinition is a static catalog entry.
type StepDefinition struct {
	Key      StepKey `json:"key"`
	Label    string  `json:"label"`
	Strength float64 `json:"strength"`
}

// catalog is in plan emission order.
var catalog = []StepDefinition{
	{ConvertLightMode, "Convert to light mode", 0.36},
	{ConvertDarkMode, "Convert to dark mode", 0.36},
	{GlobalBrandRefresh, "Global brand refresh", 0.34},
	{PrimaryActions, "Primary actions", 0.32},
	{SecondaryAndLinks, "Secondary & Links", 0.30},
	{SurfacesAndBackground, "Surfaces & Background", 0.30},
	{CornerRadii, "Corner radii", 0.28},
	{ShadowsAndElevation, "Shadows & Elevation", 0.26},
	{HairlinesAndOutlines, "Hairlines & Outlines", 0.24},
	{ChartsAndDataviz, "Charts & Dataviz", 0.28},
}

// DefaultStepKeys is used when a caller selects nothing.
var DefaultStepKeys = []StepKey{
	PrimaryActions,
	SecondaryAndLinks,
	SurfacesAndBackground,
	CornerRadii,
	ShadowsAndElevation,
	HairlinesAndOutlines,
	ChartsAndDataviz,
}

// Catalog returns a copy of every step definition in emission order.
func Catalog() []StepDefinition {
	out := make([]StepDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition for key.
func Lookup(key StepKey) (StepDefinition, bool) {
	for _, d := range catalog {
		if d.Key == key {
			return d, true
		}
	}
	return StepDefinition{}, false
}

// StepsFromLabels maps display labels or keys back to step keys, preserving
// input order. Unknown entries are ignored.
func StepsFromLabels(labels []string) []StepKey {
	var keys []StepKey
	for _, l := range labels {
		l = strings.TrimSpace(l)
		for _, d := range catalog {
			if strings.EqualFold(l, d.Label) || l == string(d.Key) {
				keys = append(keys, d.Key)
				break
			}
		}
	}
	return keys
}

// ValidateSelection rejects selections that contain both mode conversions.
func ValidateSelection(keys []StepKey) error {
	if containsKey(keys, ConvertLightMode) && containsKey(keys, ConvertDarkMode) {
		return ErrInvalidStepSelection
	}
	return nil
}

func containsKey(keys []StepKey, k StepKey) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}
