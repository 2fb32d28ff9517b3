package tokens

import "strings"

// Defaults applied by FromForm for any blank or invalid field.
const (
	DefaultFormBrand   = "YourBrand"
	DefaultPrimary     = "#4F46E5"
	DefaultSecondary   = "#06B6D4"
	DefaultBackground  = "#0B0B0B"
	DefaultSurface     = "#121212"
	DefaultLink        = "#6EA8FE"
	DefaultTextOnDark  = "#FFFFFF"
	DefaultTextOnLight = "#111111"

	SuccessColor = "#22C55E"
	WarningColor = "#F59E0B"
	ErrorColor   = "#EF4444"

	DefaultRadiusButton = 12
	DefaultRadiusCard   = 16
	DefaultRadiusInput  = 10
	DefaultRadiusChip   = 12

	DefaultElevation1 = "0px 1px 3px rgba(0,0,0,0.18)"
	DefaultElevation2 = "0px 6px 20px rgba(0,0,0,0.22)"
)

// Form holds the discrete inputs of the simple token editor. Every field is
// a raw string as typed by the user; radii are parsed leniently.
type Form struct {
	Brand        string `json:"brand"`
	Primary      string `json:"primary"`
	Secondary    string `json:"secondary"`
	Background   string `json:"background"`
	Surface      string `json:"surface"`
	Link         string `json:"link"`
	TextOnDark   string `json:"text_on_dark"`
	TextOnLight  string `json:"text_on_light"`
	RadiusButton string `json:"radius_button"`
	RadiusCard   string `json:"radius_card"`
	RadiusInput  string `json:"radius_input"`
	RadiusChip   string `json:"radius_chip"`
	Elevation1   string `json:"elevation1"`
	Elevation2   string `json:"elevation2"`
}

// FromForm builds a token document from form fields. It never fails: blank
// strings and unparsable or non-positive radii are replaced by defaults.
// Semantic colors (success, warning, error) are fixed.
func FromForm(f Form) *BrandTokens {
	return &BrandTokens{
		Brand: orDefault(f.Brand, DefaultFormBrand),
		Colors: Colors{
			Primary:     orDefault(f.Primary, DefaultPrimary),
			Secondary:   orDefault(f.Secondary, DefaultSecondary),
			Background:  orDefault(f.Background, DefaultBackground),
			Surface:     orDefault(f.Surface, DefaultSurface),
			TextOnDark:  orDefault(f.TextOnDark, DefaultTextOnDark),
			TextOnLight: orDefault(f.TextOnLight, DefaultTextOnLight),
			Link:        orDefault(f.Link, DefaultLink),
			Success:     SuccessColor,
			Warning:     WarningColor,
			Error:       ErrorColor,
		},
		Radius: Radius{
			Button: radiusOrDefault(f.RadiusButton, DefaultRadiusButton),
			Card:   radiusOrDefault(f.RadiusCard, DefaultRadiusCard),
			Input:  radiusOrDefault(f.RadiusInput, DefaultRadiusInput),
			Chip:   radiusOrDefault(f.RadiusChip, DefaultRadiusChip),
		},
		Shadow: Shadow{
			Elevation1: orDefault(f.Elevation1, DefaultElevation1),
			Elevation2: orDefault(f.Elevation2, DefaultElevation2),
		},
	}
}

// Sample returns the built-in example document.
func Sample() *BrandTokens {
	return &BrandTokens{
		Brand: "Algominds",
		Colors: Colors{
			Primary:     "#C6FF00",
			Secondary:   "#00E5FF",
			Background:  "#0B0B0B",
			Surface:     "#121212",
			TextOnDark:  "#FFFFFF",
			TextOnLight: "#111111",
			Link:        "#6EA8FE",
			Success:     SuccessColor,
			Warning:     WarningColor,
			Error:       ErrorColor,
		},
		Radius: Radius{
			Button: DefaultRadiusButton,
			Card:   DefaultRadiusCard,
			Input:  DefaultRadiusInput,
			Chip:   DefaultRadiusChip,
		},
		Shadow: Shadow{
			Elevation1: DefaultElevation1,
			Elevation2: DefaultElevation2,
		},
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func radiusOrDefault(v string, def int) int {
	n, err := intValue(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
