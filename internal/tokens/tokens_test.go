package tokens

import (
	"errors"
	"reflect"
	"testing"
)

const validDoc = `{
  "brand": "Acme",
  "colors": {"primary": "#112233", "secondary": "#445566", "link": "#0000FF"},
  "radius": {"button": 8, "card": 12.0, "input": "6", "chip": "4px"},
  "shadow": {"elevation1": "none", "elevation2": "0 2px 4px #000"}
}`

func TestParseValid(t *testing.T) {
	tok, err := Parse(validDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Brand != "Acme" {
		t.Errorf("expected brand Acme, got %q", tok.Brand)
	}
	if tok.Colors.Primary != "#112233" {
		t.Errorf("expected primary #112233, got %q", tok.Colors.Primary)
	}
	if tok.Colors.Surface != "" {
		t.Errorf("expected missing surface to be empty, got %q", tok.Colors.Surface)
	}
	want := Radius{Button: 8, Card: 12, Input: 6, Chip: 4}
	if tok.Radius != want {
		t.Errorf("expected radius %+v, got %+v", want, tok.Radius)
	}
	if tok.Shadow.Elevation1 != "none" {
		t.Errorf("expected elevation1 none, got %q", tok.Shadow.Elevation1)
	}
}

func TestParseYAMLAndFenced(t *testing.T) {
	yamlDoc := `brand: Acme
colors:
  primary: "#112233"
radius:
  button: 8
shadow:
  elevation1: none
`
	tests := []struct {
		name string
		in   string
	}{
		{"yaml", yamlDoc},
		{"fenced json", "```json\n" + validDoc + "\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tok.Colors.Primary != "#112233" {
				t.Errorf("expected primary #112233, got %q", tok.Colors.Primary)
			}
			if tok.Radius.Button != 8 {
				t.Errorf("expected button radius 8, got %d", tok.Radius.Button)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"not structured", "hello there"},
		{"missing shadow", `{"colors": {}, "radius": {}}`},
		{"missing colors", `{"radius": {}, "shadow": {}}`},
		{"missing radius", `{"colors": {}, "shadow": {}}`},
		{"colors not a mapping", `{"colors": "red", "radius": {}, "shadow": {}}`},
		{"radius not numeric", `{"colors": {}, "radius": {"button": "wide"}, "shadow": {}}`},
		{"array", `[{"colors": {}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			if !errors.Is(err, ErrMalformedTokens) {
				t.Errorf("expected ErrMalformedTokens, got %v", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	docs := []*BrandTokens{
		Sample(),
		FromForm(Form{}),
		{Colors: Colors{Primary: "#abc"}, Radius: Radius{Card: 3}},
		{Brand: "Only Brand"},
	}
	for _, want := range docs {
		text, err := want.JSON()
		if err != nil {
			t.Fatalf("JSON() failed: %v", err)
		}
		got, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse() failed for %s: %v", text, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
		}
	}
}

func TestFromFormDefaults(t *testing.T) {
	tok := FromForm(Form{})
	if tok.Brand != DefaultFormBrand {
		t.Errorf("expected brand %q, got %q", DefaultFormBrand, tok.Brand)
	}
	if tok.Colors.Primary != DefaultPrimary || tok.Colors.Link != DefaultLink {
		t.Errorf("unexpected default colors: %+v", tok.Colors)
	}
	if tok.Colors.Success != SuccessColor || tok.Colors.Warning != WarningColor || tok.Colors.Error != ErrorColor {
		t.Errorf("unexpected semantic colors: %+v", tok.Colors)
	}
	want := Radius{Button: 12, Card: 16, Input: 10, Chip: 12}
	if tok.Radius != want {
		t.Errorf("expected radius %+v, got %+v", want, tok.Radius)
	}
	if tok.Shadow.Elevation2 != DefaultElevation2 {
		t.Errorf("expected elevation2 %q, got %q", DefaultElevation2, tok.Shadow.Elevation2)
	}
}

func TestFromFormCoercion(t *testing.T) {
	tok := FromForm(Form{
		Brand:        "  Acme  ",
		Primary:      "#112233",
		RadiusButton: "20",
		RadiusCard:   "7.9",
		RadiusInput:  "-3",
		RadiusChip:   "round",
	})
	if tok.Brand != "Acme" {
		t.Errorf("expected trimmed brand, got %q", tok.Brand)
	}
	if tok.Colors.Primary != "#112233" {
		t.Errorf("expected primary #112233, got %q", tok.Colors.Primary)
	}
	want := Radius{Button: 20, Card: 7, Input: DefaultRadiusInput, Chip: DefaultRadiusChip}
	if tok.Radius != want {
		t.Errorf("expected radius %+v, got %+v", want, tok.Radius)
	}
}

func TestDisplayName(t *testing.T) {
	if got := (&BrandTokens{}).DisplayName(); got != DefaultBrandName {
		t.Errorf("expected %q, got %q", DefaultBrandName, got)
	}
	if got := Sample().DisplayName(); got != "Algominds" {
		t.Errorf("expected Algominds, got %q", got)
	}
}
