// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time. Each edit step has one template named after its step key;
// blocks.txt holds the shared color, radius and shadow listings.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/fpang/ui-restyler/internal/tokens"
)

//go:embed prompts/*.txt
var promptFS embed.FS

// NegativeConstraints is the shared constraint text sent with every step.
//
//go:embed prompts/negative_constraints.txt
var NegativeConstraints string

// Pre-parsed templates. template.Must panics on malformed templates,
// catching errors at program startup rather than at call time.
var promptTmpl = template.Must(template.New("prompts").ParseFS(promptFS, "prompts/*.txt"))

// StepData holds the token values injected into step templates.
type StepData struct {
	Brand  string
	Colors tokens.Colors
	Radius tokens.Radius
	Shadow tokens.Shadow
}

// NewStepData flattens a token document for template rendering.
func NewStepData(t *tokens.BrandTokens) StepData {
	return StepData{
		Brand:  t.DisplayName(),
		Colors: t.Colors,
		Radius: t.Radius,
		Shadow: t.Shadow,
	}
}

// HasStepPrompt reports whether a template exists for the step key.
func HasStepPrompt(key string) bool {
	return promptTmpl.Lookup(key+".txt") != nil
}

// RenderStepPrompt renders the instruction template for a step key.
func RenderStepPrompt(key string, data StepData) (string, error) {
	return render(key+".txt", data)
}

// RenderBrandExactness renders the clause that pins every supplied color.
// Returns an empty string when no roles are given.
func RenderBrandExactness(roles []tokens.ColorRole) string {
	if len(roles) == 0 {
		return ""
	}
	out, _ := render("brand_exactness.txt", roles)
	return out
}

// RenderLogoClause renders the logo preservation clause. With no dominant
// colors the generic variant is returned.
func RenderLogoClause(hexColors []string) string {
	if len(hexColors) == 0 {
		out, _ := render("logo_generic.txt", nil)
		return out
	}
	out, _ := render("logo_colors.txt", hexColors)
	return out
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func init() {
	NegativeConstraints = strings.TrimSpace(NegativeConstraints)
}
