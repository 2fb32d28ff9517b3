// Package backend provides the image-editing capability behind the restyle
// runner. Each variant applies one natural-language edit to an image.
package backend

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// RegionGlobal is the only region hint currently produced by plans.
const RegionGlobal = "global"

// EditRequest carries one step's instruction to an Editor.
type EditRequest struct {
	Prompt         string
	NegativePrompt string
	RegionHint     string
	Strength       float64
	// Seed is forwarded to remote models only when positive.
	Seed int64
}

// Editor applies a single edit. Implementations must not mutate the input.
type Editor interface {
	Name() string
	ApplyEdit(ctx context.Context, img image.Image, req EditRequest) (image.Image, error)
}

// Variant names a backend implementation.
type Variant string

const (
	VariantFAL    Variant = "fal"
	VariantLocal  Variant = "local"
	VariantDryRun Variant = "dry-run"
	VariantGemini Variant = "gemini"
)

var variantLabels = map[Variant]string{
	VariantFAL:    "FAL (Kontext API)",
	VariantLocal:  "local (Kontext)",
	VariantDryRun: "dry-run (no model)",
	VariantGemini: "Gemini (image edit API)",
}

// Variants lists every variant in display order.
func Variants() []Variant {
	return []Variant{VariantFAL, VariantLocal, VariantDryRun, VariantGemini}
}

// Label returns the human-readable name shown in selection lists.
func (v Variant) Label() string {
	if l, ok := variantLabels[v]; ok {
		return l
	}
	return string(v)
}

// ParseVariant accepts a short name ("fal", "dry-run") or a display label
// ("FAL (Kontext API)"), case-insensitively.
func ParseVariant(s string) (Variant, error) {
	s = strings.TrimSpace(s)
	for v, label := range variantLabels {
		if strings.EqualFold(s, string(v)) || strings.EqualFold(s, label) {
			return v, nil
		}
	}
	if strings.EqualFold(s, "dryrun") || strings.EqualFold(s, "dry_run") {
		return VariantDryRun, nil
	}
	return "", fmt.Errorf("unknown backend %q (want one of fal, local, dry-run, gemini)", s)
}

// Options configures the remote variants. Zero values take defaults.
type Options struct {
	FAL    FALConfig
	Gemini GeminiConfig
}

// New constructs the Editor for a variant. Remote variants defer credential
// lookup until the first edit.
func New(v Variant, opts Options) (Editor, error) {
	switch v {
	case VariantFAL:
		return NewFAL(opts.FAL), nil
	case VariantGemini:
		return NewGemini(opts.Gemini), nil
	case VariantLocal:
		return NewLocal(), nil
	case VariantDryRun:
		return NewDryRun(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", v)
	}
}
