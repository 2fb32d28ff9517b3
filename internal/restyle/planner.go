package restyle

import (
	"image"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/assets"
	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/tokens"
)

// EditStep is one instruction in a plan.
type EditStep struct {
	Key            StepKey `json:"key"`
	Name           string  `json:"name"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	RegionHint     string  `json:"region_hint"`
	Strength       float64 `json:"strength"`
}

// Plan is an ordered list of edit steps.
type Plan []EditStep

// BuildPlan renders the requested steps in catalog order. Duplicate and
// unknown keys are ignored. If both mode conversions are requested the dark
// conversion is dropped; callers are expected to reject that combination
// first with ValidateSelection.
//
// A non-nil logo extends every prompt with a clause naming its dominant
// colors. BuildPlan performs no I/O and is deterministic.
func BuildPlan(t *tokens.BrandTokens, requested []StepKey, logo image.Image) Plan {
	if t == nil {
		return nil
	}

	want := make(map[StepKey]bool, len(requested))
	for _, k := range requested {
		want[k] = true
	}
	if want[ConvertLightMode] && want[ConvertDarkMode] {
		log.Warn().Msg("Both light and dark mode conversion requested; dropping dark mode")
		delete(want, ConvertDarkMode)
	}

	negative := negativePrompt(t)
	logoClause := ""
	if logo != nil {
		logoClause = assets.RenderLogoClause(DominantColors(logo))
	}
	data := assets.NewStepData(t)

	var plan Plan
	for _, def := range catalog {
		if !want[def.Key] {
			continue
		}
		prompt, err := assets.RenderStepPrompt(string(def.Key), data)
		if err != nil {
			log.Error().Err(err).Str("step", string(def.Key)).Msg("Skipping step with unrenderable prompt")
			continue
		}
		if logoClause != "" {
			prompt += "\n\n" + logoClause
		}
		plan = append(plan, EditStep{
			Key:            def.Key,
			Name:           def.Label,
			Prompt:         prompt,
			NegativePrompt: negative,
			RegionHint:     backend.RegionGlobal,
			Strength:       def.Strength,
		})
	}

	log.Debug().
		Int("requested", len(requested)).
		Int("steps", len(plan)).
		Bool("logo", logo != nil).
		Msg("Edit plan built")

	return plan
}

// negativePrompt extends the shared constraints with a clause pinning every
// supplied color to its literal value.
func negativePrompt(t *tokens.BrandTokens) string {
	var roles []tokens.ColorRole
	for _, r := range t.Colors.Roles() {
		if r.Value != "" {
			roles = append(roles, r)
		}
	}
	exact := assets.RenderBrandExactness(roles)
	if exact == "" {
		return assets.NegativeConstraints
	}
	return assets.NegativeConstraints + " " + exact
}
