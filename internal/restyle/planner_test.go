package restyle

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/fpang/ui-restyler/internal/assets"
	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/tokens"
)

func TestBuildPlanCatalogOrder(t *testing.T) {
	tok := tokens.Sample()
	plan := BuildPlan(tok, []StepKey{CornerRadii, PrimaryActions, ConvertLightMode, PrimaryActions, "unknown"}, nil)

	want := []StepKey{ConvertLightMode, PrimaryActions, CornerRadii}
	if len(plan) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(plan))
	}
	for i, k := range want {
		if plan[i].Key != k {
			t.Errorf("step %d: expected %s, got %s", i, k, plan[i].Key)
		}
		def, _ := Lookup(k)
		if plan[i].Name != def.Label || plan[i].Strength != def.Strength {
			t.Errorf("step %d does not match catalog: %+v", i, plan[i])
		}
		if plan[i].RegionHint != backend.RegionGlobal {
			t.Errorf("step %d: expected global region, got %q", i, plan[i].RegionHint)
		}
	}
}

func TestBuildPlanPromptsCarryTokens(t *testing.T) {
	tok := tokens.Sample()
	plan := BuildPlan(tok, []StepKey{PrimaryActions, CornerRadii}, nil)
	if len(plan) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan))
	}

	if !strings.Contains(plan[0].Prompt, "#C6FF00") {
		t.Errorf("primary prompt missing primary color: %s", plan[0].Prompt)
	}
	if !strings.Contains(plan[0].Prompt, "Algominds") {
		t.Errorf("primary prompt missing brand: %s", plan[0].Prompt)
	}
	if !strings.Contains(plan[1].Prompt, "Cards → 16px") {
		t.Errorf("radii prompt missing card radius: %s", plan[1].Prompt)
	}

	for _, s := range plan {
		if !strings.HasPrefix(s.NegativePrompt, assets.NegativeConstraints) {
			t.Errorf("%s: negative prompt missing shared constraints", s.Key)
		}
		if !strings.Contains(s.NegativePrompt, "primary #C6FF00") || !strings.Contains(s.NegativePrompt, "error #EF4444") {
			t.Errorf("%s: negative prompt missing exact colors: %s", s.Key, s.NegativePrompt)
		}
	}
}

func TestBuildPlanDropsDarkWhenBothModes(t *testing.T) {
	plan := BuildPlan(tokens.Sample(), []StepKey{ConvertDarkMode, ConvertLightMode}, nil)
	if len(plan) != 1 || plan[0].Key != ConvertLightMode {
		t.Errorf("expected only light mode conversion, got %+v", plan)
	}
}

func TestBuildPlanEmptyAndNil(t *testing.T) {
	if plan := BuildPlan(tokens.Sample(), nil, nil); len(plan) != 0 {
		t.Errorf("expected empty plan, got %d steps", len(plan))
	}
	if plan := BuildPlan(nil, DefaultStepKeys, nil); plan != nil {
		t.Errorf("expected nil plan for nil tokens, got %d steps", len(plan))
	}
}

func TestBuildPlanMinimalTokens(t *testing.T) {
	tok, err := tokens.Parse(`{"colors": {}, "radius": {}, "shadow": {}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	plan := BuildPlan(tok, DefaultStepKeys, nil)
	if len(plan) != len(DefaultStepKeys) {
		t.Fatalf("expected %d steps, got %d", len(DefaultStepKeys), len(plan))
	}
	if plan[0].NegativePrompt != assets.NegativeConstraints {
		t.Errorf("expected bare constraints without colors, got %q", plan[0].NegativePrompt)
	}
	if !strings.Contains(plan[0].Prompt, tokens.DefaultBrandName) {
		t.Errorf("expected default brand name in prompt: %s", plan[0].Prompt)
	}
}

func TestBuildPlanLogoClause(t *testing.T) {
	logo := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			logo.Set(x, y, color.NRGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF})
		}
	}

	plan := BuildPlan(tokens.Sample(), []StepKey{PrimaryActions, ChartsAndDataviz}, logo)
	for _, s := range plan {
		if !strings.Contains(s.Prompt, "\n\n") || !strings.HasSuffix(s.Prompt, "#FF0000.") {
			t.Errorf("%s: expected logo clause with #FF0000, got %s", s.Key, s.Prompt)
		}
	}

	noLogo := BuildPlan(tokens.Sample(), []StepKey{PrimaryActions}, nil)
	if strings.Contains(noLogo[0].Prompt, "logo") {
		t.Errorf("unexpected logo clause without a logo: %s", noLogo[0].Prompt)
	}
}

func TestBuildPlanDeterministic(t *testing.T) {
	a := BuildPlan(tokens.Sample(), DefaultStepKeys, nil)
	b := BuildPlan(tokens.Sample(), DefaultStepKeys, nil)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("step %d differs between builds", i)
		}
	}
}
