package restyle

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/filehandler"
	"github.com/fpang/ui-restyler/internal/metrics"
	"github.com/fpang/ui-restyler/internal/tokens"
)

// FinalFileName is written to the top-level save directory after every
// successful run, replacing the previous one.
const FinalFileName = "final.png"

// ErrMissingImage is returned when Restyle is called without a screenshot.
var ErrMissingImage = errors.New("please provide a screenshot image (PNG/JPG)")

// Request is one restyle invocation from a user-facing surface.
type Request struct {
	Image      image.Image
	Logo       image.Image
	TokensText string
	// Steps holds step keys or display labels. Empty selects DefaultStepKeys.
	Steps              []string
	Seed               int64
	StrengthMultiplier float64
	SeedJitter         bool
	Backend            backend.Editor
	SaveDir            string
	// ShowSteps includes every intermediate output in Result.Gallery.
	ShowSteps bool
	Metrics   *metrics.Emitter
}

// Result is what a surface shows the user.
type Result struct {
	Final     image.Image
	FinalPath string
	Gallery   []image.Image
	Plan      Plan
	Run       *RunResult
	// Info is the saved-path line followed by the run log.
	Info string
}

// Restyle validates a request, builds the plan, runs it and saves the final
// image. On a run failure the partial Result (with its log) is returned
// together with the error.
func Restyle(ctx context.Context, req Request) (*Result, error) {
	if req.Image == nil {
		return nil, ErrMissingImage
	}

	tok, err := tokens.Parse(req.TokensText)
	if err != nil {
		return nil, fmt.Errorf("invalid tokens: %w", err)
	}

	keys := StepsFromLabels(req.Steps)
	if len(keys) == 0 {
		keys = append([]StepKey(nil), DefaultStepKeys...)
	}
	if err := ValidateSelection(keys); err != nil {
		return nil, err
	}

	plan := BuildPlan(tok, keys, req.Logo)

	run, err := RunPlan(ctx, req.Image, plan, RunOptions{
		Seed:               req.Seed,
		Backend:            req.Backend,
		StrengthMultiplier: req.StrengthMultiplier,
		SeedJitter:         req.SeedJitter,
		SaveDir:            req.SaveDir,
		Logo:               req.Logo,
		Metrics:            req.Metrics,
	})
	if err != nil {
		res := &Result{Plan: plan, Run: run}
		if run != nil {
			res.Info = strings.Join(run.Log, "\n")
		}
		return res, err
	}

	finalPath, err := filehandler.SaveImage(run.Final, req.SaveDir, FinalFileName)
	if err != nil {
		return &Result{Plan: plan, Run: run, Info: strings.Join(run.Log, "\n")}, fmt.Errorf("failed to save final image: %w", err)
	}

	res := &Result{
		Final:     run.Final,
		FinalPath: finalPath,
		Plan:      plan,
		Run:       run,
		Info:      fmt.Sprintf("Saved final image to: %s\n\n", finalPath) + strings.Join(run.Log, "\n"),
	}
	if req.ShowSteps {
		res.Gallery = run.Outputs
	}
	return res, nil
}

// TokensFromForm builds a token document from form fields and returns it as
// indented JSON. It does not fail for any field values.
func TokensFromForm(f tokens.Form) (string, error) {
	return tokens.FromForm(f).JSON()
}

// LoadSampleTokens returns the contents of path when it can be read, and the
// built-in sample document otherwise.
func LoadSampleTokens(path string) string {
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err == nil && strings.TrimSpace(string(data)) != "" {
			return string(data)
		}
		if err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read sample tokens; using built-in sample")
		}
	}
	text, err := tokens.Sample().JSON()
	if err != nil {
		log.Error().Err(err).Msg("Failed to render built-in sample tokens")
		return ""
	}
	return text
}
