package restyle

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/filehandler"
	"github.com/fpang/ui-restyler/internal/jobs"
	"github.com/fpang/ui-restyler/internal/metrics"
)

const (
	// seedModulus bounds every resolved seed to [0, 1e9).
	seedModulus = 1_000_000_000
	// MinStrength is the floor applied after the strength multiplier.
	MinStrength = 0.05
	// LogoFileName is the reference copy of the brand logo in a run directory.
	LogoFileName = "brand_logo.png"
)

// ErrLogoPersistence marks a failed brand logo save. It is logged and the
// run continues.
var ErrLogoPersistence = errors.New("failed to save brand logo reference")

// RunOptions controls one plan execution.
type RunOptions struct {
	// Seed <= 0 draws a fresh random seed for every step.
	Seed               int64
	Backend            backend.Editor
	StrengthMultiplier float64
	SeedJitter         bool
	SaveDir            string
	Logo               image.Image
	// Metrics, when set, receives one EMF record per step and per run.
	Metrics *metrics.Emitter
}

// RunResult holds everything a run produced, including partial results when
// a step fails.
type RunResult struct {
	RunID       string
	RunDir      string
	Outputs     []image.Image
	OutputPaths []string
	Log         []string
	// Final is the last output, or the converted input when the plan is empty.
	Final image.Image
}

// ResolveSeed returns the seed for step index.
func ResolveSeed(base int64, index int, jitter bool) int64 {
	if base <= 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(seedModulus))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to draw random seed")
		}
		return n.Int64()
	}
	if jitter {
		return (base%seedModulus + int64(index)%seedModulus) % seedModulus
	}
	return base
}

// EffectiveStrength applies the multiplier and the MinStrength floor.
// A NaN product falls to the floor.
func EffectiveStrength(base, multiplier float64) float64 {
	s := base * multiplier
	if math.IsNaN(s) {
		return MinStrength
	}
	return math.Max(MinStrength, s)
}

// ValidMultiplier reports whether m is a finite, non-negative strength multiplier.
func ValidMultiplier(m float64) bool {
	return m >= 0 && !math.IsInf(m, 0)
}

// RunPlan executes plan sequentially, feeding each step's output into the
// next. Prompt text and every output image are written to a fresh run
// directory under opts.SaveDir. A step failure stops the run; the partial
// result is returned alongside the error and nothing on disk is removed.
func RunPlan(ctx context.Context, img image.Image, plan Plan, opts RunOptions) (*RunResult, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}

	runID := jobs.NewRunID()
	runDir := filepath.Join(opts.SaveDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	res := &RunResult{RunID: runID, RunDir: runDir}
	current := image.Image(filehandler.ToNRGBA(img))
	runStart := time.Now()

	log.Info().
		Str("run_id", runID).
		Str("backend", opts.Backend.Name()).
		Int("steps", len(plan)).
		Int64("seed", opts.Seed).
		Float64("strength_multiplier", opts.StrengthMultiplier).
		Bool("seed_jitter", opts.SeedJitter).
		Msg("Starting restyle run")

	if opts.Logo != nil {
		path, err := filehandler.SaveImage(filehandler.ToNRGBA(opts.Logo), runDir, LogoFileName)
		if err != nil {
			log.Warn().Err(fmt.Errorf("%w: %v", ErrLogoPersistence, err)).Str("run_id", runID).Msg("Continuing without logo reference")
			res.Log = append(res.Log, fmt.Sprintf("[logo] Failed to save brand logo reference: %v", err))
		} else {
			res.Log = append(res.Log, fmt.Sprintf("[logo] Saved brand logo reference to: %s", path))
		}
	}

	for i, step := range plan {
		seed := ResolveSeed(opts.Seed, i, opts.SeedJitter)
		strength := EffectiveStrength(step.Strength, opts.StrengthMultiplier)
		name := stepFileName(step, i)

		promptPath := filepath.Join(runDir, fmt.Sprintf("%02d_%s_prompt.txt", i, name))
		promptText := fmt.Sprintf("PROMPT:\n%s\n\nNEGATIVE:\n%s\n", step.Prompt, step.NegativePrompt)
		if err := os.WriteFile(promptPath, []byte(promptText), 0644); err != nil {
			res.Final = current
			return res, fmt.Errorf("step %d/%d (%s): failed to write prompt: %w", i+1, len(plan), step.Name, err)
		}

		stepStart := time.Now()
		out, err := opts.Backend.ApplyEdit(ctx, current, backend.EditRequest{
			Prompt:         step.Prompt,
			NegativePrompt: step.NegativePrompt,
			RegionHint:     step.RegionHint,
			Strength:       strength,
			Seed:           seed,
		})
		elapsed := time.Since(stepStart)
		if err != nil {
			recordStep(opts, runID, step, seed, strength, elapsed, "error")
			recordRun(opts, runID, len(res.Outputs), time.Since(runStart), "error")
			log.Error().Err(err).Str("run_id", runID).Int("step", i+1).Str("name", step.Name).Msg("Restyle step failed")
			res.Final = current
			return res, fmt.Errorf("step %d/%d (%s): %w", i+1, len(plan), step.Name, err)
		}

		outPath, err := filehandler.SaveImage(out, runDir, fmt.Sprintf("%02d_%s.png", i, name))
		if err != nil {
			res.Final = current
			return res, fmt.Errorf("step %d/%d (%s): %w", i+1, len(plan), step.Name, err)
		}

		res.Outputs = append(res.Outputs, out)
		res.OutputPaths = append(res.OutputPaths, outPath)
		res.Log = append(res.Log, fmt.Sprintf("[%d/%d] %s (seed=%d, strength=%.2f) → %s", i+1, len(plan), step.Name, seed, strength, outPath))
		recordStep(opts, runID, step, seed, strength, elapsed, "success")

		log.Info().
			Str("run_id", runID).
			Int("step", i+1).
			Str("name", step.Name).
			Int64("seed", seed).
			Float64("strength", strength).
			Dur("duration", elapsed).
			Msg("Restyle step complete")

		current = out
	}

	res.Final = current
	recordRun(opts, runID, len(res.Outputs), time.Since(runStart), "success")

	log.Info().
		Str("run_id", runID).
		Int("outputs", len(res.Outputs)).
		Dur("duration", time.Since(runStart)).
		Msg("Restyle run complete")

	return res, nil
}

// stepFileName is the step label with path separators replaced.
func stepFileName(step EditStep, i int) string {
	name := step.Name
	if name == "" {
		name = fmt.Sprintf("step_%d", i+1)
	}
	return strings.NewReplacer("/", "-", `\`, "-").Replace(name)
}

func recordStep(opts RunOptions, runID string, step EditStep, seed int64, strength float64, elapsed time.Duration, result string) {
	if opts.Metrics == nil {
		return
	}
	opts.Metrics.New().
		Dimension("Backend", opts.Backend.Name()).
		Dimension("Result", result).
		Metric("StepLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Metric("StepStrength", strength, metrics.UnitNone).
		Property("runId", runID).
		Property("step", string(step.Key)).
		Property("seed", seed).
		Flush()
}

func recordRun(opts RunOptions, runID string, outputs int, elapsed time.Duration, result string) {
	if opts.Metrics == nil {
		return
	}
	opts.Metrics.New().
		Dimension("Backend", opts.Backend.Name()).
		Dimension("Result", result).
		Metric("RunLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Metric("RunSteps", float64(outputs), metrics.UnitCount).
		Property("runId", runID).
		Flush()
}
