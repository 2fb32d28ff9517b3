package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/ui-restyler/internal/backend"
)

func validTestConfig() *Config {
	return &Config{
		SaveDir:            "outputs",
		Backend:            "fal",
		Seed:               12345,
		StrengthMultiplier: 1.0,
		LogLevel:           "info",
		Server:             ServerConfig{Port: 7860, MaxUploadBytes: 1024},
		FAL:                FALConfig{NumInferenceSteps: 28, GuidanceScale: 2.5},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "outputs", cfg.SaveDir)
	assert.Equal(t, "fal", cfg.Backend)
	assert.Equal(t, backend.VariantFAL, cfg.Variant())
	assert.Equal(t, int64(12345), cfg.Seed)
	assert.Equal(t, 1.0, cfg.StrengthMultiplier)
	assert.True(t, cfg.SeedJitter)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Metrics.Enabled)

	assert.Equal(t, 7860, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:7860", cfg.Server.Address())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, backend.DefaultFALModel, cfg.FAL.Model)
	assert.Equal(t, backend.DefaultNumInferenceSteps, cfg.FAL.NumInferenceSteps)
	assert.Equal(t, time.Second, cfg.FAL.PollInterval)
	assert.Equal(t, backend.DefaultGeminiModel, cfg.Gemini.Model)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restyle.yaml")
	content := `
save_dir: /tmp/restyle
backend: "dry-run (no model)"
seed: 42
strength_multiplier: 0.5
seed_jitter: false
metrics:
  enabled: true
  namespace: Custom
fal:
  model: fal-ai/flux-kontext/pro
  poll_interval: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/restyle", cfg.SaveDir)
	assert.Equal(t, backend.VariantDryRun, cfg.Variant())
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 0.5, cfg.StrengthMultiplier)
	assert.False(t, cfg.SeedJitter)
	assert.True(t, cfg.Metrics.Enabled)
	assert.NotNil(t, cfg.MetricsEmitter())
	assert.Equal(t, "fal-ai/flux-kontext/pro", cfg.FAL.Model)
	assert.Equal(t, 250*time.Millisecond, cfg.FAL.PollInterval)

	opts := cfg.BackendOptions()
	assert.Equal(t, "fal-ai/flux-kontext/pro", opts.FAL.Model)
	assert.Equal(t, 250*time.Millisecond, opts.FAL.PollInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESTYLE_SEED", "7")
	t.Setenv("RESTYLE_BACKEND", "local")
	t.Setenv("RESTYLE_SERVER_PORT", "9000")
	t.Setenv("RESTYLE_FAL_NUM_INFERENCE_STEPS", "12")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, backend.VariantLocal, cfg.Variant())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 12, cfg.FAL.NumInferenceSteps)
	assert.Nil(t, cfg.MetricsEmitter())
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restyle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty save dir", func(c *Config) { c.SaveDir = "" }, "save_dir"},
		{"unknown backend", func(c *Config) { c.Backend = "midjourney" }, "backend"},
		{"negative multiplier", func(c *Config) { c.StrengthMultiplier = -0.1 }, "strength_multiplier"},
		{"NaN multiplier", func(c *Config) { c.StrengthMultiplier = math.NaN() }, "strength_multiplier"},
		{"infinite multiplier", func(c *Config) { c.StrengthMultiplier = math.Inf(1) }, "strength_multiplier"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"no upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "max_upload_bytes"},
		{"zero inference steps", func(c *Config) { c.FAL.NumInferenceSteps = 0 }, "num_inference_steps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NormalizesBackend(t *testing.T) {
	cfg := validTestConfig()
	cfg.Backend = "DRY_RUN"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "dry-run", cfg.Backend)
}
