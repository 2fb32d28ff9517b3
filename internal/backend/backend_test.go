package backend

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"fal", VariantFAL, false},
		{"FAL (Kontext API)", VariantFAL, false},
		{"local (Kontext)", VariantLocal, false},
		{"dry-run (no model)", VariantDryRun, false},
		{" Dry-Run ", VariantDryRun, false},
		{"dryrun", VariantDryRun, false},
		{"gemini", VariantGemini, false},
		{"openai", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariantLabels(t *testing.T) {
	for _, v := range Variants() {
		parsed, err := ParseVariant(v.Label())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}

func TestNew(t *testing.T) {
	for _, v := range Variants() {
		ed, err := New(v, Options{})
		require.NoError(t, err)
		assert.Equal(t, string(v), ed.Name())
	}
	_, err := New("bogus", Options{})
	assert.Error(t, err)
}

func TestPassthroughReturnsInput(t *testing.T) {
	img := testImage(3, 2, color.White)
	for _, ed := range []Editor{NewLocal(), NewDryRun()} {
		out, err := ed.ApplyEdit(context.Background(), img, EditRequest{Prompt: "anything", Seed: 9})
		require.NoError(t, err)
		assert.Same(t, img, out)
	}
}

func TestPassthroughCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDryRun().ApplyEdit(ctx, testImage(1, 1, color.White), EditRequest{})
	assert.True(t, IsKind(err, KindRequestFailed))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := newError("fal", KindRequestFailed, "upload failed", cause)
	assert.Equal(t, "fal: backend request failed: upload failed: dial tcp: timeout", err.Error())
	assert.ErrorIs(t, err, cause)

	var be *Error
	require.True(t, errors.As(error(err), &be))
	assert.Equal(t, KindRequestFailed, be.Kind)
	assert.False(t, IsKind(cause, KindRequestFailed))
}

func TestGeminiMissingCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, err := NewGemini(GeminiConfig{}).ApplyEdit(context.Background(), testImage(1, 1, color.White), EditRequest{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnavailable), "got %v", err)
}

func TestClassifyGeminiError(t *testing.T) {
	assert.Equal(t, KindUnavailable, classifyGeminiError("gemini", errors.New("API key not valid. Please pass a valid API key.")).Kind)
	assert.Equal(t, KindRequestFailed, classifyGeminiError("gemini", errors.New("connection reset")).Kind)
}
