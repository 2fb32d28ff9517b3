package backend

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/ui-restyler/internal/auth"
	"github.com/fpang/ui-restyler/internal/filehandler"
)

// DefaultGeminiModel is the Gemini image editing model.
const DefaultGeminiModel = "gemini-2.5-flash-image"

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	Model string
	// APIKey skips the environment and GPG lookup when set.
	APIKey string
}

// GeminiBackend edits images with a Gemini image model through the genai SDK.
type GeminiBackend struct {
	cfg GeminiConfig

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// NewGemini creates a Gemini backend. The client is created on first use.
func NewGemini(cfg GeminiConfig) *GeminiBackend {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	return &GeminiBackend{cfg: cfg}
}

// Name returns the backend's short name.
func (b *GeminiBackend) Name() string { return string(VariantGemini) }

func (b *GeminiBackend) init(ctx context.Context) error {
	b.initOnce.Do(func() {
		key := b.cfg.APIKey
		if key == "" {
			var err error
			key, err = auth.GetAPIKey(auth.Gemini)
			if err != nil {
				b.initErr = newError(b.Name(), KindUnavailable, "missing Gemini API key, set GEMINI_API_KEY", err)
				return
			}
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			b.initErr = newError(b.Name(), KindUnavailable, "failed to create Gemini client", err)
			return
		}
		b.client = client
		log.Debug().Str("model", b.cfg.Model).Msg("Gemini backend initialized")
	})
	return b.initErr
}

// ApplyEdit sends img with the instruction and returns the first image part
// of the response. Constraints travel as the system instruction.
func (b *GeminiBackend) ApplyEdit(ctx context.Context, img image.Image, req EditRequest) (image.Image, error) {
	if err := b.init(ctx); err != nil {
		return nil, err
	}

	data, err := filehandler.EncodePNG(img)
	if err != nil {
		return nil, newError(b.Name(), KindRequestFailed, "failed to encode input", err)
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if neg := strings.TrimSpace(req.NegativePrompt); neg != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: "Constraints: " + neg}},
		}
	}
	if req.Seed > 0 {
		seed := int32(req.Seed % math.MaxInt32)
		config.Seed = &seed
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: data}},
			{Text: req.Prompt},
		},
	}}

	startTime := time.Now()
	log.Info().
		Str("model", b.cfg.Model).
		Int("image_bytes", len(data)).
		Int64("seed", req.Seed).
		Msg("Sending image to Gemini for editing")

	resp, err := b.client.Models.GenerateContent(ctx, b.cfg.Model, contents, config)
	if err != nil {
		return nil, classifyGeminiError(b.Name(), err)
	}

	out, ok := firstInlineImage(resp)
	if !ok {
		return nil, newError(b.Name(), KindResponseUnparseable, "response contained no image part", nil)
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Msg("Gemini edit complete")

	return filehandler.ToNRGBA(out), nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) (image.Image, bool) {
	if resp == nil {
		return nil, false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				continue
			}
			img, _, err := filehandler.DecodeImage(bytes.NewReader(part.InlineData.Data))
			if err != nil {
				log.Warn().Err(err).Str("mime", part.InlineData.MIMEType).Msg("Skipping undecodable image part")
				continue
			}
			return img, true
		}
	}
	return nil, false
}

// classifyGeminiError maps authentication failures to KindUnavailable and
// everything else to KindRequestFailed.
func classifyGeminiError(name string, err error) *Error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return newError(name, KindUnavailable, "API key is invalid, expired, or lacks permissions", err)
		case 429:
			return newError(name, KindRequestFailed, "API rate limit exceeded", err)
		}
	}

	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied") {
		return newError(name, KindUnavailable, "API key is invalid or has been revoked", err)
	}
	return newError(name, KindRequestFailed, "generate content failed", err)
}
