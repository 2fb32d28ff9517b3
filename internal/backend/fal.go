package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/auth"
	"github.com/fpang/ui-restyler/internal/filehandler"
)

// FLUX.1 Kontext [dev] defaults on FAL.
const (
	DefaultFALQueueURL       = "https://queue.fal.run"
	DefaultFALStorageURL     = "https://rest.alpha.fal.ai"
	DefaultFALModel          = "fal-ai/flux-kontext/dev"
	DefaultNumInferenceSteps = 28
	DefaultGuidanceScale     = 2.5
	DefaultPollInterval      = time.Second
	DefaultDownloadTimeout   = 60 * time.Second
	DefaultRequestTimeout    = 60 * time.Second
)

// FALConfig configures the FAL backend. Zero values take the defaults above.
type FALConfig struct {
	QueueURL          string
	StorageURL        string
	Model             string
	NumInferenceSteps int
	GuidanceScale     float64
	PollInterval      time.Duration
	DownloadTimeout   time.Duration
	RequestTimeout    time.Duration
	// APIKey skips the environment and GPG lookup when set.
	APIKey string
}

func (c FALConfig) withDefaults() FALConfig {
	if c.QueueURL == "" {
		c.QueueURL = DefaultFALQueueURL
	}
	if c.StorageURL == "" {
		c.StorageURL = DefaultFALStorageURL
	}
	if c.Model == "" {
		c.Model = DefaultFALModel
	}
	if c.NumInferenceSteps <= 0 {
		c.NumInferenceSteps = DefaultNumInferenceSteps
	}
	if c.GuidanceScale <= 0 {
		c.GuidanceScale = DefaultGuidanceScale
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = DefaultDownloadTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	c.QueueURL = strings.TrimRight(c.QueueURL, "/")
	c.StorageURL = strings.TrimRight(c.StorageURL, "/")
	return c
}

// FALBackend edits images with FLUX.1 Kontext through the FAL queue API.
// It is safe for concurrent use; the credential is resolved once.
type FALBackend struct {
	cfg            FALConfig
	httpClient     *http.Client
	downloadClient *http.Client

	initOnce sync.Once
	apiKey   string
	initErr  error
}

// NewFAL creates a FAL backend. No network or credential access happens
// until the first ApplyEdit.
func NewFAL(cfg FALConfig) *FALBackend {
	cfg = cfg.withDefaults()
	return &FALBackend{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: cfg.RequestTimeout},
		downloadClient: &http.Client{Timeout: cfg.DownloadTimeout},
	}
}

// Name returns the backend's short name.
func (b *FALBackend) Name() string { return string(VariantFAL) }

// init resolves the API key exactly once and caches the outcome.
func (b *FALBackend) init() error {
	b.initOnce.Do(func() {
		if b.cfg.APIKey != "" {
			b.apiKey = b.cfg.APIKey
			return
		}
		key, err := auth.GetAPIKey(auth.FAL)
		if err != nil {
			b.initErr = newError(b.Name(), KindUnavailable, "missing FAL API key, set FAL_KEY or FAL_API_KEY", err)
			return
		}
		b.apiKey = key
		log.Debug().Str("model", b.cfg.Model).Msg("FAL backend initialized")
	})
	return b.initErr
}

// ApplyEdit uploads img, runs one Kontext generation and returns the result
// as NRGBA.
func (b *FALBackend) ApplyEdit(ctx context.Context, img image.Image, req EditRequest) (image.Image, error) {
	if err := b.init(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	imageURL, err := b.upload(ctx, img)
	if err != nil {
		return nil, newError(b.Name(), KindRequestFailed, "upload failed", err)
	}

	args := b.arguments(req, imageURL)

	log.Info().
		Str("model", b.cfg.Model).
		Int("prompt_len", len(args["prompt"].(string))).
		Int64("seed", req.Seed).
		Float64("strength", req.Strength).
		Msg("Submitting edit to FAL")

	result, err := b.subscribe(ctx, args)
	if err != nil {
		return nil, newError(b.Name(), KindRequestFailed, "generation failed", err)
	}

	ref, ok := extractImage(result)
	if !ok {
		raw, _ := json.Marshal(result)
		return nil, newError(b.Name(), KindResponseUnparseable,
			"response had no output image: "+truncateString(string(raw), 300), nil)
	}

	out, err := b.fetch(ctx, ref)
	if err != nil {
		return nil, newError(b.Name(), KindRequestFailed, "download failed", err)
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Msg("FAL edit complete")

	return filehandler.ToNRGBA(out), nil
}

// arguments builds the Kontext request body. The negative prompt has no
// dedicated field, so it is appended as a constraints paragraph.
func (b *FALBackend) arguments(req EditRequest, imageURL string) map[string]any {
	prompt := strings.TrimSpace(req.Prompt)
	if neg := strings.TrimSpace(req.NegativePrompt); neg != "" {
		prompt += "\n\nConstraints: " + neg
	}

	args := map[string]any{
		"prompt":                prompt,
		"image_url":             imageURL,
		"num_inference_steps":   b.cfg.NumInferenceSteps,
		"guidance_scale":        b.cfg.GuidanceScale,
		"num_images":            1,
		"enable_safety_checker": true,
		"output_format":         "png",
		"acceleration":          "none",
		"resolution_mode":       "match_input",
	}
	if req.Seed > 0 {
		args["seed"] = req.Seed
	}
	return args
}

// --- FAL REST API types ---

type initiateUploadRequest struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

type initiateUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

type queueSubmitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type queueStatus struct {
	Status string `json:"status"`
	Logs   []struct {
		Message string `json:"message"`
	} `json:"logs"`
}

// upload stores img as PNG on FAL storage and returns its public URL.
func (b *FALBackend) upload(ctx context.Context, img image.Image) (string, error) {
	data, err := filehandler.EncodePNG(img)
	if err != nil {
		return "", err
	}

	var initResp initiateUploadResponse
	err = b.doJSON(ctx, http.MethodPost, b.cfg.StorageURL+"/storage/upload/initiate",
		initiateUploadRequest{ContentType: "image/png", FileName: "input.png"}, &initResp)
	if err != nil {
		return "", fmt.Errorf("initiate upload: %w", err)
	}
	if initResp.UploadURL == "" || initResp.FileURL == "" {
		return "", fmt.Errorf("initiate upload: missing upload_url or file_url")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, initResp.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "image/png")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, truncateString(string(body), 200))
	}

	log.Debug().Int("bytes", len(data)).Str("file_url", initResp.FileURL).Msg("Input image uploaded to FAL storage")
	return initResp.FileURL, nil
}

// subscribe submits args to the queue, polls until completion and returns
// the decoded result document.
func (b *FALBackend) subscribe(ctx context.Context, args map[string]any) (map[string]any, error) {
	var submit queueSubmitResponse
	if err := b.doJSON(ctx, http.MethodPost, b.cfg.QueueURL+"/"+b.cfg.Model, args, &submit); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if submit.StatusURL == "" || submit.ResponseURL == "" {
		if submit.RequestID == "" {
			return nil, fmt.Errorf("submit: response has no request_id")
		}
		base := b.cfg.QueueURL + "/" + b.cfg.Model + "/requests/" + submit.RequestID
		submit.StatusURL = base + "/status"
		submit.ResponseURL = base
	}

	log.Debug().Str("request_id", submit.RequestID).Msg("FAL request queued")

	seenLogs := 0
	for {
		var status queueStatus
		if err := b.doJSON(ctx, http.MethodGet, withQuery(submit.StatusURL, "logs=1"), nil, &status); err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		for ; seenLogs < len(status.Logs); seenLogs++ {
			if msg := status.Logs[seenLogs].Message; msg != "" {
				log.Debug().Str("request_id", submit.RequestID).Msg(msg)
			}
		}

		switch status.Status {
		case "COMPLETED":
			var result map[string]any
			if err := b.doJSON(ctx, http.MethodGet, submit.ResponseURL, nil, &result); err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			return result, nil
		case "IN_QUEUE", "IN_PROGRESS", "":
		default:
			return nil, fmt.Errorf("unexpected queue status %q", status.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.cfg.PollInterval):
		}
	}
}

// doJSON performs an authenticated JSON request and decodes the response into out.
func (b *FALBackend) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Key "+b.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncateString(string(respBody), 300))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// fetch resolves an image reference: inline bytes, a data URI, or a URL
// downloaded with the download timeout.
func (b *FALBackend) fetch(ctx context.Context, ref imageRef) (image.Image, error) {
	data := ref.Data
	if data == nil && strings.HasPrefix(ref.URL, "data:") {
		comma := strings.IndexByte(ref.URL, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed data URI")
		}
		decoded, err := base64.StdEncoding.DecodeString(ref.URL[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("malformed data URI: %w", err)
		}
		data = decoded
	}

	if data == nil {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create download request: %w", err)
		}
		resp, err := b.downloadClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		log.Debug().Str("url", truncateString(ref.URL, 120)).Int("bytes", len(data)).Msg("Downloaded FAL output")
	}

	img, _, err := filehandler.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func withQuery(u, q string) string {
	if strings.Contains(u, "?") {
		return u + "&" + q
	}
	return u + "?" + q
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
