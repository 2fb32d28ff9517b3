package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/filehandler"
	"github.com/fpang/ui-restyler/internal/restyle"
	"github.com/fpang/ui-restyler/internal/tokens"
)

// ResolveImagePath checks that path is an existing regular file with a
// supported image extension and returns its absolute form.
func ResolveImagePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("failed to access %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", path)
	}
	if !filehandler.IsImagePath(path) {
		return "", fmt.Errorf("unsupported image type: %s", filepath.Ext(path))
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// ValidateAndResolveImage is ResolveImagePath that exits fatally on failure.
func ValidateAndResolveImage(path string) string {
	resolved, err := ResolveImagePath(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Invalid image")
	}
	return resolved
}

// ErrorMessage turns a restyle failure into user-facing guidance.
func ErrorMessage(err error) string {
	var be *backend.Error
	switch {
	case errors.As(err, &be):
		switch be.Kind {
		case backend.KindUnavailable:
			return "Backend unavailable. Set FAL_KEY (or GEMINI_API_KEY for gemini) or run scripts/setup-gpg-credentials.sh"
		case backend.KindRequestFailed:
			return "Edit request failed. Check your network connection and backend quota, then retry"
		case backend.KindResponseUnparseable:
			return "The backend returned no usable image. Try again or switch backends"
		}
		return "Backend error"
	case errors.Is(err, tokens.ErrMalformedTokens):
		return "Brand tokens are malformed. Provide JSON or YAML with colors, radius and shadow sections"
	case errors.Is(err, restyle.ErrInvalidStepSelection):
		return "Select either light mode or dark mode conversion, not both"
	case errors.Is(err, restyle.ErrMissingImage):
		return "Please provide a screenshot image (PNG/JPG)"
	default:
		return "Restyle failed"
	}
}

// HandleRestyleError logs err with guidance and exits.
func HandleRestyleError(err error) {
	log.Error().Err(err).Msg(ErrorMessage(err))
	os.Exit(1)
}
