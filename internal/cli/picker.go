package cli

import (
	"errors"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrPickerCanceled is returned when the user closes the native dialog.
var ErrPickerCanceled = errors.New("file selection canceled")

var imagePatterns = []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp"}

// PickImage opens a native file dialog filtered to supported image types.
func PickImage(title string) (string, error) {
	selected, err := zenity.SelectFile(
		zenity.Title(title),
		zenity.FileFilters{
			{Name: "Images", Patterns: imagePatterns},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrPickerCanceled
		}
		log.Error().Err(err).Msg("File picker failed")
		return "", err
	}
	log.Info().Str("path", selected).Msg("Image picked via native dialog")
	return selected, nil
}
