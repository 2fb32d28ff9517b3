package cli

import (
	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/config"
)

// InitEditor resolves the backend named by name (or the configured default
// when empty) and constructs it. Exits fatally on an unknown name.
// Credentials for remote backends are checked on the first edit.
func InitEditor(cfg *config.Config, name string) backend.Editor {
	variant := cfg.Variant()
	if name != "" {
		v, err := backend.ParseVariant(name)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid backend")
		}
		variant = v
	}

	editor, err := backend.New(variant, cfg.BackendOptions())
	if err != nil {
		log.Fatal().Err(err).Str("backend", string(variant)).Msg("Failed to create backend")
	}

	log.Info().Str("backend", editor.Name()).Str("label", variant.Label()).Msg("Backend ready")
	return editor
}
