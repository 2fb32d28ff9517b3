package backend

import (
	"context"
	"image"

	"github.com/rs/zerolog/log"
)

// passthrough returns its input unchanged.
type passthrough struct {
	name string
}

// NewLocal returns the offline placeholder backend. It performs no edit.
func NewLocal() Editor {
	return &passthrough{name: string(VariantLocal)}
}

// NewDryRun returns a backend that previews a plan without calling a model.
func NewDryRun() Editor {
	return &passthrough{name: string(VariantDryRun)}
}

func (p *passthrough) Name() string { return p.name }

func (p *passthrough) ApplyEdit(ctx context.Context, img image.Image, req EditRequest) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(p.name, KindRequestFailed, "cancelled", err)
	}
	log.Debug().
		Str("backend", p.name).
		Int("prompt_len", len(req.Prompt)).
		Int64("seed", req.Seed).
		Msg("Passthrough edit")
	return img, nil
}
