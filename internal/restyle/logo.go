package restyle

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/fpang/ui-restyler/internal/filehandler"
)

const (
	// logoSampleSize bounds the longest side of the logo copy that is sampled.
	logoSampleSize = 64
	// logoAlphaThreshold excludes pixels that are mostly transparent.
	logoAlphaThreshold = 128
	// maxLogoColors caps the number of colors named in the logo clause.
	maxLogoColors = 5
)

type colorBucket struct {
	r, g, b uint64
	n       uint64
}

// DominantColors returns up to five hex colors that cover most of the
// logo's opaque pixels, most frequent first. Colors are quantized to 4 bits
// per channel for counting and reported as the mean of each bucket.
func DominantColors(logo image.Image) []string {
	if logo == nil {
		return nil
	}

	small := filehandler.Downscale(logo, logoSampleSize)
	bounds := small.Bounds()
	buckets := make(map[uint32]*colorBucket)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(small.At(x, y)).(color.NRGBA)
			if c.A < logoAlphaThreshold {
				continue
			}
			key := uint32(c.R>>4)<<8 | uint32(c.G>>4)<<4 | uint32(c.B>>4)
			bk := buckets[key]
			if bk == nil {
				bk = &colorBucket{}
				buckets[key] = bk
			}
			bk.r += uint64(c.R)
			bk.g += uint64(c.G)
			bk.b += uint64(c.B)
			bk.n++
		}
	}

	type swatch struct {
		hex   string
		count uint64
	}
	swatches := make([]swatch, 0, len(buckets))
	for _, bk := range buckets {
		swatches = append(swatches, swatch{
			hex:   fmt.Sprintf("#%02X%02X%02X", bk.r/bk.n, bk.g/bk.n, bk.b/bk.n),
			count: bk.n,
		})
	}
	sort.Slice(swatches, func(i, j int) bool {
		if swatches[i].count != swatches[j].count {
			return swatches[i].count > swatches[j].count
		}
		return swatches[i].hex < swatches[j].hex
	})

	seen := make(map[string]bool)
	var out []string
	for _, s := range swatches {
		if seen[s.hex] {
			continue
		}
		seen[s.hex] = true
		out = append(out, s.hex)
		if len(out) == maxLogoColors {
			break
		}
	}
	return out
}
