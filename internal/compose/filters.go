package compose

import (
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"

	"photobooth/internal/domain/filter"
)

// ApplyFilter reads srcPath, applies the chosen pixel transform and
// writes the result to dstPath. It is deterministic: the same input
// and choice always produce the same output.
// PRE: srcPath is a readable image
// POST: dstPath holds the transformed image, or no file on error
func ApplyFilter(choice filter.Choice, srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}

	switch choice {
	case filter.None:
		// Saved unchanged so the caller always gets a file at dstPath.
	case filter.Grayscale:
		img = imaging.Grayscale(img)
	case filter.Sepia:
		img = imaging.AdjustFunc(imaging.Grayscale(img), func(c color.NRGBA) color.NRGBA {
			r := clamp8(float64(c.R) + 40)
			g := clamp8(float64(c.G) + 20)
			b := clamp8(float64(c.B) - 20)
			return color.NRGBA{R: r, G: g, B: b, A: c.A}
		})
	case filter.Vivid:
		img = imaging.AdjustContrast(imaging.AdjustSaturation(img, 35), 8)
	case filter.Soft:
		img = imaging.AdjustBrightness(imaging.Blur(img, 1.2), 4)
	default:
		return fmt.Errorf("%w: %q", filter.ErrUnknownChoice, choice)
	}

	if err := imaging.Save(img, dstPath); err != nil {
		return fmt.Errorf("save filtered photo: %w", err)
	}
	return nil
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
