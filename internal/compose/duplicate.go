package compose

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"photobooth/internal/domain/artifact"
)

// duplicateStrip lays two copies of a strip render onto one sheet.
// Portrait keeps the strips upright side by side, sized 2W x H, for
// printers that cut strips. Landscape rotates the strip 90 degrees and
// stacks the copies, sized H x 2W, for standard 4x6 sheet printers.
func duplicateStrip(strip image.Image, orientation artifact.Orientation) image.Image {
	b := strip.Bounds()
	w, h := b.Dx(), b.Dy()
	white := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	if orientation == artifact.OrientationLandscape {
		rotated := imaging.Rotate90(strip)
		sheet := imaging.New(h, 2*w, white)
		sheet = imaging.Paste(sheet, rotated, image.Pt(0, 0))
		sheet = imaging.Paste(sheet, rotated, image.Pt(0, w))
		return sheet
	}

	sheet := imaging.New(2*w, h, white)
	sheet = imaging.Paste(sheet, strip, image.Pt(0, 0))
	sheet = imaging.Paste(sheet, strip, image.Pt(w, 0))
	return sheet
}
