package compose

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"

	"photobooth/internal/domain/template"
)

// drawText renders a single line: shadow first, then outline, then the
// fill text, aligned within the item bounds. Text never wraps.
func drawText(dc *gg.Context, item template.CanvasItem, defaultFontPath string) error {
	if item.Text == "" {
		return nil
	}

	fontPath := item.FontPath
	if fontPath == "" {
		fontPath = defaultFontPath
	}
	size := item.FontSize
	if size <= 0 {
		size = 24
	}
	if fontPath != "" {
		if err := dc.LoadFontFace(fontPath, size); err != nil {
			return fmt.Errorf("load font %s: %w", fontPath, err)
		}
	}

	fill := color.NRGBA{A: 0xFF} // default black
	if item.Color != "" {
		parsed, err := ParseHexColor(item.Color)
		if err != nil {
			return fmt.Errorf("text color: %w", err)
		}
		fill = parsed
	}

	var x, ax float64
	switch item.Align {
	case template.AlignCenter:
		x, ax = item.X+item.Width/2, 0.5
	case template.AlignRight:
		x, ax = item.X+item.Width, 1
	default:
		x, ax = item.X, 0
	}
	y := item.Y + item.Height/2

	if item.Shadow != nil {
		shadow, err := ParseHexColor(item.Shadow.Color)
		if err != nil {
			return fmt.Errorf("shadow color: %w", err)
		}
		// Shadows render semi-transparent unless the color already
		// carries its own alpha.
		if shadow.A == 0xFF {
			shadow.A = 0x80
		}
		dc.SetColor(shadow)
		dc.DrawStringAnchored(item.Text, x+item.Shadow.OffsetX, y+item.Shadow.OffsetY, ax, 0.5)
	}

	if item.Outline != nil && item.Outline.Thickness > 0 {
		outline, err := ParseHexColor(item.Outline.Color)
		if err != nil {
			return fmt.Errorf("outline color: %w", err)
		}
		dc.SetColor(outline)
		t := item.Outline.Thickness
		// Stroke approximation: the glyphs drawn at eight offsets
		// around the fill position.
		for _, off := range [][2]float64{
			{-t, -t}, {0, -t}, {t, -t},
			{-t, 0}, {t, 0},
			{-t, t}, {0, t}, {t, t},
		} {
			dc.DrawStringAnchored(item.Text, x+off[0], y+off[1], ax, 0.5)
		}
	}

	dc.SetColor(fill)
	dc.DrawStringAnchored(item.Text, x, y, ax, 0.5)
	return nil
}
