// Package compose renders a template's canvas items and the captured
// photos into the final raster artifacts. Render is a pure function of
// its inputs: no session state, no hardware, no timers.
package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"photobooth/internal/domain/artifact"
	"photobooth/internal/domain/template"
)

// Options select output location and the strip duplication behavior.
// Orientation is an explicit configuration input, never inferred from
// printer state.
type Options struct {
	OutputDir       string
	BaseName        string
	DuplicateStrip  bool
	Orientation     artifact.Orientation
	DefaultFontPath string
}

// Result describes the rendered artifacts. PrintPath is empty unless
// strip duplication produced a separate sheet; the display artifact is
// always the un-duplicated render.
type Result struct {
	DisplayPath   string
	DisplayFormat artifact.Format
	PrintPath     string
	PrintFormat   artifact.Format
	Width         int
	Height        int
}

// Render draws every canvas item in ascending z-index over the
// background and writes the display artifact, plus the duplicated
// print sheet when the canvas is a strip and duplication is enabled.
// PRE: tmpl validates; photoPaths are the session's captured paths
// POST: Artifacts are fully written or absent, never partial
func Render(tmpl template.Template, photoPaths []string, opts Options) (Result, error) {
	if err := tmpl.Validate(); err != nil {
		return Result{}, fmt.Errorf("template invalid: %w", err)
	}
	if opts.BaseName == "" {
		opts.BaseName = "composed"
	}

	dc := gg.NewContext(tmpl.Width, tmpl.Height)

	bg := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	if tmpl.Background != "" {
		parsed, err := ParseHexColor(tmpl.Background)
		if err != nil {
			return Result{}, fmt.Errorf("background color: %w", err)
		}
		bg = parsed
	}
	dc.SetColor(bg)
	dc.Clear()

	for _, item := range tmpl.ItemsByZIndex() {
		dc.Push()
		if item.RotationDegrees != 0 {
			cx := item.X + item.Width/2
			cy := item.Y + item.Height/2
			dc.RotateAbout(gg.Radians(item.RotationDegrees), cx, cy)
		}
		var err error
		switch item.Kind {
		case template.KindPlaceholder:
			err = drawPlaceholder(dc, item, photoPaths)
		case template.KindImage:
			err = drawImage(dc, item)
		case template.KindText:
			err = drawText(dc, item, opts.DefaultFontPath)
		case template.KindShape:
			err = drawShape(dc, item)
		}
		dc.Pop()
		if err != nil {
			return Result{}, fmt.Errorf("item %s: %w", item.ID, err)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}
	displayPath := filepath.Join(opts.OutputDir, opts.BaseName+".png")
	if err := savePNGAtomic(dc.Image(), displayPath); err != nil {
		return Result{}, fmt.Errorf("save display artifact: %w", err)
	}

	res := Result{
		DisplayPath:   displayPath,
		DisplayFormat: artifact.FormatFor(tmpl.Width, tmpl.Height),
		Width:         tmpl.Width,
		Height:        tmpl.Height,
	}

	if opts.DuplicateStrip && artifact.IsStripAspect(tmpl.Width, tmpl.Height) {
		sheet := duplicateStrip(dc.Image(), opts.Orientation)
		printPath := filepath.Join(opts.OutputDir, opts.BaseName+"-print.png")
		if err := savePNGAtomic(sheet, printPath); err != nil {
			return Result{}, fmt.Errorf("save print artifact: %w", err)
		}
		res.PrintPath = printPath
		res.PrintFormat = artifact.Format4x6
	}

	return res, nil
}

// drawPlaceholder crop-fills the mapped captured photo into the item
// bounds. A slot beyond the captured set is skipped, never an error;
// a present but unreadable photo aborts composition.
func drawPlaceholder(dc *gg.Context, item template.CanvasItem, photoPaths []string) error {
	slot := item.SlotNumber - 1
	if slot < 0 || slot >= len(photoPaths) || photoPaths[slot] == "" {
		return nil
	}

	img, err := imaging.Open(photoPaths[slot])
	if err != nil {
		return fmt.Errorf("open photo %d: %w", item.SlotNumber, err)
	}

	if item.Outline != nil && item.Outline.Thickness > 0 {
		borderColor, err := ParseHexColor(item.Outline.Color)
		if err != nil {
			return fmt.Errorf("border color: %w", err)
		}
		t := item.Outline.Thickness
		dc.SetColor(borderColor)
		dc.DrawRectangle(item.X-t, item.Y-t, item.Width+2*t, item.Height+2*t)
		dc.Fill()
	}

	filled := imaging.Fill(img, int(item.Width), int(item.Height), imaging.Center, imaging.Lanczos)
	dc.DrawImage(filled, int(item.X), int(item.Y))
	return nil
}

// drawImage scales the referenced image to the item bounds.
func drawImage(dc *gg.Context, item template.CanvasItem) error {
	img, err := imaging.Open(item.SourcePath)
	if err != nil {
		return fmt.Errorf("open image asset: %w", err)
	}
	scaled := imaging.Resize(img, int(item.Width), int(item.Height), imaging.Lanczos)
	dc.DrawImage(scaled, int(item.X), int(item.Y))
	return nil
}

// drawShape fills then strokes a rectangle, ellipse or line. Empty
// fill or stroke colors mean the respective pass is skipped.
func drawShape(dc *gg.Context, item template.CanvasItem) error {
	switch item.Shape {
	case template.ShapeRectangle:
		dc.DrawRectangle(item.X, item.Y, item.Width, item.Height)
	case template.ShapeEllipse:
		dc.DrawEllipse(item.X+item.Width/2, item.Y+item.Height/2, item.Width/2, item.Height/2)
	case template.ShapeLine:
		dc.DrawLine(item.X, item.Y, item.X+item.Width, item.Y+item.Height)
	default:
		return fmt.Errorf("unknown shape %q", item.Shape)
	}

	hasFill := item.FillColor != "" && item.Shape != template.ShapeLine
	hasStroke := item.StrokeColor != "" && item.StrokeWidth > 0

	if hasFill {
		fill, err := ParseHexColor(item.FillColor)
		if err != nil {
			return fmt.Errorf("fill color: %w", err)
		}
		dc.SetColor(fill)
		if hasStroke {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if hasStroke {
		stroke, err := ParseHexColor(item.StrokeColor)
		if err != nil {
			return fmt.Errorf("stroke color: %w", err)
		}
		dc.SetColor(stroke)
		dc.SetLineWidth(item.StrokeWidth)
		dc.Stroke()
	}
	if !hasFill && !hasStroke {
		dc.ClearPath()
	}
	return nil
}

// savePNGAtomic writes the image to a temp file in the destination
// directory and renames it into place, so a failed encode never leaves
// a partial artifact behind.
func savePNGAtomic(img image.Image, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".compose-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
