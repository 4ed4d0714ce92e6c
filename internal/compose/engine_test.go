package compose_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"photobooth/internal/compose"
	"photobooth/internal/domain/artifact"
	"photobooth/internal/domain/template"
)

// writePhoto writes a solid-color PNG and returns its path.
func writePhoto(t *testing.T, dir, name string, c color.NRGBA, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create photo: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode photo: %v", err)
	}
	return path
}

func loadPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func pixelAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func stripTemplate() template.Template {
	return template.Template{
		ID:     "strip-classic",
		Width:  300,
		Height: 900,
		Items: []template.CanvasItem{
			{ID: "p1", Kind: template.KindPlaceholder, SlotNumber: 1, X: 20, Y: 20, Width: 260, Height: 200},
			{ID: "p2", Kind: template.KindPlaceholder, SlotNumber: 2, X: 20, Y: 240, Width: 260, Height: 200},
		},
	}
}

// TestRender_PureFunction renders the same inputs twice and requires
// byte-identical output.
func TestRender_PureFunction(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, "a.png", color.NRGBA{R: 200, G: 40, B: 40, A: 255}, 520, 400)
	tmpl := stripTemplate()
	paths := []string{photo, photo}

	r1, err := compose.Render(tmpl, paths, compose.Options{OutputDir: filepath.Join(dir, "out1"), BaseName: "s"})
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	r2, err := compose.Render(tmpl, paths, compose.Options{OutputDir: filepath.Join(dir, "out2"), BaseName: "s"})
	if err != nil {
		t.Fatalf("second render: %v", err)
	}

	b1, err := os.ReadFile(r1.DisplayPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	b2, err := os.ReadFile(r2.DisplayPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Error("renders of identical inputs differ")
	}
}

// TestRender_PlaceholderMapping verifies slot k draws photo k-1 when
// present and is silently skipped when absent.
func TestRender_PlaceholderMapping(t *testing.T) {
	dir := t.TempDir()
	red := writePhoto(t, dir, "red.png", color.NRGBA{R: 255, A: 255}, 520, 400)

	tmpl := stripTemplate()
	// Only the first photo is captured; slot 2 must be left unfilled.
	res, err := compose.Render(tmpl, []string{red}, compose.Options{OutputDir: dir, BaseName: "partial"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := loadPNG(t, res.DisplayPath)
	if got := pixelAt(out, 150, 120); got.R < 200 || got.G > 50 {
		t.Errorf("slot 1 center = %+v, want red photo", got)
	}
	// Unfilled slot shows the white background.
	if got := pixelAt(out, 150, 340); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Errorf("slot 2 center = %+v, want background", got)
	}
}

// TestRender_UnreadablePhoto aborts composition, leaving no artifact.
func TestRender_UnreadablePhoto(t *testing.T) {
	dir := t.TempDir()
	tmpl := stripTemplate()
	out := filepath.Join(dir, "out")
	_, err := compose.Render(tmpl, []string{filepath.Join(dir, "missing.png")}, compose.Options{OutputDir: out, BaseName: "x"})
	if err == nil {
		t.Fatal("expected error for unreadable photo")
	}
	if _, statErr := os.Stat(filepath.Join(out, "x.png")); !os.IsNotExist(statErr) {
		t.Error("partial artifact was persisted")
	}
}

// TestRender_StripDuplication checks sheet dimensions for both
// orientations and that the two copies match.
func TestRender_StripDuplication(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, "p.png", color.NRGBA{R: 10, G: 180, B: 90, A: 255}, 520, 400)
	tmpl := stripTemplate() // 300x900 is within strip tolerance of 1:3

	t.Run("portrait", func(t *testing.T) {
		res, err := compose.Render(tmpl, []string{photo, photo}, compose.Options{
			OutputDir:      filepath.Join(dir, "portrait"),
			BaseName:       "s",
			DuplicateStrip: true,
			Orientation:    artifact.OrientationPortrait,
		})
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if res.PrintPath == "" {
			t.Fatal("no print artifact produced")
		}
		sheet := loadPNG(t, res.PrintPath)
		if w, h := sheet.Bounds().Dx(), sheet.Bounds().Dy(); w != 600 || h != 900 {
			t.Fatalf("sheet = %dx%d, want 600x900", w, h)
		}
		// Two side-by-side copies are pixel-identical.
		for _, pt := range [][2]int{{150, 120}, {40, 700}, {299, 10}} {
			left := pixelAt(sheet, pt[0], pt[1])
			right := pixelAt(sheet, pt[0]+300, pt[1])
			if left != right {
				t.Errorf("copies differ at %v: %+v vs %+v", pt, left, right)
			}
		}
		if res.PrintFormat != artifact.Format4x6 {
			t.Errorf("print format = %s", res.PrintFormat)
		}
	})

	t.Run("landscape", func(t *testing.T) {
		res, err := compose.Render(tmpl, []string{photo, photo}, compose.Options{
			OutputDir:      filepath.Join(dir, "landscape"),
			BaseName:       "s",
			DuplicateStrip: true,
			Orientation:    artifact.OrientationLandscape,
		})
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		sheet := loadPNG(t, res.PrintPath)
		if w, h := sheet.Bounds().Dx(), sheet.Bounds().Dy(); w != 900 || h != 600 {
			t.Fatalf("sheet = %dx%d, want 900x600", w, h)
		}
		for _, pt := range [][2]int{{120, 150}, {700, 40}} {
			top := pixelAt(sheet, pt[0], pt[1])
			bottom := pixelAt(sheet, pt[0], pt[1]+300)
			if top != bottom {
				t.Errorf("copies differ at %v: %+v vs %+v", pt, top, bottom)
			}
		}
	})

	t.Run("display stays un-duplicated", func(t *testing.T) {
		res, err := compose.Render(tmpl, []string{photo, photo}, compose.Options{
			OutputDir:      filepath.Join(dir, "display"),
			BaseName:       "s",
			DuplicateStrip: true,
			Orientation:    artifact.OrientationPortrait,
		})
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		display := loadPNG(t, res.DisplayPath)
		if w, h := display.Bounds().Dx(), display.Bounds().Dy(); w != 300 || h != 900 {
			t.Errorf("display = %dx%d, want 300x900", w, h)
		}
		if res.DisplayFormat != artifact.Format2x6 {
			t.Errorf("display format = %s", res.DisplayFormat)
		}
	})
}

// TestRender_NoDuplicationForSheetCanvas verifies wide canvases never
// produce a print duplicate even with duplication enabled.
func TestRender_NoDuplicationForSheetCanvas(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, "p.png", color.NRGBA{B: 255, A: 255}, 520, 400)
	tmpl := template.Template{
		ID: "sheet", Width: 1200, Height: 1800,
		Items: []template.CanvasItem{
			{ID: "p1", Kind: template.KindPlaceholder, SlotNumber: 1, X: 100, Y: 100, Width: 1000, Height: 800},
		},
	}
	res, err := compose.Render(tmpl, []string{photo}, compose.Options{
		OutputDir: dir, BaseName: "sheet", DuplicateStrip: true, Orientation: artifact.OrientationPortrait,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.PrintPath != "" {
		t.Error("sheet canvas should not be duplicated")
	}
	if res.DisplayFormat != artifact.Format4x6 {
		t.Errorf("format = %s, want 4x6", res.DisplayFormat)
	}
}

// TestRender_ShapesAndText smoke-tests the remaining item kinds,
// including rotation isolation between items.
func TestRender_ShapesAndText(t *testing.T) {
	dir := t.TempDir()
	tmpl := template.Template{
		ID: "decor", Width: 400, Height: 400, Background: "#000000",
		Items: []template.CanvasItem{
			{
				ID: "rect", Kind: template.KindShape, Shape: template.ShapeRectangle,
				X: 50, Y: 50, Width: 100, Height: 100, FillColor: "#00FF00", ZIndex: 1,
			},
			{
				ID: "rotated", Kind: template.KindShape, Shape: template.ShapeRectangle,
				X: 250, Y: 250, Width: 60, Height: 60, FillColor: "#FF0000",
				RotationDegrees: 45, ZIndex: 2,
			},
			{
				ID: "caption", Kind: template.KindText, Text: "photobooth",
				X: 50, Y: 300, Width: 300, Height: 40, Color: "#FFFFFF",
				Align: template.AlignCenter, ZIndex: 3,
				Shadow: &template.Shadow{Color: "#888888", OffsetX: 2, OffsetY: 2},
			},
			{
				ID: "divider", Kind: template.KindShape, Shape: template.ShapeLine,
				X: 0, Y: 200, Width: 400, Height: 0, StrokeColor: "#FFFF00", StrokeWidth: 3, ZIndex: 4,
			},
		},
	}

	res, err := compose.Render(tmpl, nil, compose.Options{OutputDir: dir, BaseName: "decor"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := loadPNG(t, res.DisplayPath)
	if got := pixelAt(out, 100, 100); got.G < 200 {
		t.Errorf("filled rect center = %+v", got)
	}
	// The rotated square covers its own center but not its original
	// corner; rotation must not leak into the unrotated rect.
	if got := pixelAt(out, 280, 280); got.R < 200 {
		t.Errorf("rotated rect center = %+v", got)
	}
	if got := pixelAt(out, 10, 200); got.R < 200 || got.G < 200 || got.B > 60 {
		t.Errorf("line pixel = %+v, want yellow", got)
	}
	if got := pixelAt(out, 55, 55); got.G < 200 {
		t.Errorf("unrotated rect corner = %+v, rotation leaked", got)
	}
}

// TestParseHexColor tests the supported color notations.
func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#FFFFFF", want: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{in: "000000", want: color.NRGBA{A: 255}},
		{in: "#F00", want: color.NRGBA{R: 255, A: 255}},
		{in: "#11223344", want: color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
		{in: "#GG0000", wantErr: true},
		{in: "#12345", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := compose.ParseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
