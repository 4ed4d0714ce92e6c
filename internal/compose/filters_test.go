package compose_test

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"photobooth/internal/compose"
	"photobooth/internal/domain/filter"
)

// TestApplyFilter_Grayscale neutralizes color channels.
func TestApplyFilter_Grayscale(t *testing.T) {
	dir := t.TempDir()
	src := writePhoto(t, dir, "src.png", color.NRGBA{R: 220, G: 40, B: 40, A: 255}, 40, 40)
	dst := filepath.Join(dir, "gray.png")

	if err := compose.ApplyFilter(filter.Grayscale, src, dst); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	out := loadPNG(t, dst)
	px := pixelAt(out, 20, 20)
	if px.R != px.G || px.G != px.B {
		t.Errorf("grayscale pixel = %+v, want equal channels", px)
	}
}

// TestApplyFilter_NoneCopiesThrough writes an output file even with no
// transform so every slot ends up with a filtered path.
func TestApplyFilter_NoneCopiesThrough(t *testing.T) {
	dir := t.TempDir()
	src := writePhoto(t, dir, "src.png", color.NRGBA{R: 10, G: 20, B: 30, A: 255}, 24, 24)
	dst := filepath.Join(dir, "none.png")

	if err := compose.ApplyFilter(filter.None, src, dst); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	out := loadPNG(t, dst)
	if px := pixelAt(out, 12, 12); px != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel = %+v, want unchanged", px)
	}
}

// TestApplyFilter_Deterministic runs the same transform twice and
// expects identical bytes.
func TestApplyFilter_Deterministic(t *testing.T) {
	dir := t.TempDir()
	src := writePhoto(t, dir, "src.png", color.NRGBA{R: 120, G: 80, B: 60, A: 255}, 32, 32)

	for _, choice := range []filter.Choice{filter.Sepia, filter.Vivid, filter.Soft} {
		d1 := filepath.Join(dir, string(choice)+"-1.png")
		d2 := filepath.Join(dir, string(choice)+"-2.png")
		if err := compose.ApplyFilter(choice, src, d1); err != nil {
			t.Fatalf("%s first: %v", choice, err)
		}
		if err := compose.ApplyFilter(choice, src, d2); err != nil {
			t.Fatalf("%s second: %v", choice, err)
		}
		b1, _ := os.ReadFile(d1)
		b2, _ := os.ReadFile(d2)
		if !bytes.Equal(b1, b2) {
			t.Errorf("%s output differs between runs", choice)
		}
	}
}

// TestApplyFilter_Errors covers unreadable sources and unknown choices.
func TestApplyFilter_Errors(t *testing.T) {
	dir := t.TempDir()
	if err := compose.ApplyFilter(filter.Grayscale, filepath.Join(dir, "absent.png"), filepath.Join(dir, "out.png")); err == nil {
		t.Error("expected error for unreadable source")
	}
	src := writePhoto(t, dir, "src.png", color.NRGBA{A: 255}, 8, 8)
	if err := compose.ApplyFilter(filter.Choice("swirl"), src, filepath.Join(dir, "out.png")); err == nil {
		t.Error("expected error for unknown choice")
	}
}
