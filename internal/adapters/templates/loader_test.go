package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photobooth/internal/domain/template"
)

const stripJSON = `{
	"id": "strip-3",
	"name": "Classic Strip",
	"width": 600,
	"height": 1800,
	"background": "#ffffff",
	"items": [
		{"id": "bg", "kind": "shape", "z_index": 0, "x": 0, "y": 0,
		 "width": 600, "height": 1800, "shape": "rectangle",
		 "fill_color": "#222222"},
		{"id": "p1", "kind": "placeholder", "z_index": 1, "x": 40, "y": 40,
		 "width": 520, "height": 480, "slot_number": 1},
		{"id": "p2", "kind": "placeholder", "z_index": 1, "x": 40, "y": 560,
		 "width": 520, "height": 480, "slot_number": 2},
		{"id": "p3", "kind": "placeholder", "z_index": 1, "x": 40, "y": 1080,
		 "width": 520, "height": 480, "slot_number": 3},
		{"id": "caption", "kind": "text", "z_index": 2, "x": 40, "y": 1620,
		 "width": 520, "height": 120, "text": "Summer Gala",
		 "font_size": 48, "color": "#ffffff", "align": "center",
		 "shadow": {"color": "#000000", "offset_x": 2, "offset_y": 2},
		 "outline": {"color": "#333333", "thickness": 1}}
	]
}`

func TestParse_FullStrip(t *testing.T) {
	tmpl, err := Parse([]byte(stripJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tmpl.ID != "strip-3" || tmpl.Width != 600 || tmpl.Height != 1800 {
		t.Errorf("header mismatch: %+v", tmpl)
	}
	if got := tmpl.PlaceholderCount(); got != 3 {
		t.Errorf("PlaceholderCount = %d, want 3", got)
	}
	if len(tmpl.Items) != 5 {
		t.Fatalf("items = %d, want 5", len(tmpl.Items))
	}

	caption := tmpl.Items[4]
	if caption.Kind != template.KindText {
		t.Errorf("caption kind = %q", caption.Kind)
	}
	if caption.Shadow == nil || caption.Shadow.OffsetX != 2 {
		t.Errorf("shadow not mapped: %+v", caption.Shadow)
	}
	if caption.Outline == nil || caption.Outline.Thickness != 1 {
		t.Errorf("outline not mapped: %+v", caption.Outline)
	}

	ordered := tmpl.ItemsByZIndex()
	if ordered[0].ID != "bg" || ordered[len(ordered)-1].ID != "caption" {
		t.Errorf("z-order wrong: first=%s last=%s", ordered[0].ID, ordered[len(ordered)-1].ID)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strip.json")
	if err := os.WriteFile(path, []byte(stripJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	tmpl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if tmpl.Name != "Classic Strip" {
		t.Errorf("name = %q", tmpl.Name)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"malformed", `{"id": `, "decode template"},
		{"no items", `{"id": "t", "width": 10, "height": 10, "items": []}`, "template invalid"},
		{"bad kind", `{"id": "t", "width": 10, "height": 10, "items": [
			{"id": "x", "kind": "sticker", "width": 5, "height": 5}]}`, "template invalid"},
		{"zero slot", `{"id": "t", "width": 10, "height": 10, "items": [
			{"id": "x", "kind": "placeholder", "width": 5, "height": 5}]}`, "template invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}
