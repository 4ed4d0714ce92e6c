package template_test

import (
	"testing"

	"photobooth/internal/domain/template"
)

func validTemplate() template.Template {
	return template.Template{
		ID:     "strip-classic",
		Name:   "Classic Strip",
		Width:  600,
		Height: 1800,
		Items: []template.CanvasItem{
			{ID: "p1", Kind: template.KindPlaceholder, SlotNumber: 1, Width: 560, Height: 400},
			{ID: "t1", Kind: template.KindText, Text: "Smile!", FontSize: 24, Width: 560, Height: 60},
		},
	}
}

// TestTemplate_Validate tests template-level validation.
func TestTemplate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*template.Template)
		wantErr bool
	}{
		{name: "valid", mutate: func(*template.Template) {}, wantErr: false},
		{name: "empty id", mutate: func(tt *template.Template) { tt.ID = "" }, wantErr: true},
		{name: "zero width", mutate: func(tt *template.Template) { tt.Width = 0 }, wantErr: true},
		{name: "negative height", mutate: func(tt *template.Template) { tt.Height = -5 }, wantErr: true},
		{name: "no items", mutate: func(tt *template.Template) { tt.Items = nil }, wantErr: true},
		{
			name:    "bad placeholder slot",
			mutate:  func(tt *template.Template) { tt.Items[0].SlotNumber = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := validTemplate()
			tt.mutate(&tmpl)
			if err := tmpl.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestCanvasItem_Validate tests kind-specific item validation.
func TestCanvasItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    template.CanvasItem
		wantErr bool
	}{
		{
			name:    "image without source",
			item:    template.CanvasItem{ID: "i", Kind: template.KindImage},
			wantErr: true,
		},
		{
			name:    "image with source",
			item:    template.CanvasItem{ID: "i", Kind: template.KindImage, SourcePath: "logo.png"},
			wantErr: false,
		},
		{
			name:    "shape with unknown type",
			item:    template.CanvasItem{ID: "s", Kind: template.KindShape, Shape: "triangle"},
			wantErr: true,
		},
		{
			name:    "line shape",
			item:    template.CanvasItem{ID: "s", Kind: template.KindShape, Shape: template.ShapeLine},
			wantErr: false,
		},
		{
			name:    "empty text is allowed",
			item:    template.CanvasItem{ID: "t", Kind: template.KindText},
			wantErr: false,
		},
		{
			name:    "unknown kind",
			item:    template.CanvasItem{ID: "x", Kind: "video"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.item.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestItemsByZIndex verifies ascending, stable ordering without
// mutating the template.
func TestItemsByZIndex(t *testing.T) {
	tmpl := template.Template{
		ID: "t", Width: 100, Height: 100,
		Items: []template.CanvasItem{
			{ID: "back", Kind: template.KindShape, Shape: template.ShapeRectangle, ZIndex: 0},
			{ID: "top", Kind: template.KindText, ZIndex: 5},
			{ID: "mid-a", Kind: template.KindPlaceholder, SlotNumber: 1, ZIndex: 2},
			{ID: "mid-b", Kind: template.KindPlaceholder, SlotNumber: 2, ZIndex: 2},
		},
	}

	sorted := tmpl.ItemsByZIndex()
	got := make([]string, len(sorted))
	for i, it := range sorted {
		got[i] = it.ID
	}
	want := []string{"back", "mid-a", "mid-b", "top"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	if tmpl.Items[1].ID != "top" {
		t.Error("ItemsByZIndex mutated the template's own item order")
	}
}

// TestPlaceholderCount counts only placeholder items.
func TestPlaceholderCount(t *testing.T) {
	tmpl := validTemplate()
	if n := tmpl.PlaceholderCount(); n != 1 {
		t.Errorf("PlaceholderCount() = %d, want 1", n)
	}
	tmpl.Items = append(tmpl.Items, template.CanvasItem{ID: "p2", Kind: template.KindPlaceholder, SlotNumber: 2})
	if n := tmpl.PlaceholderCount(); n != 2 {
		t.Errorf("PlaceholderCount() = %d, want 2", n)
	}
}
