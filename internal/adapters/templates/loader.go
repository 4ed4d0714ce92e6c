// Package templates loads composition templates from JSON files on
// disk. The booth loads its template once at startup; editing templates
// is an offline activity, not an operator affordance.
package templates

import (
	"encoding/json"
	"fmt"
	"os"

	"photobooth/internal/domain/template"
)

type shadowFile struct {
	Color   string  `json:"color"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

type outlineFile struct {
	Color     string  `json:"color"`
	Thickness float64 `json:"thickness"`
}

type itemFile struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	ZIndex          int     `json:"z_index"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	RotationDegrees float64 `json:"rotation_degrees"`

	SlotNumber int    `json:"slot_number,omitempty"`
	SourcePath string `json:"source_path,omitempty"`

	Text     string       `json:"text,omitempty"`
	FontPath string       `json:"font_path,omitempty"`
	FontSize float64      `json:"font_size,omitempty"`
	Color    string       `json:"color,omitempty"`
	Align    string       `json:"align,omitempty"`
	Shadow   *shadowFile  `json:"shadow,omitempty"`
	Outline  *outlineFile `json:"outline,omitempty"`

	Shape       string  `json:"shape,omitempty"`
	FillColor   string  `json:"fill_color,omitempty"`
	StrokeColor string  `json:"stroke_color,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
}

type templateFile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Background string     `json:"background,omitempty"`
	Items      []itemFile `json:"items"`
}

// LoadFile reads and validates a template from a JSON file.
// PRE: path points to a template JSON document
// POST: Returns a validated template or an error naming the problem
func LoadFile(path string) (template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return template.Template{}, fmt.Errorf("read template: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a template JSON document.
func Parse(data []byte) (template.Template, error) {
	var tf templateFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return template.Template{}, fmt.Errorf("decode template: %w", err)
	}

	tmpl := template.Template{
		ID:         tf.ID,
		Name:       tf.Name,
		Width:      tf.Width,
		Height:     tf.Height,
		Background: tf.Background,
		Items:      make([]template.CanvasItem, 0, len(tf.Items)),
	}
	for _, it := range tf.Items {
		item := template.CanvasItem{
			ID:              it.ID,
			Kind:            template.ItemKind(it.Kind),
			ZIndex:          it.ZIndex,
			X:               it.X,
			Y:               it.Y,
			Width:           it.Width,
			Height:          it.Height,
			RotationDegrees: it.RotationDegrees,
			SlotNumber:      it.SlotNumber,
			SourcePath:      it.SourcePath,
			Text:            it.Text,
			FontPath:        it.FontPath,
			FontSize:        it.FontSize,
			Color:           it.Color,
			Align:           template.Alignment(it.Align),
			Shape:           template.ShapeType(it.Shape),
			FillColor:       it.FillColor,
			StrokeColor:     it.StrokeColor,
			StrokeWidth:     it.StrokeWidth,
		}
		if it.Shadow != nil {
			item.Shadow = &template.Shadow{
				Color:   it.Shadow.Color,
				OffsetX: it.Shadow.OffsetX,
				OffsetY: it.Shadow.OffsetY,
			}
		}
		if it.Outline != nil {
			item.Outline = &template.Outline{
				Color:     it.Outline.Color,
				Thickness: it.Outline.Thickness,
			}
		}
		tmpl.Items = append(tmpl.Items, item)
	}

	if err := tmpl.Validate(); err != nil {
		return template.Template{}, fmt.Errorf("template invalid: %w", err)
	}
	return tmpl, nil
}
