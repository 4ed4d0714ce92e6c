package template

import (
	"errors"
	"fmt"
	"sort"
)

// Domain errors
var (
	ErrEmptyID          = errors.New("template id cannot be empty")
	ErrInvalidDimension = errors.New("template dimensions must be positive")
	ErrNoItems          = errors.New("template has no canvas items")
	ErrInvalidSlot      = errors.New("placeholder slot number must be >= 1")
	ErrUnknownKind      = errors.New("unknown canvas item kind")
)

// ItemKind identifies what a canvas item renders.
type ItemKind string

const (
	KindPlaceholder ItemKind = "placeholder"
	KindImage       ItemKind = "image"
	KindText        ItemKind = "text"
	KindShape       ItemKind = "shape"
)

// ShapeType for KindShape items.
type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeEllipse   ShapeType = "ellipse"
	ShapeLine      ShapeType = "line"
)

// Alignment for single-line text items.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Shadow is an optional offset shadow behind text.
type Shadow struct {
	Color   string
	OffsetX float64
	OffsetY float64
}

// Outline is an optional stroke around text, or the border drawn
// behind a placeholder photo.
type Outline struct {
	Color     string
	Thickness float64
}

// CanvasItem is one renderable element of a template. Items are
// immutable once the template is selected for a session; draw order is
// ascending ZIndex. Rotation is degrees about the item's own center.
type CanvasItem struct {
	ID              string
	Kind            ItemKind
	ZIndex          int
	X               float64
	Y               float64
	Width           float64
	Height          float64
	RotationDegrees float64

	// KindPlaceholder: 1-based slot mapping to captured photo slot-1.
	SlotNumber int

	// KindImage
	SourcePath string

	// KindText
	Text     string
	FontPath string
	FontSize float64
	Color    string
	Align    Alignment
	Shadow   *Shadow
	Outline  *Outline

	// KindShape. Empty FillColor means no fill; empty StrokeColor
	// means no stroke.
	Shape       ShapeType
	FillColor   string
	StrokeColor string
	StrokeWidth float64
}

// Validate checks kind-specific required fields.
// PRE: CanvasItem struct is populated
// POST: Returns nil if valid, error otherwise
func (it *CanvasItem) Validate() error {
	if it.Width < 0 || it.Height < 0 {
		return fmt.Errorf("item %s: negative bounds", it.ID)
	}
	switch it.Kind {
	case KindPlaceholder:
		if it.SlotNumber < 1 {
			return ErrInvalidSlot
		}
	case KindImage:
		if it.SourcePath == "" {
			return fmt.Errorf("item %s: image source path is required", it.ID)
		}
	case KindText:
		// Empty text is allowed; it renders nothing.
	case KindShape:
		switch it.Shape {
		case ShapeRectangle, ShapeEllipse, ShapeLine:
		default:
			return fmt.Errorf("item %s: unknown shape %q", it.ID, it.Shape)
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

// Template is the full layout a session composes into.
type Template struct {
	ID         string
	Name       string
	Width      int
	Height     int
	Background string // hex color, empty means white
	Items      []CanvasItem
}

// Validate checks the template and every item.
// PRE: Template struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Template) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if t.Width <= 0 || t.Height <= 0 {
		return ErrInvalidDimension
	}
	if len(t.Items) == 0 {
		return ErrNoItems
	}
	for i := range t.Items {
		if err := t.Items[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ItemsByZIndex returns a copy of the items sorted by ascending
// ZIndex. The sort is stable so equal z-indexes keep template order.
// INVARIANT: Template items are not mutated
func (t *Template) ItemsByZIndex() []CanvasItem {
	items := make([]CanvasItem, len(t.Items))
	copy(items, t.Items)
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].ZIndex < items[b].ZIndex
	})
	return items
}

// PlaceholderCount returns how many photo placeholders the template
// declares, which drives the session's required photo count.
func (t *Template) PlaceholderCount() int {
	n := 0
	for i := range t.Items {
		if t.Items[i].Kind == KindPlaceholder {
			n++
		}
	}
	return n
}
