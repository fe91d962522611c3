// Package screentest provides an in-memory screen.Toolkit that records every
// primitive call, for tests of code that drives the screen.
package screentest

import (
	"errors"
	"fmt"
	"image"

	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/screen"
)

// Kind is the region type.
type Kind string

const (
	KindText   Kind = "text"
	KindCanvas Kind = "canvas"
	KindBitmap Kind = "bitmap"
)

// Region is the recorded state of one region.
type Region struct {
	Kind   Kind
	Spec   screen.TextSpec
	Frame  image.Rectangle
	Bitmap screen.Bitmap
	Text   string
	Hidden bool
	Dirty  int

	draw screen.DrawFunc
}

// FillCall records one Canvas.FillRadial call.
type FillCall struct {
	Frame image.Rectangle
	Inset int
	Arc   domain.Arc
	Color screen.Color
}

// Toolkit is a recording screen.Toolkit.
type Toolkit struct {
	Size       image.Rectangle
	Background screen.Color
	Regions    map[screen.RegionID]*Region
	Destroyed  []screen.RegionID
	Fills      []FillCall

	// FailAfter makes the Nth create call (1-based) fail when > 0.
	FailAfter int

	next    screen.RegionID
	creates int
}

// New returns a 144x168 recording toolkit.
func New() *Toolkit {
	return &Toolkit{
		Size:    image.Rect(0, 0, 144, 168),
		Regions: make(map[screen.RegionID]*Region),
	}
}

func (t *Toolkit) Bounds() image.Rectangle { return t.Size }

func (t *Toolkit) SetBackground(c screen.Color) { t.Background = c }

func (t *Toolkit) create(r *Region) (screen.RegionID, error) {
	t.creates++
	if t.FailAfter > 0 && t.creates >= t.FailAfter {
		return 0, errors.New("screentest: out of memory")
	}
	t.next++
	t.Regions[t.next] = r
	return t.next, nil
}

func (t *Toolkit) CreateText(spec screen.TextSpec) (screen.RegionID, error) {
	return t.create(&Region{Kind: KindText, Spec: spec, Frame: spec.Frame, Text: spec.Text})
}

func (t *Toolkit) CreateCanvas(frame image.Rectangle, draw screen.DrawFunc) (screen.RegionID, error) {
	return t.create(&Region{Kind: KindCanvas, Frame: frame, draw: draw})
}

func (t *Toolkit) CreateBitmap(frame image.Rectangle, bitmap screen.Bitmap) (screen.RegionID, error) {
	return t.create(&Region{Kind: KindBitmap, Frame: frame, Bitmap: bitmap})
}

func (t *Toolkit) region(id screen.RegionID) *Region {
	r, ok := t.Regions[id]
	if !ok {
		panic(fmt.Sprintf("screentest: region %d: %v", id, screen.ErrUnknownRegion))
	}
	return r
}

func (t *Toolkit) SetText(id screen.RegionID, text string) { t.region(id).Text = text }

func (t *Toolkit) SetHidden(id screen.RegionID, hidden bool) { t.region(id).Hidden = hidden }

func (t *Toolkit) MarkDirty(id screen.RegionID) { t.region(id).Dirty++ }

func (t *Toolkit) Destroy(id screen.RegionID) {
	t.region(id)
	delete(t.Regions, id)
	t.Destroyed = append(t.Destroyed, id)
}

// Redraw runs every visible canvas callback, recording fills.
func (t *Toolkit) Redraw() {
	for _, r := range t.Regions {
		if r.Kind == KindCanvas && !r.Hidden && r.draw != nil {
			r.draw(t, r.Frame)
		}
	}
}

// FillRadial implements screen.Canvas.
func (t *Toolkit) FillRadial(frame image.Rectangle, inset int, arc domain.Arc, c screen.Color) {
	t.Fills = append(t.Fills, FillCall{Frame: frame, Inset: inset, Arc: arc, Color: c})
}

// ByKind returns the regions of one kind.
func (t *Toolkit) ByKind(k Kind) []*Region {
	var out []*Region
	for _, r := range t.Regions {
		if r.Kind == k {
			out = append(out, r)
		}
	}
	return out
}

// TextAt returns the text region whose frame is f.
func (t *Toolkit) TextAt(f image.Rectangle) *Region {
	for _, r := range t.Regions {
		if r.Kind == KindText && r.Frame == f {
			return r
		}
	}
	return nil
}
