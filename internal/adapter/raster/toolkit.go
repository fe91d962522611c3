// Package raster is an in-process screen.Toolkit that composes the watchface
// into a 1-bit framebuffer and hands finished frames to presenters.
package raster

import (
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/radial-watchface/internal/observability"
	"github.com/couchcryptid/radial-watchface/internal/screen"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Presenter shows a finished frame, e.g. on a physical panel.
type Presenter interface {
	Present(img image.Image) error
}

type regionKind int

const (
	kindText regionKind = iota
	kindCanvas
	kindBitmap
)

type region struct {
	kind   regionKind
	frame  image.Rectangle
	spec   screen.TextSpec
	draw   screen.DrawFunc
	bitmap screen.Bitmap
	hidden bool
}

// Toolkit implements screen.Toolkit and app.Flusher. Region calls come from
// the event loop; Snapshot may be called from any goroutine.
type Toolkit struct {
	logger     *slog.Logger
	metrics    *observability.Metrics
	presenters []Presenter

	mu         sync.Mutex
	bounds     image.Rectangle
	background screen.Color
	regions    map[screen.RegionID]*region
	order      []screen.RegionID
	next       screen.RegionID
	dirty      bool
	frame      *image1bit.VerticalLSB
}

// NewToolkit creates a toolkit of width x height pixels.
func NewToolkit(width, height int, logger *slog.Logger, metrics *observability.Metrics, presenters ...Presenter) *Toolkit {
	bounds := image.Rect(0, 0, width, height)
	return &Toolkit{
		logger:     logger,
		metrics:    metrics,
		presenters: presenters,
		bounds:     bounds,
		background: screen.ColorBlack,
		regions:    make(map[screen.RegionID]*region),
		frame:      image1bit.NewVerticalLSB(bounds),
	}
}

func (t *Toolkit) Bounds() image.Rectangle {
	return t.bounds
}

func (t *Toolkit) SetBackground(c screen.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.background = c
	t.dirty = true
}

func (t *Toolkit) CreateText(spec screen.TextSpec) (screen.RegionID, error) {
	return t.add(&region{kind: kindText, frame: spec.Frame, spec: spec}), nil
}

func (t *Toolkit) CreateCanvas(frame image.Rectangle, draw screen.DrawFunc) (screen.RegionID, error) {
	return t.add(&region{kind: kindCanvas, frame: frame, draw: draw}), nil
}

func (t *Toolkit) CreateBitmap(frame image.Rectangle, bitmap screen.Bitmap) (screen.RegionID, error) {
	if _, ok := glyphs[bitmap]; !ok {
		return 0, &UnknownBitmapError{Bitmap: bitmap}
	}
	return t.add(&region{kind: kindBitmap, frame: frame, bitmap: bitmap}), nil
}

func (t *Toolkit) add(r *region) screen.RegionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.regions[t.next] = r
	t.order = append(t.order, t.next)
	t.dirty = true
	return t.next
}

func (t *Toolkit) SetText(id screen.RegionID, text string) {
	t.update(id, func(r *region) { r.spec.Text = text })
}

func (t *Toolkit) SetHidden(id screen.RegionID, hidden bool) {
	t.update(id, func(r *region) { r.hidden = hidden })
}

func (t *Toolkit) MarkDirty(id screen.RegionID) {
	t.update(id, func(*region) {})
}

func (t *Toolkit) update(id screen.RegionID, fn func(*region)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.regions[id]
	if !ok {
		t.logger.Warn("update of unknown region", "region", id, "error", screen.ErrUnknownRegion)
		return
	}
	fn(r)
	t.dirty = true
}

func (t *Toolkit) Destroy(id screen.RegionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.regions[id]; !ok {
		return
	}
	delete(t.regions, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.dirty = true
}

// Flush recomposes the frame if anything changed since the last flush and
// hands it to every presenter.
func (t *Toolkit) Flush() {
	t.mu.Lock()
	if !t.dirty {
		t.mu.Unlock()
		return
	}
	img := t.compose()
	t.frame = img
	t.dirty = false
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.FramesDrawn.Inc()
	}
	for _, p := range t.presenters {
		if err := p.Present(img); err != nil {
			t.logger.Error("present frame failed", "error", err)
		}
	}
}

// compose draws every visible region in creation order. Caller holds mu.
func (t *Toolkit) compose() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(t.bounds)
	if bg, ok := bitOf(t.background); ok {
		fillRect(img, t.bounds, bg)
	}

	for _, id := range t.order {
		r := t.regions[id]
		if r.hidden {
			continue
		}
		clip := r.frame.Intersect(t.bounds)
		switch r.kind {
		case kindText:
			drawText(img, clip, r.spec)
		case kindBitmap:
			drawGlyph(img, clip, glyphs[r.bitmap])
		case kindCanvas:
			r.draw(&canvas{img: img, clip: clip}, r.frame)
		}
	}
	return img
}

// Snapshot returns a copy of the last flushed frame.
func (t *Toolkit) Snapshot() image.Image {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := image1bit.NewVerticalLSB(t.frame.Bounds())
	draw.Draw(out, out.Bounds(), t.frame, t.frame.Bounds().Min, draw.Src)
	return out
}

// WritePNG encodes the last flushed frame as PNG.
func (t *Toolkit) WritePNG(w io.Writer) error {
	return png.Encode(w, t.Snapshot())
}

func fillRect(img *image1bit.VerticalLSB, r image.Rectangle, b image1bit.Bit) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetBit(x, y, b)
		}
	}
}

// bitOf maps a screen color to a pixel value; false means transparent.
func bitOf(c screen.Color) (image1bit.Bit, bool) {
	switch c {
	case screen.ColorWhite:
		return image1bit.On, true
	case screen.ColorBlack:
		return image1bit.Off, true
	default:
		return image1bit.Off, false
	}
}
