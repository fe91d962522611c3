// Package screen owns the watchface regions and the display state behind them.
//
// The drawing itself belongs to a Toolkit: the host UI layer that creates
// regions, sets their text, shows or hides them and redraws the ones marked
// dirty. Context is the single owner of every region handle for one window.
package screen

import (
	"errors"
	"image"

	"github.com/couchcryptid/radial-watchface/internal/domain"
)

// ErrUnknownRegion is returned by toolkits for handles they did not issue.
var ErrUnknownRegion = errors.New("screen: unknown region")

// RegionID is a toolkit-issued region handle.
type RegionID int

// Align is horizontal text alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Color is a monochrome paint.
type Color int

const (
	ColorClear Color = iota
	ColorBlack
	ColorWhite
)

// Font names a face the toolkit knows how to load.
type Font string

const (
	FontLarge Font = "large"
	FontSmall Font = "small"
)

// Bitmap names a built-in image resource.
type Bitmap string

// BitmapLightning is the charging glyph.
const BitmapLightning Bitmap = "lightning"

// TextSpec describes a text region.
type TextSpec struct {
	Frame      image.Rectangle
	Align      Align
	Color      Color
	Background Color
	Font       Font
	Text       string
}

// Canvas is handed to custom drawing callbacks.
type Canvas interface {
	// FillRadial fills the ring inscribed in frame between the outer edge
	// and inset pixels inward, over arc. An empty arc draws nothing.
	FillRadial(frame image.Rectangle, inset int, arc domain.Arc, c Color)
}

// DrawFunc redraws a canvas region.
type DrawFunc func(c Canvas, frame image.Rectangle)

// Toolkit is the host UI layer.
type Toolkit interface {
	Bounds() image.Rectangle
	SetBackground(c Color)

	CreateText(spec TextSpec) (RegionID, error)
	CreateCanvas(frame image.Rectangle, draw DrawFunc) (RegionID, error)
	CreateBitmap(frame image.Rectangle, bitmap Bitmap) (RegionID, error)

	SetText(id RegionID, text string)
	SetHidden(id RegionID, hidden bool)
	MarkDirty(id RegionID)
	Destroy(id RegionID)
}
