package raster

import (
	"fmt"
	"image"
	"math"

	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Scale factors applied to basicfont.Face7x13 per named font.
var fontScale = map[screen.Font]int{
	screen.FontSmall: 1,
	screen.FontLarge: 3,
}

// UnknownBitmapError is returned when a bitmap region names no built-in glyph.
type UnknownBitmapError struct {
	Bitmap screen.Bitmap
}

func (e *UnknownBitmapError) Error() string {
	return fmt.Sprintf("raster: unknown bitmap %q", e.Bitmap)
}

// glyphs are the built-in bitmaps; '#' is a lit pixel.
var glyphs = map[screen.Bitmap][]string{
	screen.BitmapLightning: {
		"........##....",
		".......##.....",
		"......###.....",
		".....###......",
		"....###.......",
		"...#########..",
		"..#########...",
		"......###.....",
		".....###......",
		"....###.......",
		"...##.........",
		"..##..........",
		".#............",
		"..............",
	},
}

// rasterize renders text at 1x into an alpha mask using the 7x13 face.
func rasterize(text string) *image.Alpha {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	mask := image.NewAlpha(image.Rect(0, 0, width, face.Height))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)
	return mask
}

// drawText paints spec.Text aligned inside clip, scaling the face with
// nearest-neighbour sampling. Pixels outside clip are dropped.
func drawText(img *image1bit.VerticalLSB, clip image.Rectangle, spec screen.TextSpec) {
	if bg, ok := bitOf(spec.Background); ok {
		fillRect(img, clip, bg)
	}
	ink, ok := bitOf(spec.Color)
	if !ok || spec.Text == "" {
		return
	}

	scale := fontScale[spec.Font]
	if scale == 0 {
		scale = 1
	}
	mask := rasterize(spec.Text)
	w := mask.Bounds().Dx() * scale

	x0 := spec.Frame.Min.X
	switch spec.Align {
	case screen.AlignCenter:
		x0 += (spec.Frame.Dx() - w) / 2
	case screen.AlignRight:
		x0 = spec.Frame.Max.X - w
	}
	y0 := spec.Frame.Min.Y

	mb := mask.Bounds()
	for my := mb.Min.Y; my < mb.Max.Y; my++ {
		for mx := mb.Min.X; mx < mb.Max.X; mx++ {
			if mask.AlphaAt(mx, my).A < 0x80 {
				continue
			}
			block := image.Rect(x0+mx*scale, y0+my*scale, x0+(mx+1)*scale, y0+(my+1)*scale)
			fillRect(img, block.Intersect(clip), ink)
		}
	}
}

// drawGlyph paints a glyph from the top-left corner of clip.
func drawGlyph(img *image1bit.VerticalLSB, clip image.Rectangle, rows []string) {
	for y, row := range rows {
		for x, c := range row {
			p := image.Pt(clip.Min.X+x, clip.Min.Y+y)
			if c == '#' && p.In(clip) {
				img.SetBit(p.X, p.Y, image1bit.On)
			}
		}
	}
}

// canvas implements screen.Canvas over the frame being composed.
type canvas struct {
	img  *image1bit.VerticalLSB
	clip image.Rectangle
}

// FillRadial fills pixels of the ring inscribed in frame whose angle,
// clockwise from 12 o'clock, lies in [arc.Start, arc.End). The ring spans
// from the outer radius inward by inset; an inset at least as large as the
// radius fills a pie.
func (c *canvas) FillRadial(frame image.Rectangle, inset int, arc domain.Arc, col screen.Color) {
	ink, ok := bitOf(col)
	if !ok || arc.Empty() {
		return
	}

	cx := float64(frame.Min.X+frame.Max.X) / 2
	cy := float64(frame.Min.Y+frame.Max.Y) / 2
	outer := float64(min(frame.Dx(), frame.Dy())) / 2
	inner := max(outer-float64(inset), 0)

	area := frame.Intersect(c.clip)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			d := math.Hypot(dx, dy)
			if d > outer || d < inner {
				continue
			}
			if a := clockAngle(dx, dy); a >= arc.Start && a < arc.End {
				c.img.SetBit(x, y, ink)
			}
		}
	}
}

// clockAngle returns the angle of (dx, dy) in degrees, clockwise from
// 12 o'clock, in [0, 360). Screen y grows downward.
func clockAngle(dx, dy float64) float64 {
	deg := math.Atan2(dx, -dy) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
