package raster

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/observability"
	"github.com/couchcryptid/radial-watchface/internal/screen"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPresenter struct {
	frames []image.Image
	err    error
}

func (p *recordingPresenter) Present(img image.Image) error {
	p.frames = append(p.frames, img)
	return p.err
}

func litIn(img image.Image, r image.Rectangle) int {
	n := 0
	bm := img.(*image1bit.VerticalLSB)
	r = r.Intersect(bm.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if bm.BitAt(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func newTestToolkit(presenters ...Presenter) (*Toolkit, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewToolkit(144, 168, discardLogger(), m, presenters...), m
}

func TestToolkit_FlushOnlyWhenDirty(t *testing.T) {
	p := &recordingPresenter{}
	tk, m := newTestToolkit(p)

	tk.Flush()
	assert.Empty(t, p.frames, "nothing changed yet")

	id, err := tk.CreateText(screen.TextSpec{Frame: image.Rect(0, 0, 144, 40), Color: screen.ColorWhite, Text: "12"})
	require.NoError(t, err)
	tk.Flush()
	tk.Flush()
	assert.Len(t, p.frames, 1)

	tk.SetText(id, "13")
	tk.Flush()
	assert.Len(t, p.frames, 2)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.FramesDrawn), 0)
}

func TestToolkit_TextStaysInsideFrame(t *testing.T) {
	frame := image.Rect(20, 40, 120, 90)

	for _, align := range []screen.Align{screen.AlignLeft, screen.AlignCenter, screen.AlignRight} {
		tk, _ := newTestToolkit()
		_, err := tk.CreateText(screen.TextSpec{
			Frame: frame, Align: align, Color: screen.ColorWhite, Font: screen.FontLarge, Text: "59",
		})
		require.NoError(t, err)
		tk.Flush()

		img := tk.Snapshot()
		total := litIn(img, img.Bounds())
		assert.Positive(t, total)
		assert.Equal(t, total, litIn(img, frame), "align %d drew outside its frame", align)
	}
}

func TestToolkit_TextAlignment(t *testing.T) {
	frame := image.Rect(0, 0, 144, 40)
	left := image.Rect(0, 0, 48, 40)
	right := image.Rect(96, 0, 144, 40)

	draw := func(a screen.Align) image.Image {
		tk, _ := newTestToolkit()
		_, err := tk.CreateText(screen.TextSpec{Frame: frame, Align: a, Color: screen.ColorWhite, Font: screen.FontSmall, Text: "9"})
		require.NoError(t, err)
		tk.Flush()
		return tk.Snapshot()
	}

	l := draw(screen.AlignLeft)
	assert.Positive(t, litIn(l, left))
	assert.Zero(t, litIn(l, right))

	r := draw(screen.AlignRight)
	assert.Zero(t, litIn(r, left))
	assert.Positive(t, litIn(r, right))
}

func TestToolkit_HiddenAndDestroyedRegionsAreNotDrawn(t *testing.T) {
	tk, _ := newTestToolkit()
	frame := image.Rect(20, 5, 34, 19)

	id, err := tk.CreateBitmap(frame, screen.BitmapLightning)
	require.NoError(t, err)
	tk.Flush()
	assert.Positive(t, litIn(tk.Snapshot(), frame))

	tk.SetHidden(id, true)
	tk.Flush()
	assert.Zero(t, litIn(tk.Snapshot(), frame))

	tk.SetHidden(id, false)
	tk.Destroy(id)
	tk.Flush()
	assert.Zero(t, litIn(tk.Snapshot(), frame))

	// Calls on a destroyed handle are ignored.
	tk.SetText(id, "x")
	tk.Destroy(id)
}

func TestToolkit_UnknownBitmap(t *testing.T) {
	tk, _ := newTestToolkit()
	_, err := tk.CreateBitmap(image.Rect(0, 0, 10, 10), "sun")

	var ub *UnknownBitmapError
	require.ErrorAs(t, err, &ub)
	assert.Equal(t, screen.Bitmap("sun"), ub.Bitmap)
}

func TestToolkit_FillRadialQuarter(t *testing.T) {
	tk, _ := newTestToolkit()
	frame := image.Rect(0, 0, 14, 14)
	_, err := tk.CreateCanvas(frame, func(c screen.Canvas, f image.Rectangle) {
		c.FillRadial(f, 20, domain.Arc{Start: 270, End: 360}, screen.ColorWhite)
	})
	require.NoError(t, err)
	tk.Flush()

	img := tk.Snapshot().(*image1bit.VerticalLSB)
	assert.Equal(t, image1bit.On, img.BitAt(3, 3), "top-left quadrant is inside [270,360)")
	assert.Equal(t, image1bit.Off, img.BitAt(10, 3), "top-right quadrant")
	assert.Equal(t, image1bit.Off, img.BitAt(3, 10), "bottom-left quadrant")
	assert.Equal(t, image1bit.Off, img.BitAt(10, 10), "bottom-right quadrant")
}

func TestToolkit_FillRadialRing(t *testing.T) {
	tk, _ := newTestToolkit()
	frame := image.Rect(0, 0, 40, 40)
	_, err := tk.CreateCanvas(frame, func(c screen.Canvas, f image.Rectangle) {
		c.FillRadial(f, 5, domain.Arc{Start: 0, End: 360}, screen.ColorWhite)
	})
	require.NoError(t, err)
	tk.Flush()

	img := tk.Snapshot().(*image1bit.VerticalLSB)
	assert.Equal(t, image1bit.Off, img.BitAt(20, 20), "centre is inside the inset")
	assert.Equal(t, image1bit.On, img.BitAt(20, 2), "ring pixel")
}

func TestToolkit_FillRadialEmptyArc(t *testing.T) {
	tk, _ := newTestToolkit()
	frame := image.Rect(0, 0, 14, 14)
	_, err := tk.CreateCanvas(frame, func(c screen.Canvas, f image.Rectangle) {
		c.FillRadial(f, 20, domain.BatteryArc(domain.BatteryStatus{ChargePercent: 0}), screen.ColorWhite)
	})
	require.NoError(t, err)
	tk.Flush()

	assert.Zero(t, litIn(tk.Snapshot(), frame))
}

func TestToolkit_PresenterErrorDoesNotStopFlush(t *testing.T) {
	failing := &recordingPresenter{err: errors.New("i2c nack")}
	ok := &recordingPresenter{}
	tk, _ := newTestToolkit(failing, ok)

	tk.SetBackground(screen.ColorWhite)
	tk.Flush()

	assert.Len(t, failing.frames, 1)
	assert.Len(t, ok.frames, 1)
}

func TestToolkit_SnapshotIsACopy(t *testing.T) {
	tk, _ := newTestToolkit()
	tk.SetBackground(screen.ColorWhite)
	tk.Flush()

	snap := tk.Snapshot().(*image1bit.VerticalLSB)
	snap.SetBit(0, 0, image1bit.Off)
	assert.Equal(t, image1bit.On, tk.Snapshot().(*image1bit.VerticalLSB).BitAt(0, 0))
}

func TestToolkit_WritePNG(t *testing.T) {
	tk, _ := newTestToolkit()
	tk.Flush()

	var buf bytes.Buffer
	require.NoError(t, tk.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 144, 168), img.Bounds())
}

func TestToolkit_DrivesScreenContext(t *testing.T) {
	tk, _ := newTestToolkit()
	sc := screen.NewContext()
	require.NoError(t, sc.Init(tk))
	defer sc.Teardown()

	sc.SetTime("9", "30")
	sc.SetBattery(domain.BatteryStatus{ChargePercent: 100, IsCharging: true})
	tk.Flush()

	img := tk.Snapshot()
	assert.Positive(t, litIn(img, image.Rect(5, 5, 19, 19)), "battery ring")
	assert.Positive(t, litIn(img, image.Rect(20, 5, 34, 19)), "charging glyph")
	assert.Positive(t, litIn(img, image.Rect(36, 20, 144, 130)), "time text")
}

func TestClockAngle(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   float64
	}{
		{"12 o'clock", 0, -1, 0},
		{"3 o'clock", 1, 0, 90},
		{"6 o'clock", 0, 1, 180},
		{"9 o'clock", -1, 0, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, clockAngle(tt.dx, tt.dy), 1e-9)
		})
	}
}
