// Package oled shows watchface frames on an SSD1306 panel over I²C.
package oled

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	xdraw "golang.org/x/image/draw"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

type panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// Presenter implements raster.Presenter. Frames larger than the panel are
// scaled down to fit, keeping their aspect ratio.
type Presenter struct {
	dev    panel
	bus    io.Closer
	logger *slog.Logger
}

// Open initializes the host drivers and opens the panel on the named I²C
// bus. An empty name selects the first bus found.
func Open(busName string, logger *slog.Logger) (*Presenter, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("init ssd1306: %w", err)
	}
	logger.Info("oled panel ready", "bus", busName, "bounds", dev.Bounds().String())
	return &Presenter{dev: dev, bus: bus, logger: logger}, nil
}

func (p *Presenter) Present(img image.Image) error {
	pb := p.dev.Bounds()
	out := image1bit.NewVerticalLSB(pb)
	xdraw.NearestNeighbor.Scale(out, fit(img.Bounds(), pb), img, img.Bounds(), xdraw.Src, nil)
	if err := p.dev.Draw(pb, out, image.Point{}); err != nil {
		return fmt.Errorf("draw oled frame: %w", err)
	}
	return nil
}

// Close turns the panel off and releases the bus.
func (p *Presenter) Close() error {
	return errors.Join(p.dev.Halt(), p.bus.Close())
}

// fit returns the largest rectangle with src's aspect ratio that fits in dst,
// centred. Sources that already fit are centred unscaled.
func fit(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw <= 0 || sh <= 0 {
		return image.Rectangle{}
	}

	w, h := sw, sh
	if w > dw || h > dh {
		if sw*dh > sh*dw {
			w, h = dw, sh*dw/sw
		} else {
			w, h = sw*dh/sh, dh
		}
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}
