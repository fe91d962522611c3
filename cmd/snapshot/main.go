// Command snapshot renders one watchface frame to a PNG file, using the same
// coordinator and raster toolkit as the device build.
//
// Usage:
//
//	go run ./cmd/snapshot -time 09:30 -battery 70 -charging -temp -5 -out face.png
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/radial-watchface/internal/adapter/raster"
	"github.com/couchcryptid/radial-watchface/internal/appmsg"
	"github.com/couchcryptid/radial-watchface/internal/coordinator"
	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/observability"
	"github.com/couchcryptid/radial-watchface/internal/screen"
)

var baseDate = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

// offline rejects sends; a preview never talks to a peer.
type offline struct{}

func (offline) Send(appmsg.Dict) error { return errors.New("snapshot: no weather channel") }

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	clockFlag := flag.String("time", "10:08", "wall-clock time to render, HH:MM")
	pct := flag.Int("battery", 100, "battery charge percent")
	charging := flag.Bool("charging", false, "show the charging glyph")
	temp := flag.String("temp", "", "temperature in degrees; empty leaves the placeholder")
	use12h := flag.Bool("12h", false, "use the 12-hour clock")
	width := flag.Int("width", 144, "frame width in pixels")
	height := flag.Int("height", 168, "frame height in pixels")
	out := flag.String("out", "watchface.png", "output PNG path")
	flag.Parse()

	at, err := time.Parse("15:04", *clockFlag)
	if err != nil {
		return fmt.Errorf("parse -time: %w", err)
	}

	// Freeze the clock so the rendered reading matches -time.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate.Add(time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute)))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()

	tk := raster.NewToolkit(*width, *height, logger, metrics)
	sc := screen.NewContext()
	if err := sc.Init(tk); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer sc.Teardown()

	coord := coordinator.New(sc, offline{}, coordinator.FixedClockPreference(!*use12h), domain.DefaultPollMinutes, logger, metrics)
	coord.RenderTime(domain.Now())
	coord.Handle(domain.BatteryChanged{Status: domain.BatteryStatus{ChargePercent: *pct, IsCharging: *charging}})

	if *temp != "" {
		msg, err := weatherReply(*temp)
		if err != nil {
			return err
		}
		coord.Handle(domain.WeatherReceived{Message: msg})
	}
	tk.Flush()

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := tk.WritePNG(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Printf("wrote %s (%dx%d)", *out, *width, *height)
	return nil
}

// weatherReply builds the envelope a companion would send and decodes it
// again, so the preview goes through the wire codec.
func weatherReply(temp string) (appmsg.Dict, error) {
	v, err := strconv.ParseInt(temp, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parse -temp: %w", err)
	}
	b := appmsg.NewBuilder(appmsg.DefaultBufferSize)
	if err := b.WriteInt32(domain.KeyTemperature, int32(v)); err != nil {
		return nil, err
	}
	payload, err := appmsg.Marshal(b.Dict(), appmsg.DefaultBufferSize)
	if err != nil {
		return nil, err
	}
	return appmsg.Unmarshal(payload, appmsg.DefaultBufferSize)
}
