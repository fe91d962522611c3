package screen

import (
	"fmt"
	"image"

	"github.com/couchcryptid/radial-watchface/internal/domain"
)

// RingInset is the ring thickness in pixels. It is larger than the ring's
// radius, so the indicator fills as a pie.
const RingInset = 20

// Context owns the regions of one window and the DisplayState they show.
// It is not safe for concurrent use; the event loop is its only caller.
type Context struct {
	toolkit Toolkit
	active  bool

	hour     RegionID
	minute   RegionID
	temp     RegionID
	battery  RegionID
	charging RegionID

	created []RegionID
	state   domain.DisplayState
}

// NewContext returns an inactive context.
func NewContext() *Context {
	return &Context{state: domain.NewDisplayState()}
}

// Init creates the window regions on tk. It is bound to window show.
func (c *Context) Init(tk Toolkit) error {
	if c.active {
		return fmt.Errorf("screen: context already initialized")
	}
	c.toolkit = tk
	c.state = domain.NewDisplayState()
	c.created = c.created[:0]

	b := tk.Bounds()
	w, h := b.Dx(), b.Dy()
	tk.SetBackground(ColorBlack)

	var err error
	if c.minute, err = c.createText(TextSpec{
		Frame: rect(b, 0, h/2-28, w, h/2-10),
		Align: AlignCenter, Color: ColorWhite, Font: FontLarge,
	}); err != nil {
		return err
	}
	if c.hour, err = c.createText(TextSpec{
		Frame: rect(b, 28, 11, w-60, h/2-10),
		Align: AlignRight, Color: ColorWhite, Font: FontLarge,
	}); err != nil {
		return err
	}
	if c.temp, err = c.createText(TextSpec{
		Frame: rect(b, w/2, 0, w/2, 20),
		Align: AlignRight, Color: ColorWhite, Font: FontSmall,
		Text: c.state.TemperatureText,
	}); err != nil {
		return err
	}

	c.battery, err = tk.CreateCanvas(rect(b, 5, 5, 14, 14), c.drawBattery)
	if err != nil {
		c.Teardown()
		return fmt.Errorf("create battery region: %w", err)
	}
	c.created = append(c.created, c.battery)

	c.charging, err = tk.CreateBitmap(rect(b, 20, 5, 14, 14), BitmapLightning)
	if err != nil {
		c.Teardown()
		return fmt.Errorf("create charging region: %w", err)
	}
	c.created = append(c.created, c.charging)
	tk.SetHidden(c.charging, true)

	c.active = true
	return nil
}

func (c *Context) createText(spec TextSpec) (RegionID, error) {
	id, err := c.toolkit.CreateText(spec)
	if err != nil {
		c.Teardown()
		return 0, fmt.Errorf("create text region: %w", err)
	}
	c.created = append(c.created, id)
	return id, nil
}

// Teardown destroys every region in reverse creation order. It is bound to
// window hide; calling it on an inactive context is a no-op.
func (c *Context) Teardown() {
	if c.toolkit == nil {
		return
	}
	for i := len(c.created) - 1; i >= 0; i-- {
		c.toolkit.Destroy(c.created[i])
	}
	c.created = c.created[:0]
	c.active = false
	c.toolkit = nil
}

// Active reports whether the window is shown.
func (c *Context) Active() bool {
	return c.active
}

// Regions holds the handles of an initialized context.
type Regions struct {
	Hour        RegionID
	Minute      RegionID
	Temperature RegionID
	Battery     RegionID
	Charging    RegionID
}

// Regions returns the region handles issued by the toolkit.
func (c *Context) Regions() Regions {
	return Regions{Hour: c.hour, Minute: c.minute, Temperature: c.temp, Battery: c.battery, Charging: c.charging}
}

// State returns a copy of the current display state.
func (c *Context) State() domain.DisplayState {
	return c.state
}

// SetTime commits the hour and minute text and marks both regions dirty.
func (c *Context) SetTime(hourText, minuteText string) {
	if !c.active {
		return
	}
	c.state.HourText = hourText
	c.state.MinuteText = minuteText
	c.toolkit.SetText(c.hour, hourText)
	c.toolkit.SetText(c.minute, minuteText)
	c.toolkit.MarkDirty(c.hour)
	c.toolkit.MarkDirty(c.minute)
}

// SetWeather commits a valid reading and its formatted text.
func (c *Context) SetWeather(r domain.WeatherReading) {
	if !c.active || !r.Valid {
		return
	}
	c.state.Weather = r
	c.state.TemperatureText = domain.FormatTemperature(r.TemperatureCelsius)
	c.toolkit.SetText(c.temp, c.state.TemperatureText)
	c.toolkit.MarkDirty(c.temp)
}

// SetBattery replaces the battery status, redraws the ring and shows the
// charging glyph only while charging.
func (c *Context) SetBattery(s domain.BatteryStatus) {
	if !c.active {
		return
	}
	c.state.Battery = s.Clamp()
	c.toolkit.MarkDirty(c.battery)
	c.toolkit.SetHidden(c.charging, !c.state.Battery.IsCharging)
}

func (c *Context) drawBattery(cv Canvas, frame image.Rectangle) {
	arc := domain.BatteryArc(c.state.Battery)
	if arc.Empty() {
		return
	}
	cv.FillRadial(frame, RingInset, arc, ColorWhite)
}

// rect converts an origin-relative x, y, width, height into a rectangle
// inside bounds.
func rect(bounds image.Rectangle, x, y, w, h int) image.Rectangle {
	r := image.Rect(x, y, x+max(w, 0), y+max(h, 0))
	return r.Add(bounds.Min)
}
