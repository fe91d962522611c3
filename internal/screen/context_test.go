package screen_test

import (
	"image"
	"testing"

	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/screen"
	"github.com/couchcryptid/radial-watchface/internal/screen/screentest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActiveContext(t *testing.T) (*screen.Context, *screentest.Toolkit) {
	t.Helper()
	tk := screentest.New()
	ctx := screen.NewContext()
	require.NoError(t, ctx.Init(tk))
	return ctx, tk
}

func TestInit_CreatesRegions(t *testing.T) {
	ctx, tk := newActiveContext(t)

	assert.True(t, ctx.Active())
	assert.Equal(t, screen.ColorBlack, tk.Background)
	assert.Len(t, tk.ByKind(screentest.KindText), 3)
	assert.Len(t, tk.ByKind(screentest.KindCanvas), 1)
	require.Len(t, tk.ByKind(screentest.KindBitmap), 1)

	regions := ctx.Regions()
	temp := tk.Regions[regions.Temperature]
	assert.Equal(t, domain.TemperaturePlaceholder, temp.Text)
	assert.Equal(t, image.Rect(72, 0, 144, 20), temp.Frame)
	assert.Equal(t, screen.AlignRight, temp.Spec.Align)
	assert.Equal(t, screen.FontSmall, temp.Spec.Font)

	assert.Equal(t, image.Rect(5, 5, 19, 19), tk.Regions[regions.Battery].Frame)

	glyph := tk.Regions[regions.Charging]
	assert.Equal(t, screen.BitmapLightning, glyph.Bitmap)
	assert.True(t, glyph.Hidden, "charging glyph starts hidden")

	assert.Equal(t, domain.NewDisplayState(), ctx.State())
}

func TestInit_Twice(t *testing.T) {
	ctx, tk := newActiveContext(t)
	require.Error(t, ctx.Init(tk))
}

func TestInit_FailureCleansUp(t *testing.T) {
	tk := screentest.New()
	tk.FailAfter = 4 // battery canvas

	ctx := screen.NewContext()
	require.Error(t, ctx.Init(tk))

	assert.False(t, ctx.Active())
	assert.Empty(t, tk.Regions)
	assert.Len(t, tk.Destroyed, 3)
}

func TestTeardown_DestroysInReverseOrder(t *testing.T) {
	ctx, tk := newActiveContext(t)
	r := ctx.Regions()

	ctx.Teardown()

	assert.False(t, ctx.Active())
	assert.Empty(t, tk.Regions)
	assert.Equal(t, []screen.RegionID{r.Charging, r.Battery, r.Temperature, r.Hour, r.Minute}, tk.Destroyed)

	ctx.Teardown() // no-op
	assert.Len(t, tk.Destroyed, 5)
}

func TestSettersIgnoredWhenInactive(t *testing.T) {
	ctx := screen.NewContext()

	ctx.SetTime("1", "02")
	ctx.SetBattery(domain.BatteryStatus{ChargePercent: 50})
	ctx.SetWeather(domain.WeatherReading{TemperatureCelsius: 3, Valid: true})

	assert.Equal(t, domain.NewDisplayState(), ctx.State())
}

func TestSetTime(t *testing.T) {
	ctx, tk := newActiveContext(t)
	r := ctx.Regions()

	ctx.SetTime("14", "07")

	assert.Equal(t, "14", tk.Regions[r.Hour].Text)
	assert.Equal(t, "07", tk.Regions[r.Minute].Text)
	assert.Equal(t, 1, tk.Regions[r.Hour].Dirty)
	assert.Equal(t, 1, tk.Regions[r.Minute].Dirty)
	assert.Equal(t, "14", ctx.State().HourText)
	assert.Equal(t, "07", ctx.State().MinuteText)
}

func TestSetWeather_IgnoresInvalidReading(t *testing.T) {
	ctx, tk := newActiveContext(t)
	r := ctx.Regions()

	ctx.SetWeather(domain.WeatherReading{TemperatureCelsius: 12})
	assert.Equal(t, domain.TemperaturePlaceholder, ctx.State().TemperatureText)
	assert.Zero(t, tk.Regions[r.Temperature].Dirty)

	ctx.SetWeather(domain.WeatherReading{TemperatureCelsius: -5, Valid: true})
	assert.Equal(t, "-5°", ctx.State().TemperatureText)
	assert.Equal(t, "-5°", tk.Regions[r.Temperature].Text)
	assert.Equal(t, 1, tk.Regions[r.Temperature].Dirty)
}

func TestSetBattery_RingAndGlyph(t *testing.T) {
	ctx, tk := newActiveContext(t)
	r := ctx.Regions()

	ctx.SetBattery(domain.BatteryStatus{ChargePercent: 40, IsCharging: true})
	assert.False(t, tk.Regions[r.Charging].Hidden)
	assert.Equal(t, 1, tk.Regions[r.Battery].Dirty)

	tk.Redraw()
	require.Len(t, tk.Fills, 1)
	fill := tk.Fills[0]
	assert.Equal(t, image.Rect(5, 5, 19, 19), fill.Frame)
	assert.Equal(t, screen.RingInset, fill.Inset)
	assert.InDelta(t, 144.0, fill.Arc.Sweep(), 1e-9)

	ctx.SetBattery(domain.BatteryStatus{ChargePercent: 40})
	assert.True(t, tk.Regions[r.Charging].Hidden)
}

func TestSetBattery_ZeroDrawsNothing(t *testing.T) {
	ctx, tk := newActiveContext(t)

	ctx.SetBattery(domain.BatteryStatus{ChargePercent: 0, IsCharging: true})
	tk.Redraw()

	assert.Empty(t, tk.Fills)
	assert.False(t, tk.Regions[ctx.Regions().Charging].Hidden)
}

func TestReinitResetsState(t *testing.T) {
	ctx, tk := newActiveContext(t)
	ctx.SetWeather(domain.WeatherReading{TemperatureCelsius: 9, Valid: true})
	ctx.Teardown()

	require.NoError(t, ctx.Init(tk))
	assert.Equal(t, domain.TemperaturePlaceholder, ctx.State().TemperatureText)
	assert.False(t, ctx.State().Weather.Valid)
}
