package domain

import "time"

// KeyTemperature is the message key for both the weather request and reply.
const KeyTemperature uint32 = 0

// RequestSentinel is the value written under KeyTemperature in a request.
const RequestSentinel uint8 = 0

// DefaultPollMinutes is the weather polling period in minutes.
const DefaultPollMinutes = 30

// TemperaturePlaceholder is shown until the first temperature arrives.
const TemperaturePlaceholder = "-"

// ClockReading is the wall-clock time at minute granularity.
type ClockReading struct {
	Hour   int // 0-23
	Minute int // 0-59
}

// NewClockReading derives a reading from local wall-clock time.
func NewClockReading(t time.Time) ClockReading {
	return ClockReading{Hour: t.Hour(), Minute: t.Minute()}
}

// BatteryStatus is the latest battery push. It is always replaced wholesale.
type BatteryStatus struct {
	ChargePercent int // 0-100
	IsCharging    bool
}

// Clamp returns the status with ChargePercent forced into [0,100].
func (b BatteryStatus) Clamp() BatteryStatus {
	b.ChargePercent = max(0, min(100, b.ChargePercent))
	return b
}

// WeatherReading is the last temperature decoded from the peer.
// Valid stays false until the first successful decode.
type WeatherReading struct {
	TemperatureCelsius int
	Valid              bool
}

// DisplayState is everything currently on screen.
type DisplayState struct {
	HourText        string
	MinuteText      string
	TemperatureText string
	Weather         WeatherReading
	Battery         BatteryStatus
}

// NewDisplayState returns the state shown right after the window loads.
func NewDisplayState() DisplayState {
	return DisplayState{TemperatureText: TemperaturePlaceholder}
}
