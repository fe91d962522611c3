package domain

import "github.com/couchcryptid/radial-watchface/internal/appmsg"

// Event is anything the host delivers to the coordinator. The set of
// implementations is closed: Tick, BatteryChanged, WeatherReceived,
// WeatherSendResult and WeatherDropped.
type Event interface {
	// Kind is a short stable name used for logs and metric labels.
	Kind() string
	isEvent()
}

// Tick is delivered once per wall-clock minute.
type Tick struct {
	Reading ClockReading
}

// BatteryChanged carries a new battery status.
type BatteryChanged struct {
	Status BatteryStatus
}

// WeatherReceived carries an inbound message that passed envelope decoding.
type WeatherReceived struct {
	Message appmsg.Dict
}

// WeatherSendResult reports the completion of an outbound send.
// Err is nil when the peer acknowledged the message.
type WeatherSendResult struct {
	Err error
}

// WeatherDropped reports an inbound message the transport discarded before
// decoding was attempted.
type WeatherDropped struct {
	Reason error
}

func (Tick) Kind() string              { return "tick" }
func (BatteryChanged) Kind() string    { return "battery_changed" }
func (WeatherReceived) Kind() string   { return "weather_received" }
func (WeatherSendResult) Kind() string { return "weather_send_result" }
func (WeatherDropped) Kind() string    { return "weather_dropped" }

func (Tick) isEvent()              {}
func (BatteryChanged) isEvent()    {}
func (WeatherReceived) isEvent()   {}
func (WeatherSendResult) isEvent() {}
func (WeatherDropped) isEvent()    {}
