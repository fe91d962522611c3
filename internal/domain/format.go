package domain

import (
	"fmt"
	"strconv"
)

// FormatHour renders hour (0-23) in 24-hour or 12-hour style.
func FormatHour(hour int, use24h bool) string {
	hour = ((hour % 24) + 24) % 24
	if use24h {
		return strconv.Itoa(hour)
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return strconv.Itoa(h)
}

// FormatMinute renders minute as two zero-padded digits.
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d", ((minute%60)+60)%60)
}

// FormatTemperature renders whole degrees Celsius with a degree sign.
func FormatTemperature(celsius int) string {
	return strconv.Itoa(celsius) + "°"
}

// ShouldRequestWeather reports whether a tick at minute triggers a weather
// request for the given polling period.
func ShouldRequestWeather(minute, periodMinutes int) bool {
	if periodMinutes <= 0 {
		return false
	}
	return minute%periodMinutes == 0
}
