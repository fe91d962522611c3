package domain

// DegreesPerPercent converts charge percentage to ring sweep.
const DegreesPerPercent = 3.6

// SweepAngle returns the ring sweep in degrees for a charge percentage.
// Values outside [0,100] are clamped.
func SweepAngle(chargePercent int) float64 {
	p := max(0, min(100, chargePercent))
	return float64(p) * DegreesPerPercent
}

// Arc is an angular span in degrees, measured clockwise from 12 o'clock.
type Arc struct {
	Start float64
	End   float64
}

// Sweep returns the angular extent of the arc.
func (a Arc) Sweep() float64 {
	return a.End - a.Start
}

// Empty reports whether the arc covers nothing.
func (a Arc) Empty() bool {
	return a.Sweep() <= 0
}

// BatteryArc returns the filled part of the battery ring. The arc always ends
// at 360 and grows backwards from it as the charge rises.
func BatteryArc(status BatteryStatus) Arc {
	sweep := SweepAngle(status.ChargePercent)
	return Arc{Start: 360 - sweep, End: 360}
}
