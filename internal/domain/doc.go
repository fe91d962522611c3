// Package domain models what the watchface shows and the events that change it.
//
// # Display fields
//
// Hour text follows the host 12/24-hour preference:
//
//	24h: "0".."23", no padding ("9" at 09:xx, "14" at 14:xx)
//	12h: "1".."12", midnight and noon both show "12", 13 -> "1", 23 -> "11"
//
// Minute text is always two zero-padded digits ("07"). Temperature text is a
// signed whole number of degrees Celsius followed by a degree sign ("-5°"); it
// shows [TemperaturePlaceholder] until the first reading arrives and keeps the
// last good reading when later messages are missing or dropped.
//
// # Battery ring
//
// The ring sweeps ChargePercent * 3.6 degrees. The filled arc ends at 12 o'clock
// and starts SweepAngle degrees before it, so 0% draws nothing and 100% closes
// the circle. See [BatteryArc].
//
// # Weather polling
//
// A request goes out on a minute tick when minute % 30 == 0. There is no other
// timer: a tick the host never delivers is a request that never goes out, and
// the next boundary tick tries again.
//
// # Message keys
//
// Requests and replies share key [KeyTemperature] (0). The request value is a
// one-byte sentinel the peer ignores; the reply value is a 4-byte signed integer.
package domain
