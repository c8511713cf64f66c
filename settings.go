package alarm

import (
	"fmt"
	"time"

	"github.com/zheskett/raspi-alarm/internal/bounded"
)

// AlarmTime is a 12-hour wall-clock alarm setting. Hour wraps from 12 back
// to 1 and minute wraps from 59 back to 0 on increment.
type AlarmTime struct {
	Hour   uint8 // 1-12
	Minute uint8 // 0-59
	PM     bool
}

// AddHours moves the hour by delta, wrapping cyclically through 1-12.
func (a *AlarmTime) AddHours(delta int) {
	a.Hour = uint8(bounded.Wrap(int(a.Hour)+delta, 1, 12))
}

// AddMinutes moves the minute by delta, wrapping cyclically through 0-59.
func (a *AlarmTime) AddMinutes(delta int) {
	a.Minute = uint8(bounded.Wrap(int(a.Minute)+delta, 0, 59))
}

// FlipMeridiem toggles AM/PM.
func (a *AlarmTime) FlipMeridiem() {
	a.PM = !a.PM
}

// Matches reports whether t is within the alarm's minute.
func (a AlarmTime) Matches(t time.Time) bool {
	hour24 := int(a.Hour) % 12
	if a.PM {
		hour24 += 12
	}
	return t.Hour() == hour24 && t.Minute() == int(a.Minute)
}

func (a AlarmTime) String() string {
	mer := "AM"
	if a.PM {
		mer = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s", a.Hour, a.Minute, mer)
}

// Settings is the device's in-memory configuration. There is no persistence;
// settings reset on power loss.
type Settings struct {
	// Brightness selects the display dim preset: 0 low, 1 high.
	Brightness uint8
	// DisplayOff blanks the panel; the menu machine keeps running underneath.
	DisplayOff bool
	// Alarm is the configured alarm time.
	Alarm AlarmTime
	// Armed gates the alarm trigger.
	Armed bool
}

// DefaultSettings is the power-on configuration.
func DefaultSettings() Settings {
	return Settings{
		Brightness: 1,
		Alarm:      AlarmTime{Hour: 7, Minute: 30},
	}
}
