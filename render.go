package alarm

import (
	"fmt"
	"time"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/zheskett/raspi-alarm/internal/frame"
)

const textCols = 21 // 128px / 6px cells

// composeFrame draws the active screen into c.fr. The frame is owned by the
// render step; nothing else touches it between Clear and WriteImage.
func (c *Clock) composeFrame(now time.Time, env EnvSnapshot) {
	switch c.menu.Screen {
	case ScreenSettings:
		c.composeSettings()
	case ScreenSetAlarm:
		c.composeSetAlarm()
	default:
		c.composeMain(now, env)
	}
}

// blinkOn gates blinking elements at a 1s period (500ms on, 500ms off).
func (c *Clock) blinkOn() bool {
	half := uint32(500 * time.Millisecond / c.cfg.Tick)
	if half == 0 {
		half = 1
	}
	return c.tick%(2*half) < half
}

func (c *Clock) composeMain(now time.Time, env EnvSnapshot) {
	f := c.fr

	tinyfont.WriteLine(f, &freemono.Bold9pt7b, 0, 14, now.Format("03:04:05"), frame.On)
	tinyfont.WriteLine(f, &proggy.TinySZ8pt7b, 96, 12, now.Format("PM"), frame.On)
	tinyfont.WriteLine(f, &proggy.TinySZ8pt7b, 0, 26, now.Format("Mon Jan 02 2006"), frame.On)

	climate := "--C  --%"
	if env.HasClimate {
		climate = fmt.Sprintf("%.1fC  %.0f%%", env.TempC, env.Humidity)
	}
	tinyfont.WriteLine(f, &proggy.TinySZ8pt7b, 0, 38, climate, frame.On)

	wx := "--"
	if env.Forecast != nil {
		wx = fmt.Sprintf("%.0fC %s", env.Forecast.TempC, env.Forecast.Description)
		if len(env.Forecast.Days) > 0 {
			d := env.Forecast.Days[0]
			wx += fmt.Sprintf(" %.0f/%.0f", d.HighC, d.LowC)
		}
	}
	if len(wx) > textCols {
		wx = wx[:textCols]
	}
	tinyfont.WriteLine(f, &proggy.TinySZ8pt7b, 0, 50, wx, frame.On)

	if c.settings.Armed {
		drawBell(f, 118, 2)
	}

	// Page indicator: one dot per top-level cursor position, the active one
	// filled.
	for i := uint8(0); i <= mainCursorMax; i++ {
		x := 52 + int(i)*10
		drawDot(f, x, 59, i == c.menu.Cursor)
	}
}

// composeSettings renders the settings list through the text buffer: title
// row inverse, the selected row highlighted, blink-gated while a value is
// being edited.
func (c *Clock) composeSettings() {
	rows := []string{
		"Brightness: " + brightnessLabel(c.settings.Brightness),
		"Display Off: " + onOff(c.settings.DisplayOff),
		"Back",
	}

	c.text.Clear()
	_ = c.text.SetLineInverse(0, pad("      SETTINGS"))
	for i, row := range rows {
		line := int16(i + 2)
		selected := uint8(i) == c.menu.Cursor
		if selected && (!c.menu.SelectMode || c.blinkOn()) {
			_ = c.text.SetLineInverse(line, pad(">"+row))
		} else {
			_ = c.text.SetLine(line, pad(" "+row))
		}
	}
	_ = c.text.Display()
}

// composeSetAlarm renders the alarm time in large digits with a blinking
// underline cursor, or a highlighted Back label.
func (c *Clock) composeSetAlarm() {
	f := c.fr
	a := c.settings.Alarm

	tinyfont.WriteLine(f, &proggy.TinySZ8pt7b, 30, 10, "SET ALARM", frame.On)

	mer := "AM"
	if a.PM {
		mer = "PM"
	}
	tinyfont.WriteLine(f, &freemono.Bold12pt7b, 8, 38, fmt.Sprintf("%02d:%02d", a.Hour, a.Minute), frame.On)
	tinyfont.WriteLine(f, &freemono.Bold9pt7b, 96, 36, mer, frame.On)

	// Underline the field being adjusted. Solid while navigating, blinking
	// while editing.
	underline := c.menu.SelectMode && !c.blinkOn()
	if c.menu.Cursor != alarmBack && !underline {
		var x, w int
		switch c.menu.Cursor {
		case alarmHour:
			x, w = 8, 28
		case alarmMinute:
			x, w = 50, 28
		case alarmMeridiem:
			x, w = 96, 22
		}
		fillRect(f, x, 42, w, 2)
	}

	if c.menu.Cursor == alarmBack {
		fillRect(f, 48, 50, 32, 12)
		tinyfont.WriteLine(f, &proggy.TinySZ8pt7b, 54, 59, "Back", frame.Off)
	} else {
		tinyfont.WriteLine(f, &proggy.TinySZ8pt7b, 54, 59, "Back", frame.On)
	}
}

func brightnessLabel(level uint8) string {
	if level == 0 {
		return "Low"
	}
	return "High"
}

func onOff(v bool) string {
	if v {
		return "On"
	}
	return "Off"
}

// pad right-pads to the text column count so a shorter string fully covers
// the previous frame's row.
func pad(s string) string {
	for len(s) < textCols {
		s += " "
	}
	return s
}

func fillRect(f *frame.Frame, x, y, w, h int) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			f.SetBit(x+dx, y+dy, true)
		}
	}
}

func drawDot(f *frame.Frame, x, y int, filled bool) {
	f.SetBit(x+1, y, true)
	f.SetBit(x+2, y, true)
	f.SetBit(x, y+1, true)
	f.SetBit(x+3, y+1, true)
	f.SetBit(x, y+2, true)
	f.SetBit(x+3, y+2, true)
	f.SetBit(x+1, y+3, true)
	f.SetBit(x+2, y+3, true)
	if filled {
		f.SetBit(x+1, y+1, true)
		f.SetBit(x+2, y+1, true)
		f.SetBit(x+1, y+2, true)
		f.SetBit(x+2, y+2, true)
	}
}

// bellIcon is an 8x8 alarm bell, MSB leftmost.
var bellIcon = [8]byte{
	0b00011000,
	0b00111100,
	0b00111100,
	0b01111110,
	0b01111110,
	0b11111111,
	0b00011000,
	0b00000000,
}

func drawBell(f *frame.Frame, x, y int) {
	for row, bits := range bellIcon {
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) != 0 {
				f.SetBit(x+col, y+row, true)
			}
		}
	}
}
