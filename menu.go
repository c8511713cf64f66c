package alarm

import (
	"github.com/zheskett/raspi-alarm/internal/bounded"
)

// Cursor positions per screen. Each screen's cursor is bounded by its own
// [min, max]; the top-level screen wraps while sub-screens clamp.
const (
	// Main
	mainNone uint8 = iota
	mainSettings
	mainSetAlarm
	mainCursorMax = mainSetAlarm
)

const (
	// Settings
	settingsBrightness uint8 = iota
	settingsDisplayOff
	settingsBack
	settingsCursorMax = settingsBack
)

const (
	// SetAlarmTime
	alarmHour uint8 = iota
	alarmMinute
	alarmMeridiem
	alarmBack
	alarmCursorMax = alarmBack
)

// MenuState is the menu machine's full state: the active screen, that
// screen's cursor, and whether left/right edit the value under the cursor
// instead of moving it. The machine has no terminal state.
type MenuState struct {
	Screen     Screen
	Cursor     uint8
	SelectMode bool
}

// cursorMax returns the top cursor bound for the active screen; the minimum
// is always zero.
func (m MenuState) cursorMax() uint8 {
	switch m.Screen {
	case ScreenSettings:
		return settingsCursorMax
	case ScreenSetAlarm:
		return alarmCursorMax
	default:
		return mainCursorMax
	}
}

// Step applies one debounced button event and returns the next state plus
// whether a confirmation beep should sound. It mutates only the settings
// values bound to the cursor; all other effects belong to the render loop.
func (m MenuState) Step(ev Button, s *Settings) (MenuState, bool) {
	switch ev {
	case ButtonSelect:
		return m.stepSelect()
	case ButtonRight:
		return m.stepMove(1, s), false
	case ButtonLeft:
		return m.stepMove(-1, s), false
	default:
		return m, false
	}
}

func (m MenuState) stepSelect() (MenuState, bool) {
	switch m.Screen {
	case ScreenMain:
		switch m.Cursor {
		case mainSettings:
			return MenuState{Screen: ScreenSettings}, true
		case mainSetAlarm:
			return MenuState{Screen: ScreenSetAlarm}, true
		default:
			// nothing under the cursor; no state change, no beep
			return m, false
		}
	case ScreenSettings:
		if m.Cursor == settingsBack {
			return MenuState{Screen: ScreenMain, Cursor: mainNone}, true
		}
		m.SelectMode = !m.SelectMode
		return m, true
	case ScreenSetAlarm:
		if m.Cursor == alarmBack {
			return MenuState{Screen: ScreenMain, Cursor: mainNone}, true
		}
		m.SelectMode = !m.SelectMode
		return m, true
	}
	return m, false
}

// stepMove handles left/right: cursor movement normally, value edits in
// select mode. The top-level cursor wraps; sub-screen cursors clamp.
func (m MenuState) stepMove(delta int, s *Settings) MenuState {
	if m.SelectMode {
		m.edit(delta, s)
		return m
	}
	if m.Screen == ScreenMain {
		m.Cursor = uint8(bounded.Wrap(int(m.Cursor)+delta, 0, int(m.cursorMax())))
	} else {
		m.Cursor = uint8(bounded.Clamp(int(m.Cursor)+delta, 0, int(m.cursorMax())))
	}
	return m
}

// edit mutates the settings value bound to the cursor. Cursors with no bound
// value (Back positions) are a no-op, matching the device's behavior of
// silently dropping edits with no edit target.
func (m MenuState) edit(delta int, s *Settings) {
	switch m.Screen {
	case ScreenSettings:
		switch m.Cursor {
		case settingsBrightness:
			s.Brightness = uint8(bounded.Wrap(int(s.Brightness)+delta, 0, 1))
		case settingsDisplayOff:
			s.DisplayOff = !s.DisplayOff
		}
	case ScreenSetAlarm:
		switch m.Cursor {
		case alarmHour:
			s.Alarm.AddHours(delta)
		case alarmMinute:
			s.Alarm.AddMinutes(delta)
		case alarmMeridiem:
			s.Alarm.FlipMeridiem()
		}
	}
}
