package alarm

// Button identifies one of the four logical input buttons.
type Button uint8

const (
	// ButtonAlarmToggle arms/disarms the alarm, and dismisses a sounding one.
	ButtonAlarmToggle Button = iota
	// ButtonSelect enters screens and toggles select mode.
	ButtonSelect
	// ButtonRight moves the cursor right, or increments in select mode.
	ButtonRight
	// ButtonLeft moves the cursor left, or decrements in select mode.
	ButtonLeft

	numButtons
)

func (b Button) String() string {
	switch b {
	case ButtonAlarmToggle:
		return "alarm-toggle"
	case ButtonSelect:
		return "select"
	case ButtonRight:
		return "right"
	case ButtonLeft:
		return "left"
	default:
		return "INVALID"
	}
}

// Screen identifies the active menu screen.
type Screen uint8

const (
	ScreenMain Screen = iota
	ScreenSettings
	ScreenSetAlarm
)

func (s Screen) String() string {
	switch s {
	case ScreenMain:
		return "main"
	case ScreenSettings:
		return "settings"
	case ScreenSetAlarm:
		return "set-alarm"
	default:
		return "INVALID"
	}
}

// SensorStatus reports the outcome of a sensor read.
type SensorStatus uint8

const (
	// SensorStatusUnavailable indicates the sensor is not implemented in hardware.
	SensorStatusUnavailable SensorStatus = iota
	// SensorStatusAvailable indicates the returned values are accurate.
	SensorStatusAvailable
	// SensorStatusBusy indicates a transient failure; skip this cycle and keep
	// the last good value.
	SensorStatusBusy
)

func (s SensorStatus) String() string {
	switch s {
	case SensorStatusUnavailable:
		return "unavailable"
	case SensorStatusAvailable:
		return "available"
	case SensorStatusBusy:
		return "busy"
	default:
		return "INVALID"
	}
}
