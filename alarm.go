// Package alarm is the engine of a small OLED alarm clock: a fixed-tick
// render/control loop that polls buttons, drives the menu machine, composes
// frames for the panel, and evaluates the alarm trigger, while background
// tasks poll the climate sensor and the weather service.
package alarm

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/ajanata/textbuf"

	"github.com/zheskett/raspi-alarm/internal/buzzer"
	"github.com/zheskett/raspi-alarm/internal/frame"
	"github.com/zheskett/raspi-alarm/internal/melody"
	"github.com/zheskett/raspi-alarm/internal/weather"
)

// Display is the panel contract the engine renders to. *oled.Device
// implements it; tests supply fakes.
type Display interface {
	// WriteImage pushes a full frame to the panel.
	WriteImage(img image.Image) error
	// SetDimLevel selects a brightness preset (0 or 1).
	SetDimLevel(level uint8) error
	// Reinitialize resets and reconfigures the panel. Safe mid-frame.
	Reinitialize() error
	// Close powers the panel off and releases its handles.
	Close() error
	Size() (w, h int16)
}

// Driver is the hardware binding the engine polls. Implementations live next
// to the binaries; the engine never touches pins directly.
type Driver interface {
	// ButtonPin returns the input line for b, active high when pressed.
	ButtonPin(b Button) InputPin
	// ReadClimate reads the temperature/humidity sensor. A non-available
	// status means the cycle is skipped and the last good value is kept.
	ReadClimate() (tempC, humidity float32, status SensorStatus)
	// ExitRequested reports the explicit exit key. Device builds return
	// false forever; the host harness wires it to the keyboard.
	ExitRequested() bool
}

// WeatherSource fetches a forecast; nil result or error means no data.
// *weather.Client implements it.
type WeatherSource interface {
	Fetch(ctx context.Context) (*weather.Forecast, error)
}

// Config carries the engine's timing knobs. Zero values select the defaults.
type Config struct {
	// Tick is the render loop period.
	Tick time.Duration
	// SensorPoll is the climate poll interval.
	SensorPoll time.Duration
	// WeatherPoll is the forecast poll interval.
	WeatherPoll time.Duration
	// ScreenResetEvery forces a panel reinitialize whenever the wall-clock
	// minute crosses a multiple of this many minutes.
	ScreenResetEvery int
	// AlarmMaxDuration force-stops an undismissed alarm.
	AlarmMaxDuration time.Duration
	// BeepFreq is the confirmation beep tone.
	BeepFreq float64
	// Logger defaults to a println-backed logger.
	Logger Logger
}

func (c *Config) setDefaults() {
	if c.Tick == 0 {
		c.Tick = 50 * time.Millisecond
	}
	if c.SensorPoll == 0 {
		c.SensorPoll = 5 * time.Second
	}
	if c.WeatherPoll == 0 {
		c.WeatherPoll = 10 * time.Minute
	}
	if c.ScreenResetEvery == 0 {
		c.ScreenResetEvery = 30
	}
	if c.AlarmMaxDuration == 0 {
		c.AlarmMaxDuration = 15 * time.Minute
	}
	if c.BeepFreq == 0 {
		c.BeepFreq = 880
	}
	if c.Logger == nil {
		c.Logger = printlnLogger{}
	}
}

// Clock is the device engine. Create one with New, call Init once, then Run.
type Clock struct {
	cfg     Config
	display Display
	driver  Driver
	buzzer  *buzzer.Controller
	weather WeatherSource
	tune    melody.Melody
	log     Logger

	env     *EnvState
	lastEnv EnvSnapshot

	buttons  [numButtons]Debouncer
	menu     MenuState
	settings Settings

	fr   *frame.Frame
	text *textbuf.Buffer

	// now is swapped for a virtual clock in tests.
	now  func() time.Time
	tick uint32

	lastDim      uint8
	didReset     bool
	lastFired    time.Time // minute of the last alarm trigger
	alarmStarted time.Time

	init     bool
	start    time.Time
	quit     chan struct{}
	stopOnce sync.Once
}

// New builds the engine. speaker is the raw tone line; tune is the alarm
// melody (empty means the alarm is silent but still "fires"); src may be nil
// to disable weather.
func New(cfg Config, display Display, driver Driver, speaker buzzer.Output, tune melody.Melody, src WeatherSource) (*Clock, error) {
	if display == nil {
		return nil, errors.New("must provide display")
	}
	if driver == nil {
		return nil, errors.New("must provide driver")
	}
	if speaker == nil {
		return nil, errors.New("must provide speaker")
	}
	cfg.setDefaults()

	w, h := display.Size()
	c := &Clock{
		cfg:      cfg,
		display:  display,
		driver:   driver,
		buzzer:   buzzer.NewController(speaker),
		weather:  src,
		tune:     tune,
		log:      cfg.Logger,
		env:      &EnvState{},
		settings: DefaultSettings(),
		fr:       frame.New(int(w), int(h)),
		now:      time.Now,
		start:    time.Now(),
		quit:     make(chan struct{}),
	}
	for b := Button(0); b < numButtons; b++ {
		pin := driver.ButtonPin(b)
		if pin == nil {
			return nil, errors.New("no pin for button " + b.String())
		}
		c.buttons[b] = NewDebouncer(pin)
	}
	return c, nil
}

// Init applies the initial brightness, shows the boot screen, and readies the
// loop.
func (c *Clock) Init() error {
	if c.init {
		return errors.New("already initialized")
	}

	var err error
	c.text, err = textbuf.New(c.fr, textbuf.FontSize6x8)
	if err != nil {
		return errors.New("init text: " + err.Error())
	}

	if err := c.display.SetDimLevel(c.settings.Brightness); err != nil {
		return errors.New("set brightness: " + err.Error())
	}
	c.lastDim = c.settings.Brightness

	_ = c.text.SetLineInverse(0, "RASPI ALARM")
	_ = c.text.SetLine(2, "Started")
	_ = c.text.SetLine(3, c.now().Format("2006-01-02 15:04:05"))
	_ = c.text.SetLine(5, "Alarm "+c.settings.Alarm.String())
	if err := c.display.WriteImage(c.fr); err != nil {
		return errors.New("boot screen: " + err.Error())
	}

	c.init = true
	c.log.Info("init complete in " + time.Since(c.start).Round(time.Millisecond).String())
	return nil
}

// Run drives the loop at the configured tick until Stop is called or a fatal
// hardware error surfaces. On the way out it stops and joins the melody task
// and powers the panel off.
func (c *Clock) Run() error {
	if !c.init {
		return errors.New("not initialized")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.pollClimate(ctx)
	if c.weather != nil {
		go c.pollWeather(ctx)
	}

	ticker := time.NewTicker(c.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-c.quit:
			return c.shutdown(nil)
		case <-ticker.C:
			if err := c.RunTick(); err != nil {
				return c.shutdown(err)
			}
		}
	}
}

// Stop requests a clean exit. Safe to call from any goroutine, more than
// once.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.quit) })
}

func (c *Clock) shutdown(err error) error {
	c.buzzer.Close()
	if cerr := c.display.Close(); cerr != nil && err == nil {
		err = errors.New("close display: " + cerr.Error())
	}
	c.log.Info("alarm clock stopped")
	return err
}

// RunTick runs a single iteration of the loop: poll inputs, step the menu,
// compose and push the frame, evaluate the alarm trigger.
func (c *Clock) RunTick() error {
	if !c.init {
		return errors.New("not initialized")
	}
	c.tick++
	now := c.now()

	for i := range c.buttons {
		c.buttons[i].Update()
		if c.buttons[i].JustPressed() {
			c.press(Button(i))
		}
	}
	if c.driver.ExitRequested() {
		c.Stop()
		return nil
	}

	if snap, ok := c.env.TrySnapshot(); ok {
		c.lastEnv = snap
	}

	if err := c.maybeResetPanel(now); err != nil {
		return err
	}

	if c.settings.Brightness != c.lastDim {
		if err := c.display.SetDimLevel(c.settings.Brightness); err != nil {
			return errors.New("set brightness: " + err.Error())
		}
		c.lastDim = c.settings.Brightness
	}

	c.fr.Clear()
	if !c.settings.DisplayOff {
		c.composeFrame(now, c.lastEnv)
	}
	if err := c.display.WriteImage(c.fr); err != nil {
		return errors.New("write frame: " + err.Error())
	}

	c.evalAlarm(now)
	return nil
}

// press handles one debounced button event.
func (c *Clock) press(b Button) {
	// While the display is off, the first press wakes it and is consumed.
	if c.settings.DisplayOff {
		c.settings.DisplayOff = false
		return
	}

	if b == ButtonAlarmToggle {
		if c.buzzer.Playing() {
			c.log.Info("alarm dismissed")
			c.buzzer.StopMelody()
			return
		}
		c.settings.Armed = !c.settings.Armed
		c.log.Debugf("alarm armed: %v", c.settings.Armed)
		return
	}

	next, beep := c.menu.Step(b, &c.settings)
	if next.Screen != c.menu.Screen {
		c.log.Debugf("menu: %v -> %v", c.menu.Screen, next.Screen)
	}
	c.menu = next
	if beep {
		c.buzzer.Beep(c.cfg.BeepFreq)
	}
}

// maybeResetPanel forces a full panel reinitialize when the wall-clock minute
// crosses a reset boundary. The flag keeps it to once per boundary crossing.
func (c *Clock) maybeResetPanel(now time.Time) error {
	if c.cfg.ScreenResetEvery <= 0 {
		return nil
	}
	if now.Minute()%c.cfg.ScreenResetEvery == 0 {
		if !c.didReset {
			c.didReset = true
			c.log.Debug("periodic panel reinitialize")
			if err := c.display.Reinitialize(); err != nil {
				return errors.New("reinitialize: " + err.Error())
			}
		}
		return nil
	}
	c.didReset = false
	return nil
}

// evalAlarm starts melody playback when the armed alarm matches the current
// minute, at most once per minute, never while the user is editing the alarm
// time; and force-stops playback past the maximum duration.
func (c *Clock) evalAlarm(now time.Time) {
	if c.buzzer.Playing() {
		if now.Sub(c.alarmStarted) >= c.cfg.AlarmMaxDuration {
			c.log.Info("alarm auto-stop")
			c.buzzer.StopMelody()
		}
		return
	}
	if !c.settings.Armed || c.menu.Screen == ScreenSetAlarm {
		return
	}
	if !c.settings.Alarm.Matches(now) {
		return
	}
	minute := now.Truncate(time.Minute)
	if minute.Equal(c.lastFired) {
		return
	}
	c.lastFired = minute
	c.alarmStarted = now
	c.log.Info("alarm triggered at " + now.Format("15:04"))
	c.buzzer.StartMelody(c.tune)
}

// Settings returns a copy of the current settings (for the host harness's
// status output).
func (c *Clock) Settings() Settings { return c.settings }

// Menu returns the current menu state.
func (c *Clock) Menu() MenuState { return c.menu }

func (c *Clock) pollClimate(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SensorPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t, h, status := c.driver.ReadClimate()
			if status == SensorStatusAvailable {
				c.env.SetClimate(t, h)
			}
		}
	}
}

func (c *Clock) pollWeather(ctx context.Context) {
	fetch := func() {
		fctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		f, err := c.weather.Fetch(fctx)
		if err != nil {
			c.log.Debugf("weather: %v", err)
			c.env.SetForecast(nil)
			return
		}
		c.env.SetForecast(f)
	}

	fetch()
	ticker := time.NewTicker(c.cfg.WeatherPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fetch()
		}
	}
}
