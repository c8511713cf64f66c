//go:build tinygo

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/dht"
	"tinygo.org/x/drivers/tone"

	alarm "github.com/zheskett/raspi-alarm"
	"github.com/zheskett/raspi-alarm/internal/melody"
	"github.com/zheskett/raspi-alarm/internal/oled"
)

const (
	pinCS  = machine.GP17
	pinDC  = machine.GP16
	pinRST = machine.GP20

	pinBuzzer = machine.GP15
	pinDHT    = machine.GP22
)

var buttonPins = [4]machine.Pin{
	machine.GP2, // alarm toggle
	machine.GP3, // select
	machine.GP4, // right
	machine.GP5, // left
}

type picoDriver struct {
	sensor dht.Device
}

func (d *picoDriver) ButtonPin(b alarm.Button) alarm.InputPin {
	return buttonPins[b]
}

func (d *picoDriver) ExitRequested() bool { return false }

func (d *picoDriver) ReadClimate() (float32, float32, alarm.SensorStatus) {
	if err := d.sensor.ReadMeasurements(); err != nil {
		return 0, 0, alarm.SensorStatusBusy
	}
	t, err := d.sensor.TemperatureFloat(dht.C)
	if err != nil {
		return 0, 0, alarm.SensorStatusBusy
	}
	h, err := d.sensor.HumidityFloat()
	if err != nil {
		return 0, 0, alarm.SensorStatusBusy
	}
	return t, h, alarm.SensorStatusAvailable
}

// speaker adapts a PWM tone speaker to the buzzer's output contract.
type speaker struct {
	s tone.Speaker
}

func (sp *speaker) SetTone(freq float64) error {
	if freq <= 0 {
		sp.s.Stop()
		return nil
	}
	return sp.s.SetPeriod(uint64(1e9 / freq))
}

func (sp *speaker) Silence() error {
	sp.s.Stop()
	return nil
}

func main() {
	blink()
	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 8 * machine.MHz,
		SCK:       machine.SPI0_SCK_PIN,
		SDO:       machine.SPI0_SDO_PIN,
		SDI:       machine.SPI0_SDI_PIN,
	})
	if err != nil {
		earlyPanic()
	}
	for _, p := range []machine.Pin{pinCS, pinDC, pinRST} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	for _, p := range buttonPins {
		p.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
	blink()

	display := oled.New(machine.SPI0, pinCS, pinDC, pinRST)
	if err := display.Configure(oled.Config{Width: 128, Height: 64}); err != nil {
		earlyPanic()
	}
	blink()

	spk, err := tone.New(machine.PWM7, pinBuzzer)
	if err != nil {
		earlyPanic()
	}

	c, err := alarm.New(
		alarm.Config{},
		display,
		&picoDriver{sensor: dht.New(pinDHT, dht.DHT22)},
		&speaker{s: spk},
		melody.Default(),
		nil, // no network on this build
	)
	if err != nil {
		earlyPanic()
	}
	if err := c.Init(); err != nil {
		earlyPanic()
	}
	blink()

	if err := c.Run(); err != nil {
		earlyPanic()
	}
}

func blink() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led.High()
	time.Sleep(100 * time.Millisecond)
	led.Low()
	time.Sleep(100 * time.Millisecond)
}

func earlyPanic() {
	for {
		blink()
	}
}
