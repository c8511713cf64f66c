// Command alarmsim runs the alarm clock engine on a host, rendering frames
// as half-block characters in the terminal. Buttons are simulated from
// stdin: a=alarm toggle, s=select, l=left, r=right (each followed by Enter);
// a bare Enter exits.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"
	"sync/atomic"

	alarm "github.com/zheskett/raspi-alarm"
	"github.com/zheskett/raspi-alarm/internal/melody"
	"github.com/zheskett/raspi-alarm/internal/weather"
)

func main() {
	location := flag.String("location", "Harrisonburg", "weather location (place name or lat,lon)")
	midiPath := flag.String("midi", "", "alarm melody as a MIDI file (built-in tune if empty)")
	flag.Parse()

	tune := melody.Default()
	if *midiPath != "" {
		f, err := os.Open(*midiPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open midi:", err)
			os.Exit(1)
		}
		tune, err = melody.ReadSMF(f)
		f.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse midi:", err)
			os.Exit(1)
		}
	}

	drv := &stdinDriver{}
	go drv.readKeys()

	c, err := alarm.New(
		alarm.Config{},
		&termDisplay{},
		drv,
		&printSpeaker{},
		tune,
		weather.NewClient(*location),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := c.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("Raspi Alarm (simulator)")
	fmt.Println("Press Enter to exit...")
	if err := c.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// simPin is a one-shot button: a key press holds the line high for exactly
// one poll.
type simPin struct {
	pending atomic.Bool
}

func (p *simPin) Get() bool {
	return p.pending.Swap(false)
}

type stdinDriver struct {
	pins [4]simPin
	exit atomic.Bool
}

func (d *stdinDriver) ButtonPin(b alarm.Button) alarm.InputPin { return &d.pins[b] }

func (d *stdinDriver) ExitRequested() bool { return d.exit.Load() }

func (d *stdinDriver) ReadClimate() (float32, float32, alarm.SensorStatus) {
	return 0, 0, alarm.SensorStatusUnavailable
}

func (d *stdinDriver) readKeys() {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "":
			d.exit.Store(true)
			return
		case "a":
			d.pins[alarm.ButtonAlarmToggle].pending.Store(true)
		case "s":
			d.pins[alarm.ButtonSelect].pending.Store(true)
		case "r":
			d.pins[alarm.ButtonRight].pending.Store(true)
		case "l":
			d.pins[alarm.ButtonLeft].pending.Store(true)
		}
	}
	d.exit.Store(true)
}

// termDisplay draws the 128x64 frame with half-block characters, two pixel
// rows per text row, redrawing every 10th frame to keep the terminal sane.
type termDisplay struct {
	frames int
}

func (t *termDisplay) WriteImage(img image.Image) error {
	t.frames++
	if t.frames%10 != 1 {
		return nil
	}
	b := img.Bounds()
	var sb strings.Builder
	sb.WriteString("\033[H\033[2J")
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := lit(img, x, y)
			bot := lit(img, x, y+1)
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteByte('\n')
	}
	_, err := os.Stdout.WriteString(sb.String())
	return err
}

func lit(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r|g|b != 0
}

func (t *termDisplay) SetDimLevel(level uint8) error { return nil }
func (t *termDisplay) Reinitialize() error           { return nil }
func (t *termDisplay) Close() error                  { return nil }
func (t *termDisplay) Size() (int16, int16)          { return 128, 64 }

// printSpeaker logs tone changes instead of sounding them.
type printSpeaker struct {
	last atomic.Uint64 // last frequency in centihertz; avoids float atomics
}

func (p *printSpeaker) SetTone(freq float64) error {
	v := uint64(freq * 100)
	if p.last.Swap(v) != v {
		fmt.Fprintf(os.Stderr, "[buzzer] %.1f Hz\n", freq)
	}
	return nil
}

func (p *printSpeaker) Silence() error {
	if p.last.Swap(0) != 0 {
		fmt.Fprintln(os.Stderr, "[buzzer] off")
	}
	return nil
}
