// Package buzzer owns the piezo. One controller serializes every hardware
// tone command and the stop flag under a single mutex, so a Stop can never
// race a playback step into leaving the buzzer sounding.
package buzzer

import (
	"sync"
	"time"

	"github.com/zheskett/raspi-alarm/internal/melody"
)

// Output is a tone-capable line. On device this wraps a drivers/tone speaker;
// tests supply fakes.
type Output interface {
	// SetTone sounds the given frequency until changed or stopped.
	SetTone(freq float64) error
	// Silence stops any tone.
	Silence() error
}

const (
	// MinTone and MaxTone bound the buzzer's playable range (one octave
	// either side of A4, matching a tuned piezo's sweet spot). Notes outside
	// the range are transposed by octaves until they fit.
	MinTone = 220.0
	MaxTone = 880.0

	// BeepDuration is how long a confirmation beep sounds.
	BeepDuration = 200 * time.Millisecond
	// beepPoll bounds how long a beep keeps sounding after it is cancelled.
	beepPoll = 10 * time.Millisecond

	// soundRatio is the fraction of each note that is voiced; the remainder
	// is the articulation gap separating consecutive notes.
	soundRatio = 0.8
)

// Controller drives one buzzer. Melody playback runs on its own task; only
// one melody may play at a time, and starting a new one stops and joins the
// previous task first.
type Controller struct {
	mu      sync.Mutex // guards out, stop, melodyDone, beepGen
	out     Output
	stop    bool
	beepGen uint32

	melodyDone chan struct{} // nil when no melody task is running
}

// NewController returns a controller for the given output.
func NewController(out Output) *Controller {
	return &Controller{out: out}
}

// StartMelody stops any running melody, then starts looping m on a new task.
// An empty melody completes immediately.
func (c *Controller) StartMelody(m melody.Melody) {
	c.StopMelody()
	if len(m) == 0 {
		return
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.stop = false
	c.melodyDone = done
	c.mu.Unlock()

	go c.playMelody(m, done)
}

// playMelody loops m until a stop is requested. For voiced notes the tone
// sounds for 80% of the duration with a 20% silent tail; rests hold silence
// for the full duration.
func (c *Controller) playMelody(m melody.Melody, done chan struct{}) {
	defer close(done)
	for i := 0; ; i = (i + 1) % len(m) {
		n := m[i]
		if n.Rest() {
			if !c.silenceFor(n.Duration) {
				return
			}
			continue
		}
		voiced := time.Duration(float64(n.Duration) * soundRatio)
		if !c.toneFor(Transpose(n.Freq), voiced) {
			return
		}
		if !c.silenceFor(n.Duration - voiced) {
			return
		}
	}
}

// toneFor sounds freq for d, then reports whether playback should continue.
// The stop check and the tone command are one critical section; if a Stop has
// already silenced the hardware we never re-sound it.
func (c *Controller) toneFor(freq float64, d time.Duration) bool {
	c.mu.Lock()
	if c.stop {
		c.mu.Unlock()
		return false
	}
	_ = c.out.SetTone(freq)
	c.mu.Unlock()
	time.Sleep(d)
	return !c.stopRequested()
}

func (c *Controller) silenceFor(d time.Duration) bool {
	c.mu.Lock()
	if c.stop {
		c.mu.Unlock()
		return false
	}
	_ = c.out.Silence()
	c.mu.Unlock()
	time.Sleep(d)
	return !c.stopRequested()
}

func (c *Controller) stopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop
}

// StopMelody requests a stop, silences the hardware, and joins the playback
// task. It is idempotent and safe to call concurrently with playback; when it
// returns the buzzer is silent and the task has exited.
func (c *Controller) StopMelody() {
	c.mu.Lock()
	c.stop = true
	c.beepGen++ // cancel any in-flight beep as well
	_ = c.out.Silence()
	done := c.melodyDone
	c.melodyDone = nil
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Playing reports whether a melody task is running.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.melodyDone == nil {
		return false
	}
	select {
	case <-c.melodyDone:
		return false
	default:
		return true
	}
}

// Beep sounds freq for a fixed short duration on its own task, cancelling and
// restarting any beep already in flight. The task polls for cancellation
// every 10ms so a supersede or stop is honored promptly.
func (c *Controller) Beep(freq float64) {
	c.mu.Lock()
	c.beepGen++
	gen := c.beepGen
	_ = c.out.SetTone(freq)
	c.mu.Unlock()

	go func() {
		deadline := time.Now().Add(BeepDuration)
		for time.Now().Before(deadline) {
			time.Sleep(beepPoll)
			c.mu.Lock()
			if c.beepGen != gen {
				// superseded; whoever bumped the generation owns the tone now
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
		c.mu.Lock()
		if c.beepGen == gen && c.melodyDone == nil {
			_ = c.out.Silence()
		}
		c.mu.Unlock()
	}()
}

// Transpose shifts freq by octaves until it lies within the playable range.
func Transpose(freq float64) float64 {
	for freq < MinTone {
		freq *= 2
	}
	for freq > MaxTone {
		freq /= 2
	}
	return freq
}

// Close silences the buzzer and stops all tasks.
func (c *Controller) Close() {
	c.StopMelody()
}
