package buzzer

import (
	"sync"
	"testing"
	"time"

	"github.com/zheskett/raspi-alarm/internal/melody"
)

// fakeOutput records every tone command with its timestamp.
type fakeOutput struct {
	mu  sync.Mutex
	ops []toneOp
}

type toneOp struct {
	freq float64 // 0 for silence
	at   time.Time
}

func (o *fakeOutput) SetTone(freq float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, toneOp{freq: freq, at: time.Now()})
	return nil
}

func (o *fakeOutput) Silence() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, toneOp{at: time.Now()})
	return nil
}

func (o *fakeOutput) snapshot() []toneOp {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]toneOp(nil), o.ops...)
}

func (o *fakeOutput) silent() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.ops) == 0 || o.ops[len(o.ops)-1].freq == 0
}

func TestTranspose(t *testing.T) {
	for _, tc := range []struct {
		in, want float64
	}{
		{440, 440},
		{220, 220},
		{880, 880},
		{110, 220},  // one octave up
		{55, 220},   // two octaves up
		{1760, 880}, // one octave down
		{3520, 880}, // two octaves down
		{300, 300},
	} {
		if got := Transpose(tc.in); got != tc.want {
			t.Errorf("Transpose(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMelodyArticulationAndLoop(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out)

	m := melody.Melody{
		{Freq: 440, Duration: 50 * time.Millisecond},
		{Freq: 330, Duration: 30 * time.Millisecond},
		{Freq: 550, Duration: 20 * time.Millisecond},
	}
	c.StartMelody(m)
	// One pass is 100ms; let it loop at least twice.
	time.Sleep(250 * time.Millisecond)
	c.StopMelody()

	if !out.silent() {
		t.Fatal("buzzer still sounding after StopMelody")
	}

	// Collect the voiced frequencies in order: expect 440, 330, 550 repeating.
	var freqs []float64
	for _, op := range out.snapshot() {
		if op.freq != 0 {
			freqs = append(freqs, op.freq)
		}
	}
	if len(freqs) < 4 {
		t.Fatalf("melody played %d notes in 250ms, want at least 4 (looped)", len(freqs))
	}
	want := []float64{440, 330, 550}
	for i, f := range freqs {
		if f != want[i%3] {
			t.Fatalf("note %d = %vHz, want %vHz", i, f, want[i%3])
		}
	}
}

func TestMelodyVoicedPortion(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out)

	c.StartMelody(melody.Melody{{Freq: 440, Duration: 100 * time.Millisecond}})
	time.Sleep(150 * time.Millisecond)
	c.StopMelody()

	ops := out.snapshot()
	// Find the first tone-on and the silence that follows it.
	var on, off time.Time
	for _, op := range ops {
		if op.freq != 0 && on.IsZero() {
			on = op.at
		} else if op.freq == 0 && !on.IsZero() {
			off = op.at
			break
		}
	}
	if on.IsZero() || off.IsZero() {
		t.Fatalf("no tone/silence pair recorded: %+v", ops)
	}
	voiced := off.Sub(on)
	if voiced < 60*time.Millisecond || voiced > 110*time.Millisecond {
		t.Errorf("voiced for %v, want about 80ms (80%% of 100ms)", voiced)
	}
}

func TestEmptyMelodyCompletesImmediately(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out)
	c.StartMelody(nil)
	if c.Playing() {
		t.Fatal("empty melody reported as playing")
	}
	c.StopMelody() // still safe
}

func TestStopIsIdempotentAndSilences(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out)

	c.StartMelody(melody.Melody{{Freq: 440, Duration: 20 * time.Millisecond}})
	c.StopMelody()
	c.StopMelody()
	if !out.silent() {
		t.Fatal("buzzer sounding after StopMelody")
	}
	if c.Playing() {
		t.Fatal("Playing() true after StopMelody")
	}
	// Nothing may sound after StopMelody returned.
	n := len(out.snapshot())
	time.Sleep(60 * time.Millisecond)
	for _, op := range out.snapshot()[n:] {
		if op.freq != 0 {
			t.Fatal("tone sounded after StopMelody returned")
		}
	}
}

func TestRestartReplacesMelody(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out)

	c.StartMelody(melody.Melody{{Freq: 440, Duration: 30 * time.Millisecond}})
	time.Sleep(40 * time.Millisecond)
	c.StartMelody(melody.Melody{{Freq: 660, Duration: 30 * time.Millisecond}})
	time.Sleep(40 * time.Millisecond)
	c.StopMelody()

	ops := out.snapshot()
	saw660 := false
	for _, op := range ops {
		if op.freq == 660 {
			saw660 = true
		}
		if saw660 && op.freq == 440 {
			t.Fatal("old melody sounded after restart")
		}
	}
	if !saw660 {
		t.Fatal("new melody never sounded")
	}
}

func TestBeepStopsOnItsOwn(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out)

	c.Beep(880)
	time.Sleep(BeepDuration + 50*time.Millisecond)
	ops := out.snapshot()
	if len(ops) < 2 {
		t.Fatalf("beep recorded %d ops, want tone then silence", len(ops))
	}
	if ops[0].freq != 880 {
		t.Errorf("beep freq = %v, want 880", ops[0].freq)
	}
	if !out.silent() {
		t.Error("buzzer still sounding after beep duration")
	}
	d := ops[len(ops)-1].at.Sub(ops[0].at)
	if d < BeepDuration-20*time.Millisecond || d > BeepDuration+80*time.Millisecond {
		t.Errorf("beep lasted %v, want about %v", d, BeepDuration)
	}
}

func TestBeepRestart(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out)

	c.Beep(880)
	time.Sleep(50 * time.Millisecond)
	c.Beep(880) // supersedes the first
	time.Sleep(BeepDuration + 50*time.Millisecond)
	if !out.silent() {
		t.Fatal("buzzer still sounding after restarted beep")
	}
	// The first beep's task must not have cut the second short: the final
	// silence lands roughly BeepDuration after the second tone-on.
	ops := out.snapshot()
	var second time.Time
	tones := 0
	for _, op := range ops {
		if op.freq != 0 {
			tones++
			if tones == 2 {
				second = op.at
			}
		}
	}
	if tones != 2 {
		t.Fatalf("recorded %d tone-ons, want 2", tones)
	}
	end := ops[len(ops)-1].at
	if end.Sub(second) < BeepDuration-30*time.Millisecond {
		t.Errorf("second beep lasted %v, cut short by the first beep's task", end.Sub(second))
	}
}
