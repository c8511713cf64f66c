// Package melody turns Standard MIDI Files into the flat note sequence the
// buzzer plays. Only track 0 is scanned; tempo changes on that track are
// honored, and gaps between notes become rests.
package melody

import (
	"errors"
	"io"
	"math"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"
)

// A Note is one step of a melody: a tone frequency held for a duration.
// Freq 0 means a rest.
type Note struct {
	Freq     float64 // Hz
	Duration time.Duration
}

// Rest reports whether the note is silence.
func (n Note) Rest() bool { return n.Freq == 0 }

// A Melody is an ordered, restartable sequence of notes. The player loops it
// until stopped.
type Melody []Note

// Duration returns the length of one pass through the melody.
func (m Melody) Duration() time.Duration {
	var d time.Duration
	for _, n := range m {
		d += n.Duration
	}
	return d
}

// Freq returns the equal-temperament frequency of a MIDI key number
// (A4 = key 69 = 440 Hz).
func Freq(key uint8) float64 {
	return 440 * math.Exp2((float64(key)-69)/12)
}

const defaultTempo = 120 // BPM, per the SMF spec when no tempo event is seen

// ReadSMF parses a Standard MIDI File into a Melody. A file whose first track
// holds no notes yields an empty melody, which the player treats as
// immediately complete.
func ReadSMF(r io.Reader) (Melody, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.New("melody: read smf: " + err.Error())
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.New("melody: unsupported SMPTE time format")
	}
	if len(s.Tracks) == 0 {
		return nil, errors.New("melody: no tracks")
	}

	var (
		m       Melody
		tempo   = float64(defaultTempo)
		current uint8
		sounding bool
	)
	for _, ev := range s.Tracks[0] {
		dur := ticks.Duration(tempo, ev.Delta)

		var bpm float64
		var ch, key, vel uint8
		switch {
		case ev.Message.GetMetaTempo(&bpm):
			tempo = bpm
		case ev.Message.GetNoteStart(&ch, &key, &vel):
			if sounding {
				m = append(m, Note{Freq: Freq(current), Duration: dur})
			} else if dur > 0 {
				m = append(m, Note{Duration: dur})
			}
			current = key
			sounding = true
		case ev.Message.GetNoteEnd(&ch, &key):
			if sounding {
				m = append(m, Note{Freq: Freq(current), Duration: dur})
				sounding = false
			}
		}
	}
	return m, nil
}

// Default is the built-in alarm tune, used when no MIDI file is supplied.
func Default() Melody {
	const beat = 300 * time.Millisecond
	return Melody{
		{Freq: Freq(76), Duration: beat},     // E5
		{Freq: Freq(76), Duration: beat},     // E5
		{Duration: beat},                     // rest
		{Freq: Freq(76), Duration: beat},     // E5
		{Freq: Freq(72), Duration: beat},     // C5
		{Freq: Freq(76), Duration: beat},     // E5
		{Freq: Freq(79), Duration: 2 * beat}, // G5
		{Duration: 2 * beat},                 // rest
	}
}
