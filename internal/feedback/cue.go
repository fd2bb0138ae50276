package feedback

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

type Cue string

const (
	CueMove  Cue = "move"
	CueWin   Cue = "win"
	CueDraw  Cue = "draw"
	CueReset Cue = "reset"
)

// Cues lists every cue in a stable order.
var Cues = []Cue{CueMove, CueWin, CueDraw, CueReset}

type Waveform string

const (
	Sine     Waveform = "sine"
	Sawtooth Waveform = "sawtooth"
	Triangle Waveform = "triangle"
)

// Voice is a single oscillator. When EndFreq is set the pitch sweeps
// exponentially from Freq to EndFreq over Duration. Gain decays
// exponentially to silenceGain.
type Voice struct {
	Wave     Waveform
	Freq     float64
	EndFreq  float64
	Start    time.Duration
	Duration time.Duration
	Gain     float64
}

const silenceGain = 0.01

var voices = map[Cue][]Voice{
	CueMove: {
		{Wave: Sine, Freq: 400, Duration: 100 * time.Millisecond, Gain: 0.3},
	},
	// C major arpeggio
	CueWin: {
		{Wave: Sine, Freq: 523.25, Start: 0, Duration: 500 * time.Millisecond, Gain: 0.2},
		{Wave: Sine, Freq: 659.25, Start: 100 * time.Millisecond, Duration: 500 * time.Millisecond, Gain: 0.2},
		{Wave: Sine, Freq: 783.99, Start: 200 * time.Millisecond, Duration: 500 * time.Millisecond, Gain: 0.2},
	},
	CueDraw: {
		{Wave: Sawtooth, Freq: 200, Duration: 300 * time.Millisecond, Gain: 0.2},
	},
	CueReset: {
		{Wave: Triangle, Freq: 600, EndFreq: 300, Duration: 200 * time.Millisecond, Gain: 0.2},
	},
}

// Voices returns the oscillators that make up the cue.
func Voices(cue Cue) ([]Voice, bool) {
	v, ok := voices[cue]
	return v, ok
}

// CueFor maps a game event to the cue played for it.
func CueFor(event entity.Event) (Cue, bool) {
	switch event.Type {
	case entity.EventMoveApplied:
		return CueMove, true
	case entity.EventGameEnded:
		if event.Status.IsWon() {
			return CueWin, true
		}
		if event.Status.IsDrawn() {
			return CueDraw, true
		}
	case entity.EventGameReset:
		return CueReset, true
	}

	return "", false
}
