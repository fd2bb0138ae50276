package feedback

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const maxAmplitude = math.MaxInt16

var (
	ErrUnknownCue        = errors.New("unknown cue")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// Synthesize renders the cue as mono 16-bit PCM samples.
func Synthesize(cue Cue, sampleRate int) ([]int, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	cueVoices, ok := Voices(cue)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCue, cue)
	}

	var length int
	for _, voice := range cueVoices {
		length = max(length, toSamples(voice.Start+voice.Duration, sampleRate))
	}

	mix := make([]float64, length)
	for _, voice := range cueVoices {
		render(mix, voice, sampleRate)
	}

	samples := make([]int, length)
	for i, v := range mix {
		v = math.Max(-1, math.Min(1, v))
		samples[i] = int(math.Round(v * maxAmplitude))
	}

	return samples, nil
}

func render(mix []float64, voice Voice, sampleRate int) {
	offset := toSamples(voice.Start, sampleRate)
	total := toSamples(voice.Duration, sampleRate)
	rate := float64(sampleRate)

	phase := 0.0
	for n := 0; n < total && offset+n < len(mix); n++ {
		progress := float64(n) / float64(total)

		freq := voice.Freq
		if voice.EndFreq > 0 {
			freq = voice.Freq * math.Pow(voice.EndFreq/voice.Freq, progress)
		}

		gain := voice.Gain * math.Pow(silenceGain/voice.Gain, progress)

		mix[offset+n] += gain * oscillate(voice.Wave, phase)

		phase += freq / rate
		phase -= math.Floor(phase)
	}
}

// oscillate returns the waveform value for a phase in [0, 1).
func oscillate(wave Waveform, phase float64) float64 {
	switch wave {
	case Sawtooth:
		return 2*phase - 1
	case Triangle:
		return 1 - 4*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func toSamples(d time.Duration, sampleRate int) int {
	return int(math.Round(d.Seconds() * float64(sampleRate)))
}
