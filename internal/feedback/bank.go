package feedback

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth  = 16
	mono      = 1
	pcmFormat = 1
)

// WriteWAV encodes samples as a 16-bit mono PCM WAV stream.
func WriteWAV(w io.WriteSeeker, samples []int, sampleRate int) error {
	encoder := wav.NewEncoder(w, sampleRate, bitDepth, mono, pcmFormat)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: mono, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}

	return nil
}

// Bank holds one pre-rendered WAV file per cue.
type Bank struct {
	paths map[Cue]string
}

// NewBank renders every cue into dir.
func NewBank(dir string, sampleRate int) (*Bank, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cue directory: %w", err)
	}

	bank := &Bank{paths: make(map[Cue]string, len(Cues))}

	for _, cue := range Cues {
		path := filepath.Join(dir, string(cue)+".wav")
		if err := renderFile(path, cue, sampleRate); err != nil {
			return nil, fmt.Errorf("failed to render %s cue: %w", cue, err)
		}

		bank.paths[cue] = path
	}

	return bank, nil
}

func (that *Bank) Path(cue Cue) (string, bool) {
	path, ok := that.paths[cue]
	return path, ok
}

func renderFile(path string, cue Cue, sampleRate int) (err error) {
	samples, err := Synthesize(cue, sampleRate)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	return WriteWAV(file, samples, sampleRate)
}
