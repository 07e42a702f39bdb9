package source

import (
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	"github.com/rhasspy/oww-go/internal/pipeline"
	"github.com/rhasspy/oww-go/internal/wakeworderr"
)

// WAVFile reads samples from a 16 kHz mono 16-bit PCM WAV file, the
// optional input path named in spec §6's --input-wav-path-style option.
// Grounded on CWBudde-go-pocket-tts's internal/audio/decode.go, which
// validates the same three fields before trusting a decoded buffer.
type WAVFile struct {
	samples []int
	pos     int
}

// OpenWAVFile decodes the entire file at r and validates its format
// against the pipeline's fixed 16 kHz mono 16-bit contract.
func OpenWAVFile(r io.Reader) (*WAVFile, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if dec.SampleRate != pipeline.SampleRate {
		return nil, wakeworderr.Configf("wav sample rate %d, want %d", dec.SampleRate, pipeline.SampleRate)
	}
	if dec.NumChans != 1 {
		return nil, wakeworderr.Configf("wav has %d channels, want 1 (mono)", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		return nil, wakeworderr.Configf("wav bit depth %d, want 16", dec.BitDepth)
	}
	return &WAVFile{samples: buf.Data}, nil
}

// Read fills buf with up to len(buf) samples from the decoded PCM data.
func (w *WAVFile) Read(buf []int16) (int, error) {
	if w.pos >= len(w.samples) {
		return 0, io.EOF
	}
	n := len(buf)
	if remaining := len(w.samples) - w.pos; n > remaining {
		n = remaining
	}
	for i := 0; i < n; i++ {
		buf[i] = int16(w.samples[w.pos+i])
	}
	w.pos += n
	return n, nil
}
