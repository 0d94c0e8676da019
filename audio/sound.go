package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	wav "github.com/youpy/go-wav"
)

// Sound is a mono sample at the engine sample rate.
type Sound struct {
	ID  string
	buf []float64
}

func NewSound(id string, samples []float64) *Sound {
	return &Sound{ID: id, buf: samples}
}

func (s *Sound) Len() int { return len(s.buf) }

// LoadSound decodes a WAV or FLAC file. The sound is named after the file
// without its extension, e.g. "Mallet C2".
func LoadSound(path string) (*Sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snd := Sound{ID: soundID(path)}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		snd.buf, err = decodeWAV(f)
	case ".flac":
		snd.buf, err = decodeFLAC(f)
	default:
		return nil, fmt.Errorf("unsupported sample format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &snd, nil
}

func soundID(path string) string {
	name := filepath.Base(path)
	return name[:len(name)-len(filepath.Ext(name))]
}

func decodeWAV(f *os.File) ([]float64, error) {
	var buf []float64
	wr := wav.NewReader(f)
	for {
		// only the left channel is kept
		samples, err := wr.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, sample := range samples {
			buf = append(buf, wr.FloatValue(sample, 0))
		}
	}
	return buf, nil
}

func decodeFLAC(r io.Reader) ([]float64, error) {
	stream, format, err := flac.Decode(r)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var src beep.Streamer = stream
	if format.SampleRate != sampleRate {
		src = beep.Resample(4, format.SampleRate, sampleRate, stream)
	}
	var buf []float64
	frames := make([][2]float64, 512)
	for {
		n, ok := src.Stream(frames)
		for _, frame := range frames[:n] {
			buf = append(buf, (frame[0]+frame[1])/2)
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return buf, nil
}

// Bank holds the loaded samples by id.
type Bank struct {
	sounds map[string]*Sound
	logger *log.Logger
}

func NewBank(logger *log.Logger) *Bank {
	return &Bank{sounds: make(map[string]*Sound), logger: logger}
}

func (b *Bank) Add(snd *Sound) {
	b.sounds[snd.ID] = snd
}

func (b *Bank) Get(id string) (*Sound, bool) {
	snd, ok := b.sounds[id]
	return snd, ok
}

func (b *Bank) Len() int { return len(b.sounds) }

func (b *Bank) IDs() []string {
	ids := make([]string, 0, len(b.sounds))
	for id := range b.sounds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Missing returns the ids that have no sound.
func (b *Bank) Missing(ids ...string) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := b.sounds[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// LoadDir loads every WAV and FLAC file in dir, searching subdirectories one
// level deep. Files that fail to decode are logged and skipped; their errors
// are returned joined together after the rest of the directory is loaded.
func (b *Bank) LoadDir(dir string) error {
	var paths []string
	for _, pattern := range []string{"*.wav", "*.flac", "*/*.wav", "*/*.flac"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return err
		}
		b.logger.Warn("no samples found", "dir", dir)
		return nil
	}

	var errs error
	for _, path := range paths {
		snd, err := LoadSound(path)
		if err != nil {
			b.logger.Error("failed to load sample", "path", path, "err", err)
			errs = errors.Join(errs, err)
			continue
		}
		b.Add(snd)
		b.logger.Debug("loaded sample", "id", snd.ID, "frames", snd.Len())
	}
	b.logger.Info("samples loaded", "dir", dir, "count", b.Len())
	return errs
}
