package audio

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate = 44100
	bufferSize = 512
)

type EngineConfig struct {
	SamplesDir string
	BufferSize int
}

// Engine owns the output stream and the sampler feeding it.
type Engine struct {
	*Sampler
	props  *Props
	stream *portaudio.Stream
	logger *log.Logger
}

// NewEngine loads the sample bank and opens the default output device. A
// bank with failed files is still usable; the load error is logged.
func NewEngine(cfg EngineConfig, logger *log.Logger) (*Engine, error) {
	bank := NewBank(logger)
	if cfg.SamplesDir != "" {
		if err := bank.LoadDir(cfg.SamplesDir); err != nil {
			logger.Warn("sample bank incomplete", "err", err)
		}
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = bufferSize
	}

	props := NewProps()
	e := &Engine{
		Sampler: NewSampler(bank, props, logger),
		props:   props,
		logger:  logger,
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize audio: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, size, e.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open output stream: %w", err)
	}
	e.stream = stream
	return e, nil
}

func (e *Engine) process(out [][]float32) {
	for i := range out {
		for j := range out[i] {
			out[i][j] = 0.
		}
	}
	e.Sampler.Process(out)
}

func (e *Engine) Start() error {
	return e.stream.Start()
}

func (e *Engine) Close() error {
	return errors.Join(e.stream.Stop(), e.stream.Close(), portaudio.Terminate())
}

func (e *Engine) Set(key string, value any) error {
	return e.props.Set(key, value)
}

func (e *Engine) Get(key string) (any, error) {
	return e.props.Get(key)
}

// Mute accepts every trigger and plays nothing. It stands in for the engine
// when audio is disabled.
type Mute struct{}

func (Mute) Trigger(string, float64) error { return nil }
