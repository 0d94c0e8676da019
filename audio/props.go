package audio

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Props stores engine settings that the audio callback reads without locks.
// All properties must be registered before the stream starts.
type Props struct {
	properties map[string]*atomic.Value
	setters    map[string]setter
}

func NewProps() *Props {
	return &Props{
		properties: make(map[string]*atomic.Value),
		setters:    make(map[string]setter),
	}
}

// Set updates the property with value. The key has to be registered first using Register.
func (p *Props) Set(key string, value any) error {
	prop, ok := p.properties[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	if err := p.setters[key](value, prop); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

func (p *Props) Get(key string) (any, error) {
	prop, ok := p.properties[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.Load(), nil
}

func (p *Props) Keys() []string {
	keys := make([]string, 0, len(p.properties))
	for k := range p.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds a new property.
func (p *Props) Register(key string, set setter, init any) (*atomic.Value, error) {
	var prop atomic.Value
	if err := set(init, &prop); err != nil {
		return nil, fmt.Errorf("register %s: %w", key, err)
	}
	p.properties[key] = &prop
	p.setters[key] = set
	return &prop, nil
}

func (p *Props) MustRegister(key string, set setter, init any) *atomic.Value {
	prop, err := p.Register(key, set, init)
	if err != nil {
		panic(err)
	}
	return prop
}

type setter func(val any, dest *atomic.Value) error

const (
	PropGain    = "gain"    // output gain in dB
	PropRelease = "release" // choke fade in seconds
)

var (
	setGain    = setFloat64(-40, 10)
	setRelease = setFloat64(0.001, 0.5)
)

func setFloat64(min, max float64) setter {
	return func(v any, dest *atomic.Value) error {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return fmt.Errorf("value is not a number: %v", v)
		}
		if f < min || f > max {
			return fmt.Errorf("value is not in valid range %v - %v: %v", min, max, f)
		}
		dest.Store(f)
		return nil
	}
}
