package audio

import (
	"reflect"
	"testing"
)

func TestProps(t *testing.T) {
	props := NewProps()
	gain := props.MustRegister(PropGain, setGain, 0.)
	props.MustRegister(PropRelease, setRelease, 0.005)

	if err := props.Set(PropGain, -6); err != nil {
		t.Fatal(err)
	}
	if want, got := -6., gain.Load().(float64); want != got {
		t.Errorf("want %v, got %v", want, got)
	}

	tests := []struct {
		key   string
		value any
	}{
		{PropGain, 11.},
		{PropGain, -41},
		{PropGain, "loud"},
		{PropRelease, 0.},
		{"tempo", 120.},
	}
	for _, test := range tests {
		if err := props.Set(test.key, test.value); err == nil {
			t.Errorf("expected error setting %s to %v", test.key, test.value)
		}
	}

	v, err := props.Get(PropGain)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := -6., v; want != got {
		t.Errorf("failed set changed value: want %v, got %v", want, got)
	}
	if want, got := []string{PropGain, PropRelease}, props.Keys(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong keys: want %v, got %v", want, got)
	}
}

func TestRegisterInvalid(t *testing.T) {
	if _, err := NewProps().Register(PropGain, setGain, 100.); err == nil {
		t.Error("expected error registering out of range value")
	}
}

func TestEnvelopeRelease(t *testing.T) {
	var env envelope
	if want, got := 0., env.value(); want != got {
		t.Errorf("idle envelope: want %v, got %v", want, got)
	}
	env.start()
	if want, got := 1., env.value(); want != got {
		t.Errorf("started envelope: want %v, got %v", want, got)
	}
	env.release(10. / sampleRate)
	for i := 0; i < 11; i++ {
		env.value()
	}
	if !env.idle() {
		t.Errorf("expected envelope to be idle after release, value %v", env.val)
	}
}
