package audio

type envelopeState int

const (
	stateIdle envelopeState = iota
	stateSustain
	stateRelease
)

// envelope holds a sample at full level until it is choked, then fades it
// out linearly.
type envelope struct {
	state       envelopeState
	val         float64
	releaseRate float64
}

func (e *envelope) value() float64 {
	switch e.state {
	case stateIdle:
		return 0
	case stateRelease:
		e.val -= e.releaseRate
		if e.val <= 0 {
			e.val = 0
			e.state = stateIdle
		}
	}
	return e.val
}

func (e *envelope) start() {
	e.val = 1
	e.state = stateSustain
}

// release fades to silence over the given number of seconds.
func (e *envelope) release(seconds float64) {
	if e.state != stateSustain {
		return
	}
	e.state = stateRelease
	e.releaseRate = e.val / (seconds * sampleRate)
}

func (e *envelope) idle() bool {
	return e.state == stateIdle
}
