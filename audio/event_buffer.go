package audio

import (
	"sync/atomic"
)

// event asks the audio callback to start a sound.
type event struct {
	sound *Sound
	level float64
}

// eventBuffer is a lock-free spsc queue. The event loop pushes and the
// audio callback drains.
type eventBuffer struct {
	events      []event
	read, write atomic.Uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		events: make([]event, size),
	}
}

// push adds ev to the queue. It reports false when the queue is full.
func (b *eventBuffer) push(ev event) bool {
	write := b.write.Load()
	if write-b.read.Load() == uint32(len(b.events)) {
		return false
	}
	b.events[write%uint32(len(b.events))] = ev
	b.write.Store(write + 1)
	return true
}

func (b *eventBuffer) drain(f func(event)) {
	read := b.read.Load()
	write := b.write.Load()
	for read != write {
		f(b.events[read%uint32(len(b.events))])
		read++
	}
	b.read.Store(read)
}
