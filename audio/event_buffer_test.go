package audio

import (
	"context"
	"testing"
)

func TestEventBufferFull(t *testing.T) {
	buf := newEventBuffer(4)
	for i := 0; i < 4; i++ {
		if !buf.push(event{level: float64(i)}) {
			t.Fatalf("push %d failed on a queue with room", i)
		}
	}
	if buf.push(event{}) {
		t.Error("expected push to fail on a full queue")
	}

	var levels []float64
	buf.drain(func(ev event) {
		levels = append(levels, ev.level)
	})
	if want, got := 4, len(levels); want != got {
		t.Fatalf("expected %v events, got %v", want, got)
	}
	if !buf.push(event{}) {
		t.Error("expected push to succeed after drain")
	}
}

func TestEventBuffer(t *testing.T) {
	buf := newEventBuffer(8)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	var events []event
	go func() {
		for {
			select {
			case <-ctx.Done():
				buf.drain(func(ev event) {
					events = append(events, ev)
				})
				done <- struct{}{}
				return
			default:
				buf.drain(func(ev event) {
					events = append(events, ev)
				})
			}
		}
	}()

	const numEvents = 100_000
	for n := 0; n < numEvents; n++ {
		for !buf.push(event{level: float64(n)}) {
		}
	}

	cancel()
	<-done

	if len(events) != numEvents {
		t.Errorf("wrong number of events: want %v, got %v", numEvents, len(events))
	}

	prev := -1.0
	for _, ev := range events {
		if want, got := prev+1, ev.level; want != got {
			t.Errorf("discontinuous event: want: %v, got %v", want, got)
		}
		prev++
	}
}
