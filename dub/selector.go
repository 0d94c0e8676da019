package dub

import (
	"fmt"
)

type matcher interface {
	match(i int) bool
	check(length int) error
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

func (r rangeMatch) check(length int) error {
	if r == matchAll {
		return nil
	}
	if r.start < 1 || r.end > length {
		return fmt.Errorf("range %d:%d is outside steps 1-%d", r.start, r.end, length)
	}
	if r.start > r.end {
		return fmt.Errorf("range %d:%d is reversed", r.start, r.end)
	}
	return nil
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

func (l listMatch) check(length int) error {
	for _, k := range l {
		if k < 1 || k > length {
			return fmt.Errorf("step %d is outside steps 1-%d", k, length)
		}
	}
	return nil
}

// Selector picks steps of a pattern. Steps are numbered from 1.
type Selector struct {
	matchers []matcher
	stride   int
}

// compact merges adjacent single steps into one list.
func (s Selector) compact() Selector {
	var out []matcher
	for _, m := range s.matchers {
		l, ok := m.(listMatch)
		if ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(listMatch); ok {
				out[len(out)-1] = append(prev, l...)
				continue
			}
		}
		out = append(out, m)
	}
	s.matchers = out
	return s
}

// Steps returns the zero-based indices selected in a pattern of the given
// length, in ascending order. A stride keeps every nth selected step,
// starting with the first.
func (s Selector) Steps(length int) ([]int, error) {
	if s.stride < 0 {
		return nil, fmt.Errorf("invalid stride %d", s.stride)
	}
	for _, m := range s.matchers {
		if err := m.check(length); err != nil {
			return nil, err
		}
	}
	var steps []int
	for i := 1; i <= length; i++ {
		for _, m := range s.matchers {
			if m.match(i) {
				steps = append(steps, i-1)
				break
			}
		}
	}
	if s.stride > 1 {
		var strided []int
		for i := 0; i < len(steps); i += s.stride {
			strided = append(strided, steps[i])
		}
		steps = strided
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps selected")
	}
	return steps, nil
}
