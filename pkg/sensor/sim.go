package sensor

import (
	"math/rand/v2"
	"sync"
)

// SimReader returns fixed values per input with optional jitter. It is used
// by the console and by --sim runs.
type SimReader struct {
	mu     sync.Mutex
	values map[int]int
	jitter int
}

// NewSimReader creates a reader returning base for every input.
func NewSimReader(base, jitter int) *SimReader {
	return &SimReader{values: map[int]int{-1: base}, jitter: jitter}
}

// Set fixes the value of one input.
func (s *SimReader) Set(input, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[input] = value
}

// ReadRaw implements AnalogReader. Values stay within the 10-bit ADC range.
func (s *SimReader) ReadRaw(input int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[input]
	if !ok {
		v = s.values[-1]
	}
	if s.jitter > 0 {
		v += rand.IntN(2*s.jitter+1) - s.jitter
	}
	return min(max(v, 0), 1023), nil
}
