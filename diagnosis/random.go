package diagnosis

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RandomSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Clock supplies result timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reports wall clock time in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }

// DefaultRandom returns a source that is safe for concurrent use.
func DefaultRandom() RandomSource {
	return globalRandom{}
}

// lockedRandom serializes access to a seeded generator, which is not
// goroutine safe on its own.
type lockedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededRandom returns a reproducible source that is safe for concurrent use.
func NewSeededRandom(seed uint64) RandomSource {
	return &lockedRandom{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRandom) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

// SequenceRandom replays a fixed list of values, wrapping around at the end.
// It is meant for tests and for reproducing a reported diagnosis.
type SequenceRandom struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

// NewSequenceRandom builds a SequenceRandom over values.
func NewSequenceRandom(values ...float64) *SequenceRandom {
	return &SequenceRandom{values: append([]float64(nil), values...)}
}

// Float64 implements RandomSource.
func (s *SequenceRandom) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}
