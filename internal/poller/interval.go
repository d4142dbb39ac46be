package poller

import (
	"math"
	"math/rand/v2"
	"time"
)

// DefaultTransitionProgress is the progress percentage at which [Intervals]
// switches from backoff to decay.
const DefaultTransitionProgress = 60

const (
	maxIntervalDivisor  = 3.5
	baseIntervalDivisor = 30.0
	decayRate           = 2.5
	jitterFraction      = 0.1
)

// Intervals chooses the wait before the next poll.
//
// Below the transition progress the wait grows exponentially with the
// attempt count, capped at expected/3.5. At or above it the wait decays
// from expected/3.5 towards expected/30 as progress approaches 100. Every
// result carries ±10% uniform jitter.
//
// Intervals holds no mutable state and is safe for concurrent use.
type Intervals struct {
	transition int
	random     func() float64
}

// NewIntervals creates an [Intervals] switching regimes at transition percent.
// Callers are expected to validate transition is within [0, 100).
func NewIntervals(transition int) Intervals {
	return Intervals{transition: transition, random: rand.Float64}
}

// WithRandom returns a copy of i drawing jitter from random, which must
// return values in [0, 1).
func (i Intervals) WithRandom(random func() float64) Intervals {
	i.random = random
	return i
}

// TransitionProgress returns the regime switch point.
func (i Intervals) TransitionProgress() int {
	return i.transition
}

// Bounds returns the base and max intervals in seconds for expected.
func Bounds(expected float64) (base, max float64) {
	return expected / baseIntervalDivisor, expected / maxIntervalDivisor
}

// Next returns the jittered wait before the next poll.
// A non-positive expected time yields zero.
func (i Intervals) Next(attempt, progress int, expected float64) time.Duration {
	interval := i.Unjittered(attempt, progress, expected)
	if interval <= 0 {
		return 0
	}
	if math.IsInf(interval, 1) {
		return secondsToDuration(interval)
	}

	random := i.random
	if random == nil {
		random = rand.Float64
	}
	jittered := interval + (random()*2-1)*jitterFraction*interval
	return secondsToDuration(jittered)
}

// Unjittered returns the wait in seconds before jitter is applied.
//
// progress is used as reported: values outside [0, 100] are not clamped
// before entering the decay formula, only its result is bounded.
func (i Intervals) Unjittered(attempt, progress int, expected float64) float64 {
	if expected <= 0 || math.IsNaN(expected) {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}

	base, max := Bounds(expected)

	if progress < i.transition {
		// Ldexp overflows to +Inf for huge attempts, which Min absorbs
		return math.Min(math.Ldexp(base, attempt), max)
	}

	factor := float64(progress-i.transition) / float64(100-i.transition)
	decay := base + (max-base)*math.Exp(-decayRate*factor)
	return math.Max(base, math.Min(decay, max))
}

// maxSeconds is the largest wait, in seconds, a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// secondsToDuration saturates instead of overflowing, so absurd expected
// times from the source never yield a negative wait.
func secondsToDuration(seconds float64) time.Duration {
	switch {
	case math.IsNaN(seconds) || seconds <= 0:
		return 0
	case seconds >= maxSeconds:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}
