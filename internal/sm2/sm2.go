// Package sm2 implements the SM-2 spaced-repetition scheduler.
//
// The scheduler is a pure function over a card's memory state: failures
// restart the short-interval ramp (1 day, 6 days, then multiplicative
// growth), while the ease factor models per-card long-term difficulty and
// moves with how far the answer quality deviates from a perfect 5.
package sm2

import (
	"math"
	"time"
)

const (
	// MinEaseFactor is the floor below which the ease factor never drops.
	MinEaseFactor = 1.3

	// DefaultEaseFactor is the ease factor assigned to freshly created cards.
	DefaultEaseFactor = 2.5
)

// State is the scheduling state carried by a card between reviews.
type State struct {
	EaseFactor  float64
	Interval    int // days until the next review
	Repetitions int // consecutive successful recalls
}

// Result is the state produced by a review together with the next review date.
type Result struct {
	State
	NextReview time.Time
}

// NewState returns the default state for a card created at now:
// ease 2.5, interval 0, no repetitions, due immediately.
func NewState(now time.Time) Result {
	return Result{
		State:      State{EaseFactor: DefaultEaseFactor},
		NextReview: now,
	}
}

// Schedule applies one observed recall quality to the current state.
//
// Quality outside [0,5] is silently clamped, not rejected. A quality below 3
// is a failed recall: repetitions reset to zero and the card comes back in
// one day. Successful recalls walk the 1/6/round(interval*ease) ladder. The
// ease factor update applies in both branches, is floored at MinEaseFactor,
// and is rounded to two decimals. The next review date uses calendar-day
// arithmetic from now, not elapsed seconds.
func Schedule(cur State, quality int, now time.Time) Result {
	q := clampQuality(quality)

	ease := cur.EaseFactor
	interval := cur.Interval
	reps := cur.Repetitions

	if q < 3 {
		reps = 0
		interval = 1
	} else {
		switch reps {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Round(float64(interval) * ease))
		}
		reps++
	}

	ease += 0.1 - float64(5-q)*(0.08+float64(5-q)*0.02)
	if ease < MinEaseFactor {
		ease = MinEaseFactor
	}
	ease = math.Round(ease*100) / 100

	return Result{
		State:      State{EaseFactor: ease, Interval: interval, Repetitions: reps},
		NextReview: now.AddDate(0, 0, interval),
	}
}

// Difficulty is the user-facing three-bucket answer rating.
type Difficulty string

// Recognized difficulty buckets.
const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// DifficultyToQuality maps the user-facing difficulty to an SM-2 quality.
// Unknown values map to medium. The mapping is a stable external contract
// shared by every front-end.
func DifficultyToQuality(d Difficulty) int {
	switch d {
	case Easy:
		return 5
	case Hard:
		return 2
	default:
		return 3
	}
}

func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 5 {
		return 5
	}
	return q
}
