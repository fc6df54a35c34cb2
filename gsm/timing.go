package gsm

import (
	"fmt"
	"sync"
	"time"
)

// HyperframeLength is the number of frame numbers in a GSM hyperframe
// (2715648 = 26*51*2048 frames, roughly 3h 28m 53s at 4.615ms/frame).
const HyperframeLength = 2715648

// FrameDuration is the duration of one TDMA frame (8 timeslots), per GSM
// 05.10: 60/13 ms.
const FrameDuration = 60 * time.Millisecond / 13

// Time is a (frame number, timeslot) pair. FN is always taken modulo
// HyperframeLength; TN is 0..7.
type Time struct {
	FN int
	TN int
}

func (t Time) String() string { return fmt.Sprintf("(FN=%d,TN=%d)", t.FN, t.TN) }

func normFN(fn int) int {
	fn %= HyperframeLength
	if fn < 0 {
		fn += HyperframeLength
	}
	return fn
}

// RollForward adds step frames, wrapping FN within modulus (typically
// HyperframeLength or a channel's repeat length), leaving TN unchanged.
func (t Time) RollForward(step, modulus int) Time {
	return Time{FN: ((t.FN + step) % modulus + modulus) % modulus, TN: t.TN}
}

// Sub returns the signed difference, in bursts, from other to t, treating
// FN as a ring of HyperframeLength values: the result is in
// (-HyperframeLength/2, HyperframeLength/2], choosing whichever direction
// is closer.
func (t Time) Sub(other Time) int {
	d := normFN(t.FN) - normFN(other.FN)
	half := HyperframeLength / 2
	switch {
	case d > half:
		d -= HyperframeLength
	case d <= -half:
		d += HyperframeLength
	}
	return d
}

// Before reports whether t is strictly earlier than other in the ring
// sense used by Sub.
func (t Time) Before(other Time) bool { return t.Sub(other) < 0 }

// Equal reports FN/TN equality after normalising FN into the hyperframe.
func (t Time) Equal(other Time) bool {
	return normFN(t.FN) == normFN(other.FN) && t.TN == other.TN
}

// Clock is the process-wide, monotonically advancing base-station clock.
// Every encoder/decoder is constructed with a pointer to the single
// process Clock rather than reading ambient global state, per the
// "pass context explicitly" design note.
type Clock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	current Time
	epoch   time.Time
}

// NewClock creates a clock anchored at FN=0 at the moment of construction.
func NewClock() *Clock {
	c := &Clock{epoch: time.Now()}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Now returns the current (FN, TN).
func (c *Clock) Now() Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by n bursts (TN cycling 0..7, FN
// incrementing on TN wraparound) and wakes any waiters.
func (c *Clock) Advance(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < n; i++ {
		c.current.TN++
		if c.current.TN == 8 {
			c.current.TN = 0
			c.current.FN = normFN(c.current.FN + 1)
		}
	}
	c.cond.Broadcast()
}

// Set forces the clock to an arbitrary time, used by tests and by any
// resynchronisation against an external radio clock source.
func (c *Clock) Set(t Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
	c.cond.Broadcast()
}

// Wait blocks the calling goroutine until the clock reaches or passes
// target, per the ring order used throughout this package.
func (c *Clock) Wait(target Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for target.Sub(c.current) > 0 {
		c.cond.Wait()
	}
}
