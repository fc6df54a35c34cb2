package gsm

import (
	"log"
	"sync"
)

// Encoder is the embeddable base for every channel's transmit side:
// lifecycle (open/close/active), the roll-forward/resync clock bookkeeping
// of §4.1, and the sibling back-link an ESTABLISH/RELEASE primitive
// cascades through. Data-driven channels (XCCH, SACCH, TCH/FACCH) call
// TransmitNow synchronously from their own write path, as does SCH, one
// Encode call per burst; the continuously scheduled FCCH additionally
// calls StartGenerator to run a dedicated service thread, per §5's
// "optionally one generator thread".
type Encoder struct {
	mapping *TDMAMapping
	clock   *Clock
	tn      int
	chType  ChannelType
	radio   *Radio
	tap     Tap

	mu          sync.Mutex
	running     bool
	active      bool
	totalBursts int
	anchorFN    int
	nextWrite   Time
	prevWrite   Time

	sibling *Decoder // non-owning, set once by the owning L1FEC
}

// NewEncoder builds a base encoder for one (TN, ChannelType) bound to
// mapping and clock.
func NewEncoder(mapping *TDMAMapping, clock *Clock, tn int, ct ChannelType, tap Tap) *Encoder {
	if tap == nil {
		tap = NoopTap{}
	}
	return &Encoder{mapping: mapping, clock: clock, tn: tn, chType: ct, tap: tap}
}

// SetSibling installs the paired decoder; called once by the owning L1FEC.
func (e *Encoder) SetSibling(d *Decoder) { e.sibling = d }

// SetRadio binds the downstream radio used for transmission and idle fill.
func (e *Encoder) SetRadio(r *Radio) { e.radio = r }

// Radio returns the bound downstream radio, or nil if none has been set.
func (e *Encoder) Radio() *Radio { return e.radio }

// ChannelType returns this encoder's logical channel type.
func (e *Encoder) ChannelType() ChannelType { return e.chType }

// Timeslot returns this encoder's fixed timeslot number.
func (e *Encoder) Timeslot() int { return e.tn }

// Open zeroes the burst counter, marks the channel active and resyncs the
// clock to now. Idempotent: opening an already-open channel just resyncs.
func (e *Encoder) Open() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	e.active = true
	e.totalBursts = 0
	e.resyncLocked()
}

// Close marks the channel inactive and emits one idle-fill burst (the
// dummy burst pattern on C0; a no-op on other logical channels), per
// §4.2. It does not interrupt an in-flight TransmitNow/generator burst.
func (e *Encoder) Close() {
	e.mu.Lock()
	e.active = false
	e.running = false
	t := e.prevWrite
	e.mu.Unlock()
	e.idleFill(t)
}

// Active reports whether the channel is open and its sibling decoder, if
// any, is not recyclable.
func (e *Encoder) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return false
	}
	if e.sibling != nil && e.sibling.Recyclable() {
		return false
	}
	return true
}

// isRunning reports whether the generator thread, if any, should keep
// looping.
func (e *Encoder) isRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// WriteHighSide dispatches a downlink L2 frame per its primitive: DATA
// invokes encode (which is expected to call TransmitNow itself); ESTABLISH
// opens this encoder and its sibling decoder; RELEASE closes both; ERROR
// closes only this side and lets the sibling time out via T3109/T3111.
func (e *Encoder) WriteHighSide(f L2Frame, encode func(payload *BitVector)) {
	switch f.Primitive {
	case PrimitiveData:
		if encode != nil && e.Active() {
			encode(f.Payload)
		}
	case PrimitiveEstablish:
		e.Open()
		if e.sibling != nil {
			e.sibling.Open()
		}
	case PrimitiveRelease:
		e.Close()
		if e.sibling != nil {
			e.sibling.Close()
		}
	case PrimitiveError:
		e.Close()
	}
}

// resyncLocked re-anchors nextWrite to the clock's current position
// whenever it has drifted more than one traffic multiframe (51*26 frames)
// from now, in either direction, then aligns to the next scheduled burst
// of this channel's mapping. Caller must hold e.mu.
func (e *Encoder) resyncLocked() {
	now := e.clock.Now()
	const multiframe = 51 * 26
	if e.nextWrite.Sub(now) < 0 || e.nextWrite.Sub(now) > multiframe {
		e.totalBursts = 0
		e.anchorFN = normFN(now.FN)
		e.nextWrite = Time{FN: normFN(e.anchorFN + e.mapping.Forward(0)), TN: e.tn}
	}
	e.prevWrite = e.nextWrite
}

// rollForward advances prevWrite/nextWrite per §4.1: prev <- next; next <-
// next plus the mapping's offset for the next scheduled burst index,
// modulo the mapping's repeat length.
func (e *Encoder) rollForward() Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.nextWrite
	e.prevWrite = prev
	n := e.mapping.NumBursts()
	e.totalBursts++
	cycle := e.totalBursts / n
	fn := normFN(e.anchorFN + cycle*e.mapping.RepeatLength() + e.mapping.Forward(e.totalBursts))
	e.nextWrite = Time{FN: fn, TN: e.tn}
	return prev
}

// TransmitNow waits for the clock to reach this channel's previously
// scheduled write time, calls send with the next scheduled write time,
// then rolls the schedule forward one burst, so the encoder stays at most
// one burst ahead of the clock. Channels driven by an upper-layer write
// (XCCH, SACCH, TCH/FACCH) call this directly from their encode path;
// §4.1: "transmit calls wait(prev_write_time) before emitting".
func (e *Encoder) TransmitNow(send func(t Time)) {
	e.mu.Lock()
	target := e.prevWrite
	writeTime := e.nextWrite
	e.mu.Unlock()
	e.clock.Wait(target)
	e.safeCall(writeTime, send)
	e.rollForward()
}

// StartGenerator runs the dedicated service thread used by the
// continuously scheduled FCCH: while running, it waits for the previous
// scheduled time and then, for the next scheduled time, calls generate
// when active or emits the idle filler otherwise, per §4.2's close()
// behaviour and §5's generator-thread model.
func (e *Encoder) StartGenerator(generate func(t Time)) {
	go func() {
		for e.isRunning() {
			e.mu.Lock()
			target := e.prevWrite
			writeTime := e.nextWrite
			active := e.active
			e.mu.Unlock()
			e.clock.Wait(target)
			if active {
				e.safeCall(writeTime, generate)
			} else {
				e.idleFill(writeTime)
			}
			e.rollForward()
		}
	}()
}

func (e *Encoder) safeCall(t Time, fn func(t Time)) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] encoder panic for %s at %s: %v", e.chType, t, r)
		}
	}()
	fn(t)
}

// idleFill emits one dummy/filler burst on C0 (TN 0); other logical
// channels have nothing to send while idle.
func (e *Encoder) idleFill(t Time) {
	if e.tn != 0 || e.radio == nil {
		return
	}
	b := NewTxBurst(t)
	b.FillDummy()
	e.radio.WriteHighSide(b)
}
