package gsm

import "sync"

// Decoder is the embeddable base for every channel's receive side:
// lifecycle (open/close/recyclable), the three release timers and FER
// exponential averaging of §4.3.
type Decoder struct {
	mapping *TDMAMapping
	chType  ChannelType

	mu      sync.Mutex
	open    bool
	t3101   bool // access reply, armed on Open
	t3109   bool // uplink lost, armed by any good uplink frame
	t3111   bool // release complete, armed on Close
	fer     float64

	sibling *Encoder // non-owning, set once by the owning L1FEC

	// expire is not used in this package. A timer fires only through an
	// explicit ExpireT3101/ExpireT3109/ExpireT3111 call; nothing here
	// counts a timer down or reads a timer duration from configuration.
	expire chan string
}

// feAveragingWindow is M in §4.3's FER recursion, one SACCH multiframe.
const feAveragingWindow = 208

// NewDecoder builds a base decoder for one channel's mapping.
func NewDecoder(mapping *TDMAMapping, ct ChannelType) *Decoder {
	return &Decoder{mapping: mapping, chType: ct}
}

// SetSibling installs the paired encoder; called once by the owning L1FEC.
func (d *Decoder) SetSibling(e *Encoder) { d.sibling = e }

// Open resets FER to 0, clears T3109/T3111, arms T3101 and marks the
// channel active. Arming a timer starts it counting down from zero; it is
// ExpireT3101 firing later, not Open itself, that makes the flag true, so
// Open clears all three expiry flags rather than setting T3101's.
func (d *Decoder) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fer = 0
	d.t3101 = false
	d.t3109 = false
	d.t3111 = false
	d.open = true
}

// Close clears T3101 and T3109, arms T3111, and clears active.
func (d *Decoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t3101 = false
	d.t3109 = false
	d.t3111 = true
	d.open = false
}

// ExpireT3101 fires the access-reply timer; called by a driver once its
// configured duration elapses after Open with no RACH-driven establishment.
func (d *Decoder) ExpireT3101() { d.expireTimer(&d.t3101) }

// ExpireT3109 fires the uplink-lost timer.
func (d *Decoder) ExpireT3109() { d.expireTimer(&d.t3109) }

// ExpireT3111 fires the release-complete timer.
func (d *Decoder) ExpireT3111() { d.expireTimer(&d.t3111) }

func (d *Decoder) expireTimer(flag *bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	*flag = true
}

// ArmT3109 is called whenever a good uplink frame is decoded, per §4.3:
// "T3109 (uplink lost, armed by any good uplink frame)". Arming here means
// resetting the timer's fired state; the driver restarts its countdown.
func (d *Decoder) ArmT3109() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t3109 = false
}

// Recyclable reports whether any of T3101, T3109, T3111 has expired.
func (d *Decoder) Recyclable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t3101 || d.t3109 || d.t3111
}

// Active reports whether the channel is open and not recyclable.
func (d *Decoder) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open && !(d.t3101 || d.t3109 || d.t3111)
}

// UplinkLost reports T3109 expiry specifically, the condition the upper
// layer polls instead of receiving an exception (§7).
func (d *Decoder) UplinkLost() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t3109
}

// FER returns the current exponentially-averaged frame erasure rate.
func (d *Decoder) FER() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fer
}

// CountGoodFrame updates the FER average for an accepted frame and arms
// (resets) T3109 since the uplink is alive.
func (d *Decoder) CountGoodFrame() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fer = (1 - 1.0/feAveragingWindow) * d.fer
	d.t3109 = false
}

// CountBadFrame updates the FER average for a rejected/missing frame.
func (d *Decoder) CountBadFrame() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fer = (1-1.0/feAveragingWindow)*d.fer + 1.0/feAveragingWindow
}
