package gsm

import "sync"

// ChannelType names a logical channel for the radio's demultiplex table.
type ChannelType string

const (
	ChannelFCCH  ChannelType = "FCCH"
	ChannelSCH   ChannelType = "SCH"
	ChannelBCCH  ChannelType = "BCCH"
	ChannelCCCH  ChannelType = "CCCH"
	ChannelSDCCH ChannelType = "SDCCH"
	ChannelSACCH ChannelType = "SACCH"
	ChannelTCH   ChannelType = "TCH"
	ChannelRACH  ChannelType = "RACH"
)

// DemuxKey identifies a receive slot in the radio's demultiplex table.
type DemuxKey struct {
	ARFCN       uint16
	TN          int
	ChannelType ChannelType
}

// BurstSink is the minimal receive-path contract a channel decoder exposes
// to a Radio: it accepts uplink bursts pushed directly from the receive
// thread and must never block.
type BurstSink interface {
	WriteLowSide(b *RxBurst)
}

// Radio is the out-of-scope external collaborator (§6): it writes
// downlink bursts at their scheduled time and delivers uplink bursts to
// whichever decoder is installed for a given (ARFCN, TN, ChannelType).
// The core never implements the physical radio; this interface plus the
// Loopback test double below are the entire extent of the contract this
// repository owns.
type Radio struct {
	ARFCN uint16

	mu      sync.RWMutex
	demux   map[DemuxKey]BurstSink
	sink    func(*TxBurst)
}

// NewRadio creates a radio binding for one ARFCN. sink is called for every
// transmitted burst; a real implementation would hand it to the RF driver.
func NewRadio(arfcn uint16, sink func(*TxBurst)) *Radio {
	return &Radio{ARFCN: arfcn, demux: make(map[DemuxKey]BurstSink), sink: sink}
}

// WriteHighSide is called by encoders to transmit a burst.
func (r *Radio) WriteHighSide(b *TxBurst) {
	if r.sink == nil {
		return
	}
	r.sink(b)
}

// InstallDecoder registers a decoder to receive uplink bursts for the given
// timeslot and channel type on this radio's ARFCN.
func (r *Radio) InstallDecoder(tn int, ct ChannelType, d BurstSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.demux[DemuxKey{ARFCN: r.ARFCN, TN: tn, ChannelType: ct}] = d
}

// WriteLowSide is called by the RF driver with a received burst; it is
// routed to the installed decoder for (tn, ct). A frame number outside any
// installed channel's mapping is a configuration bug and is not this
// method's concern — callers route by (TN, ChannelType), not FN.
func (r *Radio) WriteLowSide(tn int, ct ChannelType, b *RxBurst) {
	r.mu.RLock()
	d, ok := r.demux[DemuxKey{ARFCN: r.ARFCN, TN: tn, ChannelType: ct}]
	r.mu.RUnlock()
	if !ok {
		return
	}
	d.WriteLowSide(b)
}

// Loopback is a synchronous, noise-free test double that routes every
// transmitted TxBurst straight back as an RxBurst on the same (TN,
// ChannelType), used to exercise the bit-exact encode/decode properties in
// §8 without a real radio. DropBurst lets a test simulate a single lost
// burst.
type Loopback struct {
	radio   *Radio
	tn      int
	ct      ChannelType
	dropped map[int]bool // FN -> drop
	mu      sync.Mutex
}

// NewLoopback wires a Loopback into radio for the given timeslot/channel.
func NewLoopback(tn int, ct ChannelType) *Loopback {
	lb := &Loopback{tn: tn, ct: ct, dropped: make(map[int]bool)}
	lb.radio = NewRadio(0, lb.deliver)
	return lb
}

// Radio returns the Radio this loopback is attached to, for passing to
// L1FEC.Downstream.
func (lb *Loopback) Radio() *Radio { return lb.radio }

// DropBurst marks the burst at frame number fn to be silently discarded
// instead of looped back, simulating a missing uplink burst.
func (lb *Loopback) DropBurst(fn int) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.dropped[fn] = true
}

func (lb *Loopback) deliver(tx *TxBurst) {
	lb.mu.Lock()
	drop := lb.dropped[tx.Time.FN]
	lb.mu.Unlock()
	if drop {
		return
	}
	rx := NewRxBurst(tx.Time)
	for i := 0; i < BurstLength; i++ {
		if tx.Bits.Bit(i) != 0 {
			rx.Bits.SetBit(i, 1.0)
		} else {
			rx.Bits.SetBit(i, 0.0)
		}
	}
	rx.RSSI = -50
	rx.TimingError = 0
	lb.radio.WriteLowSide(lb.tn, lb.ct, rx)
}
