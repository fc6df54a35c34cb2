package gsm

import (
	"sync"
	"sync/atomic"

	"github.com/gsmcore/l1fec/config"
)

// SACCH physical header layout within the 184-bit XCCH payload, §4.6: byte
// 0 (bits 0..7) is the ordered MS power command, byte 1 (bits 8..15) is
// the ordered timing advance.
const (
	sacchPowerByte = 0
	sacchTAByte    = 1
	sacchHeaderLen = 16
)

// SACCHEncoder wraps an XCCHEncoder, prepending the two-byte physical
// header (ordered power, ordered timing advance) to every downlink L2
// payload and running the closed-loop power/TA control update on every
// accepted uplink SACCH block.
type SACCHEncoder struct {
	*XCCHEncoder
	band Band
	cfg  *config.Store

	mu            sync.Mutex
	orderedPower  int
	orderedTiming int

	phyNew        atomic.Bool
	measRSSI      float64
	measTiming    float64
	measMSPower   int
	measMSTiming  int
}

// NewSACCHEncoder builds a SACCH encoder over the same mapping/clock/
// timeslot conventions as XCCH, using band to select the power table.
func NewSACCHEncoder(mapping *TDMAMapping, clock *Clock, tn, bcc int, band Band, cfg *config.Store, tap Tap) *SACCHEncoder {
	e := &SACCHEncoder{
		XCCHEncoder: NewXCCHEncoder(mapping, clock, tn, bcc, tap),
		band:        band,
		cfg:         cfg,
	}
	e.XCCHEncoder.Encoder.chType = ChannelSACCH
	// L1FEC.Open opens only the embedded base encoder, so the control loop
	// starts from the same initial power that Open sets.
	e.orderedPower = 33
	return e
}

// Open resets the control loop to its documented initial values (33 dBm,
// TA 0) in addition to the base encoder's Open behaviour.
func (e *SACCHEncoder) Open() {
	e.mu.Lock()
	e.orderedPower = 33
	e.orderedTiming = 0
	e.mu.Unlock()
	e.XCCHEncoder.Encoder.Open()
}

// ReportMeasurement is called by the paired SACCHDecoder on every accepted
// uplink block; it stashes the measurement and sets the phy_new flag,
// §9's "half-ass semaphore" implemented as a single consume-once
// atomic.Bool.
func (e *SACCHEncoder) ReportMeasurement(rssi, timingError float64, msPower, msTiming int) {
	e.mu.Lock()
	e.measRSSI = rssi
	e.measTiming = timingError
	e.measMSPower = msPower
	e.measMSTiming = msTiming
	e.mu.Unlock()
	e.phyNew.Store(true)
}

// updateControlLoop runs the §4.6 closed-loop recursion once, only if a
// fresh measurement is pending, consuming the phy_new flag on read.
func (e *SACCHEncoder) updateControlLoop() {
	if !e.phyNew.CompareAndSwap(true, false) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	alphaP := e.cfg.MSPowerDamping()
	deltaP := e.measRSSI - float64(e.cfg.RSSITarget())
	targetPower := float64(e.measMSPower) - deltaP
	op := alphaP*float64(e.orderedPower) + (1-alphaP)*targetPower
	e.orderedPower = int(clamp(op, float64(e.cfg.MSPowerMin()), float64(e.cfg.MSPowerMax())))

	alphaT := e.cfg.MSTADamping()
	targetTiming := float64(e.measMSTiming) + e.measTiming
	ot := alphaT*float64(e.orderedTiming) + (1-alphaT)*targetTiming
	e.orderedTiming = int(clamp(ot, 0, float64(e.cfg.MSTAMax())))
}

// EncodeSACCH runs the control loop and transmits l2Payload (23 bytes
// minus the 2-byte physical header, i.e. 168 bits) prefixed with the
// current ordered power/TA header.
func (e *SACCHEncoder) EncodeSACCH(l2Payload *BitVector) {
	e.updateControlLoop()
	full := NewBitVector(FIREDataBits)
	e.mu.Lock()
	full.SetField(0, 8, uint64(EncodePower(e.band, e.orderedPower)))
	full.SetField(8, 8, uint64(e.orderedTiming))
	e.mu.Unlock()
	full.Segment(sacchHeaderLen, FIREDataBits-sacchHeaderLen).CopyFrom(0, l2Payload)
	e.XCCHEncoder.Encode(full)
}

// SACCHDecoder wraps an XCCHDecoder, extracting the physical header from
// each accepted frame and reporting measurements to its sibling encoder.
type SACCHDecoder struct {
	*XCCHDecoder
	band    Band
	encoder *SACCHEncoder
}

// NewSACCHDecoder builds a SACCH decoder that forwards decoded L2 payload
// (without the physical header) to sink, and physical measurements to the
// paired encoder once SetSiblingEncoder is called.
func NewSACCHDecoder(mapping *TDMAMapping, band Band, sink UplinkSink, tap Tap) *SACCHDecoder {
	d := &SACCHDecoder{
		XCCHDecoder: NewXCCHDecoder(mapping, nil, tap),
		band:        band,
	}
	d.XCCHDecoder.sink = &sacchHeaderStrippingSink{decoder: d, upstream: sink}
	return d
}

// SetSiblingEncoder wires this decoder's physical-header extraction back
// to the encoder that runs the closed control loop.
func (d *SACCHDecoder) SetSiblingEncoder(e *SACCHEncoder) { d.encoder = e }

// sacchHeaderStrippingSink adapts XCCHDecoder's plain WriteLowSide upcall
// into the header-aware WriteLowSideSACCH the real Layer-2 collaborator
// expects, per §4.6's decode formulas.
type sacchHeaderStrippingSink struct {
	decoder  *SACCHDecoder
	upstream UplinkSink
}

func (s *sacchHeaderStrippingSink) WriteLowSide(payload *BitVector, t Time, rssi, ta, fer float64) {
	msPower := DecodePower(s.decoder.band, int(payload.Field(0, 8)))
	msTimingRaw := payload.Field(8, 8)
	msTiming := -1
	if msTimingRaw < 64 {
		msTiming = int(msTimingRaw)
	}
	if s.decoder.encoder != nil {
		s.decoder.encoder.ReportMeasurement(rssi, ta, msPower, msTiming)
	}
	if s.upstream != nil {
		body := payload.Segment(sacchHeaderLen, FIREDataBits-sacchHeaderLen)
		s.upstream.WriteLowSideSACCH(body, t, rssi, ta, fer, msPower, msTiming)
	}
}

func (s *sacchHeaderStrippingSink) WriteLowSideSACCH(*BitVector, Time, float64, float64, float64, int, int) {
}
func (s *sacchHeaderStrippingSink) WriteLowSideTCH([33]byte, Time, float64, float64, float64) {}
func (s *sacchHeaderStrippingSink) SignalNextWriteTime(Time)                                  {}
