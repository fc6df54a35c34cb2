package gsm

import "log"

// RACH burst layout, GSM 05.03 §4.6: the 36 coded bits carrying the 18-bit
// access word live at burst positions 49..84 (inclusive of 49, exclusive
// of 85).
const (
	rachCodedStart = 49
	rachCodedLen   = 36
	rachUBits      = 18
	rachRABits     = 8
	rachParityBits = 6
)

// RACHParityGenerator is the degree-6 generator polynomial used to compute
// the RACH access word's parity, GSM 05.03 §4.6 (the reference source
// declares its coefficients in a header not present in this repository's
// retrieved sources; this is a fixed degree-6 polynomial serving the same
// structural role for the 8-bit RA field).
const RACHParityGenerator = uint64(0x5b)

func newRACHParityCoder() *CyclicBlockCoder {
	return NewCyclicBlockCoder(RACHParityGenerator, rachParityBits, rachRABits+rachParityBits)
}

// RACHSink receives a decoded access request. RACH's L2 is thin enough
// that the decoded fields are forwarded directly with no intermediate
// frame structure, §4.7.
type RACHSink interface {
	HandleRACH(ra byte, t Time, rssi float64, ta int)
}

// RACHDecoder processes single access bursts, GSM 05.03 §4.7: Viterbi
// decode, tail check, and a BSIC-XORed parity check. Because the upcall to
// L2 may block on a channel allocator, the radio's receive thread never
// calls into the decode logic directly; WriteLowSide only enqueues.
type RACHDecoder struct {
	*Decoder
	bsic   int
	conv   *ConvCoder
	parity *CyclicBlockCoder
	tap    Tap
	sink   RACHSink

	queue chan *RxBurst
	done  chan struct{}
}

// NewRACHDecoder builds a RACH decoder for the given BSIC, with an
// internal queue of the given depth decoupling the radio receive thread
// from the (potentially blocking) L2 sink.
func NewRACHDecoder(bsic int, sink RACHSink, tap Tap, queueDepth int) *RACHDecoder {
	if tap == nil {
		tap = NoopTap{}
	}
	d := &RACHDecoder{
		Decoder: NewDecoder(nil, ChannelRACH),
		bsic:    bsic,
		conv:    NewConvCoder(),
		parity:  newRACHParityCoder(),
		tap:     tap,
		sink:    sink,
		queue:   make(chan *RxBurst, queueDepth),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// WriteLowSide enqueues a received access burst, dropping it if the
// internal queue is full rather than blocking the radio's receive thread.
func (d *RACHDecoder) WriteLowSide(burst *RxBurst) {
	select {
	case d.queue <- burst:
	default:
		log.Printf("[DEBUG] rach decoder: queue full, dropping burst at %s", burst.Time)
	}
}

// Close stops the decode goroutine once its queue drains.
func (d *RACHDecoder) Close() {
	close(d.queue)
	<-d.done
}

func (d *RACHDecoder) run() {
	defer close(d.done)
	for burst := range d.queue {
		d.decode(burst)
	}
}

func (d *RACHDecoder) decode(burst *RxBurst) {
	coded := burst.Bits.Segment(rachCodedStart, rachCodedLen)
	u := NewBitVector(rachUBits)
	d.conv.Decode(coded, u)

	if u.Field(14, 4) != 0 {
		d.CountBadFrame()
		return
	}

	dw := u.Head(rachRABits)
	sentParity := (^u.Field(8, 6)) & 0x3f
	checkParity := NewBitVector(rachParityBits)
	d.parity.WriteParity(dw, checkParity)
	encodedBSIC := (sentParity ^ checkParity.Field(0, rachParityBits)) & 0x3f
	if int(encodedBSIC) != d.bsic {
		d.CountBadFrame()
		return
	}
	d.CountGoodFrame()

	dw.LSB8MSB()
	ra := byte(dw.Field(0, rachRABits))
	ta := int(burst.TimingError + 0.5)
	if ta < 0 {
		ta = 0
	}
	if ta > 63 {
		ta = 63
	}
	d.tap.Capture(TapRecord{FN: uint32(burst.Time.FN), ChannelType: string(ChannelRACH), Uplink: true, BurstLike: true, Payload: []byte{ra}})
	if d.sink != nil {
		d.sink.HandleRACH(ra, burst.Time, burst.RSSI, ta)
	}
}
