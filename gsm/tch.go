package gsm

import (
	"math/rand"
	"sync"

	"github.com/gsmcore/l1fec/config"
)

// g610BitOrder is GSM 05.03's sensitivity-ordered permutation of the 260
// GSM 06.10 full-rate codec bits (class-1a/1b/class-2 groups, Table 2). The
// retrieved reference source declares but does not define this table
// in-tree; lacking the literal 260-entry table, this package uses the
// identity permutation, which preserves the class-1a/1b/class-2 boundaries
// the pipeline depends on (bits 0..49, 50..181, 182..259) and keeps the
// encode/decode path lossless, at the cost of not reproducing the
// bit-exact sensitivity ordering a real handset uses.
var g610BitOrder = identityPermutation(260)

func identityPermutation(n int) []int {
	t := make([]int, n)
	for i := range t {
		t[i] = i
	}
	return t
}

// Class boundaries within the 260-bit GSM 06.10 codec frame, §4.5.
const (
	class1aBits = 50
	class1Bits  = 182 // class-1a + class-1b
	class2Bits  = 78  // 260 - class1Bits
	tchUBits    = 189 // 185 interleaved class-1 bits (182+3 CRC) + 4 tail
)

// CRC3Generator is GSM 05.03's 3-bit class-1a CRC, D^3+D+1.
const CRC3Generator = uint64(0x0b)

func newCRC3Coder() *CyclicBlockCoder { return NewCyclicBlockCoder(CRC3Generator, 3, class1aBits+3) }

// tchFillerPattern is a canned 456-bit filler codeword substituted when
// neither speech nor FACCH is queued, "captured from a reference handset"
// per §4.5; approximated here as an alternating pattern distinguishable
// from real speech/FACCH traffic in a capture trace.
var tchFillerPattern = buildTCHFiller()

func buildTCHFiller() [CodedBitsPerBlock]byte {
	var f [CodedBitsPerBlock]byte
	for i := range f {
		f[i] = byte(i % 2)
	}
	return f
}

// speechFrameBits is the packed size of a GSM 06.10 full-rate RTP-style
// speech frame: a 4-bit header followed by 260 codec bits.
const speechFrameBits = 264

func packSpeechFrame(codecBits *BitVector) [33]byte {
	full := NewBitVector(speechFrameBits)
	full.CopyFrom(4, codecBits)
	var out [33]byte
	copy(out[:], full.Bytes())
	return out
}

func unpackSpeechFrame(frame [33]byte) *BitVector {
	full := NewBitVector(speechFrameBits)
	full.FromBytes(frame[:])
	return full.Tail(260)
}

// muteSpeechFrame implements the GSM 06.11 bad-frame substitution recipe
// recovered from the original source: attenuate byte 27's low-5-bit xmaxc
// field by 2 (floor 0) and randomise the four subframe grid-position bytes
// (offsets 6, 13, 20, 27), clearing the high bit of the following byte in
// each subframe (offsets 7, 14, 21, 28).
func muteSpeechFrame(prevGood *[33]byte) [33]byte {
	rawByte := prevGood[27]
	xmaxc := rawByte & 0x1f
	if xmaxc > 2 {
		xmaxc -= 2
	} else {
		xmaxc = 0
	}
	out := *prevGood
	for i := 0; i < 4; i++ {
		pos := byte(rand.Intn(4))
		out[6+7*i] = (rawByte & 0x80) | pos | xmaxc
		out[7+7*i] &= 0x7f
	}
	return out
}

// TCHEncoder is the transmit side of §4.5: it multiplexes queued speech
// and FACCH frames onto the 8-burst diagonal interleaver, one 4-burst
// half-block at a time, with FACCH taking strict priority over speech and
// a canned filler taking over when both queues are empty.
type TCHEncoder struct {
	*Encoder
	fire  *CyclicBlockCoder
	crc3  *CyclicBlockCoder
	conv  *ConvCoder
	bcc   int
	maxSp int

	mu          sync.Mutex
	speechQueue [][33]byte
	facchQueue  []*BitVector
	i           [8]*BitVector
	offset      int
	prevFACCH   bool
	hlFlag      bool
	huFlag      bool
}

// NewTCHEncoder builds a TCH/FACCH encoder for mapping/clock/timeslot,
// reading GSM.MaxSpeechLatency from cfg.
func NewTCHEncoder(mapping *TDMAMapping, clock *Clock, tn, bcc int, cfg *config.Store, tap Tap) *TCHEncoder {
	e := &TCHEncoder{
		Encoder: NewEncoder(mapping, clock, tn, ChannelTCH, tap),
		fire:    NewFIRECoder(),
		crc3:    newCRC3Coder(),
		conv:    NewConvCoder(),
		bcc:     bcc,
		maxSp:   cfg.MaxSpeechLatency(),
	}
	for b := 0; b < 8; b++ {
		e.i[b] = NewBitVector(BitsPerBurstData)
	}
	return e
}

// EnqueueSpeech submits a 33-byte encoded speech frame, dropping the
// oldest queued frame first if the queue would exceed MaxSpeechLatency.
func (e *TCHEncoder) EnqueueSpeech(frame [33]byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speechQueue = append(e.speechQueue, frame)
	for len(e.speechQueue) > e.maxSp {
		e.speechQueue = e.speechQueue[1:]
	}
}

// EnqueueFACCH submits a 184-bit control frame to steal the next available
// half-block.
func (e *TCHEncoder) EnqueueFACCH(payload *BitVector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.facchQueue = append(e.facchQueue, payload)
}

// Start launches the dispatch thread that drives the burst schedule,
// injecting a new codeword into the diagonal interleaver at the start of
// every 4-burst half-block and transmitting one burst per clock tick.
func (e *TCHEncoder) Start() {
	go func() {
		half := 0
		for e.isRunning() {
			if half%4 == 0 {
				e.injectHalfBlock()
			}
			slot := half % 8
			view := e.i[slot]
			e.TransmitNow(func(t Time) {
				e.sendBurst(t, view)
			})
			half++
		}
	}()
}

func (e *TCHEncoder) injectHalfBlock() {
	e.mu.Lock()
	var facch *BitVector
	if len(e.facchQueue) > 0 {
		facch = e.facchQueue[0]
		e.facchQueue = e.facchQueue[1:]
	}
	var speech [33]byte
	haveSpeech := false
	if facch == nil && len(e.speechQueue) > 0 {
		speech = e.speechQueue[0]
		e.speechQueue = e.speechQueue[1:]
		haveSpeech = true
	}
	offset := e.offset
	e.offset = (e.offset + 4) % 8
	wasFACCH := e.prevFACCH
	e.prevFACCH = facch != nil
	e.mu.Unlock()

	var c *BitVector
	switch {
	case facch != nil:
		c = e.encodeFACCH(facch)
	case haveSpeech:
		c = e.encodeSpeech(speech)
	default:
		c = NewBitVectorFromBits(append([]byte(nil), tchFillerPattern[:]...))
	}

	var iView [8]*BitVector
	copy(iView[:], e.i[:])
	TCHInterleave(c, offset, iView)

	e.mu.Lock()
	e.hlFlag = wasFACCH
	e.huFlag = facch != nil
	e.mu.Unlock()
}

func (e *TCHEncoder) encodeFACCH(payload *BitVector) *BitVector {
	u := NewBitVector(FIRECodewordBits + (ConvConstraintLength - 1))
	d := u.Head(FIREDataBits)
	d.CopyFrom(0, payload)
	d.LSB8MSB()
	p := u.Segment(FIREDataBits, FIREParityBits)
	e.fire.WriteParity(d, p)
	p.InvertAll() // parity is transmitted inverted, undone by the decoder before its syndrome check
	c := NewBitVector(CodedBitsPerBlock)
	e.conv.Encode(u, c)
	return c
}

func (e *TCHEncoder) encodeSpeech(frame [33]byte) *BitVector {
	codec := unpackSpeechFrame(frame)
	d := NewBitVector(260)
	codec.Map(d, g610BitOrder)

	u := NewBitVector(tchUBits)
	class1a := d.Head(class1aBits)
	crc := u.Segment(91, 3)
	e.crc3.WriteParity(class1a, crc)
	for k := 0; k <= 90; k++ {
		u.SetBit(k, d.Bit(2*k))
		u.SetBit(184-k, d.Bit(2*k+1))
	}
	// tail bits u[185..188] already zero

	c := NewBitVector(CodedBitsPerBlock)
	class1Coded := c.Head(2 * tchUBits)
	e.conv.Encode(u, class1Coded)
	class2 := c.Tail(class2Bits)
	class2.CopyFrom(0, d.Tail(class2Bits))
	return c
}

func (e *TCHEncoder) sendBurst(t Time, view *BitVector) {
	burst := NewTxBurst(t)
	burst.Data1().CopyFrom(0, view.Head(BitsPerBurstHalf))
	burst.Data2().CopyFrom(0, view.Tail(BitsPerBurstHalf))
	e.mu.Lock()
	hl, hu := e.hlFlag, e.huFlag
	e.mu.Unlock()
	burst.SetStealing(hl, hu)
	burst.SetTrainingSequence(e.bcc)
	if r := e.Radio(); r != nil {
		r.WriteHighSide(burst)
	}
	e.tap.Capture(TapRecord{TN: uint8(e.Timeslot()), FN: uint32(t.FN), ChannelType: string(ChannelTCH), Uplink: false, BurstLike: true})
}

// TCHDecoder is the receive side of §4.5: accumulates eight bursts on the
// diagonal interleaver, deinterleaving each half-block, decoding either as
// FACCH or speech depending on the received stealing flags, and applying
// GSM 06.11 muting on a bad frame.
type TCHDecoder struct {
	*Decoder
	mapping *TDMAMapping
	fire    *CyclicBlockCoder
	crc3    *CyclicBlockCoder
	conv    *ConvCoder
	tap     Tap
	sink    UplinkSink

	i         [8]*SoftVector
	prevGood  [33]byte
	haveGood  bool
	rssiSum   float64
	tSum      float64
	sumCount  int
	blockTime Time
}

// NewTCHDecoder builds a TCH/FACCH decoder for mapping.
func NewTCHDecoder(mapping *TDMAMapping, sink UplinkSink, tap Tap) *TCHDecoder {
	if tap == nil {
		tap = NoopTap{}
	}
	d := &TCHDecoder{
		Decoder: NewDecoder(mapping, ChannelTCH),
		mapping: mapping,
		fire:    NewFIRECoder(),
		crc3:    newCRC3Coder(),
		conv:    NewConvCoder(),
		tap:     tap,
		sink:    sink,
	}
	for b := 0; b < 8; b++ {
		v := NewSoftVector(BitsPerBurstData)
		v.Fill(0, BitsPerBurstData, 0.5)
		d.i[b] = v
	}
	return d
}

// WriteLowSide accepts one received burst, deinterleaving and decoding the
// half-block once its B mod 4 == 3 burst arrives.
func (d *TCHDecoder) WriteLowSide(burst *RxBurst) {
	b := d.mapping.Reverse(burst.Time.FN)
	if b < 0 {
		return // TCH mapping only covers the channel's own timeslot/frames
	}
	B := b % 8
	if B%4 == 0 {
		d.blockTime = burst.Time
		d.rssiSum, d.tSum, d.sumCount = 0, 0, 0
	}
	slot := d.i[B]
	for k := 0; k < BitsPerBurstHalf; k++ {
		slot.SetBit(k, burst.Data1().Bit(k))
		slot.SetBit(BitsPerBurstHalf+k, burst.Data2().Bit(k))
	}
	hl, _ := burst.Stealing()
	d.rssiSum += burst.RSSI
	d.tSum += burst.TimingError
	d.sumCount++

	if B%4 != 3 {
		return
	}
	blockOffset := 0
	if B == 3 {
		blockOffset = 4
	}
	c := NewSoftVector(CodedBitsPerBlock)
	// TCHDeinterleave resets only the cells it consumes: the 8-slot
	// buffer is persistent across overlapping diagonal blocks, and the
	// other half of each slot still belongs to the neighboring block.
	TCHDeinterleave(d.i, blockOffset, c)
	stolen := hl
	rssi := d.rssiSum / float64(d.sumCount)
	ta := d.tSum / float64(d.sumCount)
	if stolen {
		d.decodeFACCH(c, rssi, ta)
	}
	d.decodeSpeech(c, rssi, ta, stolen)
}

func (d *TCHDecoder) decodeFACCH(c *SoftVector, rssi, ta float64) {
	u := NewBitVector(FIRECodewordBits + (ConvConstraintLength - 1))
	d.conv.Decode(c, u)
	dw := u.Head(FIREDataBits)
	p := u.Segment(FIREDataBits, FIREParityBits)
	p.InvertAll()
	dp := u.Head(FIRECodewordBits)
	if d.fire.Syndrome(dp) != 0 {
		d.CountBadFrame()
		return
	}
	d.CountGoodFrame()
	dw.LSB8MSB()
	d.tap.Capture(TapRecord{FN: uint32(d.blockTime.FN), ChannelType: string(ChannelTCH), Uplink: true, Tag: 1, Payload: dw.Bytes()})
	if d.sink != nil {
		d.sink.WriteLowSide(dw, d.blockTime, rssi, ta, d.FER())
	}
}

// decodeSpeech decodes the class-1/class-2 speech split, or, when stolen is
// true (this block's bits are a FACCH frame, already handled by
// decodeFACCH), skips decoding entirely and reports a muted frame so the
// stolen 20 ms of speech is discarded rather than decoded as garbage.
func (d *TCHDecoder) decodeSpeech(c *SoftVector, rssi, ta float64, stolen bool) {
	if stolen {
		var frame [33]byte
		if d.haveGood {
			frame = muteSpeechFrame(&d.prevGood)
		}
		d.tap.Capture(TapRecord{FN: uint32(d.blockTime.FN), ChannelType: string(ChannelTCH), Uplink: true})
		if d.sink != nil {
			d.sink.WriteLowSideTCH(frame, d.blockTime, rssi, ta, d.FER())
		}
		return
	}

	class1 := c.Segment(0, 2*tchUBits)
	u := NewBitVector(tchUBits)
	d.conv.Decode(class1, u)

	dbits := NewBitVector(260)
	for k := 0; k <= 90; k++ {
		dbits.SetBit(2*k, u.Bit(k))
		dbits.SetBit(2*k+1, u.Bit(184-k))
	}
	class2Soft := c.Segment(2*tchUBits, class2Bits)
	dbits.Tail(class2Bits).CopyFrom(0, class2Soft.Slice())

	sentCRC := u.Segment(91, 3)
	calcCRC := NewBitVector(3)
	d.crc3.WriteParity(dbits.Head(class1aBits), calcCRC)
	crcMatch := sentCRC.Field(0, 3) == calcCRC.Field(0, 3)
	tail := u.Segment(185, 4).Field(0, 4)
	good := crcMatch && tail == 0

	var frame [33]byte
	if good {
		d.CountGoodFrame()
		payload := NewBitVector(260)
		dbits.Unmap(payload, g610BitOrder)
		frame = packSpeechFrame(payload)
		d.prevGood = frame
		d.haveGood = true
	} else {
		d.CountBadFrame()
		if d.haveGood {
			frame = muteSpeechFrame(&d.prevGood)
		}
	}
	d.tap.Capture(TapRecord{FN: uint32(d.blockTime.FN), ChannelType: string(ChannelTCH), Uplink: true})
	if d.sink != nil {
		d.sink.WriteLowSideTCH(frame, d.blockTime, rssi, ta, d.FER())
	}
}
