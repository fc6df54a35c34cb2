package gsm

import "log"

// XCCHEncoder implements the four-burst control-channel encode pipeline of
// §4.4: FIRE-code protection, tail-biting-free convolutional coding, and
// the 4-block diagonal interleave, transmitted as four normal bursts
// stamped Hl=Hu=1 (control).
type XCCHEncoder struct {
	*Encoder
	coder *CyclicBlockCoder
	conv  *ConvCoder
	bcc   int
	sink  UplinkSink
}

// NewXCCHEncoder builds an XCCH encoder for the given mapping/clock/
// timeslot, using bcc as the training-sequence code (TSC=BCC).
func NewXCCHEncoder(mapping *TDMAMapping, clock *Clock, tn, bcc int, tap Tap) *XCCHEncoder {
	return &XCCHEncoder{
		Encoder: NewEncoder(mapping, clock, tn, ChannelSDCCH, tap),
		coder:   NewFIRECoder(),
		conv:    NewConvCoder(),
		bcc:     bcc,
	}
}

// SetUplinkSink installs the Layer-2 collaborator used to report each
// burst's scheduled transmit time via SignalNextWriteTime.
func (e *XCCHEncoder) SetUplinkSink(sink UplinkSink) { e.sink = sink }

// Encode consumes a 184-bit (23-byte) payload and transmits it as four
// bursts, blocking on the clock once per burst via TransmitNow.
func (e *XCCHEncoder) Encode(payload *BitVector) {
	if payload.Len() != FIREDataBits {
		panic("gsm: XCCH payload must be 184 bits")
	}
	u := NewBitVector(ConvConstraintLength - 1 + FIRECodewordBits)
	d := u.Head(FIREDataBits)
	d.CopyFrom(0, payload)
	d.LSB8MSB()
	p := u.Segment(FIREDataBits, FIREParityBits)
	e.coder.WriteParity(d, p)
	p.InvertAll() // parity is transmitted inverted, undone by the decoder before its syndrome check
	// tail 4 bits already zero

	c := NewBitVector(CodedBitsPerBlock)
	e.conv.Encode(u, c)

	var iView [4]*BitVector
	for b := 0; b < 4; b++ {
		iView[b] = NewBitVector(BitsPerBurstData)
	}
	XCCHInterleave(c, iView)

	radio := e.Radio()
	for b := 0; b < 4; b++ {
		iv := iView[b]
		e.TransmitNow(func(t Time) {
			burst := NewTxBurst(t)
			burst.Data1().CopyFrom(0, iv.Head(BitsPerBurstHalf))
			burst.Data2().CopyFrom(0, iv.Tail(BitsPerBurstHalf))
			burst.SetStealing(true, true)
			burst.SetTrainingSequence(e.bcc)
			if radio != nil {
				radio.WriteHighSide(burst)
			}
			e.tap.Capture(TapRecord{TN: uint8(e.Timeslot()), FN: uint32(t.FN), ChannelType: string(e.ChannelType()), Uplink: false, BurstLike: true, Payload: payload.Bytes()})
			if e.sink != nil {
				e.sink.SignalNextWriteTime(t)
			}
		})
	}
}

// XCCHDecoder implements the receive side of §4.4: accumulates four
// bursts by their B=mapping.reverse(FN) mod 4 position, deinterleaves,
// Viterbi-decodes, and accepts only on a zero FIRE syndrome.
type XCCHDecoder struct {
	*Decoder
	mapping *TDMAMapping
	coder   *CyclicBlockCoder
	conv    *ConvCoder
	tap     Tap
	sink    UplinkSink

	i         [4]*SoftVector
	rssiSum   float64
	tSum      float64
	sumCount  int
	blockTime Time
}

// NewXCCHDecoder builds an XCCH decoder for mapping, reporting decoded
// frames to sink and captures to tap (may be NoopTap{}).
func NewXCCHDecoder(mapping *TDMAMapping, sink UplinkSink, tap Tap) *XCCHDecoder {
	if tap == nil {
		tap = NoopTap{}
	}
	d := &XCCHDecoder{
		Decoder: NewDecoder(mapping, ChannelSDCCH),
		mapping: mapping,
		coder:   NewFIRECoder(),
		conv:    NewConvCoder(),
		tap:     tap,
		sink:    sink,
	}
	d.resetBlock()
	return d
}

func (d *XCCHDecoder) resetBlock() {
	for b := 0; b < 4; b++ {
		v := NewSoftVector(BitsPerBurstData)
		v.Fill(0, BitsPerBurstData, 0.5)
		d.i[b] = v
	}
	d.rssiSum, d.tSum, d.sumCount = 0, 0, 0
}

// WriteLowSide accepts one received burst, deinterleaving and decoding the
// frame once its B=3 burst has arrived. A frame number that does not
// belong to this channel's mapping is a configuration fault and aborts
// the process, per §7.
func (d *XCCHDecoder) WriteLowSide(burst *RxBurst) {
	b := d.mapping.Reverse(burst.Time.FN)
	if b < 0 {
		log.Fatalf("[ERROR] xcch decoder: frame %s not in channel mapping", burst.Time)
	}
	B := b % 4
	if B == 0 {
		d.resetBlock()
		d.blockTime = burst.Time
	}
	half := d.i[B]
	for k := 0; k < BitsPerBurstHalf; k++ {
		half.SetBit(k, burst.Data1().Bit(k))
		half.SetBit(BitsPerBurstHalf+k, burst.Data2().Bit(k))
	}
	d.rssiSum += burst.RSSI
	d.tSum += burst.TimingError
	d.sumCount++

	if B != 3 {
		return
	}

	c := NewSoftVector(CodedBitsPerBlock)
	XCCHDeinterleave(d.i, c)
	// deinterleaving copies information out of i[]; leave contributing
	// cells neutral so a missing burst next cycle cannot poison decode
	for bi := 0; bi < 4; bi++ {
		d.i[bi].Fill(0, BitsPerBurstData, 0.5)
	}

	u := NewBitVector(ConvConstraintLength - 1 + FIRECodewordBits)
	d.conv.Decode(c, u)
	dw := u.Head(FIREDataBits)
	p := u.Segment(FIREDataBits, FIREParityBits)
	p.InvertAll()

	dp := u.Head(FIRECodewordBits)
	if d.coder.Syndrome(dp) != 0 {
		d.CountBadFrame()
		return
	}
	d.CountGoodFrame()

	dw.LSB8MSB()
	rssi := d.rssiSum / float64(d.sumCount)
	ta := d.tSum / float64(d.sumCount)
	d.tap.Capture(TapRecord{FN: uint32(d.blockTime.FN), ChannelType: string(ChannelSDCCH), Uplink: true, BurstLike: false, Payload: dw.Bytes()})
	if d.sink != nil {
		d.sink.WriteLowSide(dw, d.blockTime, rssi, ta, d.FER())
	}
}
