package gsm

// SCH burst layout, GSM 05.03 §4.7: the 78-bit coded e-vector splits into
// two 39-bit halves at burst positions 3..41 and 106..144; the middle
// positions 42..105 (64 bits) carry the extended training sequence rather
// than any part of e.
const (
	schDataBits   = 25 // reduced frame-number/BSIC payload actually coded
	schParityBits = 10
	schUBits      = schDataBits + schParityBits + (ConvConstraintLength - 1) // 39
	schEBits      = 2 * schUBits                                            // 78
	schHalfBits   = schUBits                                                // 39

	schE1Start = 3
	schE2Start = schE1Start + schHalfBits + 64 // 106: after e1 (39) and the 64-bit extended TSC
)

// SCHParityGenerator is the degree-10 block-code polynomial protecting the
// SCH payload (the reduced frame number and BSIC). As with RACH's parity
// generator, the reference source's literal coefficients live in a header
// outside this repository's retrieved sources; this is a fixed, internally
// consistent degree-10 polynomial serving the same structural role.
const SCHParityGenerator = uint64(0x575)

func newSCHParityCoder() *CyclicBlockCoder {
	return NewCyclicBlockCoder(SCHParityGenerator, schParityBits, schDataBits+schParityBits)
}

// SCHEncoder accepts a 4-byte synchronisation payload (of which the low 25
// bits are coded) and transmits the block-coded, convolutionally-encoded
// SCH burst, GSM 05.03 §4.7.
type SCHEncoder struct {
	*Encoder
	parity *CyclicBlockCoder
	conv   *ConvCoder
}

// NewSCHEncoder builds an SCH generator bound to mapping/clock/timeslot.
func NewSCHEncoder(mapping *TDMAMapping, clock *Clock, tn int, tap Tap) *SCHEncoder {
	return &SCHEncoder{
		Encoder: NewEncoder(mapping, clock, tn, ChannelSCH, tap),
		parity:  newSCHParityCoder(),
		conv:    NewConvCoder(),
	}
}

// Encode packs payload's low 25 bits into a burst and transmits it via
// TransmitNow.
func (e *SCHEncoder) Encode(payload [4]byte) {
	full := NewBitVector(32)
	full.FromBytes(payload[:])
	d := full.Tail(schDataBits)

	u := NewBitVector(schUBits)
	u.Head(schDataBits).CopyFrom(0, d)
	p := u.Segment(schDataBits, schParityBits)
	e.parity.WriteParity(d, p)
	// tail bits already zero

	eVec := NewBitVector(schEBits)
	e.conv.Encode(u, eVec)

	radio := e.Radio()
	e.TransmitNow(func(t Time) {
		burst := NewTxBurst(t)
		burst.Bits.Segment(schE1Start, schHalfBits).CopyFrom(0, eVec.Head(schHalfBits))
		burst.Bits.Segment(schE2Start, schHalfBits).CopyFrom(0, eVec.Tail(schHalfBits))
		for i, bit := range ExtendedTrainingSequence {
			burst.Bits.SetBit(schE1Start+schHalfBits+i, bit)
		}
		if radio != nil {
			radio.WriteHighSide(burst)
		}
		e.tap.Capture(TapRecord{TN: uint8(e.Timeslot()), FN: uint32(t.FN), ChannelType: string(ChannelSCH), Uplink: false, BurstLike: true, Payload: payload[:]})
	})
}

// SCHDecoder decodes an SCH burst back into its 4-byte payload, used by a
// mobile-station-side test double (a BTS itself only transmits SCH, but a
// decoder is provided for loopback testing and for the RACH/SCH scenarios
// in §8).
type SCHDecoder struct {
	parity *CyclicBlockCoder
	conv   *ConvCoder
}

// NewSCHDecoder builds a stand-alone SCH decoder (no channel lifecycle:
// SCH decode is used only in test loopbacks).
func NewSCHDecoder() *SCHDecoder {
	return &SCHDecoder{parity: newSCHParityCoder(), conv: NewConvCoder()}
}

// Decode extracts the 4-byte payload from a received SCH burst, returning
// ok=false if the block-code parity does not match.
func (d *SCHDecoder) Decode(burst *RxBurst) (payload [4]byte, ok bool) {
	eVec := NewSoftVector(schEBits)
	for i := 0; i < schHalfBits; i++ {
		eVec.SetBit(i, burst.Bits.Bit(schE1Start+i))
		eVec.SetBit(schHalfBits+i, burst.Bits.Bit(schE2Start+i))
	}

	u := NewBitVector(schUBits)
	d.conv.Decode(eVec, u)

	dw := u.Head(schDataBits)
	sentParity := u.Segment(schDataBits, schParityBits)
	calcParity := NewBitVector(schParityBits)
	d.parity.WriteParity(dw, calcParity)
	if sentParity.Field(0, schParityBits) != calcParity.Field(0, schParityBits) {
		return payload, false
	}

	full := NewBitVector(32)
	full.Tail(schDataBits).CopyFrom(0, dw)
	copy(payload[:], full.Bytes())
	return payload, true
}
