package gsm

// Normal-burst bit layout, GSM 05.02 §5.2.3: 3 tail + 57 data1 + 1 stealing
// (Hl) + 26 training sequence + 1 stealing (Hu) + 57 data2 + 3 tail +
// 8.25 guard periods (not represented here, a burst is 148 bit positions).
const (
	BurstLength       = 148
	Data1Start        = 3
	Data1Len          = 57
	StealingLowBit    = 60
	TrainingStart     = 61
	TrainingLen       = 26
	StealingHighBit   = 87
	Data2Start        = 88
	Data2Len          = 57
)

// TrainingSequences are the 8 standard GSM training sequence bit patterns
// (TSC 0..7), GSM 05.02 Annex B, selected by the cell's BCC.
var TrainingSequences = [8][TrainingLen]byte{
	{0, 0, 1, 0, 0, 1, 0, 1, 1, 1, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 1, 0, 1, 1, 1},
	{0, 0, 1, 0, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 1, 1, 0, 1, 1, 1},
	{0, 1, 0, 0, 0, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 0, 0, 1, 0, 0, 0, 0, 1, 1, 1, 0},
	{0, 1, 0, 0, 0, 1, 1, 1, 1, 0, 1, 1, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1, 1, 1, 0},
	{0, 0, 0, 1, 1, 0, 1, 0, 1, 1, 1, 0, 0, 1, 0, 0, 0, 0, 0, 1, 1, 0, 1, 0, 1, 1},
	{0, 1, 0, 0, 1, 1, 1, 0, 1, 0, 1, 1, 0, 0, 0, 0, 1, 0, 0, 1, 1, 1, 0, 1, 0, 1},
	{1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 1, 0, 1, 1, 0, 0, 0, 0, 1, 0, 1, 0, 0, 1, 1, 1},
	{1, 1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 0, 1, 0, 1, 1, 0, 0, 0, 0, 1, 1, 1, 0, 1, 0},
}

// ExtendedTrainingSequence is the 64-bit extended training sequence used
// by the SCH burst, carried in positions 42..105 (the "middle" of the
// burst template between the two 39-bit encoded halves e1/e2).
var ExtendedTrainingSequence = [64]byte{
	1, 0, 1, 1, 1, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 1,
	0, 0, 0, 1, 0, 0, 1, 1, 1, 0, 1, 0, 1, 0, 1, 1,
	0, 0, 0, 0, 1, 0, 0, 1, 0, 1, 1, 1, 0, 1, 0, 0,
	0, 1, 1, 1, 0, 0, 1, 0, 1, 1, 1, 0, 0, 0, 0, 1,
}

// dummyBurstData1 and dummyBurstData2 are the fixed 57-bit data halves of
// the standard dummy/filler burst, GSM 05.02 §5.2.6. The middle 26 bits use
// training sequence 0; the two stealing flags and the three leading/
// trailing tail triplets are all zero, matching a burst that carries no
// real stealing information.
var dummyBurstData1 = [Data1Len]byte{
	1, 1, 1, 1, 0, 1, 0, 0, 1, 1, 0, 0, 0, 1, 0, 1, 0, 0, 1, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0,
	1, 1, 1, 0, 0, 0, 1, 0, 1, 1, 1, 0, 0, 0, 0, 1, 1, 0, 1, 0, 0, 1, 0, 0, 0, 1, 0, 0,
}
var dummyBurstData2 = [Data2Len]byte{
	1, 1, 1, 0, 0, 1, 0, 1, 0, 0, 1, 0, 0, 0, 1, 0, 1, 0, 1, 1, 1, 0, 0, 0, 0, 1, 0, 0,
	1, 0, 1, 1, 1, 0, 0, 0, 0, 1, 0, 1, 0, 0, 1, 1, 1, 0, 0, 0, 1, 0, 1, 1, 1, 0, 0, 0, 0,
}

// DummyBurstPattern is the fixed filler/dummy burst emitted on C0 while a
// channel is idle, assembled from its data halves, training sequence 0,
// and zeroed tail/stealing bits.
var DummyBurstPattern = buildDummyBurst()

func buildDummyBurst() [BurstLength]byte {
	var b [BurstLength]byte
	copy(b[Data1Start:Data1Start+Data1Len], dummyBurstData1[:])
	copy(b[TrainingStart:TrainingStart+TrainingLen], TrainingSequences[0][:])
	copy(b[Data2Start:Data2Start+Data2Len], dummyBurstData2[:])
	return b
}

// TxBurst is a downlink burst ready for modulation: 148 bit positions plus
// the (FN, TN) it must be transmitted at.
type TxBurst struct {
	Time Time
	Bits BitVector
}

// NewTxBurst allocates a zeroed 148-bit burst at the given time.
func NewTxBurst(t Time) *TxBurst {
	return &TxBurst{Time: t, Bits: *NewBitVector(BurstLength)}
}

// Data1 returns the first 57-bit data half as a view.
func (b *TxBurst) Data1() *BitVector { return b.Bits.Segment(Data1Start, Data1Len) }

// Data2 returns the second 57-bit data half as a view.
func (b *TxBurst) Data2() *BitVector { return b.Bits.Segment(Data2Start, Data2Len) }

// SetTrainingSequence writes the 26-bit training sequence for the given
// TSC/BCC into positions 61..86.
func (b *TxBurst) SetTrainingSequence(tsc int) {
	for i, bit := range TrainingSequences[tsc&7] {
		b.Bits.SetBit(TrainingStart+i, bit)
	}
}

// SetStealing sets the two stealing flags Hl (position 60) and Hu
// (position 87).
func (b *TxBurst) SetStealing(hl, hu bool) {
	b.Bits.SetBit(StealingLowBit, boolBit(hl))
	b.Bits.SetBit(StealingHighBit, boolBit(hu))
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// FillDummy overwrites the burst with the standard dummy/filler pattern.
func (b *TxBurst) FillDummy() {
	for i, bit := range DummyBurstPattern {
		b.Bits.SetBit(i, bit)
	}
}

// RxBurst is an uplink burst as delivered by the radio: 148 soft bit
// positions, the (FN, TN) it arrived at, measured RSSI (dB relative to
// full scale) and timing error (symbol intervals).
type RxBurst struct {
	Time        Time
	Bits        SoftVector
	RSSI        float64
	TimingError float64
}

func NewRxBurst(t Time) *RxBurst {
	return &RxBurst{Time: t, Bits: *NewSoftVector(BurstLength)}
}

func (b *RxBurst) Data1() *SoftVector { return b.Bits.Segment(Data1Start, Data1Len) }
func (b *RxBurst) Data2() *SoftVector { return b.Bits.Segment(Data2Start, Data2Len) }

// Stealing reads the two stealing flags as hard decisions.
func (b *RxBurst) Stealing() (hl, hu bool) {
	return b.Bits.Bit(StealingLowBit) >= 0.5, b.Bits.Bit(StealingHighBit) >= 0.5
}
