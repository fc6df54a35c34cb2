package gsm

// TDMAMapping is the immutable per-logical-channel TDMA schedule: which
// timeslots the channel may use, and the ordered list of frame-number
// offsets (within a repeat length) that give the burst index -> frame
// number mapping and its reverse.
type TDMAMapping struct {
	allowedTimeslots map[int]bool
	downlink         bool
	repeatLength     int
	frameMapping     []int // frameMapping[b] = FN offset of burst b within the repeat
	reverse          map[int]int // FN mod repeatLength -> b, or absent if not in this channel
}

// NewTDMAMapping builds a mapping from the allowed timeslots, repeat
// length (frames), downlink/uplink direction and the ordered frame offsets
// for one repeat period.
func NewTDMAMapping(downlink bool, repeatLength int, frameMapping []int, allowedTimeslots ...int) *TDMAMapping {
	m := &TDMAMapping{
		allowedTimeslots: make(map[int]bool, len(allowedTimeslots)),
		downlink:         downlink,
		repeatLength:     repeatLength,
		frameMapping:     append([]int(nil), frameMapping...),
		reverse:          make(map[int]int, len(frameMapping)),
	}
	for _, ts := range allowedTimeslots {
		m.allowedTimeslots[ts] = true
	}
	for b, fn := range frameMapping {
		m.reverse[fn%repeatLength] = b
	}
	return m
}

func (m *TDMAMapping) Downlink() bool        { return m.downlink }
func (m *TDMAMapping) RepeatLength() int     { return m.repeatLength }
func (m *TDMAMapping) NumBursts() int        { return len(m.frameMapping) }
func (m *TDMAMapping) AllowsTimeslot(tn int) bool { return m.allowedTimeslots[tn] }

// Forward returns the FN offset (within the repeat) of burst index b,
// where b is taken modulo NumBursts().
func (m *TDMAMapping) Forward(b int) int {
	n := len(m.frameMapping)
	return m.frameMapping[((b%n)+n)%n]
}

// Reverse maps a frame number to its burst index within the repeat, or -1
// if that frame does not belong to this channel.
func (m *TDMAMapping) Reverse(fn int) int {
	b, ok := m.reverse[normFN(fn)%m.repeatLength]
	if !ok {
		return -1
	}
	return b
}
