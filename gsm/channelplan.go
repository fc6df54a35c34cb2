package gsm

// Standard TDMA mappings for the control- and traffic-channel combinations
// used by a single-carrier BTS, GSM 05.02 §6-7. The TCH/FACCH and SACCH/TF
// mappings below reproduce the 26-multiframe structure exactly (frame 12
// carries SACCH, frame 25 is idle, the remaining 24 frames carry traffic).
// FCCH and SCH list all five of their occurrences in the 51-multiframe.
// The BCCH/CCCH/SDCCH4/SACCH4 mappings simplify GSM 05.02's full
// 51-multiframe channel-combination tables (which interleave several
// repeats of each block across the multiframe) down to one four-frame
// block per channel, since the literal combination tables were not present in this
// repository's retrieved sources; this is enough to exercise every
// channel's encode/decode path but is not a complete base-station frame
// plan.

// NewFCCHMapping returns the downlink mapping for the frequency-correction
// channel on TN0.
func NewFCCHMapping() *TDMAMapping {
	return NewTDMAMapping(true, 51, []int{0, 10, 20, 30, 40}, 0)
}

// NewSCHMapping returns the downlink mapping for the synchronisation
// channel on TN0.
func NewSCHMapping() *TDMAMapping {
	return NewTDMAMapping(true, 51, []int{1, 11, 21, 31, 41}, 0)
}

// NewBCCHMapping returns the downlink mapping for one broadcast-control
// block on TN0.
func NewBCCHMapping() *TDMAMapping {
	return NewTDMAMapping(true, 51, []int{2, 3, 4, 5}, 0)
}

// NewCCCHMapping returns the downlink mapping for one common-control
// (paging/access-grant) block on TN0; RACH shares the same timeslot on the
// uplink half of the pair.
func NewCCCHMapping() *TDMAMapping {
	return NewTDMAMapping(true, 51, []int{6, 7, 8, 9}, 0)
}

// NewRACHMapping returns the uplink mapping random access occupies on TN0,
// paired with NewCCCHMapping's downlink AGCH block.
func NewRACHMapping() *TDMAMapping {
	return NewTDMAMapping(false, 51, []int{6, 7, 8, 9}, 0)
}

// NewSDCCH4Mapping returns the mapping for one of the four SDCCH/4
// sub-channels multiplexed onto TN0 alongside the control blocks above.
// sub must be in [0,4).
func NewSDCCH4Mapping(downlink bool, sub int) *TDMAMapping {
	base := 12 + 4*sub
	return NewTDMAMapping(downlink, 51, []int{base, base + 1, base + 2, base + 3}, 0)
}

// NewSACCH4Mapping returns the mapping for the SACCH paired with SDCCH/4
// sub-channel sub.
func NewSACCH4Mapping(downlink bool, sub int) *TDMAMapping {
	base := 28 + 4*sub
	return NewTDMAMapping(downlink, 51, []int{base, base + 1, base + 2, base + 3}, 0)
}

// NewTCHMapping returns the full-rate traffic-channel mapping on timeslot
// tn (1..7): every frame of the 26-multiframe except 12 (SACCH) and 25
// (idle).
func NewTCHMapping(downlink bool, tn int) *TDMAMapping {
	frames := make([]int, 0, 24)
	for fn := 0; fn < 26; fn++ {
		if fn == 12 || fn == 25 {
			continue
		}
		frames = append(frames, fn)
	}
	return NewTDMAMapping(downlink, 26, frames, tn)
}

// NewSACCHTFMapping returns the slow-associated-control mapping paired
// with NewTCHMapping on the same timeslot: frame 12 of the 26-multiframe.
func NewSACCHTFMapping(downlink bool, tn int) *TDMAMapping {
	return NewTDMAMapping(downlink, 26, []int{12}, tn)
}
