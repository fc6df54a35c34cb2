package gsm

import "testing"

func mappingFrames(m *TDMAMapping) []int {
	frames := make([]int, m.NumBursts())
	for i := range frames {
		frames[i] = m.Forward(i)
	}
	return frames
}

func assertFrames(t *testing.T, name string, m *TDMAMapping, wantRepeat int, wantFrames []int, wantTN int) {
	t.Helper()
	if got := m.RepeatLength(); got != wantRepeat {
		t.Errorf("%s: RepeatLength() = %d, want %d", name, got, wantRepeat)
	}
	got := mappingFrames(m)
	if len(got) != len(wantFrames) {
		t.Fatalf("%s: frames = %v, want %v", name, got, wantFrames)
	}
	for i := range got {
		if got[i] != wantFrames[i] {
			t.Errorf("%s: frames[%d] = %d, want %d", name, i, got[i], wantFrames[i])
		}
	}
	if !m.AllowsTimeslot(wantTN) {
		t.Errorf("%s: AllowsTimeslot(%d) = false, want true", name, wantTN)
	}
	if m.AllowsTimeslot(wantTN + 1) {
		t.Errorf("%s: AllowsTimeslot(%d) = true, want false", name, wantTN+1)
	}
}

func TestChannelPlan_ControlChannelMappings(t *testing.T) {
	assertFrames(t, "FCCH", NewFCCHMapping(), 51, []int{0, 10, 20, 30, 40}, 0)
	assertFrames(t, "SCH", NewSCHMapping(), 51, []int{1, 11, 21, 31, 41}, 0)
	assertFrames(t, "BCCH", NewBCCHMapping(), 51, []int{2, 3, 4, 5}, 0)
	assertFrames(t, "CCCH", NewCCCHMapping(), 51, []int{6, 7, 8, 9}, 0)
	assertFrames(t, "RACH", NewRACHMapping(), 51, []int{6, 7, 8, 9}, 0)

	if NewCCCHMapping().Downlink() != true {
		t.Error("CCCH mapping should be downlink")
	}
	if NewRACHMapping().Downlink() != false {
		t.Error("RACH mapping should be uplink")
	}
}

func TestChannelPlan_SDCCH4SubChannelsDoNotOverlap(t *testing.T) {
	seen := make(map[int]int) // frame -> owning sub-channel
	for sub := 0; sub < 4; sub++ {
		m := NewSDCCH4Mapping(true, sub)
		if got := m.RepeatLength(); got != 51 {
			t.Errorf("sub %d: RepeatLength() = %d, want 51", sub, got)
		}
		for _, fn := range mappingFrames(m) {
			if owner, ok := seen[fn]; ok {
				t.Errorf("frame %d claimed by both sub-channel %d and %d", fn, owner, sub)
			}
			seen[fn] = sub
		}
	}

	sacchSeen := make(map[int]int)
	for sub := 0; sub < 4; sub++ {
		m := NewSACCH4Mapping(true, sub)
		for _, fn := range mappingFrames(m) {
			if owner, ok := sacchSeen[fn]; ok {
				t.Errorf("SACCH frame %d claimed by both sub-channel %d and %d", fn, owner, sub)
			}
			sacchSeen[fn] = sub
			if _, clash := seen[fn]; clash {
				t.Errorf("SACCH frame %d collides with an SDCCH block frame", fn)
			}
		}
	}
}

func TestChannelPlan_TCHMappingExcludesSACCHAndIdleFrames(t *testing.T) {
	for tn := 1; tn <= 7; tn++ {
		m := NewTCHMapping(true, tn)
		if got := m.RepeatLength(); got != 26 {
			t.Errorf("tn %d: RepeatLength() = %d, want 26", tn, got)
		}
		if got := m.NumBursts(); got != 24 {
			t.Errorf("tn %d: NumBursts() = %d, want 24", tn, got)
		}
		seen := make(map[int]bool)
		for _, fn := range mappingFrames(m) {
			if fn == 12 || fn == 25 {
				t.Errorf("tn %d: TCH mapping includes excluded frame %d", tn, fn)
			}
			if fn < 0 || fn >= 26 {
				t.Errorf("tn %d: TCH mapping frame %d out of [0,26) range", tn, fn)
			}
			seen[fn] = true
		}
		if len(seen) != 24 {
			t.Errorf("tn %d: TCH mapping has %d distinct frames, want 24", tn, len(seen))
		}
		if !m.AllowsTimeslot(tn) {
			t.Errorf("tn %d: AllowsTimeslot(%d) = false, want true", tn, tn)
		}

		sacch := NewSACCHTFMapping(true, tn)
		if got := sacch.RepeatLength(); got != 26 {
			t.Errorf("tn %d: SACCH/TF RepeatLength() = %d, want 26", tn, got)
		}
		if got := mappingFrames(sacch); len(got) != 1 || got[0] != 12 {
			t.Errorf("tn %d: SACCH/TF frames = %v, want [12]", tn, got)
		}
	}
}
