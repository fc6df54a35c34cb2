package gsm

import "testing"

func TestTxBurst_Data1Data2AreAliasingViews(t *testing.T) {
	b := NewTxBurst(Time{})
	b.Data1().SetBit(0, 1)
	b.Data2().SetBit(0, 1)
	if b.Bits.Bit(Data1Start) != 1 {
		t.Errorf("Data1() view did not alias underlying burst at %d", Data1Start)
	}
	if b.Bits.Bit(Data2Start) != 1 {
		t.Errorf("Data2() view did not alias underlying burst at %d", Data2Start)
	}
}

func TestTxBurst_SetTrainingSequence(t *testing.T) {
	b := NewTxBurst(Time{})
	b.SetTrainingSequence(3)
	for i, want := range TrainingSequences[3] {
		if got := b.Bits.Bit(TrainingStart + i); got != want {
			t.Errorf("training bit %d = %d, want %d", i, got, want)
		}
	}
}

func TestTxBurst_SetTrainingSequence_MasksToEightTSC(t *testing.T) {
	b := NewTxBurst(Time{})
	b.SetTrainingSequence(8) // TSC 8 doesn't exist, should mask to TSC 0
	for i, want := range TrainingSequences[0] {
		if got := b.Bits.Bit(TrainingStart + i); got != want {
			t.Errorf("training bit %d = %d, want %d (masked TSC)", i, got, want)
		}
	}
}

func TestTxBurst_SetStealing(t *testing.T) {
	b := NewTxBurst(Time{})
	b.SetStealing(true, false)
	if b.Bits.Bit(StealingLowBit) != 1 {
		t.Errorf("Hl = %d, want 1", b.Bits.Bit(StealingLowBit))
	}
	if b.Bits.Bit(StealingHighBit) != 0 {
		t.Errorf("Hu = %d, want 0", b.Bits.Bit(StealingHighBit))
	}
}

func TestTxBurst_FillDummy(t *testing.T) {
	b := NewTxBurst(Time{})
	b.FillDummy()
	for i, want := range DummyBurstPattern {
		if got := b.Bits.Bit(i); got != want {
			t.Errorf("dummy burst bit %d = %d, want %d", i, got, want)
		}
	}
}

func TestDummyBurstPattern_UsesTrainingSequenceZero(t *testing.T) {
	for i, want := range TrainingSequences[0] {
		if got := DummyBurstPattern[TrainingStart+i]; got != want {
			t.Errorf("dummy burst training bit %d = %d, want %d", i, got, want)
		}
	}
}

func TestRxBurst_StealingHardDecision(t *testing.T) {
	b := NewRxBurst(Time{})
	b.Bits.SetBit(StealingLowBit, 0.9)
	b.Bits.SetBit(StealingHighBit, 0.1)
	hl, hu := b.Stealing()
	if !hl {
		t.Error("Hl = false, want true for confidence 0.9")
	}
	if hu {
		t.Error("Hu = true, want false for confidence 0.1")
	}
}
