package gsm

import "testing"

func TestXCCHInterleave_RoundTrip(t *testing.T) {
	c := NewBitVector(CodedBitsPerBlock)
	for k := 0; k < CodedBitsPerBlock; k++ {
		c.SetBit(k, byte((k*7+3)%2))
	}

	var slots [4]*BitVector
	for b := range slots {
		slots[b] = NewBitVector(BitsPerBurstData)
	}
	XCCHInterleave(c, slots)

	var soft [4]*SoftVector
	for b := range soft {
		soft[b] = NewSoftVector(BitsPerBurstData)
		for j := 0; j < BitsPerBurstData; j++ {
			if slots[b].Bit(j) != 0 {
				soft[b].SetBit(j, 1.0)
			} else {
				soft[b].SetBit(j, 0.0)
			}
		}
	}

	out := NewSoftVector(CodedBitsPerBlock)
	XCCHDeinterleave(soft, out)

	for k := 0; k < CodedBitsPerBlock; k++ {
		want := c.Bit(k)
		got := byte(0)
		if out.Bit(k) >= 0.5 {
			got = 1
		}
		if got != want {
			t.Errorf("bit %d = %d, want %d", k, got, want)
		}
	}
}

func TestXCCHInterleave_FillsAllFourSlotsEvenly(t *testing.T) {
	c := NewBitVector(CodedBitsPerBlock)
	for k := 0; k < CodedBitsPerBlock; k++ {
		c.SetBit(k, 1)
	}
	var slots [4]*BitVector
	for b := range slots {
		slots[b] = NewBitVector(BitsPerBurstData)
	}
	XCCHInterleave(c, slots)
	for b, s := range slots {
		n := 0
		for j := 0; j < BitsPerBurstData; j++ {
			n += int(s.Bit(j))
		}
		if n != CodedBitsPerBlock/4 {
			t.Errorf("slot %d holds %d bits, want %d", b, n, CodedBitsPerBlock/4)
		}
	}
}

func TestTCHInterleave_RoundTrip(t *testing.T) {
	for _, blockOffset := range []int{0, 4} {
		c := NewBitVector(CodedBitsPerBlock)
		for k := 0; k < CodedBitsPerBlock; k++ {
			c.SetBit(k, byte((k*3+blockOffset)%2))
		}

		var slots [TCHBlocksPerInterleave]*BitVector
		for b := range slots {
			slots[b] = NewBitVector(BitsPerBurstData)
		}
		TCHInterleave(c, blockOffset, slots)

		var soft [TCHBlocksPerInterleave]*SoftVector
		for b := range soft {
			soft[b] = NewSoftVector(BitsPerBurstData)
			for j := 0; j < BitsPerBurstData; j++ {
				if slots[b].Bit(j) != 0 {
					soft[b].SetBit(j, 1.0)
				} else {
					soft[b].SetBit(j, 0.0)
				}
			}
		}

		out := NewSoftVector(CodedBitsPerBlock)
		TCHDeinterleave(soft, blockOffset, out)

		for k := 0; k < CodedBitsPerBlock; k++ {
			want := c.Bit(k)
			got := byte(0)
			if out.Bit(k) >= 0.5 {
				got = 1
			}
			if got != want {
				t.Errorf("blockOffset=%d bit %d = %d, want %d", blockOffset, k, got, want)
			}
		}
	}
}

func TestInterleaveJ_WithinBurstDataRange(t *testing.T) {
	for k := 0; k < CodedBitsPerBlock; k++ {
		j := interleaveJ(k)
		if j < 0 || j >= BitsPerBurstData {
			t.Fatalf("interleaveJ(%d) = %d, out of [0,%d)", k, j, BitsPerBurstData)
		}
	}
}
