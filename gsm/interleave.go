package gsm

// XCCH/TCH block-diagonal interleaving, GSM 05.03 §4.1.4/§4.1.8. For k in
// [0,456), coded bit c[k] lands in burst-offset B=k mod numBlocks and
// intra-burst position j = 2*((49*k) mod 57) + ((k mod 8) div 4). XCCH uses
// numBlocks=4 (B=k mod 4); TCH/FACCH uses numBlocks=8 with an additional
// diagonal block offset.

const (
	CodedBitsPerBlock = 456 // XCCH and TCH/FACCH class-1+class-2 coded frame size
	BitsPerBurstHalf  = 57  // bits per half (data1/data2) of one interleaved burst
	BitsPerBurstData  = 114 // 2*BitsPerBurstHalf
)

func interleaveJ(k int) int {
	return 2*((49*k)%57) + ((k % 8) / 4)
}

// XCCHInterleave scatters the 456 coded bits of c across 4 burst-sized
// (114-bit) slots i[0..3].
func XCCHInterleave(c *BitVector, i [4]*BitVector) {
	for k := 0; k < CodedBitsPerBlock; k++ {
		b := k % 4
		j := interleaveJ(k)
		i[b].SetBit(j, c.Bit(k))
	}
}

// XCCHDeinterleave gathers soft bits from the 4 received burst slots back
// into a 456-element soft codeword. Any burst whose slot contributes no
// information should have been left at 0.5 by the caller before calling
// this (a missing burst stays neutral, never poisoning the rest).
func XCCHDeinterleave(i [4]*SoftVector, c *SoftVector) {
	for k := 0; k < CodedBitsPerBlock; k++ {
		b := k % 4
		j := interleaveJ(k)
		c.SetBit(k, i[b].Bit(j))
	}
}

// TCHBlocksPerInterleave is the 8-burst diagonal interleave depth for
// TCH/FACCH.
const TCHBlocksPerInterleave = 8

// TCHInterleave scatters the 456 coded bits of c across 8 burst-sized slots
// i[0..7], diagonally shifted by blockOffset (0 or 4) so that two
// consecutive logical frames share burst positions without colliding.
func TCHInterleave(c *BitVector, blockOffset int, i [TCHBlocksPerInterleave]*BitVector) {
	for k := 0; k < CodedBitsPerBlock; k++ {
		b := (k + blockOffset) % TCHBlocksPerInterleave
		j := interleaveJ(k)
		i[b].SetBit(j, c.Bit(k))
	}
}

// TCHDeinterleave is the inverse of TCHInterleave. Because the 8-burst
// diagonal interleave overlaps consecutive blocks by 4 bursts, only the
// cells actually consumed here are reset to neutral (0.5) afterward — the
// remaining cells still hold the other half of the neighboring block and
// must survive for its own deinterleave.
func TCHDeinterleave(i [TCHBlocksPerInterleave]*SoftVector, blockOffset int, c *SoftVector) {
	for k := 0; k < CodedBitsPerBlock; k++ {
		b := (k + blockOffset) % TCHBlocksPerInterleave
		j := interleaveJ(k)
		c.SetBit(k, i[b].Bit(j))
		i[b].SetBit(j, 0.5)
	}
}
