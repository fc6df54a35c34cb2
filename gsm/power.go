package gsm

// Band identifies the operating band, which selects the ordered-MS-power
// lookup table used by SACCH's physical header, GSM 05.05 §4.1.
type Band int

const (
	BandLowGSM Band = iota // GSM400 / GSM850 / EGSM900
	BandDCS1800
	BandPCS1900
)

// powerTables are the three 32-entry dBm tables keyed by power control
// level code 0..31.
var powerTables = map[Band][32]int{
	BandLowGSM: buildLowBandTable(),
	BandDCS1800: {
		30, 28, 26, 24, 22, 20, 18, 16, 14, 12, 10, 8, 6, 4, 2, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 36, 24, 23,
	},
	BandPCS1900: buildPCS1900Table(),
}

func buildLowBandTable() [32]int {
	var t [32]int
	head := []int{39, 39, 39, 37, 35, 33, 31, 29, 27, 25, 23, 21, 19, 17, 15, 13, 11, 9, 7, 5}
	copy(t[:], head)
	for i := len(head); i < 32; i++ {
		t[i] = 5
	}
	return t
}

func buildPCS1900Table() [32]int {
	var t [32]int
	for code := 0; code <= 15; code++ {
		t[code] = 30 - 2*code
	}
	for code := 16; code <= 31; code++ {
		t[code] = 0
	}
	return t
}

// DecodePower returns the dBm value for a power control level code under
// the given band.
func DecodePower(band Band, code int) int {
	t := powerTables[band]
	return t[code&31]
}

// EncodePower returns the power control level code whose table entry is
// closest to dBm, returning the first minimum on ties (lowest code wins).
func EncodePower(band Band, dBm int) int {
	t := powerTables[band]
	best := 0
	bestDiff := abs(dBm - t[0])
	for code := 1; code < 32; code++ {
		d := abs(dBm - t[code])
		if d < bestDiff {
			bestDiff = d
			best = code
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
