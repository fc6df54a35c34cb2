package gsm

import (
	"testing"
	"time"
)

func txToRxBurst(tx *TxBurst) *RxBurst {
	rx := NewRxBurst(tx.Time)
	for i := 0; i < BurstLength; i++ {
		if tx.Bits.Bit(i) != 0 {
			rx.Bits.SetBit(i, 1.0)
		} else {
			rx.Bits.SetBit(i, 0.0)
		}
	}
	return rx
}

func TestSCH_EncodeDecodeRoundTrip(t *testing.T) {
	mapping := NewTDMAMapping(true, 51, []int{0}, 0)
	clock := NewClock()
	clock.Set(Time{FN: 510, TN: 0})
	tap := NoopTap{}

	captured := make(chan *TxBurst, 1)
	radio := NewRadio(0, func(b *TxBurst) {
		select {
		case captured <- b:
		default:
		}
	})

	enc := NewSCHEncoder(mapping, clock, 0, tap)
	enc.SetRadio(radio)
	enc.Open()

	stop := make(chan struct{})
	go driveClock(clock, stop)
	defer close(stop)

	// Only the low 25 bits of the 4-byte payload are actually coded (§4.7),
	// so byte 0's upper 7 bits never survive the round trip; the payload
	// below keeps them zero so plain equality is a valid check.
	payload := [4]byte{0x01, 0xAB, 0xCD, 0xEF}
	enc.Encode(payload)

	var tx *TxBurst
	select {
	case tx = <-captured:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for SCH burst")
	}

	dec := NewSCHDecoder()
	got, ok := dec.Decode(txToRxBurst(tx))
	if !ok {
		t.Fatal("Decode() ok = false, want true")
	}
	if got != payload {
		t.Errorf("decoded payload = %#v, want %#v", got, payload)
	}
}

func TestSCHDecoder_RejectsCorruptedBurst(t *testing.T) {
	mapping := NewTDMAMapping(true, 51, []int{0}, 0)
	clock := NewClock()
	clock.Set(Time{FN: 510, TN: 0})
	tap := NoopTap{}

	captured := make(chan *TxBurst, 1)
	radio := NewRadio(0, func(b *TxBurst) {
		select {
		case captured <- b:
		default:
		}
	})

	enc := NewSCHEncoder(mapping, clock, 0, tap)
	enc.SetRadio(radio)
	enc.Open()

	stop := make(chan struct{})
	go driveClock(clock, stop)
	defer close(stop)

	enc.Encode([4]byte{0x01, 0xAB, 0xCD, 0xEF})

	var tx *TxBurst
	select {
	case tx = <-captured:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for SCH burst")
	}

	rx := txToRxBurst(tx)
	for i := schE1Start; i < schE1Start+12; i++ {
		rx.Bits.SetBit(i, 1-rx.Bits.Bit(i))
	}

	dec := NewSCHDecoder()
	if _, ok := dec.Decode(rx); ok {
		t.Error("Decode() ok = true for a burst with 12 corrupted coded bits, want false")
	}
}
