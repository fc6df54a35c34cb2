package gsm

import (
	"reflect"
	"testing"
	"time"
)

func TestXCCH_EncodeDecodeRoundTrip(t *testing.T) {
	mapping := NewTDMAMapping(true, 51, []int{2, 3, 4, 5}, 0)
	clock := NewClock()
	clock.Set(Time{FN: 510, TN: 0})
	tap := NoopTap{}

	lb := NewLoopback(0, ChannelSDCCH)
	enc := NewXCCHEncoder(mapping, clock, 0, 7, tap)

	done := make(chan *BitVector, 1)
	sink := captureSink{onLowSide: func(payload *BitVector, tm Time, rssi, ta, fer float64) {
		done <- payload
	}}
	dec := NewXCCHDecoder(mapping, sink, tap)

	l1 := NewXCCHL1FEC(enc, dec)
	l1.Downstream(lb.Radio())
	l1.Open()

	stop := make(chan struct{})
	go driveClock(clock, stop)
	defer close(stop)

	payload := NewBitVector(FIREDataBits)
	for i := 0; i < FIREDataBits; i++ {
		payload.SetBit(i, byte((i*5+1)%2))
	}
	want := append([]byte(nil), payload.Bytes()...)

	enc.Encode(payload)

	select {
	case got := <-done:
		if !reflect.DeepEqual(got.Bytes(), want) {
			t.Errorf("decoded payload = %#v, want %#v", got.Bytes(), want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for decoded XCCH frame")
	}
}

func TestXCCH_RejectsCorruptedFrame(t *testing.T) {
	mapping := NewTDMAMapping(true, 51, []int{2, 3, 4, 5}, 0)
	clock := NewClock()
	clock.Set(Time{FN: 510, TN: 0})
	tap := NoopTap{}

	lb := NewLoopback(0, ChannelSDCCH)
	enc := NewXCCHEncoder(mapping, clock, 0, 7, tap)

	accepted := make(chan struct{}, 1)
	sink := captureSink{onLowSide: func(payload *BitVector, tm Time, rssi, ta, fer float64) {
		accepted <- struct{}{}
	}}
	dec := NewXCCHDecoder(mapping, sink, tap)

	l1 := NewXCCHL1FEC(enc, dec)
	l1.Downstream(lb.Radio())
	l1.Open()

	// With the clock parked at FN=510 (a multiple of the mapping's 51-frame
	// repeat length) before Open(), the encoder resyncs its schedule to
	// anchorFN=510, so the first block's four bursts land on FN 512..515
	// (mapping.Forward(0..3) = 2,3,4,5). Drop the first three, leaving only
	// the B=3 burst to arrive: decode still runs (it always triggers on
	// B=3) but three quarters of the codeword stays at the neutral 0.5
	// fill, guaranteeing a nonzero FIRE syndrome.
	lb.DropBurst(512)
	lb.DropBurst(513)
	lb.DropBurst(514)

	stop := make(chan struct{})
	go driveClock(clock, stop)
	defer close(stop)

	payload := NewBitVector(FIREDataBits)
	enc.Encode(payload)

	select {
	case <-accepted:
		t.Fatal("decoder accepted a frame built mostly from dropped (neutral) bursts")
	case <-time.After(300 * time.Millisecond):
		// expected: no accept callback fired
	}
	if dec.FER() == 0 {
		t.Error("FER() = 0 after a block with three of four bursts dropped, want nonzero")
	}
}
