package gsm

import (
	"reflect"
	"testing"
	"time"

	"github.com/gsmcore/l1fec/config"
)

func TestTCH_FACCHRoundTrip(t *testing.T) {
	mapping := NewTCHMapping(true, 2)
	clock := NewClock()
	clock.Set(Time{FN: 520, TN: 2})
	cfg := config.NewDefaultStore()
	tap := NoopTap{}

	lb := NewLoopback(2, ChannelTCH)
	enc := NewTCHEncoder(mapping, clock, 2, 7, cfg, tap)

	done := make(chan *BitVector, 1)
	sink := captureSink{onLowSide: func(payload *BitVector, tm Time, rssi, ta, fer float64) {
		select {
		case done <- payload:
		default:
		}
	}}
	dec := NewTCHDecoder(mapping, sink, tap)

	l1 := NewTCHL1FEC(enc, dec)
	l1.Downstream(lb.Radio())
	l1.Open()
	defer l1.Close()

	payload := NewBitVector(FIREDataBits)
	for i := 0; i < FIREDataBits; i++ {
		payload.SetBit(i, byte((i*3+2)%2))
	}
	want := append([]byte(nil), payload.Bytes()...)
	enc.EnqueueFACCH(payload)

	enc.Start()

	stop := make(chan struct{})
	go driveClock(clock, stop)
	defer close(stop)

	select {
	case got := <-done:
		if !reflect.DeepEqual(got.Bytes(), want) {
			t.Errorf("decoded FACCH payload = %#v, want %#v", got.Bytes(), want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for decoded FACCH frame")
	}
}

func TestTCH_SpeechRoundTrip(t *testing.T) {
	mapping := NewTCHMapping(true, 2)
	clock := NewClock()
	clock.Set(Time{FN: 520, TN: 2})
	cfg := config.NewDefaultStore()
	tap := NoopTap{}

	lb := NewLoopback(2, ChannelTCH)
	enc := NewTCHEncoder(mapping, clock, 2, 7, cfg, tap)

	done := make(chan [33]byte, 1)
	// The decoder delivers a frame at every B=3 and B=7. The first (B=3)
	// completes an offset-4 block whose earlier half predates the encoder;
	// the enqueued speech frame is the second one delivered.
	delivered := 0
	sink := captureSink{onLowSideTCH: func(frame [33]byte, tm Time, rssi, ta, fer float64) {
		delivered++
		if delivered != 2 {
			return
		}
		select {
		case done <- frame:
		default:
		}
	}}
	dec := NewTCHDecoder(mapping, sink, tap)

	l1 := NewTCHL1FEC(enc, dec)
	l1.Downstream(lb.Radio())
	l1.Open()
	defer l1.Close()

	// byte 0's top 4 bits are the RTP-style header nibble, which the codec
	// pack/unpack pair always zeroes on the way back out; leave it zero
	// here so the round trip is checkable by plain equality.
	var speech [33]byte
	for i := range speech {
		speech[i] = byte(i * 7)
	}
	speech[0] = 0
	enc.EnqueueSpeech(speech)

	enc.Start()

	stop := make(chan struct{})
	go driveClock(clock, stop)
	defer close(stop)

	select {
	case got := <-done:
		if got != speech {
			t.Errorf("decoded speech frame = %#v, want %#v", got, speech)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for decoded speech frame")
	}
}
