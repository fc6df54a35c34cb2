package gsm

// captureSink is an UplinkSink whose callbacks, when non-nil, are invoked
// for the matching decoded event; used across the channel round-trip
// tests in place of a real Layer-2 stack.
type captureSink struct {
	onLowSide      func(payload *BitVector, t Time, rssi, ta, fer float64)
	onLowSideSACCH func(payload *BitVector, t Time, rssi, ta, fer float64, msPowerDBm, msTiming int)
	onLowSideTCH   func(speechFrame [33]byte, t Time, rssi, ta, fer float64)
	onNextWrite    func(t Time)
}

func (s captureSink) WriteLowSide(payload *BitVector, t Time, rssi, ta, fer float64) {
	if s.onLowSide != nil {
		s.onLowSide(payload, t, rssi, ta, fer)
	}
}

func (s captureSink) WriteLowSideSACCH(payload *BitVector, t Time, rssi, ta, fer float64, msPowerDBm, msTiming int) {
	if s.onLowSideSACCH != nil {
		s.onLowSideSACCH(payload, t, rssi, ta, fer, msPowerDBm, msTiming)
	}
}

func (s captureSink) WriteLowSideTCH(speechFrame [33]byte, t Time, rssi, ta, fer float64) {
	if s.onLowSideTCH != nil {
		s.onLowSideTCH(speechFrame, t, rssi, ta, fer)
	}
}

func (s captureSink) SignalNextWriteTime(t Time) {
	if s.onNextWrite != nil {
		s.onNextWrite(t)
	}
}

// driveClock advances clock as fast as it can be consumed until stop is
// closed, standing in for the real TDMA burst-rate ticker so a test isn't
// tied to wall-clock timing.
func driveClock(clock *Clock, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
			clock.Advance(1)
		}
	}
}
