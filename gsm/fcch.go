package gsm

// FCCHEncoder is a generator channel, GSM 05.03 §4.7: it runs on its own
// thread and, whenever active, emits an all-zero-bit burst at each
// scheduled frame — the modulator turns an all-zero e-vector into the
// pure unmodulated FCCH tone.
type FCCHEncoder struct {
	*Encoder
}

// NewFCCHEncoder builds an FCCH generator bound to mapping/clock/timeslot.
func NewFCCHEncoder(mapping *TDMAMapping, clock *Clock, tn int, tap Tap) *FCCHEncoder {
	return &FCCHEncoder{Encoder: NewEncoder(mapping, clock, tn, ChannelFCCH, tap)}
}

// Start launches the generator thread.
func (e *FCCHEncoder) Start() {
	e.StartGenerator(func(t Time) {
		burst := NewTxBurst(t) // zero-initialised: pure FCCH tone
		if r := e.Radio(); r != nil {
			r.WriteHighSide(burst)
		}
		e.tap.Capture(TapRecord{TN: uint8(e.Timeslot()), FN: uint32(t.FN), ChannelType: string(ChannelFCCH), Uplink: false, BurstLike: true})
	})
}
