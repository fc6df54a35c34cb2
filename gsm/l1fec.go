package gsm

// L1FEC pairs one encoder and one decoder of the same logical channel,
// §4.8. It is the sole owner of both siblings and is responsible for
// wiring their non-owning back-references to each other, per §9's
// "sibling back-links" design note.
type L1FEC struct {
	tn      int
	ct      ChannelType
	encoder *Encoder
	decoder *Decoder

	// alwaysActive marks encode-only channels (FCCH, SCH, BCCH downlink),
	// which report always-active per §4.8.
	alwaysActive bool

	install func(r *Radio)
}

func newL1FEC(tn int, ct ChannelType, encoder *Encoder, decoder *Decoder, install func(r *Radio)) *L1FEC {
	if encoder != nil && decoder != nil {
		encoder.SetSibling(decoder)
		decoder.SetSibling(encoder)
	}
	return &L1FEC{tn: tn, ct: ct, encoder: encoder, decoder: decoder, alwaysActive: decoder == nil, install: install}
}

// NewXCCHL1FEC pairs an XCCHEncoder/XCCHDecoder for one SDCCH/BCCH/CCCH
// instance.
func NewXCCHL1FEC(enc *XCCHEncoder, dec *XCCHDecoder) *L1FEC {
	return newL1FEC(enc.Timeslot(), enc.ChannelType(), enc.Encoder, dec.Decoder, func(r *Radio) {
		enc.SetRadio(r)
		r.InstallDecoder(enc.Timeslot(), enc.ChannelType(), dec)
	})
}

// NewSACCHL1FEC pairs a SACCHEncoder/SACCHDecoder, additionally wiring the
// decoder's physical-header extraction back to the encoder's control loop.
func NewSACCHL1FEC(enc *SACCHEncoder, dec *SACCHDecoder) *L1FEC {
	dec.SetSiblingEncoder(enc)
	return newL1FEC(enc.Timeslot(), enc.ChannelType(), enc.Encoder, dec.Decoder, func(r *Radio) {
		enc.SetRadio(r)
		r.InstallDecoder(enc.Timeslot(), enc.ChannelType(), dec)
	})
}

// NewTCHL1FEC pairs a TCHEncoder/TCHDecoder. It does not start the
// encoder's dispatch thread; TCHEncoder.Start does, after Open.
func NewTCHL1FEC(enc *TCHEncoder, dec *TCHDecoder) *L1FEC {
	f := newL1FEC(enc.Timeslot(), enc.ChannelType(), enc.Encoder, dec.Decoder, func(r *Radio) {
		enc.SetRadio(r)
		r.InstallDecoder(enc.Timeslot(), enc.ChannelType(), dec)
	})
	return f
}

// NewFCCHL1FEC wraps an encode-only FCCH generator; it reports
// always-active per §4.8.
func NewFCCHL1FEC(enc *FCCHEncoder) *L1FEC {
	return newL1FEC(enc.Timeslot(), enc.ChannelType(), enc.Encoder, nil, func(r *Radio) {
		enc.SetRadio(r)
	})
}

// NewSCHL1FEC wraps an encode-only SCH generator.
func NewSCHL1FEC(enc *SCHEncoder) *L1FEC {
	return newL1FEC(enc.Timeslot(), enc.ChannelType(), enc.Encoder, nil, func(r *Radio) {
		enc.SetRadio(r)
	})
}

// NewRACHL1FEC wraps a decode-only RACH channel.
func NewRACHL1FEC(dec *RACHDecoder, tn int) *L1FEC {
	return newL1FEC(tn, ChannelRACH, nil, dec.Decoder, func(r *Radio) {
		r.InstallDecoder(tn, ChannelRACH, dec)
	})
}

// Downstream binds the encoder's transmit sink and registers the decoder
// in the radio's demultiplexer keyed by (ARFCN, TN, ChannelType).
func (f *L1FEC) Downstream(r *Radio) {
	if f.install != nil {
		f.install(r)
	}
}

// Open opens the encoder (which cascades to the decoder for channels
// where ESTABLISH is driven through WriteHighSide) plus the decoder
// directly, so a freshly-assigned channel is immediately receive-ready.
func (f *L1FEC) Open() {
	if f.encoder != nil {
		f.encoder.Open()
	}
	if f.decoder != nil {
		f.decoder.Open()
	}
}

// Close closes both siblings.
func (f *L1FEC) Close() {
	if f.encoder != nil {
		f.encoder.Close()
	}
	if f.decoder != nil {
		f.decoder.Close()
	}
}

// Active reports the channel's combined activity: always true for
// encode-only channels, otherwise the encoder's own Active (which already
// accounts for the sibling decoder's recyclability).
func (f *L1FEC) Active() bool {
	if f.alwaysActive {
		return true
	}
	if f.encoder != nil {
		return f.encoder.Active()
	}
	if f.decoder != nil {
		return f.decoder.Active()
	}
	return false
}
