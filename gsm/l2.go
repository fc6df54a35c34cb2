package gsm

// Primitive tags a downlink frame from Layer 2, mirroring the RLC/MAC
// service primitives carried across the L1/L2 boundary.
type Primitive int

const (
	PrimitiveData Primitive = iota
	PrimitiveEstablish
	PrimitiveRelease
	PrimitiveError
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveData:
		return "DATA"
	case PrimitiveEstablish:
		return "ESTABLISH"
	case PrimitiveRelease:
		return "RELEASE"
	case PrimitiveError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// L2Frame is a downlink frame handed to an encoder's high side.
type L2Frame struct {
	Primitive Primitive
	Payload   *BitVector // meaningful only for PrimitiveData
}

// UplinkSink is the Layer-2 collaborator a decoder calls upward into. All
// three Write* methods are expected to be non-blocking; RACH decouples via
// its own queue specifically because its L2 allocator may block (§5).
type UplinkSink interface {
	// WriteLowSide delivers a decoded control-channel (XCCH) frame.
	WriteLowSide(payload *BitVector, t Time, rssi, ta float64, fer float64)
	// WriteLowSideSACCH delivers a decoded SACCH frame plus its physical
	// header measurements.
	WriteLowSideSACCH(payload *BitVector, t Time, rssi, ta, fer float64, msPowerDBm int, msTiming int)
	// WriteLowSideTCH delivers a decoded (or muted) 33-byte speech frame.
	WriteLowSideTCH(speechFrame [33]byte, t Time, rssi, ta, fer float64)
	// SignalNextWriteTime lets an encoder report its next scheduled burst
	// time so L2 can pace its own output.
	SignalNextWriteTime(t Time)
}

// NullUplinkSink discards everything; useful as a default and in tests
// that only care about the downlink half of a loopback.
type NullUplinkSink struct{}

func (NullUplinkSink) WriteLowSide(*BitVector, Time, float64, float64, float64)                  {}
func (NullUplinkSink) WriteLowSideSACCH(*BitVector, Time, float64, float64, float64, int, int)    {}
func (NullUplinkSink) WriteLowSideTCH([33]byte, Time, float64, float64, float64)                  {}
func (NullUplinkSink) SignalNextWriteTime(Time)                                                   {}
