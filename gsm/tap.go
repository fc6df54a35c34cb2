package gsm

import (
	"encoding/binary"
	"io"
	"log"

	"github.com/sigurn/crc16"
)

// tapCRCParams mirrors the teacher's m17.CRC pattern (github.com/sigurn/crc16
// with a protocol-specific Params), reused here to checksum packet-capture
// records instead of LSF frames.
var tapCRCParams = crc16.Params{
	Poly: 0x1021,
	Init: 0xffff,
	Name: "TAP",
}

var tapCRCTable = crc16.MakeTable(tapCRCParams)

// TapRecord is one packet-capture entry: a copy of a significant burst or
// frame, emitted on every good uplink, outgoing downlink, RACH hit, SCH and
// FCCH burst.
type TapRecord struct {
	ARFCN       uint16
	TN          uint8
	FN          uint32
	ChannelType string
	Uplink      bool
	BurstLike   bool
	Payload     []byte
	Tag         byte
}

// Encode serialises the record big-endian (GSM's own bit/byte convention)
// followed by a trailing CRC-16 over the serialised bytes, so a truncated
// or corrupted capture file is detectable.
func (r *TapRecord) Encode() []byte {
	chType := []byte(r.ChannelType)
	buf := make([]byte, 0, 16+len(chType)+len(r.Payload)+2)
	var tmp [4]byte
	binary.BigEndian.PutUint16(tmp[:2], r.ARFCN)
	buf = append(buf, tmp[:2]...)
	buf = append(buf, r.TN)
	binary.BigEndian.PutUint32(tmp[:], r.FN)
	buf = append(buf, tmp[:]...)
	buf = append(buf, byte(len(chType)))
	buf = append(buf, chType...)
	buf = append(buf, boolBit(r.Uplink), boolBit(r.BurstLike), r.Tag)
	binary.BigEndian.PutUint16(tmp[:2], uint16(len(r.Payload)))
	buf = append(buf, tmp[:2]...)
	buf = append(buf, r.Payload...)
	crc := crc16.Checksum(buf, tapCRCTable)
	binary.BigEndian.PutUint16(tmp[:2], crc)
	return append(buf, tmp[:2]...)
}

// DecodeTapRecord parses a record produced by Encode, verifying its
// trailing CRC-16.
func DecodeTapRecord(buf []byte) (*TapRecord, error) {
	if len(buf) < 2 {
		return nil, io.ErrUnexpectedEOF
	}
	body, want := buf[:len(buf)-2], binary.BigEndian.Uint16(buf[len(buf)-2:])
	if got := crc16.Checksum(body, tapCRCTable); got != want {
		return nil, errBadTapCRC
	}
	r := &TapRecord{}
	r.ARFCN = binary.BigEndian.Uint16(body[0:2])
	r.TN = body[2]
	r.FN = binary.BigEndian.Uint32(body[3:7])
	n := int(body[7])
	r.ChannelType = string(body[8 : 8+n])
	p := 8 + n
	r.Uplink = body[p] != 0
	r.BurstLike = body[p+1] != 0
	r.Tag = body[p+2]
	plLen := int(binary.BigEndian.Uint16(body[p+3 : p+5]))
	r.Payload = append([]byte(nil), body[p+5:p+5+plLen]...)
	return r, nil
}

type tapError string

func (e tapError) Error() string { return string(e) }

const errBadTapCRC = tapError("gsm: tap record failed CRC check")

// Tap receives a copy of every significant burst/frame. Writes must never
// block the codec path; a slow or absent sink is dropped, not waited on.
type Tap interface {
	Capture(r TapRecord)
}

// NoopTap discards every record; the default when no capture is configured.
type NoopTap struct{}

func (NoopTap) Capture(TapRecord) {}

// FileTap writes encoded records to an io.Writer from a single drain
// goroutine fed by a bounded channel, so a blocked or slow writer cannot
// stall the codec path that calls Capture.
type FileTap struct {
	w   io.Writer
	ch  chan TapRecord
	done chan struct{}
}

// NewFileTap starts the drain goroutine writing to w. queueDepth bounds how
// many records may be buffered before new captures are dropped.
func NewFileTap(w io.Writer, queueDepth int) *FileTap {
	t := &FileTap{w: w, ch: make(chan TapRecord, queueDepth), done: make(chan struct{})}
	go t.run()
	return t
}

func (t *FileTap) run() {
	defer close(t.done)
	for r := range t.ch {
		if _, err := t.w.Write(r.Encode()); err != nil {
			log.Printf("[ERROR] tap write failed: %v", err)
		}
	}
}

// Capture enqueues r for writing, dropping it silently if the queue is
// full rather than blocking the caller.
func (t *FileTap) Capture(r TapRecord) {
	select {
	case t.ch <- r:
	default:
		log.Printf("[DEBUG] tap queue full, dropping record for %s", r.ChannelType)
	}
}

// Close stops the drain goroutine once the queue is drained.
func (t *FileTap) Close() {
	close(t.ch)
	<-t.done
}
