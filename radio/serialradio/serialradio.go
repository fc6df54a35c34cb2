// Package serialradio binds a gsm.Radio to a burst-oriented modem reachable
// over a serial port, the way the teacher's CC1200Modem binds to its RF
// front end: a reset/PA-enable/boot0 GPIO triplet plus a framed byte
// protocol, built on go.bug.st/serial and github.com/warthog618/go-gpiocdev.
package serialradio

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/gsmcore/l1fec/gsm"
)

// Frame tags distinguish the burst stream from the thin command channel
// used for reset/ping, mirroring the teacher modem's single-byte command
// tags (cmdPing, cmdSetRXFreq, ...).
const (
	tagTxBurst = 0xA0
	tagRxBurst = 0xA1
	tagPing    = 0xA2
	tagPong    = 0xA3
)

const packedBurstBytes = (gsm.BurstLength + 7) / 8 // 19

// unpackHardBits unpacks b MSB-first into dst as hard 1.0/0.0 confidences,
// the same bit order as BitVector.Bytes/FromBytes, since the wire protocol
// carries no soft information (the modem's demodulator already made hard
// decisions before framing).
func unpackHardBits(b []byte, dst *gsm.SoftVector) {
	for i := 0; i < dst.Len(); i++ {
		byt := b[i/8]
		bit := (byt >> uint(7-i%8)) & 1
		if bit != 0 {
			dst.SetBit(i, 1.0)
		} else {
			dst.SetBit(i, 0.0)
		}
	}
}

// Line is the subset of a requested GPIO line used for the three control
// lines; satisfied by *gpiocdev.Line. Kept as an interface here so this
// file does not import gpiocdev directly; gpio_linux.go supplies gpioSetup,
// the real implementation, under a linux build tag, mirroring the teacher's
// split of modem.go from modem_gpio_linux.go. No other file defines
// gpioSetup, so the package builds only on linux.
type Line interface {
	SetValue(value int) error
	Close() error
}

// Radio drives one physical timeslot carrier over a serial-attached modem.
// Every timeslot/channel pair is registered up front via InstallChannel so
// a received burst's (TN, ChannelType) can be resolved without the modem
// itself understanding GSM logical channels.
type Radio struct {
	port  io.ReadWriteCloser
	arfcn uint16

	nRST     Line
	paEnable Line
	boot0    Line

	mu       sync.Mutex
	channels map[int]gsm.ChannelType

	core *gsm.Radio
	done chan struct{}
}

// Open dials port (a serial device path, or a unix socket path for the
// modem-emulator test harness, detected the same way the teacher's
// NewCC1200Modem does) at baudRate and wires it to a fresh *gsm.Radio for
// arfcn. nRSTPin/paEnablePin/boot0Pin are ignored when port is a socket.
func Open(port string, baudRate int, arfcn uint16, nRSTPin, paEnablePin, boot0Pin int) (*Radio, error) {
	r := &Radio{
		arfcn:    arfcn,
		channels: make(map[int]gsm.ChannelType),
		done:     make(chan struct{}),
	}

	fi, err := os.Stat(port)
	if err != nil {
		return nil, fmt.Errorf("serialradio stat: %w", err)
	}
	if fi.Mode()&os.ModeSocket == os.ModeSocket {
		log.Printf("[DEBUG] serialradio: opening emulator socket %s", port)
		conn, err := net.Dial("unix", port)
		if err != nil {
			return nil, fmt.Errorf("serialradio socket open: %w", err)
		}
		r.port = conn
	} else {
		if err := r.gpioSetup(nRSTPin, paEnablePin, boot0Pin); err != nil {
			return nil, err
		}
		mode := &serial.Mode{BaudRate: baudRate}
		sp, err := serial.Open(port, mode)
		if err != nil {
			return nil, fmt.Errorf("serialradio open: %w", err)
		}
		r.port = sp
	}

	r.core = gsm.NewRadio(arfcn, r.writeBurst)
	if _, err := r.ping(); err != nil {
		return nil, fmt.Errorf("serialradio ping: %w", err)
	}
	go r.readLoop()
	return r, nil
}

// Core returns the underlying gsm.Radio so channel L1FECs can be wired to
// it via Downstream.
func (r *Radio) Core() *gsm.Radio { return r.core }

// InstallChannel records which logical channel occupies timeslot tn, so a
// received burst's physical (TN) can be promoted to the (TN, ChannelType)
// key the core radio's demultiplexer is keyed on.
func (r *Radio) InstallChannel(tn int, ct gsm.ChannelType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[tn] = ct
}

func (r *Radio) setNRST(set bool) error {
	if r.nRST == nil {
		return nil
	}
	if set {
		return r.nRST.SetValue(1)
	}
	return r.nRST.SetValue(0)
}

func (r *Radio) setPAEnable(set bool) error {
	if r.paEnable == nil {
		return nil
	}
	if set {
		return r.paEnable.SetValue(1)
	}
	return r.paEnable.SetValue(0)
}

// Reset power-cycles the attached modem: boot0 and PA low, nRST pulsed.
func (r *Radio) Reset() error {
	log.Print("[DEBUG] serialradio: Reset()")
	e1 := r.setBoot0(false)
	e2 := r.setPAEnable(false)
	e3 := r.setNRST(false)
	time.Sleep(50 * time.Millisecond)
	e4 := r.setNRST(true)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		return fmt.Errorf("serialradio reset: %v %v %v %v", e1, e2, e3, e4)
	}
	return nil
}

func (r *Radio) setBoot0(set bool) error {
	if r.boot0 == nil {
		return nil
	}
	if set {
		return r.boot0.SetValue(1)
	}
	return r.boot0.SetValue(0)
}

// Close releases the GPIO lines and the underlying port.
func (r *Radio) Close() error {
	close(r.done)
	var errs []error
	if r.nRST != nil {
		errs = append(errs, r.nRST.Close())
	}
	if r.paEnable != nil {
		errs = append(errs, r.paEnable.Close())
	}
	if r.boot0 != nil {
		errs = append(errs, r.boot0.Close())
	}
	if err := r.port.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// writeBurst is the gsm.Radio transmit sink: it frames a TxBurst as
// [tag][TN][FN uint32][packed bits] and writes it to the modem.
func (r *Radio) writeBurst(b *gsm.TxBurst) {
	buf := make([]byte, 0, 6+packedBurstBytes)
	buf = append(buf, tagTxBurst, byte(b.Time.TN))
	var fn [4]byte
	binary.BigEndian.PutUint32(fn[:], uint32(b.Time.FN))
	buf = append(buf, fn[:]...)
	buf = append(buf, b.Bits.Bytes()...)
	if _, err := r.port.Write(buf); err != nil {
		log.Printf("[ERROR] serialradio: write burst failed: %v", err)
	}
}

func (r *Radio) ping() (bool, error) {
	if _, err := r.port.Write([]byte{tagPing}); err != nil {
		return false, err
	}
	resp := make([]byte, 1)
	if _, err := io.ReadFull(r.port, resp); err != nil {
		return false, err
	}
	return resp[0] == tagPong, nil
}

// readLoop parses framed uplink bursts off the wire and promotes them into
// the core radio's receive path, looking up each burst's channel type from
// the timeslot it arrived on.
func (r *Radio) readLoop() {
	hdr := make([]byte, 1+1+4)
	body := make([]byte, packedBurstBytes+4) // +RSSI int16, +TimingError int16
	for {
		select {
		case <-r.done:
			return
		default:
		}
		if _, err := io.ReadFull(r.port, hdr[:1]); err != nil {
			log.Printf("[ERROR] serialradio: read tag failed: %v", err)
			return
		}
		switch hdr[0] {
		case tagPing:
			if _, err := r.port.Write([]byte{tagPong}); err != nil {
				log.Printf("[ERROR] serialradio: pong failed: %v", err)
			}
			continue
		case tagRxBurst:
		default:
			log.Printf("[DEBUG] serialradio: unexpected frame tag %#x, resyncing", hdr[0])
			continue
		}
		if _, err := io.ReadFull(r.port, hdr[1:]); err != nil {
			log.Printf("[ERROR] serialradio: read burst header failed: %v", err)
			return
		}
		tn := int(hdr[1])
		fn := int(binary.BigEndian.Uint32(hdr[2:6]))
		if _, err := io.ReadFull(r.port, body); err != nil {
			log.Printf("[ERROR] serialradio: read burst body failed: %v", err)
			return
		}
		rx := gsm.NewRxBurst(gsm.Time{FN: fn, TN: tn})
		unpackHardBits(body[:packedBurstBytes], &rx.Bits)
		rx.RSSI = float64(int16(binary.BigEndian.Uint16(body[packedBurstBytes:packedBurstBytes+2]))) / 10
		rx.TimingError = float64(int16(binary.BigEndian.Uint16(body[packedBurstBytes+2:packedBurstBytes+4]))) / 10

		r.mu.Lock()
		ct, ok := r.channels[tn]
		r.mu.Unlock()
		if !ok {
			log.Printf("[DEBUG] serialradio: no channel installed for TN %d, dropping burst", tn)
			continue
		}
		r.core.WriteLowSide(tn, ct, rx)
	}
}
