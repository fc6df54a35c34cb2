// Command l1sim drives the Layer-1 FEC core against loopback radios,
// exercising every channel pipeline the way a bench test would before
// hardware is attached. It is not a base station; it is a demonstration
// harness, grounded in the teacher gateway's CLI/logging conventions.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hashicorp/logutils"

	"github.com/gsmcore/l1fec/config"
	"github.com/gsmcore/l1fec/gsm"
)

var (
	isDebugArg  = flag.Bool("debug", false, "Emit debug log messages")
	configArg   = flag.String("config", "", "INI config file (default: factory settings)")
	logDestArg  = flag.String("log", "", "Device/file for log (default stderr)")
	durationArg = flag.Duration("duration", 2*time.Second, "How long to run the simulated TDMA clock")
	bcicArg     = flag.Int("bsic", 7, "Base station identity code checked against RACH access bursts")
	helpArg     = flag.Bool("h", false, "Print arguments")
)

func main() {
	flag.Parse()
	if *helpArg {
		flag.Usage()
		return
	}
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("[ERROR] loading config: %v", err)
	}

	clock := gsm.NewClock()
	tap := gsm.NoopTap{}

	sim := newSimulation(clock, cfg, tap, *bcicArg)
	sim.start()

	stop := make(chan struct{})
	go runClock(clock, stop)

	sim.demo()

	time.Sleep(*durationArg)
	close(stop)
	sim.close()
	log.Print("[INFO] l1sim: done")
}

func setupLogging() {
	var err error
	minLogLevel := "INFO"
	if *isDebugArg {
		minLogLevel = "DEBUG"
	}
	logWriter := os.Stderr
	if *logDestArg != "" {
		logWriter, err = os.OpenFile(*logDestArg, os.O_WRONLY|os.O_CREATE|os.O_SYNC, 0644)
		if err != nil {
			log.Fatalf("[ERROR] opening log destination, exiting: %v", err)
		}
	}
	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "ERROR"},
		MinLevel: logutils.LogLevel(minLogLevel),
		Writer:   logWriter,
	}
	log.SetOutput(filter)
	log.Print("[DEBUG] l1sim: debug logging on")
}

func loadConfig() (*config.Store, error) {
	if *configArg == "" {
		return config.NewDefaultStore(), nil
	}
	return config.Load(*configArg)
}

// runClock advances the simulated TDMA clock one burst at a time at the
// real GSM burst rate until stop is closed.
func runClock(clock *gsm.Clock, stop chan struct{}) {
	ticker := time.NewTicker(gsm.FrameDuration / 8)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			clock.Advance(1)
		}
	}
}

// loggingSink is a minimal UplinkSink that logs every decoded frame,
// standing in for a real Layer-2 stack.
type loggingSink struct{ name string }

func (s loggingSink) WriteLowSide(payload *gsm.BitVector, t gsm.Time, rssi, ta, fer float64) {
	log.Printf("[INFO] %s: decoded %d-bit frame at %s (rssi=%.1f ta=%.1f fer=%.3f)", s.name, payload.Len(), t, rssi, ta, fer)
}
func (s loggingSink) WriteLowSideSACCH(payload *gsm.BitVector, t gsm.Time, rssi, ta, fer float64, msPowerDBm, msTiming int) {
	log.Printf("[INFO] %s: decoded SACCH frame at %s (ms power=%d dBm, ms timing=%d)", s.name, t, msPowerDBm, msTiming)
}
func (s loggingSink) WriteLowSideTCH(frame [33]byte, t gsm.Time, rssi, ta, fer float64) {
	log.Printf("[INFO] %s: decoded speech frame at %s (fer=%.3f)", s.name, t, fer)
}
func (s loggingSink) SignalNextWriteTime(t gsm.Time) {}

type rachLogger struct{ bsic int }

func (r rachLogger) HandleRACH(ra byte, t gsm.Time, rssi float64, ta int) {
	log.Printf("[INFO] rach: accepted RA=%#02x at %s (ta=%d, bsic=%d)", ra, t, ta, r.bsic)
}

// simulation wires one instance of every channel type onto its own
// loopback radio and demonstrates each one's round trip.
type simulation struct {
	clock *gsm.Clock
	cfg   *config.Store
	tap   gsm.Tap

	fcch *gsm.FCCHEncoder
	sch  *gsm.SCHEncoder

	sdcchLB  *gsm.Loopback
	sdcchF   *gsm.L1FEC
	sdcchEnc *gsm.XCCHEncoder

	tchLB  *gsm.Loopback
	tchF   *gsm.L1FEC
	tchEnc *gsm.TCHEncoder

	sacchLB  *gsm.Loopback
	sacchF   *gsm.L1FEC
	sacchEnc *gsm.SACCHEncoder

	rach *gsm.RACHDecoder
}

func newSimulation(clock *gsm.Clock, cfg *config.Store, tap gsm.Tap, bsic int) *simulation {
	s := &simulation{clock: clock, cfg: cfg, tap: tap}

	s.fcch = gsm.NewFCCHEncoder(gsm.NewFCCHMapping(), clock, 0, tap)
	s.sch = gsm.NewSCHEncoder(gsm.NewSCHMapping(), clock, 0, tap)

	sdcchMapping := gsm.NewSDCCH4Mapping(true, 0)
	s.sdcchLB = gsm.NewLoopback(0, gsm.ChannelSDCCH)
	s.sdcchEnc = gsm.NewXCCHEncoder(sdcchMapping, clock, 0, 7, tap)
	sdcchDec := gsm.NewXCCHDecoder(sdcchMapping, loggingSink{name: "sdcch"}, tap)
	s.sdcchF = gsm.NewXCCHL1FEC(s.sdcchEnc, sdcchDec)
	s.sdcchF.Downstream(s.sdcchLB.Radio())

	tchMapping := gsm.NewTCHMapping(true, 2)
	s.tchLB = gsm.NewLoopback(2, gsm.ChannelTCH)
	s.tchEnc = gsm.NewTCHEncoder(tchMapping, clock, 2, 7, cfg, tap)
	tchDec := gsm.NewTCHDecoder(tchMapping, loggingSink{name: "tch"}, tap)
	s.tchF = gsm.NewTCHL1FEC(s.tchEnc, tchDec)
	s.tchF.Downstream(s.tchLB.Radio())

	sacchMapping := gsm.NewSACCHTFMapping(true, 2)
	s.sacchLB = gsm.NewLoopback(2, gsm.ChannelSACCH)
	s.sacchEnc = gsm.NewSACCHEncoder(sacchMapping, clock, 2, 7, gsm.BandLowGSM, cfg, tap)
	sacchDec := gsm.NewSACCHDecoder(sacchMapping, gsm.BandLowGSM, loggingSink{name: "sacch"}, tap)
	s.sacchF = gsm.NewSACCHL1FEC(s.sacchEnc, sacchDec)
	s.sacchF.Downstream(s.sacchLB.Radio())

	s.rach = gsm.NewRACHDecoder(bsic, rachLogger{bsic: bsic}, tap, 8)

	return s
}

func (s *simulation) start() {
	s.fcch.Open()
	s.fcch.Start()
	s.sch.Open()
	s.sdcchF.Open()
	s.tchF.Open()
	s.tchEnc.Start()
	s.sacchF.Open()
}

func (s *simulation) close() {
	s.sdcchF.Close()
	s.tchF.Close()
	s.sacchF.Close()
	s.rach.Close()
}

// demo drives one round trip through each channel, logging what comes
// back out the uplink side.
func (s *simulation) demo() {
	log.Print("[INFO] l1sim: encoding one SDCCH block")
	payload := gsm.NewBitVector(gsm.FIREDataBits)
	payload.SetField(0, 8, 0x2b) // arbitrary L2 header byte for the demo
	s.sdcchEnc.Encode(payload)

	log.Print("[INFO] l1sim: enqueuing one TCH speech frame")
	var speech [33]byte
	speech[0] = 0x0d // RTP-style speech-frame header byte
	s.tchEnc.EnqueueSpeech(speech)

	log.Print("[INFO] l1sim: encoding one SACCH block")
	sacchPayload := gsm.NewBitVector(gsm.FIREDataBits - 16)
	s.sacchEnc.EncodeSACCH(sacchPayload)

	log.Print("[INFO] l1sim: injecting one synthetic RACH access burst")
	s.rach.WriteLowSide(syntheticRACHBurst(s.clock.Now(), *bcicArg))

	fmt.Println("l1sim: scenarios dispatched, watch the log for decoded frames")
}

// syntheticRACHBurst hand-assembles a valid access burst for bsic so the
// demo has something to decode without a second, uplink-side encoder.
func syntheticRACHBurst(t gsm.Time, bsic int) *gsm.RxBurst {
	ra := byte(0x42)
	u := gsm.NewBitVector(18)
	u.SetField(0, 8, uint64(ra))
	parityCoder := gsm.NewCyclicBlockCoder(gsm.RACHParityGenerator, 6, 14)
	p := gsm.NewBitVector(6)
	parityCoder.WriteParity(u.Head(8), p)
	// decode computes sentParity=(^stored)&0x3f, then checks
	// (sentParity^checkParity)==bsic; invert that to find the stored field.
	u.SetField(8, 6, (^(p.Field(0, 6)^uint64(bsic)))&0x3f)

	conv := gsm.NewConvCoder()
	coded := gsm.NewBitVector(36)
	conv.Encode(u, coded)

	rx := gsm.NewRxBurst(t)
	for i := 0; i < 36; i++ {
		bit := 0.0
		if coded.Bit(i) != 0 {
			bit = 1.0
		}
		rx.Bits.SetBit(49+i, bit)
	}
	rx.RSSI = -50
	rx.TimingError = 0
	return rx
}
