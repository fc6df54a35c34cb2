// Package config loads the process-wide base-station configuration store
// from an INI file, the way gopkg.in/ini.v1 is meant to be used: dotted
// keys like "GSM.MS.Power.Max" map onto an ini section "GSM.MS.Power" and
// key "Max". Defaults match OpenBTS's factory GSM.* values.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Store is the process-wide configuration, passed explicitly to every
// encoder/decoder/channel constructor rather than read from ambient state.
type Store struct {
	file *ini.File
}

// defaults holds the factory value for every recognised key, section by
// section.
var defaults = map[string]map[string]string{
	"GSM": {
		"MaxSpeechLatency": "4",
		"RSSITarget":       "-50",
	},
	"GSM.MS.Power": {
		"Max":     "33",
		"Min":     "5",
		"Damping": "90",
	},
	"GSM.MS.TA": {
		"Max":     "63",
		"Damping": "90",
	},
}

// NewDefaultStore returns a Store populated entirely with factory defaults,
// useful for tests and for running without a config file on disk.
func NewDefaultStore() *Store {
	f := ini.Empty()
	for section, kv := range defaults {
		sec, _ := f.NewSection(section)
		for k, v := range kv {
			sec.NewKey(k, v)
		}
	}
	return &Store{file: f}
}

// Load reads an INI file from path, filling in any key the file omits with
// its factory default.
func Load(path string) (*Store, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	s := &Store{file: f}
	for section, kv := range defaults {
		sec, err := f.GetSection(section)
		if err != nil {
			sec, _ = f.NewSection(section)
		}
		for k, v := range kv {
			if !sec.HasKey(k) {
				sec.NewKey(k, v)
			}
		}
	}
	return s, nil
}

func (s *Store) int(section, key string) int {
	v, err := s.file.Section(section).Key(key).Int()
	if err != nil {
		panic(fmt.Sprintf("config: %s.%s is not an integer: %v", section, key, err))
	}
	return v
}

// MaxSpeechLatency is GSM.MaxSpeechLatency: maximum speech frames buffered
// in the TCH/FACCH encoder before the head is dropped.
func (s *Store) MaxSpeechLatency() int { return s.int("GSM", "MaxSpeechLatency") }

// RSSITarget is GSM.RSSITarget: target uplink RSSI in dB for the SACCH
// power control loop.
func (s *Store) RSSITarget() int { return s.int("GSM", "RSSITarget") }

// MSPowerMax/MSPowerMin are GSM.MS.Power.Max/.Min: clamp range for ordered
// MS power, in dBm.
func (s *Store) MSPowerMax() int { return s.int("GSM.MS.Power", "Max") }
func (s *Store) MSPowerMin() int { return s.int("GSM.MS.Power", "Min") }

// MSPowerDamping is GSM.MS.Power.Damping, a percentage (0..100) converted
// to the [0,1) damping factor alphaP used by the control loop.
func (s *Store) MSPowerDamping() float64 { return float64(s.int("GSM.MS.Power", "Damping")) / 100 }

// MSTAMax is GSM.MS.TA.Max: clamp for ordered timing advance.
func (s *Store) MSTAMax() int { return s.int("GSM.MS.TA", "Max") }

// MSTADamping is GSM.MS.TA.Damping, converted to the [0,1) damping factor
// alphaT used by the control loop.
func (s *Store) MSTADamping() float64 { return float64(s.int("GSM.MS.TA", "Damping")) / 100 }
