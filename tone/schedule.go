package tone

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/config"
)

type Kind int

const (
	Char Kind = iota
	Marker
)

// Tone is one scheduled burst: carrier frequency, offset from the start of
// the transmission, and how long it sounds.
type Tone struct {
	Freq     float64
	Start    time.Duration
	Duration time.Duration
	Gain     float64
	Kind     Kind
}

// Schedule is the full tone plan for one transmission. It is built once per
// encode and never mutated afterwards.
type Schedule struct {
	Tones     []Tone
	CharCount int
	Skipped   int

	total     time.Duration
	tailFloor time.Duration
}

// Build lays out the start marker, one tone per mapped character and the end
// marker. Characters absent from the map are skipped, so the transmission is
// lossy for unsupported input.
func Build(text string, m *Map, conf config.CodecConf) Schedule {
	toneDur := time.Duration(conf.ToneMs) * time.Millisecond
	toneGap := time.Duration(conf.ToneGapMs) * time.Millisecond
	markerDur := time.Duration(conf.MarkerMs) * time.Millisecond
	markerGap := time.Duration(conf.MarkerGapMs) * time.Millisecond

	s := Schedule{
		tailFloor: time.Duration(conf.TailFloorMs) * time.Millisecond,
	}

	at := time.Duration(0)
	s.Tones = append(s.Tones, Tone{
		Freq:     m.StartFreq,
		Start:    at,
		Duration: markerDur,
		Gain:     conf.Gain,
		Kind:     Marker,
	})
	at += markerDur + markerGap

	for _, ch := range text {
		freq, ok := m.Freq(ch)
		if !ok {
			log.Debugf("[tone] no mapping for %q, skipping", ch)
			s.Skipped++
			continue
		}
		s.Tones = append(s.Tones, Tone{
			Freq:     freq,
			Start:    at,
			Duration: toneDur,
			Gain:     conf.Gain,
			Kind:     Char,
		})
		s.CharCount++
		at += toneDur + toneGap
	}

	at += markerGap
	s.Tones = append(s.Tones, Tone{
		Freq:     m.EndFreq,
		Start:    at,
		Duration: markerDur,
		Gain:     conf.Gain,
		Kind:     Marker,
	})
	s.total = at + markerDur

	return s
}

// Total is the wall time from the first tone's start to the last tone's end.
func (s Schedule) Total() time.Duration {
	return s.total
}

// Tail is the buffer appended after the last tone before an encode reports
// completion: the larger of a fixed floor and 5% of the total duration,
// covering the audio backend's trailing output.
func (s Schedule) Tail() time.Duration {
	pct := s.total / 20
	if pct > s.tailFloor {
		return pct
	}
	return s.tailFloor
}
