package tone

import (
	"fmt"
	"math"

	"github.com/chirplink/chirplink/config"
)

// Entry pins one character to its carrier frequency. Entries keep their
// insertion order: frequency lookup returns the first entry within
// tolerance, so the order is part of the codec's observable behavior.
type Entry struct {
	Char rune
	Freq float64
}

// Map is the character/frequency table for one codec profile, plus the
// start/end marker frequencies that bracket a transmission.
type Map struct {
	entries   []Entry
	byChar    map[rune]float64
	tolerance float64

	StartFreq    float64
	EndFreq      float64
	MinValidFreq float64
	MaxValidFreq float64
}

// NewMap builds the table from the profile's frequency plan: uppercase
// letters, digits, space, then the configured punctuation set, spaced
// FreqSpacing apart from BaseFreq upward.
func NewMap(conf config.CodecConf) (*Map, error) {
	m := &Map{
		byChar:       make(map[rune]float64),
		tolerance:    conf.Tolerance,
		StartFreq:    conf.StartFreq,
		EndFreq:      conf.EndFreq,
		MinValidFreq: conf.MinValidFreq,
		MaxValidFreq: conf.MaxValidFreq,
	}

	alphabet := make([]rune, 0, 26+10+1+len(conf.Punctuation))
	for ch := 'A'; ch <= 'Z'; ch++ {
		alphabet = append(alphabet, ch)
	}
	for ch := '0'; ch <= '9'; ch++ {
		alphabet = append(alphabet, ch)
	}
	alphabet = append(alphabet, ' ')
	for _, ch := range conf.Punctuation {
		alphabet = append(alphabet, ch)
	}

	for i, ch := range alphabet {
		if _, dup := m.byChar[ch]; dup {
			return nil, fmt.Errorf("duplicate character %q in alphabet", ch)
		}
		freq := conf.BaseFreq + float64(i)*conf.FreqSpacing
		m.entries = append(m.entries, Entry{Char: ch, Freq: freq})
		m.byChar[ch] = freq
	}

	if err := m.validate(conf); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Map) validate(conf config.CodecConf) error {
	if conf.FreqSpacing <= conf.Tolerance {
		return fmt.Errorf("frequency spacing %.1f Hz not above tolerance %.1f Hz", conf.FreqSpacing, conf.Tolerance)
	}
	for _, e := range m.entries {
		if e.Freq < conf.MinValidFreq || e.Freq > conf.MaxValidFreq {
			return fmt.Errorf("character %q at %.1f Hz outside valid band [%.1f, %.1f]",
				e.Char, e.Freq, conf.MinValidFreq, conf.MaxValidFreq)
		}
		for _, marker := range []float64{conf.StartFreq, conf.EndFreq} {
			if math.Abs(e.Freq-marker) <= conf.Tolerance {
				return fmt.Errorf("character %q at %.1f Hz collides with marker at %.1f Hz", e.Char, e.Freq, marker)
			}
		}
	}
	for _, marker := range []float64{conf.StartFreq, conf.EndFreq} {
		if marker < conf.MinValidFreq || marker > conf.MaxValidFreq {
			return fmt.Errorf("marker at %.1f Hz outside valid band", marker)
		}
	}
	if math.Abs(conf.StartFreq-conf.EndFreq) <= conf.Tolerance {
		return fmt.Errorf("start and end markers within tolerance of each other")
	}
	return nil
}

// Freq returns the carrier frequency for ch.
func (m *Map) Freq(ch rune) (float64, bool) {
	f, ok := m.byChar[ch]
	return f, ok
}

// Char returns the first table entry within tolerance of freq. Frequencies
// between two characters' bands match nothing.
func (m *Map) Char(freq float64) (rune, bool) {
	for _, e := range m.entries {
		if math.Abs(e.Freq-freq) <= m.tolerance {
			return e.Char, true
		}
	}
	return 0, false
}

// IsStartMarker reports whether freq lies within tolerance of the start
// marker.
func (m *Map) IsStartMarker(freq float64) bool {
	return math.Abs(freq-m.StartFreq) <= m.tolerance
}

func (m *Map) IsEndMarker(freq float64) bool {
	return math.Abs(freq-m.EndFreq) <= m.tolerance
}

// InBand reports whether freq lies inside the profile's valid band.
func (m *Map) InBand(freq float64) bool {
	return freq >= m.MinValidFreq && freq <= m.MaxValidFreq
}

// Entries returns the table in insertion order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Size is the number of mapped characters.
func (m *Map) Size() int {
	return len(m.entries)
}
