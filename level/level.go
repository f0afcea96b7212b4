package level

import (
	"math"
	"time"

	"github.com/chirplink/chirplink/config"
)

// Level is the per-tick loudness read model: decibels, a 0-100 display
// percentage over the MinDB..0 range, and the speaking flag.
type Level struct {
	DB       float64
	Percent  float64
	Speaking bool
}

// Source produces the current spectral bins, nil when none are available
// yet. The analyzer satisfies this.
type Source interface {
	Current() []byte
}

// Monitor samples a Source on its own clock and publishes Levels. It has no
// bearing on decoding; it exists for alerting and display collaborators.
type Monitor struct {
	Levels chan Level

	conf     config.LevelConf
	source   Source
	Stopping bool
}

func New(conf config.LevelConf, source Source) *Monitor {
	return &Monitor{
		Levels: make(chan Level, 8),
		conf:   conf,
		source: source,
	}
}

// Start is the self-rescheduling sampling loop.
func (m *Monitor) Start() {
	interval := time.Duration(m.conf.RefreshMs) * time.Millisecond
	for {
		if m.Stopping {
			return
		}
		if bins := m.source.Current(); bins != nil {
			select {
			case m.Levels <- Compute(bins, m.conf):
			default:
			}
		}
		time.Sleep(interval)
	}
}

func (m *Monitor) Close() {
	m.Stopping = true
	close(m.Levels)
}

// Compute derives the loudness value from one snapshot: normalized RMS over
// all bins, onto a log scale floored at MinDB so an all-zero snapshot never
// feeds the logarithm zero.
func Compute(bins []byte, conf config.LevelConf) Level {
	if len(bins) == 0 {
		return Level{DB: conf.MinDB}
	}

	sum := 0.0
	for _, b := range bins {
		v := float64(b) / 255.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(bins)))

	db := conf.MinDB
	if rms > 1e-9 {
		db = 20.0 * math.Log10(rms)
		if db < conf.MinDB {
			db = conf.MinDB
		}
	}

	pct := (db - conf.MinDB) / (0 - conf.MinDB) * 100.0
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}

	return Level{
		DB:       db,
		Percent:  pct,
		Speaking: db > conf.SpeakingDB,
	}
}
