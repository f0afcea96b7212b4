package decode

import (
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/analyzer"
	"github.com/chirplink/chirplink/config"
	"github.com/chirplink/chirplink/tone"
)

// session is the mutable receive state, scoped to one transmission. It is
// only ever touched from Decode-family calls, so ordering on a single
// goroutine (or the Start loop) is the whole synchronization story.
type session struct {
	receiving bool
	buffer    []rune
	startHits int
	endHits   int

	lastFreq      float64
	lastDetection time.Time
	startedAt     time.Time

	recent []accepted
}

// Decoder recovers framing and characters from a stream of spectral
// snapshots. One snapshot in, at most one event out.
type Decoder struct {
	SnapshotInput chan analyzer.Snapshot
	Events        chan Event

	conf  config.CodecConf
	tones *tone.Map
	s     session

	Stopping bool

	// now is swapped out by tests to drive the debounce and timeout clocks.
	now func() time.Time
}

func New(conf config.CodecConf, m *tone.Map, bufsize uint) *Decoder {
	return &Decoder{
		SnapshotInput: make(chan analyzer.Snapshot, bufsize),
		Events:        make(chan Event, bufsize),
		conf:          conf,
		tones:         m,
		now:           time.Now,
	}
}

// Start drains the snapshot channel and publishes events, one goroutine per
// decoder.
func (d *Decoder) Start() {
	for {
		select {
		case snap := <-d.SnapshotInput:
			if ev, ok := d.Decode(snap.Bins, snap.SampleRate); ok {
				if !d.Stopping {
					d.Events <- ev
				}
			}
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func (d *Decoder) Close() {
	d.Stopping = true
	close(d.Events)
}

// Decode processes one spectral snapshot and returns the event it produced,
// if any. A fault inside the tick is logged and degrades to no event; it
// never propagates to the caller.
func (d *Decoder) Decode(bins []byte, sampleRate float64) (ev Event, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[decode] tick failed: %v", r)
			ev, ok = Event{}, false
		}
	}()

	now := d.now()

	// The timeout overrides everything else on the tick.
	if d.s.receiving && now.Sub(d.s.startedAt) > time.Duration(d.conf.TimeoutMs)*time.Millisecond {
		text := postProcess(d.s.buffer)
		log.Debugf("[decode] transmission timed out with %d chars buffered", len(d.s.buffer))
		d.reset()
		return Event{Kind: KindEnd, Text: text, Timeout: true, Time: now}, true
	}

	if len(bins) == 0 {
		return Event{}, false
	}

	peak, mag := peakBin(bins)
	if int(mag) < d.conf.SignalThreshold {
		return Event{}, false
	}

	freq := binFreq(peak, sampleRate, len(bins))
	if !d.tones.InBand(freq) {
		return Event{}, false
	}

	// Temporal debounce: a sustained tone jitters around its carrier from
	// tick to tick; a re-detection of effectively the same frequency within
	// the debounce window is spectral noise, not a new symbol.
	if math.Abs(freq-d.s.lastFreq) < d.conf.DebounceHz &&
		now.Sub(d.s.lastDetection) < time.Duration(d.conf.DebounceMs)*time.Millisecond {
		return Event{}, false
	}
	d.s.lastFreq = freq
	d.s.lastDetection = now

	if !d.s.receiving {
		if d.tones.IsStartMarker(freq) {
			d.s.startHits++
			if d.s.startHits >= d.conf.MarkerHits {
				d.s.receiving = true
				d.s.buffer = d.s.buffer[:0]
				d.s.recent = d.s.recent[:0]
				d.s.startedAt = now
				d.s.startHits = 0
				d.s.endHits = 0
				log.Debugf("[decode] start marker confirmed at %.1f Hz", freq)
				return Event{Kind: KindStart, Time: now}, true
			}
			return Event{}, false
		}
		d.s.startHits = 0
		return Event{}, false
	}

	if d.tones.IsEndMarker(freq) {
		d.s.endHits++
		if d.s.endHits >= d.conf.MarkerHits {
			text := postProcess(d.s.buffer)
			log.Debugf("[decode] end marker confirmed, recovered %q", text)
			d.reset()
			return Event{Kind: KindEnd, Text: text, Time: now}, true
		}
		return Event{}, false
	}
	d.s.endHits = 0

	if ch, mapped := d.tones.Char(freq); mapped && d.shouldAdd(ch, now) {
		d.s.buffer = append(d.s.buffer, ch)
		return Event{Kind: KindChar, Char: ch, Time: now}, true
	}
	return Event{}, false
}

// Reset returns the session to the empty IDLE state. Safe to call at any
// time, any number of times.
func (d *Decoder) Reset() {
	d.reset()
	d.s.lastFreq = 0
	d.s.lastDetection = time.Time{}
}

func (d *Decoder) reset() {
	d.s.receiving = false
	d.s.buffer = d.s.buffer[:0]
	d.s.recent = d.s.recent[:0]
	d.s.startHits = 0
	d.s.endHits = 0
	d.s.startedAt = time.Time{}
}

// Receiving reports whether a transmission is currently being accumulated.
func (d *Decoder) Receiving() bool {
	return d.s.receiving
}

// postProcess is currently the identity; it exists so message-level cleanup
// has a single place to land.
func postProcess(buf []rune) string {
	return string(buf)
}

// peakBin picks the strict maximum-magnitude bin. No sub-bin interpolation;
// ties keep the lower bin.
func peakBin(bins []byte) (int, byte) {
	peak := 0
	var best byte
	for i, v := range bins {
		if v > best {
			best = v
			peak = i
		}
	}
	return peak, best
}

// binFreq converts a bin index to Hertz. bins spans DC to Nyquist, so each
// bin covers sampleRate / (2 * len(bins)).
func binFreq(bin int, sampleRate float64, bins int) float64 {
	return float64(bin) * sampleRate / (2.0 * float64(bins))
}
