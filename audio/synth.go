package audio

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/config"
	"github.com/chirplink/chirplink/tone"
	"github.com/gordonklaus/portaudio"
)

// osc is one scheduled oscillator. start/stop are absolute synth-clock
// seconds; the oscillator sounds only inside that window and is pruned once
// the clock passes stop.
type osc struct {
	freq  float64
	gain  float64
	start float64
	stop  float64
	phase float64
	mod   bool // vibrato/sweep applies to character tones only
}

// Synth is the playback backend for the encoder: a portaudio output stream
// whose callback mixes every active oscillator with the profile's envelope
// and modulation. It satisfies encode.Sink.
type Synth struct {
	conf       config.CodecConf
	sampleRate float64

	mu     sync.Mutex
	active []*osc
	clock  float64
	paused bool
	ready  bool

	stream *portaudio.Stream
}

func NewSynth(conf config.CodecConf, sampleRate float64) *Synth {
	return &Synth{conf: conf, sampleRate: sampleRate}
}

// Connect opens and starts the default output stream.
func (s *Synth) Connect(frameSize int) error {
	log.Debugf("Opening output stream at %.0f Hz", s.sampleRate)
	stream, err := portaudio.OpenDefaultStream(0, 1, s.sampleRate, frameSize, s.process)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	s.stream = stream
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	return nil
}

func (s *Synth) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// ScheduleAll places the whole tone plan relative to the current clock.
// Every oscillator self-terminates; nothing drives playback afterwards.
func (s *Synth) ScheduleAll(tones []tone.Tone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.clock
	for _, t := range tones {
		s.active = append(s.active, &osc{
			freq:  t.Freq,
			gain:  t.Gain,
			start: base + t.Start.Seconds(),
			stop:  base + (t.Start + t.Duration).Seconds(),
			mod:   t.Kind == tone.Char,
		})
	}
}

// Pause zeroes the output and drops every oscillator already sounding. The
// clock keeps running, so scheduled stops still pass, inaudibly; tones
// later in the schedule keep their absolute times.
func (s *Synth) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	keep := s.active[:0]
	for _, o := range s.active {
		if o.start > s.clock {
			keep = append(keep, o)
		}
	}
	s.active = keep
}

func (s *Synth) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// StopAll kills every oscillator immediately, scheduled stops included.
func (s *Synth) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = s.active[:0]
}

func (s *Synth) process(out []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := 1.0 / s.sampleRate
	for i := range out {
		t := s.clock
		v := 0.0
		if !s.paused {
			for _, o := range s.active {
				if t < o.start || t >= o.stop {
					continue
				}
				f := o.freq
				if o.mod {
					if s.conf.SweepHz != 0 {
						progress := (t - o.start) / (o.stop - o.start)
						f += s.conf.SweepHz * (progress - 1)
					}
					if s.conf.VibratoDepthHz != 0 {
						f += s.conf.VibratoDepthHz * math.Sin(2*math.Pi*s.conf.VibratoRateHz*(t-o.start))
					}
				}
				o.phase += 2 * math.Pi * f * dt
				v += o.gain * s.envelope(o, t) * math.Sin(o.phase)
			}
		}
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = float32(v)
		s.clock += dt
	}

	keep := s.active[:0]
	for _, o := range s.active {
		if o.stop > s.clock {
			keep = append(keep, o)
		}
	}
	s.active = keep
}

// envelope ramps gain over the fade interval at both edges of the tone so
// bursts start and stop without clicks.
func (s *Synth) envelope(o *osc, t float64) float64 {
	fade := float64(s.conf.FadeMs) / 1000.0
	dur := o.stop - o.start
	if fade*2 > dur {
		fade = dur / 2
	}
	x := 1.0
	if fade > 0 {
		if t-o.start < fade {
			x = (t - o.start) / fade
		} else if o.stop-t < fade {
			x = (o.stop - t) / fade
		}
	}
	if s.conf.Envelope == "exponential" {
		return x * x
	}
	return x
}

func (s *Synth) Destroy() {
	s.mu.Lock()
	s.ready = false
	s.active = nil
	s.mu.Unlock()
	if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			log.Errorf("Could not stop the output stream: %v", err)
		}
		if err := s.stream.Close(); err != nil {
			log.Errorf("Could not close the output stream: %v", err)
		}
	}
}
