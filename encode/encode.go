package encode

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/config"
	"github.com/chirplink/chirplink/tone"
)

// Sink is the audio backend the encoder drives. ScheduleAll takes the whole
// tone plan at once, offsets relative to the moment of the call; every tone
// self-terminates at its scheduled stop, so the encoder never polls.
type Sink interface {
	Ready() bool
	ScheduleAll(tones []tone.Tone)
	Pause()
	Resume()
	StopAll()
}

// Encoder turns text into a scheduled tone sequence on its sink.
type Encoder struct {
	conf  config.CodecConf
	tones *tone.Map
	sink  Sink
}

func New(conf config.CodecConf, m *tone.Map, sink Sink) *Encoder {
	return &Encoder{conf: conf, tones: m, sink: sink}
}

// Encode transmits text and blocks until the whole schedule has played out,
// including the trailing tail buffer. Unmapped characters are dropped from
// the transmission. An unusable sink makes Encode a silent no-op.
func (e *Encoder) Encode(ctx context.Context, text string) error {
	if e.sink == nil || !e.sink.Ready() {
		log.Errorf("[encode] audio sink unusable, dropping transmission")
		return nil
	}

	sched := tone.Build(strings.ToUpper(text), e.tones, e.conf)
	if sched.Skipped > 0 {
		log.Debugf("[encode] %d unsupported characters skipped", sched.Skipped)
	}

	e.sink.ScheduleAll(e.expand(sched))

	total := sched.Total() + sched.Tail()
	log.Debugf("[encode] %d tones scheduled, completing in %s", len(sched.Tones), total)

	timer := time.NewTimer(total)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		e.sink.StopAll()
		return ctx.Err()
	}
}

// expand doubles every character tone with a detuned low-gain twin when the
// parallel-tone mode is on. The twin shapes timbre only; it carries no
// information and markers are left alone.
func (e *Encoder) expand(sched tone.Schedule) []tone.Tone {
	if !e.conf.ParallelTone {
		return sched.Tones
	}
	out := make([]tone.Tone, 0, 2*len(sched.Tones))
	for _, t := range sched.Tones {
		out = append(out, t)
		if t.Kind == tone.Char {
			twin := t
			twin.Freq += e.conf.ParallelOffset
			twin.Gain *= e.conf.ParallelGain
			out = append(out, twin)
		}
	}
	return out
}

// Pause mutes the transmission in place. Tones later in the schedule keep
// their absolute times, so paused time is not re-inserted and resuming after
// a long pause can land mid-schedule.
func (e *Encoder) Pause() {
	if e.sink != nil {
		e.sink.Pause()
	}
}

func (e *Encoder) Resume() {
	if e.sink != nil {
		e.sink.Resume()
	}
}

// StopAll hard-terminates every active tone regardless of its scheduled
// stop, used for alert interruption.
func (e *Encoder) StopAll() {
	if e.sink != nil {
		e.sink.StopAll()
	}
}
