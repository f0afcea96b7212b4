package audio

import (
	"testing"
	"time"

	"github.com/chirplink/chirplink/config"
	"github.com/chirplink/chirplink/tone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const synthRate = 44100.0

func render(s *Synth, d time.Duration) []float32 {
	out := make([]float32, int(d.Seconds()*synthRate))
	s.process(out)
	return out
}

func energy(samples []float32) float64 {
	sum := 0.0
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return sum
}

func TestSynthNotReadyBeforeConnect(t *testing.T) {
	s := NewSynth(config.Chirp(), synthRate)
	assert.False(t, s.Ready())
}

func TestScheduledToneSoundsAndSelfTerminates(t *testing.T) {
	s := NewSynth(config.Chirp(), synthRate)
	s.ScheduleAll([]tone.Tone{
		{Freq: 1000, Start: 0, Duration: 50 * time.Millisecond, Gain: 0.8, Kind: tone.Char},
	})

	during := render(s, 50*time.Millisecond)
	assert.Greater(t, energy(during), 1.0, "tone should be audible inside its window")
	for _, v := range during {
		assert.LessOrEqual(t, float64(v), 1.0)
		assert.GreaterOrEqual(t, float64(v), -1.0)
	}

	after := render(s, 50*time.Millisecond)
	assert.Less(t, energy(after), 1e-6, "tone must stop at its scheduled end")
	assert.Empty(t, s.active, "finished oscillators are pruned")
}

func TestEnvelopeRampsFromSilence(t *testing.T) {
	conf := config.Chirp()
	s := NewSynth(conf, synthRate)
	s.ScheduleAll([]tone.Tone{
		{Freq: 1000, Start: 0, Duration: 100 * time.Millisecond, Gain: 0.8, Kind: tone.Char},
	})

	out := render(s, 100*time.Millisecond)
	fadeSamples := int(float64(conf.FadeMs) / 1000 * synthRate)

	// The fade keeps the very first samples near zero instead of jumping
	// to full amplitude and clicking.
	assert.Less(t, energy(out[:fadeSamples/4]), energy(out[fadeSamples:2*fadeSamples])/2)
}

func TestPauseDropsActiveAndMutesOutput(t *testing.T) {
	s := NewSynth(config.Chirp(), synthRate)
	s.ScheduleAll([]tone.Tone{
		{Freq: 1000, Start: 0, Duration: 100 * time.Millisecond, Gain: 0.8, Kind: tone.Char},
		{Freq: 1200, Start: 200 * time.Millisecond, Duration: 100 * time.Millisecond, Gain: 0.8, Kind: tone.Char},
	})

	render(s, 20*time.Millisecond)
	s.Pause()
	require.Len(t, s.active, 1, "sounding oscillators are dropped, future ones kept")

	muted := render(s, 20*time.Millisecond)
	assert.Zero(t, energy(muted))

	// The clock kept running through the pause; after resuming, the second
	// tone still plays at its original absolute time.
	s.Resume()
	render(s, 160*time.Millisecond) // up to t=200ms
	second := render(s, 120*time.Millisecond)
	assert.Greater(t, energy(second), 1.0)
	assert.Empty(t, s.active)
}

func TestStopAllKillsEverything(t *testing.T) {
	s := NewSynth(config.Chirp(), synthRate)
	s.ScheduleAll([]tone.Tone{
		{Freq: 1000, Start: 0, Duration: time.Second, Gain: 0.8, Kind: tone.Char},
		{Freq: 1200, Start: 2 * time.Second, Duration: time.Second, Gain: 0.8, Kind: tone.Char},
	})

	render(s, 10*time.Millisecond)
	s.StopAll()
	assert.Empty(t, s.active)
	assert.Zero(t, energy(render(s, 10*time.Millisecond)))
}

func TestModulationAppliesToCharacterTonesOnly(t *testing.T) {
	conf := config.Whale()
	s := NewSynth(conf, synthRate)
	s.ScheduleAll([]tone.Tone{
		{Freq: conf.StartFreq, Start: 0, Duration: 50 * time.Millisecond, Gain: 0.8, Kind: tone.Marker},
	})
	require.Len(t, s.active, 1)
	assert.False(t, s.active[0].mod, "markers stay unmodulated for clean detection")

	s.StopAll()
	s.ScheduleAll([]tone.Tone{
		{Freq: 500, Start: 0, Duration: 50 * time.Millisecond, Gain: 0.8, Kind: tone.Char},
	})
	assert.True(t, s.active[0].mod)
}
