package tone

import (
	"testing"
	"time"

	"github.com/chirplink/chirplink/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleShape(t *testing.T) {
	conf := config.Chirp()
	m, err := NewMap(conf)
	require.NoError(t, err)

	sched := Build("HELLO WORLD", m, conf)

	assert.Equal(t, len("HELLO WORLD"), sched.CharCount)
	assert.Equal(t, 0, sched.Skipped)
	require.Len(t, sched.Tones, len("HELLO WORLD")+2)

	first := sched.Tones[0]
	last := sched.Tones[len(sched.Tones)-1]
	assert.Equal(t, Marker, first.Kind)
	assert.Equal(t, conf.StartFreq, first.Freq)
	assert.Equal(t, time.Duration(0), first.Start)
	assert.Equal(t, Marker, last.Kind)
	assert.Equal(t, conf.EndFreq, last.Freq)

	for _, tn := range sched.Tones[1 : len(sched.Tones)-1] {
		assert.Equal(t, Char, tn.Kind)
	}
}

func TestScheduleStartsStrictlyIncreasing(t *testing.T) {
	conf := config.Chirp()
	m, err := NewMap(conf)
	require.NoError(t, err)

	sched := Build("ABC123", m, conf)
	for i := 1; i < len(sched.Tones); i++ {
		prev := sched.Tones[i-1]
		cur := sched.Tones[i]
		assert.Greater(t, cur.Start, prev.Start)
		assert.GreaterOrEqual(t, cur.Start, prev.Start+prev.Duration, "tone %d overlaps its predecessor", i)
	}

	assert.Equal(t, last(sched).Start+last(sched).Duration, sched.Total())
}

func last(s Schedule) Tone {
	return s.Tones[len(s.Tones)-1]
}

func TestUnsupportedCharactersSkipped(t *testing.T) {
	conf := config.Chirp()
	m, err := NewMap(conf)
	require.NoError(t, err)

	sched := Build("A#B", m, conf)
	assert.Equal(t, 2, sched.CharCount)
	assert.Equal(t, 1, sched.Skipped)
	require.Len(t, sched.Tones, 4)

	aFreq, _ := m.Freq('A')
	bFreq, _ := m.Freq('B')
	assert.Equal(t, aFreq, sched.Tones[1].Freq)
	assert.Equal(t, bFreq, sched.Tones[2].Freq)
}

func TestEmptyTextStillBracketed(t *testing.T) {
	conf := config.Chirp()
	m, err := NewMap(conf)
	require.NoError(t, err)

	sched := Build("", m, conf)
	require.Len(t, sched.Tones, 2)
	assert.Equal(t, 0, sched.CharCount)
	assert.Greater(t, sched.Total(), time.Duration(0))
}

func TestTailBuffer(t *testing.T) {
	conf := config.Chirp()
	m, err := NewMap(conf)
	require.NoError(t, err)

	// Short transmission: the fixed floor dominates.
	short := Build("A", m, conf)
	assert.Equal(t, time.Duration(conf.TailFloorMs)*time.Millisecond, short.Tail())

	// Long transmission: 5% of total dominates.
	long := Build(repeat('A', 200), m, conf)
	assert.Equal(t, long.Total()/20, long.Tail())
	assert.Greater(t, long.Tail(), time.Duration(conf.TailFloorMs)*time.Millisecond)
}

func repeat(ch rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = ch
	}
	return string(out)
}
