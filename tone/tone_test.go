package tone

import (
	"testing"

	"github.com/chirplink/chirplink/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripAllCharacters(t *testing.T) {
	for _, conf := range []config.CodecConf{config.Chirp(), config.Whale()} {
		m, err := NewMap(conf)
		require.NoError(t, err, conf.Profile)

		for _, e := range m.Entries() {
			freq, ok := m.Freq(e.Char)
			require.True(t, ok)
			back, ok := m.Char(freq)
			require.True(t, ok)
			assert.Equal(t, e.Char, back, "round trip for %q in profile %s", e.Char, conf.Profile)
		}
	}
}

func TestGapFrequenciesMapToNothing(t *testing.T) {
	conf := config.Chirp()
	m, err := NewMap(conf)
	require.NoError(t, err)

	// Halfway between two adjacent characters, beyond tolerance of both.
	aFreq, _ := m.Freq('A')
	gap := aFreq + conf.FreqSpacing/2
	_, ok := m.Char(gap)
	assert.False(t, ok, "frequency %f between bands should not map", gap)

	_, ok = m.Char(conf.MinValidFreq)
	assert.False(t, ok)
}

func TestFirstEntryWithinToleranceWins(t *testing.T) {
	// Narrow the spacing until adjacent bands overlap; a frequency inside
	// both bands must resolve to the earlier entry, even when the later
	// one is strictly closer.
	conf := config.Chirp()
	conf.FreqSpacing = 30
	m, err := NewMap(conf)
	require.NoError(t, err)

	aFreq, _ := m.Freq('A')
	bFreq, _ := m.Freq('B')
	probe := aFreq + 19 // 11 Hz from 'B', 19 Hz from 'A', inside both bands
	require.Less(t, bFreq-probe, conf.Tolerance)

	ch, ok := m.Char(probe)
	require.True(t, ok)
	assert.Equal(t, 'A', ch)
}

func TestMarkersDisjointFromAlphabet(t *testing.T) {
	for _, conf := range []config.CodecConf{config.Chirp(), config.Whale()} {
		m, err := NewMap(conf)
		require.NoError(t, err, conf.Profile)

		_, ok := m.Char(conf.StartFreq)
		assert.False(t, ok, "%s start marker overlaps alphabet", conf.Profile)
		_, ok = m.Char(conf.EndFreq)
		assert.False(t, ok, "%s end marker overlaps alphabet", conf.Profile)
		assert.True(t, m.IsStartMarker(conf.StartFreq))
		assert.True(t, m.IsEndMarker(conf.EndFreq))
		assert.False(t, m.IsStartMarker(conf.EndFreq))
	}
}

func TestInvalidPlansRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.CodecConf)
	}{
		{"spacing below tolerance", func(c *config.CodecConf) { c.FreqSpacing = c.Tolerance }},
		{"alphabet outside band", func(c *config.CodecConf) { c.MaxValidFreq = c.BaseFreq + 100 }},
		{"marker collides with alphabet", func(c *config.CodecConf) { c.StartFreq = c.BaseFreq }},
		{"markers within tolerance", func(c *config.CodecConf) { c.EndFreq = c.StartFreq + 1 }},
		{"marker outside band", func(c *config.CodecConf) { c.StartFreq = c.MaxValidFreq + 500 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.Chirp()
			tt.mutate(&conf)
			_, err := NewMap(conf)
			assert.Error(t, err)
		})
	}
}

func TestDuplicatePunctuationRejected(t *testing.T) {
	conf := config.Chirp()
	conf.Punctuation = "..,"
	_, err := NewMap(conf)
	assert.Error(t, err)
}
