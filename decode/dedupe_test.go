package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptAt(t *testing.T, d *Decoder, clock *mockClock, ch rune) {
	t.Helper()
	require.True(t, d.shouldAdd(ch, clock.now()), "expected %q to be accepted", ch)
}

func TestThirdConsecutiveRepeatRejected(t *testing.T) {
	d, _, clock := newTestDecoder(t)

	// 'X' is not on the allow list.
	acceptAt(t, d, clock, 'X')
	clock.advance(300 * time.Millisecond)
	acceptAt(t, d, clock, 'X')
	clock.advance(300 * time.Millisecond)
	assert.False(t, d.shouldAdd('X', clock.now()), "third consecutive X must be rejected")

	// A different character breaks the run.
	acceptAt(t, d, clock, 'Y')
	clock.advance(300 * time.Millisecond)
	acceptAt(t, d, clock, 'X')
}

func TestAllowListedLettersMayRepeat(t *testing.T) {
	d, _, clock := newTestDecoder(t)

	for i := 0; i < 4; i++ {
		acceptAt(t, d, clock, 'L')
		clock.advance(300 * time.Millisecond)
	}
}

func TestSpaceMayRepeat(t *testing.T) {
	d, _, clock := newTestDecoder(t)

	for i := 0; i < 4; i++ {
		acceptAt(t, d, clock, ' ')
		clock.advance(300 * time.Millisecond)
	}
}

func TestPunctuationClassLockout(t *testing.T) {
	d, _, clock := newTestDecoder(t)

	acceptAt(t, d, clock, '.')

	// A different punctuation mark arriving right behind the first is a
	// frequency collision, not a real symbol.
	clock.advance(100 * time.Millisecond)
	assert.False(t, d.shouldAdd(',', clock.now()))

	// Letters are unaffected by the punctuation window.
	acceptAt(t, d, clock, 'A')

	// Past the punctuation window the mark is accepted.
	clock.advance(200 * time.Millisecond)
	acceptAt(t, d, clock, ',')
}

func TestRecentWindowForgets(t *testing.T) {
	d, _, clock := newTestDecoder(t)

	acceptAt(t, d, clock, 'X')
	clock.advance(300 * time.Millisecond)
	acceptAt(t, d, clock, 'X')

	// Far outside the sliding window the run is forgotten entirely.
	clock.advance(6 * time.Second)
	acceptAt(t, d, clock, 'X')
}
