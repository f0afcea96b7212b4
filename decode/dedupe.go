package decode

import (
	"strings"
	"time"
)

type accepted struct {
	ch rune
	at time.Time
}

// shouldAdd decides whether a freshly detected character is a real symbol or
// an echo of one already taken. The session keeps a sliding window of
// accepted characters and applies three rejections:
//
//  1. the same character inside the lockout window, which must outlast one
//     full tone plus gap or a single sustained tone reads as a run;
//  2. a 3rd consecutive repeat within the last 4 accepted characters,
//     unless the character is a space or on the legitimately-repeating
//     allow list;
//  3. punctuation following other punctuation inside a shorter class-wide
//     window, since the punctuation frequencies sit closest together and
//     collide most under noise.
func (d *Decoder) shouldAdd(ch rune, now time.Time) bool {
	window := time.Duration(d.conf.RecentWindowMs) * time.Millisecond
	keep := d.s.recent[:0]
	for _, a := range d.s.recent {
		if now.Sub(a.at) <= window {
			keep = append(keep, a)
		}
	}
	d.s.recent = keep

	lockout := time.Duration(d.conf.CharLockoutMs) * time.Millisecond
	for _, a := range d.s.recent {
		if a.ch == ch && now.Sub(a.at) < lockout {
			return false
		}
	}

	if d.isPunct(ch) {
		punctLockout := time.Duration(d.conf.PunctLockoutMs) * time.Millisecond
		for _, a := range d.s.recent {
			if d.isPunct(a.ch) && now.Sub(a.at) < punctLockout {
				return false
			}
		}
	}

	if d.trailingRepeats(ch) >= 2 && ch != ' ' && !strings.ContainsRune(d.conf.RepeatAllow, ch) {
		return false
	}

	d.s.recent = append(d.s.recent, accepted{ch: ch, at: now})
	return true
}

// trailingRepeats counts how many of the most recent accepted characters,
// looking back at most 4, are consecutive occurrences of ch.
func (d *Decoder) trailingRepeats(ch rune) int {
	n := 0
	start := len(d.s.recent) - 1
	stop := len(d.s.recent) - 4
	if stop < 0 {
		stop = 0
	}
	for i := start; i >= stop; i-- {
		if d.s.recent[i].ch != ch {
			break
		}
		n++
	}
	return n
}

func (d *Decoder) isPunct(ch rune) bool {
	return strings.ContainsRune(d.conf.Punctuation, ch)
}
