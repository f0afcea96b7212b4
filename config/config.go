package config

import (
	"github.com/knadh/koanf/v2"
)

// CodecConf carries every constant of one codec profile: the frequency plan,
// tone timing, detection thresholds and the duplicate-suppression windows.
// The fast "chirp" and slow "whale" codecs are the same code parametrized by
// two of these.
type CodecConf struct {
	Profile string `koanf:"profile"`

	// Frequency plan
	BaseFreq     float64 `koanf:"base_freq"`
	FreqSpacing  float64 `koanf:"freq_spacing"`
	StartFreq    float64 `koanf:"start_freq"`
	EndFreq      float64 `koanf:"end_freq"`
	MinValidFreq float64 `koanf:"min_valid_freq"`
	MaxValidFreq float64 `koanf:"max_valid_freq"`
	Tolerance    float64 `koanf:"tolerance"`
	Punctuation  string  `koanf:"punctuation"`

	// Tone timing (milliseconds)
	ToneMs      int `koanf:"tone_ms"`
	ToneGapMs   int `koanf:"tone_gap_ms"`
	MarkerMs    int `koanf:"marker_ms"`
	MarkerGapMs int `koanf:"marker_gap_ms"`
	FadeMs      int `koanf:"fade_ms"`
	TailFloorMs int `koanf:"tail_floor_ms"`

	// Synthesis
	Gain           float64 `koanf:"gain"`
	Envelope       string  `koanf:"envelope"` // "linear" or "exponential"
	ParallelTone   bool    `koanf:"parallel_tone"`
	ParallelOffset float64 `koanf:"parallel_offset_hz"`
	ParallelGain   float64 `koanf:"parallel_gain"`
	VibratoDepthHz float64 `koanf:"vibrato_depth_hz"`
	VibratoRateHz  float64 `koanf:"vibrato_rate_hz"`
	SweepHz        float64 `koanf:"sweep_hz"`

	// Detection
	SignalThreshold int     `koanf:"signal_threshold"`
	DebounceMs      int     `koanf:"debounce_ms"`
	DebounceHz      float64 `koanf:"debounce_hz"`
	MarkerHits      int     `koanf:"marker_hits"`
	CharLockoutMs   int     `koanf:"char_lockout_ms"`
	PunctLockoutMs  int     `koanf:"punct_lockout_ms"`
	RecentWindowMs  int     `koanf:"recent_window_ms"`
	RepeatAllow     string  `koanf:"repeat_allow"`
	TimeoutMs       int     `koanf:"timeout_ms"`
}

type AudioConf struct {
	SampleRate float64 `koanf:"sample_rate"`
	FFTSize    int     `koanf:"fft_size"`
	FrameSize  int     `koanf:"frame_size"`
}

type LevelConf struct {
	RefreshMs  int     `koanf:"refresh_ms"`
	MinDB      float64 `koanf:"min_db"`
	SpeakingDB float64 `koanf:"speaking_db"`
}

type IndicatorConf struct {
	Port    string `koanf:"port"`
	Baud    int    `koanf:"baud"`
	Pin     int    `koanf:"pin"`
	BlinkMs int    `koanf:"blink_ms"`
}

type TuiConf struct {
	RefreshMs       int  `koanf:"refresh_ms"`
	EnableLogOutput bool `koanf:"enable_log_output"`
	ShowSpectrum    bool `koanf:"show_spectrum"`
}

// Chirp is the fast profile: short tones in the 1-3.5 kHz band.
func Chirp() CodecConf {
	return CodecConf{
		Profile:         "chirp",
		BaseFreq:        1000,
		FreqSpacing:     50,
		StartFreq:       3500,
		EndFreq:         3750,
		MinValidFreq:    800,
		MaxValidFreq:    4000,
		Tolerance:       20,
		Punctuation:     ".,!?'-",
		ToneMs:          120,
		ToneGapMs:       60,
		MarkerMs:        400,
		MarkerGapMs:     200,
		FadeMs:          15,
		TailFloorMs:     250,
		Gain:            0.8,
		Envelope:        "linear",
		ParallelTone:    false,
		ParallelOffset:  4,
		ParallelGain:    0.3,
		SignalThreshold: 150,
		DebounceMs:      80,
		DebounceHz:      15,
		MarkerHits:      2,
		CharLockoutMs:   250,
		PunctLockoutMs:  150,
		RecentWindowMs:  5000,
		RepeatAllow:     "LEOS",
		TimeoutMs:       15000,
	}
}

// Whale is the slow profile: long low tones with optional vibrato and sweep,
// tuned for reverberant rooms at the cost of throughput.
func Whale() CodecConf {
	return CodecConf{
		Profile:         "whale",
		BaseFreq:        400,
		FreqSpacing:     40,
		StartFreq:       2200,
		EndFreq:         2400,
		MinValidFreq:    200,
		MaxValidFreq:    2600,
		Tolerance:       15,
		Punctuation:     ".,!?'-",
		ToneMs:          600,
		ToneGapMs:       300,
		MarkerMs:        1200,
		MarkerGapMs:     600,
		FadeMs:          40,
		TailFloorMs:     500,
		Gain:            0.8,
		Envelope:        "exponential",
		ParallelTone:    true,
		ParallelOffset:  4,
		ParallelGain:    0.3,
		VibratoDepthHz:  6,
		VibratoRateHz:   5,
		SweepHz:         20,
		SignalThreshold: 150,
		DebounceMs:      200,
		DebounceHz:      15,
		MarkerHits:      2,
		CharLockoutMs:   1000,
		PunctLockoutMs:  600,
		RecentWindowMs:  12000,
		RepeatAllow:     "LEOS",
		TimeoutMs:       50000,
	}
}

// Profile returns the named built-in codec profile, defaulting to chirp.
func Profile(name string) CodecConf {
	if name == "whale" {
		return Whale()
	}
	return Chirp()
}

// Defaults is loaded into koanf ahead of the config file and environment so
// that a bare install works without a config.hcl.
func Defaults() map[string]interface{} {
	c := Chirp()
	return map[string]interface{}{
		"codec.profile": c.Profile,

		"audio.sample_rate": 44100.0,
		"audio.fft_size":    4096,
		"audio.frame_size":  1024,

		"level.refresh_ms":  50,
		"level.min_db":      -80.0,
		"level.speaking_db": -45.0,

		"indicator.baud":     9600,
		"indicator.pin":      13,
		"indicator.blink_ms": 200,

		"tui.refresh_ms":        100,
		"tui.enable_log_output": true,
		"tui.show_spectrum":     true,
	}
}

// Codec assembles a CodecConf from the loaded config, starting from the
// selected profile's constants and overriding any key the file or the
// environment set explicitly.
func Codec(k *koanf.Koanf) CodecConf {
	c := Profile(k.String("codec.profile"))
	for key, set := range map[string]func(){
		"codec.base_freq":          func() { c.BaseFreq = k.Float64("codec.base_freq") },
		"codec.freq_spacing":       func() { c.FreqSpacing = k.Float64("codec.freq_spacing") },
		"codec.start_freq":         func() { c.StartFreq = k.Float64("codec.start_freq") },
		"codec.end_freq":           func() { c.EndFreq = k.Float64("codec.end_freq") },
		"codec.min_valid_freq":     func() { c.MinValidFreq = k.Float64("codec.min_valid_freq") },
		"codec.max_valid_freq":     func() { c.MaxValidFreq = k.Float64("codec.max_valid_freq") },
		"codec.tolerance":          func() { c.Tolerance = k.Float64("codec.tolerance") },
		"codec.punctuation":        func() { c.Punctuation = k.String("codec.punctuation") },
		"codec.tone_ms":            func() { c.ToneMs = k.Int("codec.tone_ms") },
		"codec.tone_gap_ms":        func() { c.ToneGapMs = k.Int("codec.tone_gap_ms") },
		"codec.marker_ms":          func() { c.MarkerMs = k.Int("codec.marker_ms") },
		"codec.marker_gap_ms":      func() { c.MarkerGapMs = k.Int("codec.marker_gap_ms") },
		"codec.fade_ms":            func() { c.FadeMs = k.Int("codec.fade_ms") },
		"codec.tail_floor_ms":      func() { c.TailFloorMs = k.Int("codec.tail_floor_ms") },
		"codec.gain":               func() { c.Gain = k.Float64("codec.gain") },
		"codec.envelope":           func() { c.Envelope = k.String("codec.envelope") },
		"codec.parallel_tone":      func() { c.ParallelTone = k.Bool("codec.parallel_tone") },
		"codec.parallel_offset_hz": func() { c.ParallelOffset = k.Float64("codec.parallel_offset_hz") },
		"codec.parallel_gain":      func() { c.ParallelGain = k.Float64("codec.parallel_gain") },
		"codec.vibrato_depth_hz":   func() { c.VibratoDepthHz = k.Float64("codec.vibrato_depth_hz") },
		"codec.vibrato_rate_hz":    func() { c.VibratoRateHz = k.Float64("codec.vibrato_rate_hz") },
		"codec.sweep_hz":           func() { c.SweepHz = k.Float64("codec.sweep_hz") },
		"codec.signal_threshold":   func() { c.SignalThreshold = k.Int("codec.signal_threshold") },
		"codec.debounce_ms":        func() { c.DebounceMs = k.Int("codec.debounce_ms") },
		"codec.debounce_hz":        func() { c.DebounceHz = k.Float64("codec.debounce_hz") },
		"codec.marker_hits":        func() { c.MarkerHits = k.Int("codec.marker_hits") },
		"codec.char_lockout_ms":    func() { c.CharLockoutMs = k.Int("codec.char_lockout_ms") },
		"codec.punct_lockout_ms":   func() { c.PunctLockoutMs = k.Int("codec.punct_lockout_ms") },
		"codec.recent_window_ms":   func() { c.RecentWindowMs = k.Int("codec.recent_window_ms") },
		"codec.repeat_allow":       func() { c.RepeatAllow = k.String("codec.repeat_allow") },
		"codec.timeout_ms":         func() { c.TimeoutMs = k.Int("codec.timeout_ms") },
	} {
		if k.Exists(key) {
			set()
		}
	}
	return c
}
