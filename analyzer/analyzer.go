package analyzer

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/config"
	"github.com/racerxdl/segdsp/dsp"
	"github.com/racerxdl/segdsp/tools"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Byte-magnitude scaling range, in dB. Bin values map [minDB, maxDB] onto
// 0-255; anything quieter clamps to 0.
const (
	minDB = -100.0
	maxDB = -30.0
)

// Snapshot is one frequency-domain view of the microphone feed: magnitude
// per bin scaled to 0-255, plus the sample rate needed to map bins back to
// Hertz.
type Snapshot struct {
	Bins       []byte
	SampleRate float64
	Time       time.Time
}

// Analyzer turns raw capture blocks into periodic Snapshots. Samples are
// band-limited with a low-pass FIR before the FFT so energy above the codec
// band cannot alias into it.
type Analyzer struct {
	SampleInput    chan []float32
	SnapshotOutput *chan Snapshot

	sampleRate float64
	fftSize    int
	hop        int
	fft        *fourier.CmplxFFT
	lowpass    *dsp.FirFilter
	buf        []complex64

	Stopping bool

	mu      sync.RWMutex
	current []byte
}

// New wires an analyzer for the given audio geometry. cutoff is the top of
// the codec's valid band; the FIR transition starts there.
func New(conf config.AudioConf, cutoff float64, output *chan Snapshot) *Analyzer {
	a := &Analyzer{
		SampleInput:    make(chan []float32, 16),
		SnapshotOutput: output,
		sampleRate:     conf.SampleRate,
		fftSize:        conf.FFTSize,
		hop:            conf.FrameSize,
		fft:            fourier.NewCmplxFFT(conf.FFTSize),
	}
	if a.hop <= 0 {
		a.hop = conf.FFTSize
	}

	transition := conf.SampleRate/2 - cutoff
	if transition > cutoff {
		transition = cutoff
	}
	a.lowpass = dsp.MakeFirFilter(dsp.MakeLowPass(1, conf.SampleRate, cutoff, transition))

	log.Debugf("[analyzer] fft_size: %d hop: %d cutoff: %.0f Hz", a.fftSize, a.hop, cutoff)
	return a
}

func (a *Analyzer) Start() {
	for {
		select {
		case samples := <-a.SampleInput:
			a.analyzeBlock(samples)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func (a *Analyzer) analyzeBlock(samples []float32) {
	if len(samples) == 0 {
		return
	}

	block := make([]complex64, len(samples))
	for i, s := range samples {
		block[i] = complex(s, 0)
	}
	block = a.lowpass.Work(block)

	a.buf = append(a.buf, block...)
	for len(a.buf) >= a.fftSize {
		bins := a.spectrum(a.buf[:a.fftSize])
		a.buf = a.buf[a.hop:]

		a.mu.Lock()
		a.current = bins
		a.mu.Unlock()

		snap := Snapshot{Bins: bins, SampleRate: a.sampleRate, Time: time.Now()}
		if !a.Stopping {
			select {
			case *a.SnapshotOutput <- snap:
			default:
				log.Debugf("[analyzer] snapshot consumer behind, dropping tick")
			}
		}
	}
}

// spectrum runs the FFT and scales each positive-frequency bin's power onto
// the 0-255 byte range used by the decoder.
func (a *Analyzer) spectrum(window []complex64) []byte {
	input := make([]complex128, len(window))
	for i, s := range window {
		input[i] = complex128(s)
	}
	coeff := a.fft.Coefficients(nil, input)

	n := float64(a.fftSize)
	bins := make([]byte, a.fftSize/2)
	for i := range bins {
		power := float64(tools.ComplexAbsSquared(complex64(coeff[i]))) / (n * n)
		db := 10.0 * math.Log10(power+1e-20)
		bins[i] = scaleDB(db)
	}
	return bins
}

func scaleDB(db float64) byte {
	v := (db - minDB) / (maxDB - minDB) * 255.0
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Current returns the most recent bin snapshot, for the spectrum display and
// the level monitor. Nil until the first block lands.
func (a *Analyzer) Current() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return nil
	}
	out := make([]byte, len(a.current))
	copy(out, a.current)
	return out
}

func (a *Analyzer) Close() {
	a.Stopping = true
	close(*a.SnapshotOutput)
}
