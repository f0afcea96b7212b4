package audio

import (
	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/config"
	"github.com/gordonklaus/portaudio"
)

// Init brings up the portaudio runtime. Call once, pair with Terminate.
func Init() error {
	return portaudio.Initialize()
}

func Terminate() {
	if err := portaudio.Terminate(); err != nil {
		log.Errorf("Could not shut down portaudio: %v", err)
	}
}

// Probe logs every host audio device, the acoustic counterpart of an SDR
// device listing.
func Probe() {
	devices, err := portaudio.Devices()
	if err != nil {
		log.Fatalf("Could not enumerate audio devices: %v", err)
	}
	log.Infof("Found %d devices", len(devices))
	for i, dev := range devices {
		log.Infof("Device %d: %s (%s)", i, dev.Name, dev.HostApi.Name)
		log.Infof("\tInput channels: %d Output channels: %d", dev.MaxInputChannels, dev.MaxOutputChannels)
		log.Infof("\tDefault sample rate: %.0f", dev.DefaultSampleRate)
	}
	if in, err := portaudio.DefaultInputDevice(); err == nil {
		log.Infof("Default input: %s", in.Name)
	}
	if out, err := portaudio.DefaultOutputDevice(); err == nil {
		log.Infof("Default output: %s", out.Name)
	}
}

// Capture streams microphone blocks into the analyzer's input channel.
type Capture struct {
	SamplesOutput *chan []float32

	conf     config.AudioConf
	stream   *portaudio.Stream
	Stopping bool
}

func NewCapture(conf config.AudioConf, output *chan []float32) *Capture {
	return &Capture{
		SamplesOutput: output,
		conf:          conf,
	}
}

// Connect opens and starts the default input stream. The callback runs on
// portaudio's thread; blocks are copied out and handed over without ever
// blocking it.
func (c *Capture) Connect() error {
	log.Debugf("Opening input stream at %.0f Hz, %d frames", c.conf.SampleRate, c.conf.FrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, c.conf.SampleRate, c.conf.FrameSize, c.process)
	if err != nil {
		return err
	}
	c.stream = stream
	return stream.Start()
}

func (c *Capture) process(in []float32) {
	if c.Stopping {
		return
	}
	buf := make([]float32, len(in))
	copy(buf, in)
	select {
	case *c.SamplesOutput <- buf:
	default:
		log.Debugf("[capture] analyzer behind, dropping block")
	}
}

func (c *Capture) Destroy() {
	c.Stopping = true
	if c.stream != nil {
		if err := c.stream.Stop(); err != nil {
			log.Errorf("Could not stop the input stream: %v", err)
		}
		if err := c.stream.Close(); err != nil {
			log.Errorf("Could not close the input stream: %v", err)
		}
	}
	close(*c.SamplesOutput)
}
