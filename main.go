package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/analyzer"
	"github.com/chirplink/chirplink/audio"
	"github.com/chirplink/chirplink/config"
	"github.com/chirplink/chirplink/decode"
	"github.com/chirplink/chirplink/encode"
	"github.com/chirplink/chirplink/indicator"
	"github.com/chirplink/chirplink/level"
	"github.com/chirplink/chirplink/tone"
	"github.com/chirplink/chirplink/tui"

	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var configFile = koanf.New(".")

func getConfigPath() string {
	paths := []string{"/etc/chirplink/config.hcl", "~/.config/chirplink/config.hcl", "./config.hcl"}
	for _, path := range paths {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			log.Infof("Found config file: %s", path)
			return path
		}
	}
	log.Info("Config file not found!")
	return ""
}

func main() {
	log.Info("Starting chirplink")
	flags := kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if cli.Profile {
		prof, err := os.Create("./cpu.pprof")
		if err != nil {
			panic(err)
		}
		pprof.StartCPUProfile(prof)
		defer pprof.StopCPUProfile()
	}

	configFile.Load(confmap.Provider(config.Defaults(), "."), nil)
	if err := configFile.Load(file.Provider(getConfigPath()), hcl.Parser(true)); err != nil {
		log.Errorf("Could not read config file: %v", err)
		log.Error("Attempting to use environment variables")
		configFile.Load(env.Provider("", env.Opt{
			Prefix: "CHIRPLINK_",
			TransformFunc: func(k, v string) (string, any) {
				key := strings.ToLower(strings.TrimPrefix(k, "CHIRPLINK_"))
				k = strings.Replace(key, "_", ".", 1)
				fmt.Printf("Found config env var: %s=%v\n", k, v)
				return k, v
			},
		}), nil)
	}

	switch flags.Command() {
	case "probe":
		if err := audio.Init(); err != nil {
			log.Fatalf("Could not initialize audio: %v", err)
		}
		defer audio.Terminate()
		audio.Probe()

	case "send <text>":
		runSend(strings.Join(cli.Send.Text, " "))

	case "listen":
		runListen()

	case "chat":
		runChat()

	default:
		log.Info("Command not recognized")
	}
}

func codecSetup() (config.CodecConf, config.AudioConf, *tone.Map) {
	codecConf := config.Codec(configFile)
	audioConf := config.AudioConf{
		SampleRate: configFile.Float64("audio.sample_rate"),
		FFTSize:    configFile.Int("audio.fft_size"),
		FrameSize:  configFile.Int("audio.frame_size"),
	}
	log.Debugf("Using codec profile %s: %##v", codecConf.Profile, codecConf)

	tones, err := tone.NewMap(codecConf)
	if err != nil {
		log.Fatalf("Invalid codec frequency plan: %v", err)
	}
	return codecConf, audioConf, tones
}

func runSend(text string) {
	codecConf, audioConf, tones := codecSetup()

	if err := audio.Init(); err != nil {
		log.Fatalf("Could not initialize audio: %v", err)
	}
	defer audio.Terminate()

	synth := audio.NewSynth(codecConf, audioConf.SampleRate)
	if err := synth.Connect(audioConf.FrameSize); err != nil {
		log.Fatalf("Could not open the output stream: %v", err)
	}
	defer synth.Destroy()

	enc := encode.New(codecConf, tones, synth)
	log.Infof("Transmitting %d characters", len(text))
	if err := enc.Encode(context.Background(), text); err != nil {
		log.Errorf("Transmission interrupted: %v", err)
	}
}

func runListen() {
	codecConf, audioConf, tones := codecSetup()

	dec := decode.New(codecConf, tones, 32)
	an := analyzer.New(audioConf, codecConf.MaxValidFreq, &dec.SnapshotInput)
	capture := audio.NewCapture(audioConf, &an.SampleInput)

	notifier, err := indicator.New(config.IndicatorConf{
		Port:    configFile.String("indicator.port"),
		Baud:    configFile.Int("indicator.baud"),
		Pin:     configFile.Int("indicator.pin"),
		BlinkMs: configFile.Int("indicator.blink_ms"),
	})
	if err != nil {
		log.Errorf("Indicator unavailable, continuing without: %v", err)
	}
	defer notifier.Close()

	if err := audio.Init(); err != nil {
		log.Fatalf("Could not initialize audio: %v", err)
	}
	defer audio.Terminate()

	if err := capture.Connect(); err != nil {
		log.Fatalf("Could not open the input stream: %v", err)
	}

	go an.Start()
	go dec.Start()
	defer an.Close()
	defer dec.Close()
	defer capture.Destroy()

	log.Info("Listening; stream events follow")
	for ev := range dec.Events {
		fmt.Println(ev.String())
		switch ev.Kind {
		case decode.KindStart:
			notifier.StreamStart()
		case decode.KindEnd:
			if ev.Timeout {
				notifier.Alert()
			} else {
				notifier.StreamEnd()
			}
		}
	}
}

func runChat() {
	codecConf, audioConf, tones := codecSetup()
	tuiConf := config.TuiConf{
		RefreshMs:       configFile.Int("tui.refresh_ms"),
		EnableLogOutput: configFile.Bool("tui.enable_log_output"),
		ShowSpectrum:    configFile.Bool("tui.show_spectrum"),
	}
	levelConf := config.LevelConf{
		RefreshMs:  configFile.Int("level.refresh_ms"),
		MinDB:      configFile.Float64("level.min_db"),
		SpeakingDB: configFile.Float64("level.speaking_db"),
	}

	dec := decode.New(codecConf, tones, 32)
	an := analyzer.New(audioConf, codecConf.MaxValidFreq, &dec.SnapshotInput)
	capture := audio.NewCapture(audioConf, &an.SampleInput)
	mon := level.New(levelConf, an)

	if err := audio.Init(); err != nil {
		log.Fatalf("Could not initialize audio: %v", err)
	}
	defer audio.Terminate()

	synth := audio.NewSynth(codecConf, audioConf.SampleRate)
	if err := synth.Connect(audioConf.FrameSize); err != nil {
		log.Fatalf("Could not open the output stream: %v", err)
	}
	defer synth.Destroy()

	if err := capture.Connect(); err != nil {
		log.Fatalf("Could not open the input stream: %v", err)
	}

	enc := encode.New(codecConf, tones, synth)

	go an.Start()
	go dec.Start()
	go mon.Start()
	defer an.Close()
	defer dec.Close()
	defer mon.Close()
	defer capture.Destroy()

	send := func(text string) {
		if err := enc.Encode(context.Background(), text); err != nil {
			log.Errorf("Transmission interrupted: %v", err)
		}
	}

	tui.StartUI(dec, an, mon, send, tuiConf)
}
