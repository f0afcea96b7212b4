package main

var cli struct {
	Verbose bool `help:"Prints debug output by default"`
	Profile bool `help:"Output a pprof profile"`
	Probe   struct {
	} `cmd:"" help:"List the available audio devices"`
	Send struct {
		Text []string `arg:"" help:"Message to transmit"`
	} `cmd:"" help:"Encode a message and play it through the speaker"`
	Listen struct {
	} `cmd:"" help:"Decode transmissions from the microphone and print stream events"`
	Chat struct {
	} `cmd:"" help:"Starts the TUI chat over the acoustic link"`
}
