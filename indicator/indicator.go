// Package indicator drives the external physical indicator (an LED and a
// servo behind a microcontroller) over a line-oriented serial protocol:
//
//	<pin>,<ON|OFF>,<durationMs>\n
//	SERVO,<START|STOP|ALERT>\n
package indicator

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/config"
	"go.bug.st/serial"
)

type ServoCmd string

const (
	ServoStart ServoCmd = "START"
	ServoStop  ServoCmd = "STOP"
	ServoAlert ServoCmd = "ALERT"
)

// Notifier writes indicator commands to the serial link. A nil *Notifier is
// a valid no-op, so the pipeline runs unchanged without hardware attached.
type Notifier struct {
	conf config.IndicatorConf
	port io.WriteCloser
}

// New opens the configured serial port. An empty port name yields a nil
// notifier and no error.
func New(conf config.IndicatorConf) (*Notifier, error) {
	if conf.Port == "" {
		return nil, nil
	}
	port, err := serial.Open(conf.Port, &serial.Mode{BaudRate: conf.Baud})
	if err != nil {
		return nil, fmt.Errorf("open indicator port %s: %w", conf.Port, err)
	}
	log.Infof("Indicator connected on %s at %d baud", conf.Port, conf.Baud)
	return &Notifier{conf: conf, port: port}, nil
}

// Blink pulses a pin for durMs milliseconds.
func (n *Notifier) Blink(pin int, on bool, durMs int) error {
	if n == nil {
		return nil
	}
	return n.send(formatBlink(pin, on, durMs))
}

// Servo issues one of the START/STOP/ALERT servo commands.
func (n *Notifier) Servo(cmd ServoCmd) error {
	if n == nil {
		return nil
	}
	return n.send(formatServo(cmd))
}

// StreamStart signals that a transmission began.
func (n *Notifier) StreamStart() {
	if err := n.Servo(ServoStart); err != nil {
		log.Errorf("[indicator] start signal failed: %v", err)
	}
}

// StreamEnd signals that a transmission finished.
func (n *Notifier) StreamEnd() {
	if err := n.Servo(ServoStop); err != nil {
		log.Errorf("[indicator] stop signal failed: %v", err)
	}
}

// Alert fires the alert gesture and blinks the configured pin.
func (n *Notifier) Alert() {
	if n == nil {
		return
	}
	if err := n.Servo(ServoAlert); err != nil {
		log.Errorf("[indicator] alert signal failed: %v", err)
	}
	if err := n.Blink(n.conf.Pin, true, n.conf.BlinkMs); err != nil {
		log.Errorf("[indicator] alert blink failed: %v", err)
	}
}

func (n *Notifier) send(line string) error {
	_, err := io.WriteString(n.port, line)
	return err
}

func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	return n.port.Close()
}

func formatBlink(pin int, on bool, durMs int) string {
	state := "OFF"
	if on {
		state = "ON"
	}
	return fmt.Sprintf("%d,%s,%d\n", pin, state, durMs)
}

func formatServo(cmd ServoCmd) string {
	return fmt.Sprintf("SERVO,%s\n", cmd)
}
