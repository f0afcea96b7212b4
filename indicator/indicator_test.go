package indicator

import (
	"bytes"
	"testing"

	"github.com/chirplink/chirplink/config"
	"github.com/stretchr/testify/assert"
)

type recordingPort struct {
	bytes.Buffer
	closed bool
}

func (p *recordingPort) Close() error {
	p.closed = true
	return nil
}

func TestBlinkLineFormat(t *testing.T) {
	assert.Equal(t, "13,ON,200\n", formatBlink(13, true, 200))
	assert.Equal(t, "7,OFF,0\n", formatBlink(7, false, 0))
}

func TestServoLineFormat(t *testing.T) {
	assert.Equal(t, "SERVO,START\n", formatServo(ServoStart))
	assert.Equal(t, "SERVO,STOP\n", formatServo(ServoStop))
	assert.Equal(t, "SERVO,ALERT\n", formatServo(ServoAlert))
}

func TestNotifierWritesProtocolLines(t *testing.T) {
	port := &recordingPort{}
	n := &Notifier{
		conf: config.IndicatorConf{Pin: 13, BlinkMs: 200},
		port: port,
	}

	assert.NoError(t, n.Blink(13, true, 200))
	assert.NoError(t, n.Servo(ServoStart))
	n.Alert()

	assert.Equal(t, "13,ON,200\nSERVO,START\nSERVO,ALERT\n13,ON,200\n", port.String())

	assert.NoError(t, n.Close())
	assert.True(t, port.closed)
}

func TestNilNotifierIsNoOp(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.Blink(1, true, 100))
	assert.NoError(t, n.Servo(ServoStop))
	n.StreamStart()
	n.StreamEnd()
	n.Alert()
	assert.NoError(t, n.Close())
}

func TestEmptyPortYieldsNilNotifier(t *testing.T) {
	n, err := New(config.IndicatorConf{})
	assert.NoError(t, err)
	assert.Nil(t, n)
}
