package wire

import "strings"

// Command is the value of the "cmd" key.
type Command string

// Commands understood by the robot firmware.
const (
	CmdDiscovery   Command = "discovery"
	CmdConnect     Command = "connect"
	CmdDisconnect  Command = "disconnect"
	CmdHeartbeat   Command = "heartbeat"
	CmdQuery       Command = "query"
	CmdSet         Command = "set"
	CmdServo       Command = "servo"
	CmdAction      Command = "action"
	CmdMusic       Command = "music"
	CmdVoice       Command = "voice"
	CmdVision      Command = "vision"
	CmdTakePhoto   Command = "takephoto"
	CmdTransparent Command = "transparent"
	CmdSwarm       Command = "swarm"
	CmdQueryApp    Command = "query_app"
	CmdEvent       Command = "event"
)

// ackSuffix is appended to a command name in the robot's reply.
const ackSuffix = "_ack"

// Ack returns the reply command for c.
func (c Command) Ack() Command {
	if c.IsAck() {
		return c
	}
	return c + ackSuffix
}

// IsAck reports whether c is a reply command.
func (c Command) IsAck() bool {
	return strings.HasSuffix(string(c), ackSuffix)
}

// Request returns the request command for an ack.
func (c Command) Request() Command {
	return Command(strings.TrimSuffix(string(c), ackSuffix))
}

// String returns the command name.
func (c Command) String() string {
	return string(c)
}

// Message type values used with the "type" key.
const (
	TypeVersion    = "version"
	TypeSensor     = "sensor"
	TypeLED        = "led"
	TypeVolume     = "volume"
	TypeServoRead  = "read_hold"
	TypeServoWrite = "write"
	TypeStart      = "start"
	TypeStop       = "stop"
	TypeTTS        = "tts"
	TypePlay       = "play"
	TypeBattery    = "battery"
	TypeStatus     = "status"
	TypeGetList    = "getlist"
	TypeTransmit   = "transmit"
	TypeDetecting  = "voice_detecting"

	// The firmware spells recognition without the second "i".
	TypeRecognitionStart = "recogntion_start"
	TypeRecognitionStop  = "recogntion_stop"
)

// Client identity constants used by every vendor example.
const (
	// DefaultAccount is the client identifier sent in "account".
	DefaultAccount = "sdk"

	// DefaultClientID is the client instance id passed to connect/disconnect.
	DefaultClientID = "1"

	// SDKVersion is the protocol version sent in "version".
	SDKVersion = "01"
)
