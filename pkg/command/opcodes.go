package command

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// Built-in opcodes.
const (
	OpVersionGet  = "version.get"
	OpServoRead   = "servo.read"
	OpServoWrite  = "servo.write"
	OpLEDSet      = "led.set"
	OpVolumeSet   = "volume.set"
	OpSensorRead  = "sensor.read"
	OpActionStart = "action.start"
	OpActionStop  = "action.stop"
	OpVoiceTTS    = "voice.tts"
	OpTransmit    = "transmit"

	OpStatusGet    = "status.get"
	OpAppStatus    = "app.status"
	OpMusicPlay    = "music.play"
	OpMusicList    = "music.list"
	OpPhotoTake    = "photo.take"
	OpVisionDetect = "vision.detect"
	OpEventDetect  = "event.detect"
	OpVoiceStart   = "voice.start"
	OpVoiceStop    = "voice.stop"
	OpVoiceDetect  = "voice.detect"
	OpSensorReadAt = "sensor.read_at"
)

// ServoCount is the number of servos; servo.read returns one angle byte
// per servo, servo 1 first.
const ServoCount = 17

// ServoKeep in a servo.write angle list leaves that servo where it is.
// An angle of 0 does the same.
const ServoKeep = 0xFF

// ServoMaxAngle is the largest angle a servo accepts.
const ServoMaxAngle = 180

// Message keys used by individual opcodes.
const (
	keyAngle         = "angle"
	keyTime          = "time"
	keyVolume        = "volume"
	keyRepeat        = "repeat"
	keyTotalTime     = "total_time"
	keyIsInterrupted = "is_interrupted"
	keyColor         = "color"
	keyMode          = "mode"
	keyTimeOut       = "time_out"
	keyIndex         = "index"
	keyList          = "list"
	keyID            = "id"
)

// Robot-side waits for the detect opcodes, in seconds. Values outside
// MinDetectWait..MaxDetectWait fall back to DefaultDetectWait.
const (
	MinDetectWait     = 10
	MaxDetectWait     = 600
	DefaultDetectWait = 30
)

// NotDetected is the payload of a detect opcode that saw nothing.
const NotDetected = "0"

// LED parameter values the firmware accepts.
var (
	LEDTypes  = []string{"button", "camera", "mic", "servo"}
	LEDColors = []string{"white", "red", "green", "blue", "yellow", "purple", "cyan"}
	LEDModes  = []string{"on", "off", "blink", "breath", "colorful"}
)

// Parameter values for the status, app, music and vision opcodes.
var (
	StatusKinds = []string{"play", "volume", "voltage", "charging", "percent"}
	AppPostures = []string{"static", "slant_forward", "slant_backward", "slant_left", "slant_right", "forward_and_back", "swaying"}
	MusicModes  = []string{"play", "pause", "stop"}
	VisionTypes = []string{"face", "hand"}
)

// musicTypes maps MusicModes to the firmware's type values.
var musicTypes = map[string]string{"play": "play", "pause": "Pause", "stop": "stop"}

func builtinCodecs() map[string]Codec {
	return map[string]Codec{
		OpVersionGet: &FuncCodec{
			Opcode: OpVersionGet,
			Kinds:  []ArgKind{KindString},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdQuery)
				m.Type = wire.TypeVersion
				return m, m.Set(wire.KeyPara, args[0].Str)
			},
			Extract: extractVersion,
		},

		OpServoRead: &FuncCodec{
			Opcode: OpServoRead,
			Size:   ServoCount,
			Build: func([]Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdServo)
				m.Type = wire.TypeServoRead
				return m, nil
			},
			Extract: extractAngles,
		},

		OpServoWrite: &FuncCodec{
			Opcode: OpServoWrite,
			Kinds:  []ArgKind{KindBytes, KindInt},
			Validate: func(args []Arg) error {
				if n := len(args[0].Bytes); n == 0 || n > ServoCount {
					return fmt.Errorf("need 1 to %d servo angles, got %d", ServoCount, n)
				}
				for i, a := range args[0].Bytes {
					if a > ServoMaxAngle && a != ServoKeep {
						return fmt.Errorf("servo %d angle %d out of range 0..%d", i+1, a, ServoMaxAngle)
					}
				}
				if args[1].Int < 0 {
					return errors.New("time must not be negative")
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdServo)
				m.Type = wire.TypeServoWrite
				if err := m.Set(keyAngle, servoAngles(args[0].Bytes)); err != nil {
					return nil, err
				}
				return m, m.Set(keyTime, args[1].Int)
			},
		},

		OpLEDSet: &FuncCodec{
			Opcode: OpLEDSet,
			Kinds:  []ArgKind{KindString, KindString, KindString},
			Validate: func(args []Arg) error {
				if err := oneOf("type", args[0].Str, LEDTypes); err != nil {
					return err
				}
				if err := oneOf("color", args[1].Str, LEDColors); err != nil {
					return err
				}
				return oneOf("mode", args[2].Str, LEDModes)
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdSet)
				m.Type = wire.TypeLED
				return m, m.Set(wire.KeyPara, map[string]string{
					wire.KeyType: args[0].Str,
					keyColor:     args[1].Str,
					keyMode:      args[2].Str,
				})
			},
		},

		OpVolumeSet: &FuncCodec{
			Opcode: OpVolumeSet,
			Kinds:  []ArgKind{KindInt},
			Validate: func(args []Arg) error {
				if v := args[0].Int; v < 0 || v > 100 {
					return fmt.Errorf("volume %d out of range 0..100", v)
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdSet)
				m.Type = wire.TypeVolume
				return m, m.Set(keyVolume, args[0].Int)
			},
		},

		OpSensorRead: &FuncCodec{
			Opcode: OpSensorRead,
			Kinds:  []ArgKind{KindString},
			Validate: func(args []Arg) error {
				if args[0].Str == "" {
					return errors.New("sensor type is empty")
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdQuery)
				m.Type = wire.TypeSensor
				return m, m.Set(wire.KeyPara, args[0].Str)
			},
			Extract: extractSensor,
		},

		OpActionStart: &FuncCodec{
			Opcode: OpActionStart,
			Kinds:  []ArgKind{KindString, KindInt},
			Validate: func(args []Arg) error {
				if args[0].Str == "" {
					return errors.New("action name is empty")
				}
				if args[1].Int < 1 {
					return fmt.Errorf("repeat %d must be at least 1", args[1].Int)
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdAction)
				m.Type = wire.TypeStart
				return m, m.Set(wire.KeyPara, map[string]any{
					wire.KeyName: args[0].Str,
					keyRepeat:    args[1].Int,
				})
			},
			Extract: func(_ []Arg, reply *wire.Message) ([]byte, error) {
				raw, _ := reply.Raw(keyTotalTime)
				return raw, nil
			},
		},

		OpActionStop: &FuncCodec{
			Opcode: OpActionStop,
			Build: func([]Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdAction)
				m.Type = wire.TypeStop
				return m, nil
			},
		},

		OpVoiceTTS: &FuncCodec{
			Opcode: OpVoiceTTS,
			Kinds:  []ArgKind{KindBool, KindString},
			Validate: func(args []Arg) error {
				if args[1].Str == "" {
					return errors.New("text is empty")
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdVoice)
				m.Type = wire.TypeTTS
				interrupt := 0
				if args[0].Bool {
					interrupt = 1
				}
				if err := m.Set(keyIsInterrupted, interrupt); err != nil {
					return nil, err
				}
				return m, m.Set(wire.KeyData, args[1].Str)
			},
		},

		OpSensorReadAt: &FuncCodec{
			Opcode: OpSensorReadAt,
			Kinds:  []ArgKind{KindString, KindInt},
			Validate: func(args []Arg) error {
				if args[0].Str == "" {
					return errors.New("sensor type is empty")
				}
				if args[1].Int < 0 {
					return fmt.Errorf("sensor address %d is negative", args[1].Int)
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdQuery)
				m.Type = wire.TypeSensor
				if err := m.Set(wire.KeyPara, args[0].Str); err != nil {
					return nil, err
				}
				return m, m.Set(keyID, args[1].Int)
			},
			Extract: extractSensor,
		},

		OpStatusGet: &FuncCodec{
			Opcode: OpStatusGet,
			Kinds:  []ArgKind{KindString},
			Validate: func(args []Arg) error {
				return oneOf("status", args[0].Str, StatusKinds)
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdQuery)
				switch kind := args[0].Str; kind {
				case wire.TypePlay, wire.TypeVolume:
					m.Type = kind
				default:
					m.Type = wire.TypeBattery
					if err := m.Set(wire.KeyPara, kind); err != nil {
						return nil, err
					}
				}
				return m, nil
			},
			Extract: extractStatus,
		},

		OpAppStatus: &FuncCodec{
			Opcode: OpAppStatus,
			Kinds:  []ArgKind{KindString, KindInt},
			Validate: func(args []Arg) error {
				return oneOf("posture", args[0].Str, AppPostures)
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdQueryApp)
				m.Type = wire.TypeStatus
				if err := m.Set(keyTimeOut, DetectWait(args[1].Int)); err != nil {
					return nil, err
				}
				return m, m.Set(wire.KeyData, args[0].Str)
			},
			Wait: waitArg(1),
		},

		OpMusicPlay: &FuncCodec{
			Opcode: OpMusicPlay,
			Kinds:  []ArgKind{KindString, KindString},
			Validate: func(args []Arg) error {
				if err := oneOf("mode", args[0].Str, MusicModes); err != nil {
					return err
				}
				if args[0].Str == "play" && args[1].Str == "" {
					return errors.New("music name is empty")
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdMusic)
				m.Type = musicTypes[args[0].Str]
				return m, m.Set(wire.KeyName, args[1].Str)
			},
		},

		OpMusicList: &FuncCodec{
			Opcode: OpMusicList,
			Kinds:  []ArgKind{KindInt},
			Validate: func(args []Arg) error {
				if args[0].Int < 0 {
					return fmt.Errorf("index %d is negative", args[0].Int)
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdMusic)
				m.Type = wire.TypeGetList
				return m, m.Set(keyIndex, args[0].Int)
			},
			Extract: func(_ []Arg, reply *wire.Message) ([]byte, error) {
				raw, _ := reply.Raw(keyList)
				return raw, nil
			},
		},

		OpPhotoTake: &FuncCodec{
			Opcode: OpPhotoTake,
			Kinds:  []ArgKind{KindString},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdTakePhoto)
				m.Type = wire.TypeTransmit
				if args[0].Str != "" {
					if err := m.Set(wire.KeyName, args[0].Str); err != nil {
						return nil, err
					}
				}
				return m, nil
			},
			Extract: func(args []Arg, reply *wire.Message) ([]byte, error) {
				if name, ok := reply.GetString(wire.KeyName); ok {
					return []byte(name), nil
				}
				return []byte(args[0].Str), nil
			},
		},

		OpVisionDetect: &FuncCodec{
			Opcode: OpVisionDetect,
			Kinds:  []ArgKind{KindString, KindInt},
			Validate: func(args []Arg) error {
				return oneOf("vision type", args[0].Str, VisionTypes)
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdVision)
				m.Type = args[0].Str
				return m, m.Set(keyTimeOut, DetectWait(args[1].Int))
			},
			Extract: extractDetected,
			Wait:    waitArg(1),
		},

		OpEventDetect: &FuncCodec{
			Opcode: OpEventDetect,
			Kinds:  []ArgKind{KindString, KindInt},
			Validate: func(args []Arg) error {
				if args[0].Str == "" {
					return errors.New("event type is empty")
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdEvent)
				m.Type = args[0].Str
				return m, nil
			},
			Extract: extractDetected,
			Wait:    waitArg(1),
		},

		OpVoiceStart: &FuncCodec{
			Opcode: OpVoiceStart,
			Build: func([]Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdVoice)
				m.Type = wire.TypeRecognitionStart
				return m, nil
			},
		},

		OpVoiceStop: &FuncCodec{
			Opcode: OpVoiceStop,
			Build: func([]Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdVoice)
				m.Type = wire.TypeRecognitionStop
				return m, nil
			},
		},

		OpVoiceDetect: &FuncCodec{
			Opcode: OpVoiceDetect,
			Kinds:  []ArgKind{KindString, KindInt},
			Validate: func(args []Arg) error {
				if args[0].Str == "" {
					return errors.New("text is empty")
				}
				return nil
			},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdVoice)
				m.Type = wire.TypeDetecting
				return m, m.Set(wire.KeyData, args[0].Str)
			},
			Wait: waitArg(1),
		},

		OpTransmit: &FuncCodec{
			Opcode: OpTransmit,
			Kinds:  []ArgKind{KindString},
			Build: func(args []Arg) (*wire.Message, error) {
				m := wire.NewMessage(wire.CmdTransparent)
				return m, m.Set(wire.KeyData, args[0].Str)
			},
			Extract: func(_ []Arg, reply *wire.Message) ([]byte, error) {
				s, _ := reply.GetString(wire.KeyData)
				return []byte(s), nil
			},
		},
	}
}

// servoAngles renders a full 17-servo angle string. Servos past the end
// of angles, and angles of 0, are sent as FF.
func servoAngles(angles []byte) string {
	all := bytes.Repeat([]byte{ServoKeep}, ServoCount)
	for i, a := range angles {
		if a != 0 {
			all[i] = a
		}
	}
	return strings.ToUpper(hex.EncodeToString(all))
}

// DetectWait returns the robot-side wait for a requested number of seconds.
func DetectWait(seconds int) int {
	if seconds < MinDetectWait || seconds > MaxDetectWait {
		return DefaultDetectWait
	}
	return seconds
}

// waitArg makes the reply wait cover the robot-side wait in args[i], plus
// a second for the reply to travel.
func waitArg(i int) func([]Arg) time.Duration {
	return func(args []Arg) time.Duration {
		return time.Duration(DetectWait(args[i].Int))*time.Second + time.Second
	}
}

func oneOf(name, v string, allowed []string) error {
	if slices.Contains(allowed, v) {
		return nil
	}
	return fmt.Errorf("%s %q not one of %s", name, v, strings.Join(allowed, ", "))
}

func extractVersion(_ []Arg, reply *wire.Message) ([]byte, error) {
	if reply.Version != "" {
		return []byte(reply.Version), nil
	}
	if raw, ok := reply.Raw(wire.KeyVersion); ok {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: reply has no %q", ErrProtocol, wire.KeyVersion)
}

func extractAngles(_ []Arg, reply *wire.Message) ([]byte, error) {
	s, ok := reply.GetString(keyAngle)
	if !ok {
		return nil, fmt.Errorf("%w: reply has no %q", ErrProtocol, keyAngle)
	}
	angles, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad angle string %q: %v", ErrProtocol, s, err)
	}
	return angles, nil
}

// extractSensor returns the JSON object the robot files under the sensor
// type, falling back to "data".
func extractSensor(args []Arg, reply *wire.Message) ([]byte, error) {
	if raw, ok := reply.Raw(args[0].Str); ok {
		return raw, nil
	}
	if raw, ok := reply.Raw(wire.KeyData); ok {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: reply has no %q data", ErrProtocol, args[0].Str)
}

// extractStatus returns the value the robot files under the queried type.
func extractStatus(_ []Arg, reply *wire.Message) ([]byte, error) {
	if raw, ok := reply.Raw(reply.Type); ok {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: reply has no %q status", ErrProtocol, reply.Type)
}

// extractDetected returns the detection result in "data". NotDetected
// means the robot saw nothing before its wait ran out.
func extractDetected(_ []Arg, reply *wire.Message) ([]byte, error) {
	s, ok := reply.GetString(wire.KeyData)
	if !ok {
		return nil, fmt.Errorf("%w: reply has no %q", ErrProtocol, wire.KeyData)
	}
	return []byte(s), nil
}
