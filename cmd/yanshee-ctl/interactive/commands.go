// Package interactive implements the robot commands of yanshee-ctl, both
// as one-shot subcommands and as a readline shell.
package interactive

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/ubtedu/yanshee-go/pkg/command"
	"github.com/ubtedu/yanshee-go/pkg/robot"
)

// ErrUsage indicates a command was called with the wrong arguments.
var ErrUsage = errors.New("usage")

// Commands runs robot commands against a connected robot.
type Commands struct {
	robot *robot.Robot
	out   io.Writer
}

// NewCommands creates a command runner that prints to out.
func NewCommands(r *robot.Robot, out io.Writer) *Commands {
	return &Commands{robot: r, out: out}
}

// Verbs lists the robot commands Run understands.
var Verbs = []string{
	"exec", "version", "servo-read", "servo-write", "led", "volume",
	"sensor", "sensor-at", "query", "action", "stop", "tts", "transmit",
	"music", "music-list", "photo", "detect", "event", "listen", "hear",
	"posture", "opcodes",
}

// Run executes one command.
func (c *Commands) Run(ctx context.Context, verb string, args []string) error {
	switch verb {
	case "exec":
		return c.cmdExec(ctx, args)
	case "version":
		return c.cmdVersion(ctx, args)
	case "servo-read":
		return c.cmdServoRead(ctx)
	case "servo-write":
		return c.cmdServoWrite(ctx, args)
	case "led":
		return c.cmdLED(ctx, args)
	case "volume":
		return c.cmdVolume(ctx, args)
	case "sensor":
		return c.cmdSensor(ctx, args)
	case "sensor-at":
		return c.cmdSensorAt(ctx, args)
	case "query":
		return c.cmdQuery(ctx, args)
	case "music":
		return c.cmdMusic(ctx, args)
	case "music-list":
		return c.cmdMusicList(ctx, args)
	case "photo":
		return c.cmdPhoto(ctx, args)
	case "detect":
		return c.cmdDetect(ctx, args, c.robot.DetectVision)
	case "event":
		return c.cmdDetect(ctx, args, c.robot.DetectEvent)
	case "listen":
		return c.cmdListen(ctx, args)
	case "hear":
		return c.cmdHear(ctx, args)
	case "posture":
		return c.cmdPosture(ctx, args)
	case "action":
		return c.cmdAction(ctx, args)
	case "stop":
		return c.robot.StopAction(ctx)
	case "tts":
		return c.cmdTTS(ctx, args)
	case "transmit":
		return c.cmdTransmit(ctx, args)
	case "opcodes":
		return c.cmdOpcodes()
	default:
		return fmt.Errorf("unknown command: %s", verb)
	}
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", ErrUsage, format)
}

func (c *Commands) cmdExec(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("exec <opcode> [args...]")
	}
	opcode := args[0]
	codec, ok := command.DefaultRegistry().Lookup(opcode)
	if !ok {
		return fmt.Errorf("%w: %q", command.ErrUnknownOpcode, opcode)
	}

	kinds := codec.Params()
	if len(args)-1 != len(kinds) {
		return usage(fmt.Sprintf("exec %s %s", opcode, kindList(kinds)))
	}
	parsed := make([]command.Arg, len(kinds))
	for i, k := range kinds {
		a, err := command.ParseArg(k, args[i+1])
		if err != nil {
			return err
		}
		parsed[i] = a
	}

	res, err := c.robot.Execute(ctx, command.Request{Opcode: opcode, Args: parsed})
	if err != nil {
		return err
	}
	if res.Failure != nil {
		fmt.Fprintf(c.out, "FAILED %s\n", res.Failure)
		return nil
	}
	fmt.Fprintf(c.out, "OK %s\n", formatPayload(res.Payload, codec.ResponseSize() > 0))
	return nil
}

func kindList(kinds []command.ArgKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = "<" + strings.ToLower(k.String()) + ">"
	}
	return strings.Join(names, " ")
}

// formatPayload prints text payloads as is and anything else as hex.
// Fixed-size payloads are always binary.
func formatPayload(p []byte, binary bool) string {
	if len(p) == 0 {
		return "(no payload)"
	}
	if binary {
		return strings.ToUpper(hex.EncodeToString(p))
	}
	for _, r := range string(p) {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
			return strings.ToUpper(hex.EncodeToString(p))
		}
	}
	return string(p)
}

func (c *Commands) cmdVersion(ctx context.Context, args []string) error {
	component := "CoreBoard"
	if len(args) > 0 {
		component = args[0]
	}
	v, err := c.robot.Version(ctx, component)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %s\n", component, v)
	return nil
}

func (c *Commands) cmdServoRead(ctx context.Context) error {
	angles, err := c.robot.ReadServos(ctx)
	if err != nil {
		return err
	}
	for i, a := range angles {
		fmt.Fprintf(c.out, "servo %2d: %3d\n", i+1, a)
	}
	return nil
}

// defaultServoTime is the servo-write run time when none is given.
const defaultServoTime = 20

func (c *Commands) cmdServoWrite(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("servo-write <angles> [time]  (angles: \"90,-,45\" or hex \"5AFF2D\"; smaller time is faster)")
	}
	angles, err := ParseAngles(args[0])
	if err != nil {
		return err
	}
	runTime := defaultServoTime
	if len(args) == 2 {
		if runTime, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("%w: time %q", command.ErrInvalidArgument, args[1])
		}
	}
	if err := c.robot.WriteServos(ctx, angles, runTime); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "moved %d servos, time %d\n", len(angles), runTime)
	return nil
}

// ParseAngles parses a comma separated angle list, where "-" keeps a
// servo, or a hex string with one byte per servo.
func ParseAngles(s string) ([]byte, error) {
	if !strings.Contains(s, ",") && len(s) > 3 {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: angles %q: %v", command.ErrInvalidArgument, s, err)
		}
		return b, nil
	}

	parts := strings.Split(s, ",")
	out := make([]byte, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "-" || p == "" {
			out[i] = command.ServoKeep
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 180 {
			return nil, fmt.Errorf("%w: servo %d angle %q not in 0..180", command.ErrInvalidArgument, i+1, p)
		}
		out[i] = byte(n)
	}
	return out, nil
}

func (c *Commands) cmdLED(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usage(fmt.Sprintf("led <%s> <%s> <%s>",
			strings.Join(command.LEDTypes, "|"),
			strings.Join(command.LEDColors, "|"),
			strings.Join(command.LEDModes, "|")))
	}
	return c.robot.SetLED(ctx, args[0], args[1], args[2])
}

func (c *Commands) cmdVolume(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("volume <0-100>")
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: volume %q", command.ErrInvalidArgument, args[0])
	}
	return c.robot.SetVolume(ctx, v)
}

func (c *Commands) cmdSensor(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("sensor <gyro|environment|ultrasonic|infrared|touch|...>")
	}
	reading, err := c.robot.ReadSensor(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %s\n", args[0], reading)
	return nil
}

func (c *Commands) cmdSensorAt(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("sensor-at <type> <address>")
	}
	addr, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: address %q", command.ErrInvalidArgument, args[1])
	}
	reading, err := c.robot.ReadSensorAt(ctx, args[0], addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s@%d: %s\n", args[0], addr, reading)
	return nil
}

func (c *Commands) cmdQuery(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("query <" + strings.Join(command.StatusKinds, "|") + ">")
	}
	v, err := c.robot.Status(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %s\n", args[0], v)
	return nil
}

func (c *Commands) cmdMusic(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("music <" + strings.Join(command.MusicModes, "|") + "> [name]")
	}
	name := ""
	if len(args) == 2 {
		name = args[1]
	}
	return c.robot.PlayMusic(ctx, args[0], name)
}

func (c *Commands) cmdMusicList(ctx context.Context, args []string) error {
	index := 0
	if len(args) > 0 {
		var err error
		if index, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("%w: index %q", command.ErrInvalidArgument, args[0])
		}
	}
	names, err := c.robot.MusicList(ctx, index)
	if err != nil {
		return err
	}
	for i, n := range names {
		fmt.Fprintf(c.out, "%3d  %s\n", index+i, n)
	}
	return nil
}

func (c *Commands) cmdPhoto(ctx context.Context, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	saved, err := c.robot.TakePhoto(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "photo saved as %s\n", saved)
	return nil
}

// waitArg parses an optional wait in seconds.
func waitArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return command.DefaultDetectWait, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: wait %q", command.ErrInvalidArgument, args[i])
	}
	return n, nil
}

func (c *Commands) cmdDetect(ctx context.Context, args []string,
	detect func(context.Context, string, int) (string, bool, error)) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("detect|event <type> [seconds]")
	}
	wait, err := waitArg(args, 1)
	if err != nil {
		return err
	}
	v, found, err := detect(ctx, args[0], wait)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(c.out, "no %s detected\n", args[0])
		return nil
	}
	fmt.Fprintf(c.out, "%s detected: %s\n", args[0], v)
	return nil
}

func (c *Commands) cmdListen(ctx context.Context, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return usage("listen <on|off>")
	}
	if args[0] == "on" {
		return c.robot.StartListening(ctx)
	}
	return c.robot.StopListening(ctx)
}

func (c *Commands) cmdHear(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("hear <text> [seconds]")
	}
	wait, err := waitArg(args, 1)
	if err != nil {
		return err
	}
	heard, err := c.robot.Hear(ctx, args[0], wait)
	if err != nil {
		return err
	}
	if heard {
		fmt.Fprintf(c.out, "heard %q\n", args[0])
	} else {
		fmt.Fprintf(c.out, "did not hear %q\n", args[0])
	}
	return nil
}

func (c *Commands) cmdPosture(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("posture <" + strings.Join(command.AppPostures, "|") + "> [seconds]")
	}
	wait, err := waitArg(args, 1)
	if err != nil {
		return err
	}
	if err := c.robot.WaitPosture(ctx, args[0], wait); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "posture %s reached\n", args[0])
	return nil
}

func (c *Commands) cmdAction(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("action <name> [repeat]")
	}
	repeat := 1
	if len(args) == 2 {
		var err error
		if repeat, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("%w: repeat %q", command.ErrInvalidArgument, args[1])
		}
	}
	d, err := c.robot.StartAction(ctx, args[0], repeat)
	if err != nil {
		return err
	}
	if d > 0 {
		fmt.Fprintf(c.out, "%s started, runs %s\n", args[0], d)
	} else {
		fmt.Fprintf(c.out, "%s started\n", args[0])
	}
	return nil
}

func (c *Commands) cmdTTS(ctx context.Context, args []string) error {
	interrupt := false
	if len(args) > 0 && args[0] == "-i" {
		interrupt = true
		args = args[1:]
	}
	if len(args) == 0 {
		return usage("tts [-i] <text...>")
	}
	return c.robot.Say(ctx, strings.Join(args, " "), interrupt)
}

func (c *Commands) cmdTransmit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("transmit <data...>")
	}
	out, err := c.robot.Transmit(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, out)
	return nil
}

func (c *Commands) cmdOpcodes() error {
	reg := command.DefaultRegistry()
	for _, op := range reg.Opcodes() {
		codec, _ := reg.Lookup(op)
		fmt.Fprintf(c.out, "  %-14s %s\n", op, kindList(codec.Params()))
	}
	return nil
}
