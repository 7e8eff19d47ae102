// Package robot is the one-stop client for a single robot: it discovers
// the robot by name, connects, and offers typed helpers over the opcode
// registry. Calls on a Robot are serialized, so one Robot may be shared
// by several goroutines.
package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/command"
	"github.com/ubtedu/yanshee-go/pkg/discovery"
	"github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/session"
	"github.com/ubtedu/yanshee-go/pkg/transport"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// Config configures Open.
type Config struct {
	// Query selects the robot to find.
	Query discovery.Query

	// Discovery configures the prober and round backoff
	// (default: UDP broadcast, no backoff).
	Discovery discovery.Config

	// Opener opens the command transport (default: UDP to port 20001).
	Opener transport.Opener

	// Credentials name the client (default: "sdk", "1").
	Credentials session.Credentials

	// Session configures the connection.
	Session session.Config

	// Command configures opcode execution.
	Command command.Config

	// Logger receives protocol events from every layer (optional).
	Logger log.Logger
}

// Robot is a connected robot.
type Robot struct {
	mu      sync.Mutex
	session *session.Session
	client  *command.Client
}

// Open discovers the robot named in cfg.Query and connects to it.
func Open(ctx context.Context, cfg Config) (*Robot, error) {
	dcfg := cfg.Discovery
	if dcfg.Logger == nil {
		dcfg.Logger = cfg.Logger
	}

	id, err := discovery.NewDiscoverer(dcfg).Discover(ctx, cfg.Query)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, id, cfg)
}

// Connect connects to an already discovered robot.
func Connect(ctx context.Context, id discovery.Identity, cfg Config) (*Robot, error) {
	opener := cfg.Opener
	if opener == nil {
		opener = transport.NewUDPOpener(transport.DefaultUDPConfig())
	}
	scfg := cfg.Session
	if scfg.Logger == nil {
		scfg.Logger = cfg.Logger
	}

	sess, err := session.Connect(ctx, opener, id, cfg.Credentials, scfg)
	if err != nil {
		return nil, err
	}
	return New(sess, command.NewClient(cfg.Command)), nil
}

// New wraps an existing session.
func New(sess *session.Session, client *command.Client) *Robot {
	return &Robot{session: sess, client: client}
}

// Identity returns the connected robot's identity.
func (r *Robot) Identity() discovery.Identity {
	return r.session.Identity()
}

// Session returns the underlying session.
func (r *Robot) Session() *session.Session {
	return r.session
}

// Execute runs a raw request.
func (r *Robot) Execute(ctx context.Context, req command.Request) (command.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Execute(ctx, r.session, req)
}

// Heartbeat sends one heartbeat.
func (r *Robot) Heartbeat(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Heartbeat(ctx)
}

// Close disconnects. It is safe to call more than once.
func (r *Robot) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Disconnect(ctx)
}

// call executes an opcode and turns vendor failures into errors.
func (r *Robot) call(ctx context.Context, opcode string, args ...command.Arg) ([]byte, error) {
	res, err := r.Execute(ctx, command.Request{Opcode: opcode, Args: args})
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", opcode, err)
	}
	return res.Payload, nil
}

// Version returns the software version of a component such as "Servo"
// or "CoreBoard".
func (r *Robot) Version(ctx context.Context, component string) (string, error) {
	p, err := r.call(ctx, command.OpVersionGet, command.String(component))
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadServos returns the angle of every servo, servo 1 first.
func (r *Robot) ReadServos(ctx context.Context) ([]byte, error) {
	return r.call(ctx, command.OpServoRead)
}

// WriteServos moves servos to angles. angles[i] drives servo i+1; 0 or
// command.ServoKeep leaves a servo unchanged. runTime is passed to the
// robot as is: smaller values move faster.
func (r *Robot) WriteServos(ctx context.Context, angles []byte, runTime int) error {
	_, err := r.call(ctx, command.OpServoWrite, command.Bytes(angles), command.Int(runTime))
	return err
}

// SetLED sets an LED group's color and mode.
func (r *Robot) SetLED(ctx context.Context, led, color, mode string) error {
	_, err := r.call(ctx, command.OpLEDSet, command.String(led), command.String(color), command.String(mode))
	return err
}

// SetVolume sets the speaker volume (0..100).
func (r *Robot) SetVolume(ctx context.Context, volume int) error {
	_, err := r.call(ctx, command.OpVolumeSet, command.Int(volume))
	return err
}

// ReadSensor returns the raw JSON reading of a sensor type such as "gyro".
func (r *Robot) ReadSensor(ctx context.Context, sensor string) (json.RawMessage, error) {
	p, err := r.call(ctx, command.OpSensorRead, command.String(sensor))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(p), nil
}

// ReadSensorAt reads the sensor of the given type at a bus address, for
// robots with several sensors of one type.
func (r *Robot) ReadSensorAt(ctx context.Context, sensor string, addr int) (json.RawMessage, error) {
	p, err := r.call(ctx, command.OpSensorReadAt, command.String(sensor), command.Int(addr))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(p), nil
}

// Status returns one of command.StatusKinds as raw JSON: the play state
// string, the volume, or the battery object.
func (r *Robot) Status(ctx context.Context, kind string) (json.RawMessage, error) {
	p, err := r.call(ctx, command.OpStatusGet, command.String(kind))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(p), nil
}

// WaitPosture waits up to wait seconds for the phone app to report the
// robot in posture. A posture that is not reached is a vendor failure.
func (r *Robot) WaitPosture(ctx context.Context, posture string, wait int) error {
	_, err := r.call(ctx, command.OpAppStatus, command.String(posture), command.Int(wait))
	return err
}

// PlayMusic plays, pauses or stops a stored music file.
func (r *Robot) PlayMusic(ctx context.Context, mode, name string) error {
	_, err := r.call(ctx, command.OpMusicPlay, command.String(mode), command.String(name))
	return err
}

// MusicList returns the stored music files starting at index.
func (r *Robot) MusicList(ctx context.Context, index int) ([]string, error) {
	p, err := r.call(ctx, command.OpMusicList, command.Int(index))
	if err != nil || len(p) == 0 {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(p, &names); err != nil {
		return nil, fmt.Errorf("%w: music list: %v", command.ErrProtocol, err)
	}
	return names, nil
}

// TakePhoto takes a photo stored on the robot and returns its name.
// An empty name lets the robot pick one.
func (r *Robot) TakePhoto(ctx context.Context, name string) (string, error) {
	p, err := r.call(ctx, command.OpPhotoTake, command.String(name))
	return string(p), err
}

// DetectVision waits up to wait seconds for a face or hand and returns
// what the robot reports. found is false when nothing was seen.
func (r *Robot) DetectVision(ctx context.Context, kind string, wait int) (value string, found bool, err error) {
	return r.detect(ctx, command.OpVisionDetect, kind, wait)
}

// DetectEvent waits up to wait seconds for an event such as "button".
func (r *Robot) DetectEvent(ctx context.Context, kind string, wait int) (value string, found bool, err error) {
	return r.detect(ctx, command.OpEventDetect, kind, wait)
}

func (r *Robot) detect(ctx context.Context, opcode, kind string, wait int) (string, bool, error) {
	p, err := r.call(ctx, opcode, command.String(kind), command.Int(wait))
	if err != nil {
		return "", false, err
	}
	v := string(p)
	return v, v != command.NotDetected, nil
}

// StartListening starts voice recognition.
func (r *Robot) StartListening(ctx context.Context) error {
	_, err := r.call(ctx, command.OpVoiceStart)
	return err
}

// StopListening stops voice recognition.
func (r *Robot) StopListening(ctx context.Context) error {
	_, err := r.call(ctx, command.OpVoiceStop)
	return err
}

// Hear waits up to wait seconds for text to be recognized. It reports
// false when the robot heard something else or nothing.
func (r *Robot) Hear(ctx context.Context, text string, wait int) (bool, error) {
	res, err := r.Execute(ctx, command.Request{
		Opcode: command.OpVoiceDetect,
		Args:   []command.Arg{command.String(text), command.Int(wait)},
	})
	if err != nil {
		return false, err
	}
	if res.Failure != nil {
		if res.Failure.Code == wire.RCFailed {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", command.OpVoiceDetect, res.Failure)
	}
	return true, nil
}

// StartAction plays a stored motion and returns its total run time, or
// zero when the robot does not report one.
func (r *Robot) StartAction(ctx context.Context, name string, repeat int) (time.Duration, error) {
	p, err := r.call(ctx, command.OpActionStart, command.String(name), command.Int(repeat))
	if err != nil || len(p) == 0 {
		return 0, err
	}
	ms, err := strconv.Atoi(string(p))
	if err != nil {
		return 0, fmt.Errorf("%w: total_time %q", command.ErrProtocol, p)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// StopAction stops the running motion.
func (r *Robot) StopAction(ctx context.Context) error {
	_, err := r.call(ctx, command.OpActionStop)
	return err
}

// Say speaks text. With interrupt set the current utterance is cut off.
func (r *Robot) Say(ctx context.Context, text string, interrupt bool) error {
	_, err := r.call(ctx, command.OpVoiceTTS, command.Bool(interrupt), command.String(text))
	return err
}

// Transmit passes a raw command through to the robot and returns its answer.
func (r *Robot) Transmit(ctx context.Context, cmd string) (string, error) {
	p, err := r.call(ctx, command.OpTransmit, command.String(cmd))
	return string(p), err
}
