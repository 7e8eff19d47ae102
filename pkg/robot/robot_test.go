package robot_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubtedu/yanshee-go/internal/simulator"
	"github.com/ubtedu/yanshee-go/pkg/command"
	"github.com/ubtedu/yanshee-go/pkg/discovery"
	"github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/robot"
	"github.com/ubtedu/yanshee-go/pkg/session"
	"github.com/ubtedu/yanshee-go/pkg/transport"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]log.Event(nil), r.events...)
}

func startSim(t *testing.T, cfg simulator.Config) *simulator.Robot {
	t.Helper()
	cfg.ListenAddress = "127.0.0.1:0"
	sim := simulator.New(cfg)
	require.NoError(t, sim.Start())
	t.Cleanup(func() { _ = sim.Close() })
	return sim
}

// loopbackConfig points discovery and the command transport at sim.
func loopbackConfig(sim *simulator.Robot, target string) robot.Config {
	udp := transport.DefaultUDPConfig()
	udp.BindAddress = "127.0.0.1"
	udp.RemotePort = sim.Port()

	return robot.Config{
		Query: discovery.Query{
			TargetName:        target,
			MaxAttempts:       2,
			PerAttemptTimeout: 300 * time.Millisecond,
		},
		Discovery: discovery.Config{
			Prober: discovery.NewUDPProber(discovery.UDPProberConfig{
				BroadcastConfig: transport.BroadcastConfig{
					UDPConfig: udp,
					Target:    fmt.Sprintf("127.0.0.1:%d", sim.Port()),
				},
			}),
		},
		Opener:  transport.NewUDPOpener(udp),
		Session: session.Config{Timeout: time.Second},
		Command: command.Config{Timeout: time.Second},
	}
}

func openRobot(t *testing.T, sim *simulator.Robot) *robot.Robot {
	t.Helper()
	r, err := robot.Open(context.Background(), loopbackConfig(sim, sim.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func TestOpenDiscoversAndConnects(t *testing.T) {
	sim := startSim(t, simulator.Config{Name: "Yanshee_8F83"})
	r := openRobot(t, sim)

	assert.Equal(t, discovery.Identity{Name: "Yanshee_8F83", Address: "127.0.0.1"}, r.Identity())
	assert.True(t, r.Session().IsConnected())
	assert.Equal(t, 1, sim.Clients())

	require.NoError(t, r.Close(context.Background()))
	assert.False(t, r.Session().IsConnected())
	assert.Equal(t, 0, sim.Clients())
	assert.NoError(t, r.Close(context.Background()))
}

func TestOpenWrongName(t *testing.T) {
	sim := startSim(t, simulator.Config{Name: "Yanshee_70C2"})

	_, err := robot.Open(context.Background(), loopbackConfig(sim, "Yanshee_8F83"))
	assert.ErrorIs(t, err, discovery.ErrNotFound)
	assert.Equal(t, 0, sim.Clients())
}

func TestOpenConnectRefusedByMute(t *testing.T) {
	sim := startSim(t, simulator.Config{Mute: []wire.Command{wire.CmdConnect}})

	cfg := loopbackConfig(sim, sim.Name())
	cfg.Session.Timeout = 200 * time.Millisecond
	_, err := robot.Open(context.Background(), cfg)
	assert.ErrorIs(t, err, session.ErrConnection)
}

func TestTypedHelpers(t *testing.T) {
	sim := startSim(t, simulator.Config{
		Versions: map[string]string{"CoreBoard": "CORE_v2"},
		Actions:  map[string]time.Duration{"raise": 2 * time.Second},
	})
	r := openRobot(t, sim)
	ctx := context.Background()

	v, err := r.Version(ctx, "CoreBoard")
	require.NoError(t, err)
	assert.Equal(t, "CORE_v2", v)

	require.NoError(t, r.WriteServos(ctx, []byte{90, command.ServoKeep, 45, 0}, 20))
	angles, err := r.ReadServos(ctx)
	require.NoError(t, err)
	require.Len(t, angles, command.ServoCount)
	assert.Equal(t, []byte{90, simulator.RestAngle, 45, simulator.RestAngle}, angles[:4])

	err = r.WriteServos(ctx, []byte{200}, 20)
	assert.ErrorIs(t, err, command.ErrInvalidArgument)

	require.NoError(t, r.SetLED(ctx, "camera", "blue", "on"))
	led, _ := sim.LED("camera")
	assert.Equal(t, "blue", led.Color)

	require.NoError(t, r.SetVolume(ctx, 20))
	assert.Equal(t, 20, sim.Volume())

	reading, err := r.ReadSensor(ctx, "ultrasonic")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":300}`, string(reading))

	d, err := r.StartAction(ctx, "raise", 2)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, d)
	require.NoError(t, r.StopAction(ctx))

	require.NoError(t, r.Say(ctx, "hello", true))
	assert.Equal(t, []string{"hello"}, sim.Spoken())

	out, err := r.Transmit(ctx, "ping")
	require.NoError(t, err)
	assert.Equal(t, "ping", out)

	require.NoError(t, r.Heartbeat(ctx))
}

func TestStatusMusicAndPhoto(t *testing.T) {
	sim := startSim(t, simulator.Config{Music: []string{"birthday", "jingle"}})
	r := openRobot(t, sim)
	ctx := context.Background()

	vol, err := r.Status(ctx, "volume")
	require.NoError(t, err)
	assert.Equal(t, "50", string(vol))

	battery, err := r.Status(ctx, "percent")
	require.NoError(t, err)
	assert.Contains(t, string(battery), `"percent":86`)

	names, err := r.MusicList(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"birthday", "jingle"}, names)

	require.NoError(t, r.PlayMusic(ctx, "play", "jingle"))
	playing, _ := sim.Music()
	assert.Equal(t, "jingle", playing)
	assert.ErrorIs(t, r.PlayMusic(ctx, "play", "anthem"), command.ErrVendorFailure)

	name, err := r.TakePhoto(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "photo1", name)

	reading, err := r.ReadSensorAt(ctx, "infrared", 16)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":0}`, string(reading))
}

func TestDetectHelpers(t *testing.T) {
	sim := startSim(t, simulator.Config{
		Detections: map[string]string{"face": "1"},
		Heard:      []string{"hello yanshee"},
	})
	r := openRobot(t, sim)
	ctx := context.Background()

	v, found, err := r.DetectVision(ctx, "face", 10)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", v)

	_, found, err = r.DetectEvent(ctx, "button", 10)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.StartListening(ctx))
	assert.True(t, sim.Listening())
	heard, err := r.Hear(ctx, "hello yanshee", 10)
	require.NoError(t, err)
	assert.True(t, heard)
	heard, err = r.Hear(ctx, "goodbye", 10)
	require.NoError(t, err)
	assert.False(t, heard)
	require.NoError(t, r.StopListening(ctx))

	require.NoError(t, r.WaitPosture(ctx, "static", 10))
	sim.SetPosture("slant_left")
	assert.ErrorIs(t, r.WaitPosture(ctx, "static", 10), command.ErrVendorFailure)
}

func TestVendorFailureIsError(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	r := openRobot(t, sim)

	_, err := r.StartAction(context.Background(), "moonwalk", 1)
	assert.ErrorIs(t, err, command.ErrVendorFailure)

	var f *command.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, wire.RCNotFound, f.Code)
	assert.True(t, r.Session().IsConnected(), "a vendor failure keeps the session")
}

func TestCommandTimeoutKeepsSession(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	cfg := loopbackConfig(sim, sim.Name())
	cfg.Command.Timeout = 100 * time.Millisecond
	r, err := robot.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer r.Close(context.Background())

	sim.Mute(wire.CmdSet, true)
	err = r.SetVolume(context.Background(), 10)
	assert.ErrorIs(t, err, command.ErrTimeout)
	assert.True(t, r.Session().IsConnected())

	sim.Mute(wire.CmdSet, false)
	assert.NoError(t, r.SetVolume(context.Background(), 10))
}

func TestExecuteAfterClose(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	r := openRobot(t, sim)
	require.NoError(t, r.Close(context.Background()))

	before := sim.Received(wire.CmdSet)
	err := r.SetVolume(context.Background(), 10)
	assert.ErrorIs(t, err, command.ErrInvalidState)
	assert.Equal(t, before, sim.Received(wire.CmdSet))
}

func TestLoggerSeesAllLayers(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	rec := &recorder{}

	cfg := loopbackConfig(sim, sim.Name())
	cfg.Logger = rec
	r, err := robot.Open(context.Background(), cfg)
	require.NoError(t, err)
	_, err = r.Version(context.Background(), "Servo")
	require.NoError(t, err)
	require.NoError(t, r.Close(context.Background()))

	layers := map[log.Layer]bool{}
	var opcodeSeen bool
	for _, e := range rec.all() {
		layers[e.Layer] = true
		if e.Message != nil && e.Message.Opcode == command.OpVersionGet {
			opcodeSeen = true
		}
	}
	assert.True(t, layers[log.LayerDiscovery])
	assert.True(t, layers[log.LayerSession])
	assert.True(t, opcodeSeen)
}
