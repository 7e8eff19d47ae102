package yanshee_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ubtedu/yanshee-go/internal/simulator"
	"github.com/ubtedu/yanshee-go/pkg/command"
	"github.com/ubtedu/yanshee-go/pkg/discovery"
	"github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/robot"
	"github.com/ubtedu/yanshee-go/pkg/session"
	"github.com/ubtedu/yanshee-go/pkg/transport"
)

func startSimulator(t *testing.T, cfg simulator.Config) *simulator.Robot {
	t.Helper()
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = "127.0.0.1:0"
	}
	sim := simulator.New(cfg)
	if err := sim.Start(); err != nil {
		t.Fatalf("Failed to start simulator: %v", err)
	}
	t.Cleanup(func() { _ = sim.Close() })
	return sim
}

func loopbackUDP(port int) transport.UDPConfig {
	udp := transport.DefaultUDPConfig()
	udp.BindAddress = "127.0.0.1"
	udp.RemotePort = port
	return udp
}

func loopbackProber(udp transport.UDPConfig, port int) discovery.Prober {
	return discovery.NewUDPProber(discovery.UDPProberConfig{
		BroadcastConfig: transport.BroadcastConfig{
			UDPConfig: udp,
			Target:    fmt.Sprintf("127.0.0.1:%d", port),
		},
	})
}

// TestE2E_FullLifecycle discovers, connects, runs every built-in opcode and
// disconnects.
func TestE2E_FullLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sim := startSimulator(t, simulator.Config{Name: "Yanshee_8F83", Heard: []string{"hi"}})
	udp := loopbackUDP(sim.Port())

	r, err := robot.Open(ctx, robot.Config{
		Query:     discovery.Query{TargetName: "Yanshee_8F83", MaxAttempts: 3, PerAttemptTimeout: 500 * time.Millisecond},
		Discovery: discovery.Config{Prober: loopbackProber(udp, sim.Port())},
		Opener:    transport.NewUDPOpener(udp),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for _, op := range command.DefaultRegistry().Opcodes() {
		req := command.Request{Opcode: op}
		switch op {
		case command.OpVersionGet:
			req.Args = []command.Arg{command.String("Servo")}
		case command.OpServoWrite:
			req.Args = []command.Arg{command.Bytes([]byte{80, 100}), command.Int(200)}
		case command.OpLEDSet:
			req.Args = []command.Arg{command.String("button"), command.String("white"), command.String("on")}
		case command.OpVolumeSet:
			req.Args = []command.Arg{command.Int(30)}
		case command.OpSensorRead:
			req.Args = []command.Arg{command.String("environment")}
		case command.OpActionStart:
			req.Args = []command.Arg{command.String("reset"), command.Int(1)}
		case command.OpVoiceTTS:
			req.Args = []command.Arg{command.Bool(false), command.String("hi")}
		case command.OpTransmit:
			req.Args = []command.Arg{command.String("echo")}
		case command.OpSensorReadAt:
			req.Args = []command.Arg{command.String("infrared"), command.Int(16)}
		case command.OpStatusGet:
			req.Args = []command.Arg{command.String("percent")}
		case command.OpAppStatus:
			req.Args = []command.Arg{command.String("static"), command.Int(10)}
		case command.OpMusicPlay:
			req.Args = []command.Arg{command.String("play"), command.String("birthday")}
		case command.OpMusicList:
			req.Args = []command.Arg{command.Int(0)}
		case command.OpPhotoTake:
			req.Args = []command.Arg{command.String("")}
		case command.OpVisionDetect:
			req.Args = []command.Arg{command.String("face"), command.Int(10)}
		case command.OpEventDetect:
			req.Args = []command.Arg{command.String("button"), command.Int(10)}
		case command.OpVoiceDetect:
			req.Args = []command.Arg{command.String("hi"), command.Int(10)}
		}

		res, err := r.Execute(ctx, req)
		if err != nil {
			t.Fatalf("%s failed: %v", op, err)
		}
		if !res.OK() {
			t.Fatalf("%s reported failure: %v", op, res.Failure)
		}
	}

	if got := sim.Servos()[:2]; got[0] != 80 || got[1] != 100 {
		t.Errorf("servo angles = %v, want [80 100]", got)
	}
	if sim.Volume() != 30 {
		t.Errorf("volume = %d, want 30", sim.Volume())
	}

	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sim.Clients() != 0 {
		t.Errorf("simulator still has %d clients", sim.Clients())
	}
}

// TestE2E_TwoRobots checks that the named robot is chosen when another
// robot answers first.
func TestE2E_TwoRobots(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	other := startSimulator(t, simulator.Config{Name: "Yanshee_70C2"})
	target := startSimulator(t, simulator.Config{Name: "Yanshee_8F83", Latency: 50 * time.Millisecond})
	udp := loopbackUDP(target.Port())

	prober := discovery.NewMultiProber(
		loopbackProber(udp, other.Port()),
		loopbackProber(udp, target.Port()),
	)

	id, err := discovery.NewDiscoverer(discovery.Config{Prober: prober}).Discover(ctx, discovery.Query{
		TargetName:        "Yanshee_8F83",
		MaxAttempts:       2,
		PerAttemptTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if id.Name != "Yanshee_8F83" {
		t.Fatalf("discovered %s, want Yanshee_8F83", id)
	}

	r, err := robot.Connect(ctx, id, robot.Config{Opener: transport.NewUDPOpener(udp)})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer r.Close(ctx)

	if target.Clients() != 1 || other.Clients() != 0 {
		t.Errorf("clients: target=%d other=%d", target.Clients(), other.Clients())
	}
}

// TestE2E_ProtocolCapture writes a session to a CBOR capture and reads it
// back.
func TestE2E_ProtocolCapture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "capture.ylog")
	fl, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	sim := startSimulator(t, simulator.Config{})
	udp := loopbackUDP(sim.Port())

	r, err := robot.Open(ctx, robot.Config{
		Query:     discovery.Query{TargetName: sim.Name(), MaxAttempts: 1, PerAttemptTimeout: 500 * time.Millisecond},
		Discovery: discovery.Config{Prober: loopbackProber(udp, sim.Port())},
		Opener:    transport.NewUDPOpener(udp),
		Logger:    fl,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := r.ReadServos(ctx); err != nil {
		t.Fatalf("ReadServos failed: %v", err)
	}
	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close log failed: %v", err)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var (
		found      bool
		states     []string
		servoReply bool
		sessionID  string
	)
	for {
		e, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if e.Discovery != nil && e.Discovery.Outcome == log.DiscoveryFound {
			found = true
		}
		if e.StateChange != nil {
			states = append(states, e.StateChange.NewState)
			sessionID = e.SessionID
		}
		if e.Message != nil && e.Message.Opcode == command.OpServoRead && e.Message.RoundTrip != nil {
			servoReply = true
		}
	}

	if !found {
		t.Error("capture has no FOUND discovery event")
	}
	want := []string{"CONNECTING", "CONNECTED", "DISCONNECTED"}
	if fmt.Sprint(states) != fmt.Sprint(want) {
		t.Errorf("states = %v, want %v", states, want)
	}
	if sessionID == "" {
		t.Error("state events carry no session id")
	}
	if !servoReply {
		t.Error("capture has no servo.read reply with round trip time")
	}
}

// TestE2E_SharedRobot runs commands from several goroutines over one
// session.
func TestE2E_SharedRobot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sim := startSimulator(t, simulator.Config{})
	udp := loopbackUDP(sim.Port())
	r, err := robot.Connect(ctx, discovery.Identity{Name: sim.Name(), Address: "127.0.0.1"},
		robot.Config{Opener: transport.NewUDPOpener(udp)})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer r.Close(ctx)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := r.ReadServos(ctx); err != nil {
				errs <- err
			}
			if err := r.SetVolume(ctx, i); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent command failed: %v", err)
	}
}

// TestE2E_RobotGoesAway checks that a vanished robot produces timeouts and
// that the session survives them.
func TestE2E_RobotGoesAway(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sim := startSimulator(t, simulator.Config{})
	udp := loopbackUDP(sim.Port())
	r, err := robot.Connect(ctx, discovery.Identity{Name: sim.Name(), Address: "127.0.0.1"}, robot.Config{
		Opener:  transport.NewUDPOpener(udp),
		Session: session.Config{Timeout: 200 * time.Millisecond},
		Command: command.Config{Timeout: 200 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	_ = sim.Close()

	start := time.Now()
	err = r.SetVolume(ctx, 10)
	if !errors.Is(err, command.ErrTimeout) {
		t.Fatalf("SetVolume error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
	if !r.Session().IsConnected() {
		t.Error("a command timeout must not end the session")
	}

	// Disconnect still completes locally when the robot never answers.
	if err := r.Close(ctx); !errors.Is(err, session.ErrTimeout) {
		t.Errorf("Close error = %v, want ErrTimeout", err)
	}
	if r.Session().IsConnected() {
		t.Error("session still connected after Close")
	}
}

// TestE2E_StreamBridge drives a robot through its TCP bridge instead of
// UDP.
func TestE2E_StreamBridge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sim := startSimulator(t, simulator.Config{BridgeAddress: "127.0.0.1:0"})
	r, err := robot.Connect(ctx, discovery.Identity{Name: sim.Name(), Address: sim.BridgeAddr()},
		robot.Config{Opener: &transport.StreamOpener{}})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := r.WriteServos(ctx, []byte{command.ServoKeep, 120}, 10); err != nil {
		t.Fatalf("WriteServos failed: %v", err)
	}
	angles, err := r.ReadServos(ctx)
	if err != nil {
		t.Fatalf("ReadServos failed: %v", err)
	}
	if angles[0] != simulator.RestAngle || angles[1] != 120 {
		t.Errorf("angles = %v", angles[:2])
	}

	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sim.Clients() != 0 {
		t.Errorf("simulator still has %d clients", sim.Clients())
	}
}
