package simulator_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubtedu/yanshee-go/internal/simulator"
	"github.com/ubtedu/yanshee-go/pkg/transport"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

func startSim(t *testing.T, cfg simulator.Config) *simulator.Robot {
	t.Helper()
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = "127.0.0.1:0"
	}
	sim := simulator.New(cfg)
	require.NoError(t, sim.Start())
	t.Cleanup(func() { _ = sim.Close() })
	return sim
}

// client is a bare UDP socket that talks to the simulator.
type client struct {
	t    *testing.T
	conn *net.UDPConn
	sim  *net.UDPAddr
}

func newClient(t *testing.T, sim *simulator.Robot) *client {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{
		t:    t,
		conn: conn,
		sim:  &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: sim.Port()},
	}
}

func (c *client) send(msg *wire.Message) {
	c.t.Helper()
	msg.Account = wire.DefaultAccount
	msg.Port = c.conn.LocalAddr().(*net.UDPAddr).Port
	data, err := wire.Encode(msg)
	require.NoError(c.t, err)
	_, err = c.conn.WriteToUDP(data, c.sim)
	require.NoError(c.t, err)
}

func (c *client) recv(wait time.Duration) (*wire.Message, error) {
	buf := make([]byte, wire.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	n, _, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}
	return wire.Decode(buf[:n])
}

func (c *client) call(msg *wire.Message) *wire.Message {
	c.t.Helper()
	c.send(msg)
	reply, err := c.recv(2 * time.Second)
	require.NoError(c.t, err)
	require.Equal(c.t, msg.Cmd.Ack(), reply.Cmd)
	return reply
}

func request(cmd wire.Command, typ string, kv ...any) *wire.Message {
	m := wire.NewMessage(cmd)
	m.Type = typ
	for i := 0; i+1 < len(kv); i += 2 {
		_ = m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

func TestDiscoveryAndConnect(t *testing.T) {
	sim := startSim(t, simulator.Config{Name: "Yanshee_70C2", AdvertiseIP: "192.168.1.20"})
	c := newClient(t, sim)

	reply := c.call(wire.NewMessage(wire.CmdDiscovery))
	assert.Equal(t, "Yanshee_70C2", reply.Name)
	assert.Equal(t, "192.168.1.20", reply.IP)

	reply = c.call(wire.NewMessage(wire.CmdConnect))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCSuccess, rc)
	assert.Equal(t, "Yanshee_70C2", reply.Name)
	assert.Equal(t, 1, sim.Clients())

	c.call(wire.NewMessage(wire.CmdDisconnect))
	assert.Equal(t, 0, sim.Clients())
}

func TestHeartbeatHasNoReply(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	c := newClient(t, sim)

	c.send(wire.NewMessage(wire.CmdHeartbeat))
	_, err := c.recv(100 * time.Millisecond)
	assert.Error(t, err)
	assert.Equal(t, 1, sim.Received(wire.CmdHeartbeat))
}

func TestServoReadWrite(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	c := newClient(t, sim)

	reply := c.call(request(wire.CmdServo, wire.TypeServoRead))
	angle, ok := reply.GetString("angle")
	require.True(t, ok)
	assert.Len(t, angle, 34)
	assert.Equal(t, "5A5A", angle[:4])

	reply = c.call(request(wire.CmdServo, wire.TypeServoWrite, "angle", "10FF30", "time", 20))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCSuccess, rc)

	servos := sim.Servos()
	assert.Equal(t, byte(0x10), servos[0])
	assert.Equal(t, byte(simulator.RestAngle), servos[1], "FF keeps the servo")
	assert.Equal(t, byte(0x30), servos[2])

	reply = c.call(request(wire.CmdServo, wire.TypeServoWrite, "angle", "C8", "time", 20))
	rc, _ = reply.Result()
	assert.Equal(t, wire.RCWrongParam, rc, "200 degrees is out of range")
	assert.Equal(t, byte(0x10), sim.Servos()[0])
}

func TestSetCommands(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	c := newClient(t, sim)

	c.call(request(wire.CmdSet, wire.TypeVolume, "volume", 80))
	assert.Equal(t, 80, sim.Volume())

	c.call(request(wire.CmdSet, wire.TypeLED, wire.KeyPara, map[string]string{
		"type": "button", "color": "red", "mode": "breath",
	}))
	led, ok := sim.LED("button")
	require.True(t, ok)
	assert.Equal(t, simulator.LEDState{Color: "red", Mode: "breath"}, led)

	reply := c.call(request(wire.CmdSet, wire.TypeLED, wire.KeyPara, map[string]string{
		"type": "button", "color": "pink", "mode": "on",
	}))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCWrongParam, rc)
}

func TestQueries(t *testing.T) {
	sim := startSim(t, simulator.Config{
		Versions: map[string]string{"Servo": "S1"},
		Sensors:  map[string]any{"gyro": map[string]int{"euler-z": 90}},
	})
	c := newClient(t, sim)

	reply := c.call(request(wire.CmdQuery, wire.TypeVersion, wire.KeyPara, "Servo"))
	assert.Equal(t, "S1", reply.Version)

	reply = c.call(request(wire.CmdQuery, wire.TypeVersion, wire.KeyPara, "Camera"))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCNotFound, rc)

	reply = c.call(request(wire.CmdQuery, wire.TypeSensor, wire.KeyPara, "gyro"))
	raw, ok := reply.Raw("gyro")
	require.True(t, ok)
	assert.JSONEq(t, `{"euler-z":90}`, string(raw))
}

func TestActionsAndVoice(t *testing.T) {
	sim := startSim(t, simulator.Config{Actions: map[string]time.Duration{"wave": 1500 * time.Millisecond}})
	c := newClient(t, sim)

	reply := c.call(request(wire.CmdAction, wire.TypeStart, wire.KeyPara, map[string]any{"name": "wave", "repeat": 2}))
	var total int
	require.NoError(t, reply.Get("total_time", &total))
	assert.Equal(t, 3000, total)
	assert.Equal(t, "wave", sim.Action())

	c.call(request(wire.CmdAction, wire.TypeStop))
	assert.Empty(t, sim.Action())

	reply = c.call(request(wire.CmdAction, wire.TypeStart, wire.KeyPara, map[string]any{"name": "dance", "repeat": 1}))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCNotFound, rc)

	c.call(request(wire.CmdVoice, wire.TypeTTS, "is_interrupted", 0, wire.KeyData, "hello"))
	assert.Equal(t, []string{"hello"}, sim.Spoken())

	reply = c.call(request(wire.CmdTransparent, "", wire.KeyData, "ping"))
	data, _ := reply.GetString(wire.KeyData)
	assert.Equal(t, "ping", data)
}

func TestStatusQueries(t *testing.T) {
	sim := startSim(t, simulator.Config{Battery: map[string]int{"voltage": 7400, "charging": 1, "percent": 55}})
	c := newClient(t, sim)

	reply := c.call(request(wire.CmdQuery, wire.TypeVolume))
	var volume int
	require.NoError(t, reply.Get(wire.TypeVolume, &volume))
	assert.Equal(t, sim.Volume(), volume)

	reply = c.call(request(wire.CmdQuery, wire.TypePlay))
	state, _ := reply.GetString(wire.TypePlay)
	assert.Equal(t, "idle", state)

	reply = c.call(request(wire.CmdQuery, wire.TypeBattery, wire.KeyPara, "percent"))
	raw, ok := reply.Raw(wire.TypeBattery)
	require.True(t, ok)
	assert.JSONEq(t, `{"voltage":7400,"charging":1,"percent":55}`, string(raw))

	reply = c.call(request(wire.CmdQuery, wire.TypeBattery, wire.KeyPara, "current"))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCWrongParam, rc)
}

func TestSensorByAddress(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	c := newClient(t, sim)

	reply := c.call(request(wire.CmdQuery, wire.TypeSensor, wire.KeyPara, "infrared", "id", 17))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCSuccess, rc)
	_, ok := reply.Raw("infrared")
	assert.True(t, ok)

	reply = c.call(request(wire.CmdQuery, wire.TypeSensor, wire.KeyPara, "infrared", "id", 3))
	rc, _ = reply.Result()
	assert.Equal(t, wire.RCNotFound, rc)
}

func TestMusicAndPhoto(t *testing.T) {
	sim := startSim(t, simulator.Config{Music: []string{"a", "b"}})
	c := newClient(t, sim)

	c.call(request(wire.CmdMusic, "play", wire.KeyName, "b"))
	playing, paused := sim.Music()
	assert.Equal(t, "b", playing)
	assert.False(t, paused)

	c.call(request(wire.CmdMusic, "Pause", wire.KeyName, ""))
	_, paused = sim.Music()
	assert.True(t, paused)

	c.call(request(wire.CmdMusic, wire.TypeStop, wire.KeyName, ""))
	playing, _ = sim.Music()
	assert.Empty(t, playing)

	reply := c.call(request(wire.CmdMusic, "play", wire.KeyName, "zz"))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCNotFound, rc)

	reply = c.call(request(wire.CmdMusic, wire.TypeGetList, "index", 1))
	var list []string
	require.NoError(t, reply.Get("list", &list))
	assert.Equal(t, []string{"b"}, list)

	reply = c.call(request(wire.CmdTakePhoto, wire.TypeTransmit))
	name, _ := reply.GetString(wire.KeyName)
	assert.Equal(t, "photo1", name)
	c.call(request(wire.CmdTakePhoto, wire.TypeTransmit, wire.KeyName, "desk"))
	assert.Equal(t, []string{"photo1", "desk"}, sim.Photos())
}

func TestDetections(t *testing.T) {
	sim := startSim(t, simulator.Config{
		Detections: map[string]string{"face": "2"},
		Heard:      []string{"hello"},
	})
	c := newClient(t, sim)

	reply := c.call(request(wire.CmdVision, "face", "time_out", 10))
	data, _ := reply.GetString(wire.KeyData)
	assert.Equal(t, "2", data)

	reply = c.call(request(wire.CmdEvent, "button"))
	data, _ = reply.GetString(wire.KeyData)
	assert.Equal(t, "0", data, "unlisted types detect nothing")

	c.call(request(wire.CmdVoice, wire.TypeRecognitionStart))
	assert.True(t, sim.Listening())
	c.call(request(wire.CmdVoice, wire.TypeRecognitionStop))
	assert.False(t, sim.Listening())

	reply = c.call(request(wire.CmdVoice, wire.TypeDetecting, wire.KeyData, "hello"))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCSuccess, rc)
	reply = c.call(request(wire.CmdVoice, wire.TypeDetecting, wire.KeyData, "goodbye"))
	rc, _ = reply.Result()
	assert.Equal(t, wire.RCFailed, rc)

	reply = c.call(request(wire.CmdQueryApp, wire.TypeStatus, wire.KeyData, "static"))
	rc, _ = reply.Result()
	assert.Equal(t, wire.RCSuccess, rc)
	sim.SetPosture("swaying")
	reply = c.call(request(wire.CmdQueryApp, wire.TypeStatus, wire.KeyData, "static"))
	rc, _ = reply.Result()
	assert.Equal(t, wire.RCFailed, rc)
}

func TestMute(t *testing.T) {
	sim := startSim(t, simulator.Config{Mute: []wire.Command{wire.CmdConnect}})
	c := newClient(t, sim)

	c.send(wire.NewMessage(wire.CmdConnect))
	_, err := c.recv(100 * time.Millisecond)
	assert.Error(t, err)

	sim.Mute(wire.CmdConnect, false)
	c.call(wire.NewMessage(wire.CmdConnect))
	assert.Equal(t, 2, sim.Received(wire.CmdConnect))
}

func TestUnsupportedCommand(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	c := newClient(t, sim)

	reply := c.call(wire.NewMessage(wire.CmdSwarm))
	rc, text := reply.Result()
	assert.Equal(t, wire.RCFailed, rc)
	assert.Equal(t, "unsupported", text)
}

func TestStartTwice(t *testing.T) {
	sim := startSim(t, simulator.Config{})
	assert.ErrorIs(t, sim.Start(), simulator.ErrAlreadyStarted)
	assert.NoError(t, sim.Close())
	assert.NoError(t, sim.Close())
}

func TestBridge(t *testing.T) {
	sim := startSim(t, simulator.Config{BridgeAddress: "127.0.0.1:0"})
	require.NotEmpty(t, sim.BridgeAddr())

	tr, err := (&transport.StreamOpener{}).Open(context.Background(), sim.BridgeAddr())
	require.NoError(t, err)
	defer tr.Close()

	exchange := func(msg *wire.Message) *wire.Message {
		msg.Account = wire.DefaultAccount
		data, err := wire.Encode(msg)
		require.NoError(t, err)
		require.NoError(t, tr.Send(data))
		raw, err := tr.Receive(2 * time.Second)
		require.NoError(t, err)
		reply, err := wire.Decode(raw)
		require.NoError(t, err)
		return reply
	}

	exchange(wire.NewMessage(wire.CmdConnect))
	assert.Equal(t, 1, sim.Clients())

	reply := exchange(request(wire.CmdSet, wire.TypeVolume, "volume", 15))
	rc, _ := reply.Result()
	assert.Equal(t, wire.RCSuccess, rc)
	assert.Equal(t, 15, sim.Volume())
}
