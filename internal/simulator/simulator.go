// Package simulator provides a fake robot that speaks the vendor UDP
// protocol. It answers discovery probes, connect and disconnect, and every
// built-in opcode, keeping just enough state for clients to observe the
// effect of their commands.
//
// A simulator can also accept the same messages as length-prefixed frames
// on a TCP bridge listener, for clients using transport.StreamOpener.
package simulator

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/command"
	"github.com/ubtedu/yanshee-go/pkg/discovery"
	"github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/transport"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// Defaults.
const (
	DefaultName          = "Yanshee_SIM0"
	DefaultModel         = "yanshee"
	DefaultListenAddress = ":20001"

	// RestAngle is the angle every servo starts at.
	RestAngle = 0x5A
)

// ErrAlreadyStarted is returned by Start on a running simulator.
var ErrAlreadyStarted = errors.New("simulator already started")

// Config configures a Robot.
type Config struct {
	// Name is the advertised robot name (default: Yanshee_SIM0).
	Name string `yaml:"name"`

	// Model is reported in the mDNS TXT record (default: yanshee).
	Model string `yaml:"model"`

	// ListenAddress is the UDP address to serve on (default: ":20001").
	ListenAddress string `yaml:"listen"`

	// AdvertiseIP is put in discovery replies. Empty leaves it out, and
	// clients fall back to the reply's source address.
	AdvertiseIP string `yaml:"advertise_ip"`

	// BridgeAddress, if set, also serves length-prefixed frames over TCP.
	BridgeAddress string `yaml:"bridge"`

	// MDNS, if set, also advertises the robot over DNS-SD.
	MDNS *discovery.MDNSConfig `yaml:"mdns"`

	// Versions maps component names to version strings.
	Versions map[string]string `yaml:"versions"`

	// Sensors maps sensor types to the reading returned for them.
	Sensors map[string]any `yaml:"sensors"`

	// Actions maps stored motion names to their run time.
	Actions map[string]time.Duration `yaml:"actions"`

	// SensorAddresses lists the bus addresses of each sensor type. Types
	// not listed answer on any address.
	SensorAddresses map[string][]int `yaml:"sensor_addresses"`

	// Battery holds the voltage, charging and percent readings.
	Battery map[string]int `yaml:"battery"`

	// Music lists the stored music files.
	Music []string `yaml:"music"`

	// Detections maps vision and event types to the value reported for
	// them. Unlisted types report "0", nothing detected.
	Detections map[string]string `yaml:"detections"`

	// Heard lists the phrases voice detection recognizes.
	Heard []string `yaml:"heard"`

	// Latency delays every reply.
	Latency time.Duration `yaml:"latency"`

	// Mute lists commands the robot silently drops.
	Mute []wire.Command `yaml:"mute"`

	// Logger receives a wire event for every datagram (optional).
	Logger log.Logger `yaml:"-"`
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if c.Versions == nil {
		c.Versions = map[string]string{
			"CoreBoard": "CORE_v1.3.18",
			"Servo":     "SERVO_v3.2",
			"SN":        "YS2024SIM0001",
		}
	}
	if c.Sensors == nil {
		c.Sensors = map[string]any{
			"gyro":        map[string]float64{"gyro-x": 0.01, "gyro-y": -0.02, "gyro-z": 0, "euler-x": 0, "euler-y": 0, "euler-z": 90},
			"environment": map[string]int{"temperature": 24, "humidity": 41, "pressure": 1013},
			"ultrasonic":  map[string]int{"value": 300},
			"infrared":    map[string]int{"value": 0},
			"touch":       map[string]int{"value": 0},
		}
	}
	if c.SensorAddresses == nil {
		c.SensorAddresses = map[string][]int{"infrared": {16, 17, 18}}
	}
	if c.Battery == nil {
		c.Battery = map[string]int{"voltage": 7800, "charging": 0, "percent": 86}
	}
	if c.Music == nil {
		c.Music = []string{"birthday", "dance", "jingle"}
	}
	if c.Detections == nil {
		c.Detections = map[string]string{"face": "1", "button": "1"}
	}
	if c.Actions == nil {
		c.Actions = map[string]time.Duration{
			"raise": 2 * time.Second,
			"reset": time.Second,
			"wave":  3 * time.Second,
		}
	}
	return c
}

// LEDState is the last setting applied to an LED group.
type LEDState struct {
	Color string
	Mode  string
}

// Robot is a simulated robot.
type Robot struct {
	config Config
	logger log.Logger

	mu      sync.Mutex
	conn    *net.UDPConn
	mute    map[wire.Command]bool
	servos  [command.ServoCount]byte
	volume  int
	leds    map[string]LEDState
	action  string
	spoken  []string
	clients map[string]bool
	counts  map[wire.Command]int

	posture   string
	music     string
	paused    bool
	photos    []string
	listening bool

	bridge      net.Listener
	bridgeConns map[*transport.StreamTransport]bool
	closing     bool

	advertiser *discovery.MDNSAdvertiser
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// New creates a simulator. Call Start to begin serving.
func New(cfg Config) *Robot {
	cfg = cfg.withDefaults()
	r := &Robot{
		config:  cfg,
		logger:  log.Or(cfg.Logger),
		mute:    make(map[wire.Command]bool),
		volume:  50,
		posture: "static",
		leds:    make(map[string]LEDState),
		clients: make(map[string]bool),
		counts:  make(map[wire.Command]int),

		bridgeConns: make(map[*transport.StreamTransport]bool),
	}
	for i := range r.servos {
		r.servos[i] = RestAngle
	}
	for _, c := range cfg.Mute {
		r.mute[c] = true
	}
	return r
}

// Start binds the listen address and serves until Close.
func (r *Robot) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return ErrAlreadyStarted
	}

	addr, err := net.ResolveUDPAddr("udp4", r.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", r.config.ListenAddress, err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("listen %q: %w", r.config.ListenAddress, err)
	}
	r.conn = conn

	if r.config.BridgeAddress != "" {
		ln, err := net.Listen("tcp", r.config.BridgeAddress)
		if err != nil {
			conn.Close()
			r.conn = nil
			return fmt.Errorf("listen bridge %q: %w", r.config.BridgeAddress, err)
		}
		r.bridge = ln
	}

	if r.config.MDNS != nil {
		r.advertiser = discovery.NewMDNSAdvertiser(*r.config.MDNS)
		err := r.advertiser.Advertise(&discovery.RobotInfo{
			Name:    r.config.Name,
			Model:   r.config.Model,
			SDK:     wire.SDKVersion,
			UDPPort: conn.LocalAddr().(*net.UDPAddr).Port,
		})
		if err != nil {
			conn.Close()
			r.conn = nil
			if r.bridge != nil {
				r.bridge.Close()
				r.bridge = nil
			}
			return fmt.Errorf("advertise: %w", err)
		}
	}

	r.wg.Add(1)
	go r.serve(conn)
	if r.bridge != nil {
		r.wg.Add(1)
		go r.serveBridge(r.bridge)
	}
	return nil
}

// Close stops serving and withdraws the mDNS advertisement.
func (r *Robot) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closing = true
		conn, adv, bridge := r.conn, r.advertiser, r.bridge
		streams := make([]*transport.StreamTransport, 0, len(r.bridgeConns))
		for st := range r.bridgeConns {
			streams = append(streams, st)
		}
		r.mu.Unlock()

		if adv != nil {
			adv.Stop()
		}
		if bridge != nil {
			bridge.Close()
		}
		for _, st := range streams {
			st.Close()
		}
		if conn != nil {
			err = conn.Close()
		}
		r.wg.Wait()
	})
	return err
}

// Name returns the advertised name.
func (r *Robot) Name() string {
	return r.config.Name
}

// Port returns the bound UDP port, or 0 before Start.
func (r *Robot) Port() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return 0
	}
	return r.conn.LocalAddr().(*net.UDPAddr).Port
}

// BridgeAddr returns the bridge listener address, or "" when there is none.
func (r *Robot) BridgeAddr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bridge == nil {
		return ""
	}
	return r.bridge.Addr().String()
}

// Mute makes the robot drop cmd (or answer it again when on is false).
func (r *Robot) Mute(cmd wire.Command, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if on {
		r.mute[cmd] = true
	} else {
		delete(r.mute, cmd)
	}
}

// Servos returns the current servo angles, servo 1 first.
func (r *Robot) Servos() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.servos[:])
}

// Volume returns the speaker volume.
func (r *Robot) Volume() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

// LED returns the state of an LED group.
func (r *Robot) LED(group string) (LEDState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.leds[group]
	return s, ok
}

// Action returns the running motion, if any.
func (r *Robot) Action() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.action
}

// Spoken returns every text passed to TTS.
func (r *Robot) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.spoken)
}

// SetPosture sets the posture reported to app status checks.
func (r *Robot) SetPosture(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posture = p
}

// Music returns the playing music file and whether it is paused.
func (r *Robot) Music() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.music, r.paused
}

// Photos returns the names of the photos taken.
func (r *Robot) Photos() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.photos)
}

// Listening reports whether voice recognition is running.
func (r *Robot) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

// Clients returns the number of connected clients.
func (r *Robot) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Received returns how many cmd datagrams arrived, muted ones included.
func (r *Robot) Received(cmd wire.Command) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[cmd]
}

func (r *Robot) serve(conn *net.UDPConn) {
	defer r.wg.Done()

	buf := make([]byte, transport.MaxMessageSize)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		data := slices.Clone(buf[:n])

		msg, err := wire.Decode(data)
		if err != nil {
			r.logError(from, "decode", err)
			continue
		}
		r.logMessage(from, msg, data, log.DirectionIn)

		reply := r.handle(msg, from.IP.String())
		if reply == nil {
			continue
		}

		out, err := wire.Encode(reply)
		if err != nil {
			r.logError(from, "encode", err)
			continue
		}
		if r.config.Latency > 0 {
			time.Sleep(r.config.Latency)
		}

		dst := from
		if msg.Port > 0 {
			dst = &net.UDPAddr{IP: from.IP, Port: msg.Port}
		}
		if _, err := conn.WriteToUDP(out, dst); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.logError(dst, "send", err)
			continue
		}
		r.logMessage(dst, reply, out, log.DirectionOut)
	}
}

func (r *Robot) serveBridge(ln net.Listener) {
	defer r.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		st := transport.NewStreamTransport(conn, 0)
		st.SetLogger(r.config.Logger, "")

		r.mu.Lock()
		if r.closing {
			r.mu.Unlock()
			st.Close()
			return
		}
		r.bridgeConns[st] = true
		r.mu.Unlock()

		r.wg.Add(1)
		go r.serveStream(st)
	}
}

// serveStream answers frames on one bridge connection until the peer
// hangs up.
func (r *Robot) serveStream(st *transport.StreamTransport) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.bridgeConns, st)
		r.mu.Unlock()
		st.Close()
	}()

	peer, _, _ := net.SplitHostPort(st.RemoteAddr())
	for {
		data, err := st.Receive(0)
		if err != nil {
			return
		}
		msg, err := wire.Decode(data)
		if err != nil {
			r.logErrorAt(st.RemoteAddr(), "decode", err)
			continue
		}
		r.logMessageAt(st.RemoteAddr(), msg, data, log.DirectionIn)

		reply := r.handle(msg, peer)
		if reply == nil {
			continue
		}
		out, err := wire.Encode(reply)
		if err != nil {
			r.logErrorAt(st.RemoteAddr(), "encode", err)
			continue
		}
		if r.config.Latency > 0 {
			time.Sleep(r.config.Latency)
		}
		if err := st.Send(out); err != nil {
			return
		}
		r.logMessageAt(st.RemoteAddr(), reply, out, log.DirectionOut)
	}
}

// handle applies msg and builds the reply. A nil reply means no answer.
// Clients are keyed by peer IP.
func (r *Robot) handle(msg *wire.Message, peer string) *wire.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[msg.Cmd]++
	if r.mute[msg.Cmd] {
		return nil
	}

	reply := wire.NewMessage(msg.Cmd.Ack())
	reply.Type = msg.Type

	switch msg.Cmd {
	case wire.CmdDiscovery:
		reply.Name = r.config.Name
		reply.IP = r.config.AdvertiseIP
		reply.Version = wire.SDKVersion
		return reply

	case wire.CmdConnect:
		r.clients[peer] = true
		reply.Name = r.config.Name
		return ok(reply)

	case wire.CmdDisconnect:
		delete(r.clients, peer)
		return ok(reply)

	case wire.CmdHeartbeat:
		return nil

	case wire.CmdQuery:
		return r.query(msg, reply)

	case wire.CmdSet:
		return r.set(msg, reply)

	case wire.CmdServo:
		return r.servo(msg, reply)

	case wire.CmdAction:
		return r.runAction(msg, reply)

	case wire.CmdVoice:
		return r.voice(msg, reply)

	case wire.CmdQueryApp:
		posture, _ := msg.GetString(wire.KeyData)
		if posture != r.posture {
			return fail(reply, wire.RCFailed, "posture "+r.posture)
		}
		return ok(reply)

	case wire.CmdMusic:
		return r.playMusic(msg, reply)

	case wire.CmdTakePhoto:
		name, _ := msg.GetString(wire.KeyName)
		if name == "" {
			name = fmt.Sprintf("photo%d", len(r.photos)+1)
		}
		r.photos = append(r.photos, name)
		if err := reply.Set(wire.KeyName, name); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	case wire.CmdVision, wire.CmdEvent:
		value, found := r.config.Detections[msg.Type]
		if !found {
			value = command.NotDetected
		}
		if err := reply.Set(wire.KeyData, value); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	case wire.CmdTransparent:
		data, _ := msg.GetString(wire.KeyData)
		if err := reply.Set(wire.KeyData, data); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	default:
		return fail(reply, wire.RCFailed, "unsupported")
	}
}

func (r *Robot) query(msg *wire.Message, reply *wire.Message) *wire.Message {
	var para string
	_ = msg.Get(wire.KeyPara, &para)

	switch msg.Type {
	case wire.TypeVersion:
		v, found := r.config.Versions[para]
		if !found {
			return fail(reply, wire.RCNotFound, "unknown component "+para)
		}
		reply.Version = v
		return ok(reply)

	case wire.TypeSensor:
		reading, found := r.config.Sensors[para]
		if !found {
			return fail(reply, wire.RCNotFound, "unknown sensor "+para)
		}
		if msg.Has("id") {
			var id int
			_ = msg.Get("id", &id)
			if addrs, listed := r.config.SensorAddresses[para]; listed && !slices.Contains(addrs, id) {
				return fail(reply, wire.RCNotFound, fmt.Sprintf("no %s sensor at %d", para, id))
			}
			if err := reply.Set("id", id); err != nil {
				return fail(reply, wire.RCFailed, err.Error())
			}
		}
		if err := reply.Set(para, reading); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	case wire.TypePlay:
		state := "idle"
		if r.action != "" {
			state = "playing"
		}
		if err := reply.Set(wire.TypePlay, state); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	case wire.TypeVolume:
		if err := reply.Set(wire.TypeVolume, r.volume); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	case wire.TypeBattery:
		if _, found := r.config.Battery[para]; !found {
			return fail(reply, wire.RCWrongParam, "unknown battery reading "+para)
		}
		if err := reply.Set(wire.TypeBattery, r.config.Battery); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	default:
		return fail(reply, wire.RCWrongParam, "unsupported query "+msg.Type)
	}
}

func (r *Robot) set(msg *wire.Message, reply *wire.Message) *wire.Message {
	switch msg.Type {
	case wire.TypeVolume:
		var v int
		if err := msg.Get("volume", &v); err != nil || v < 0 || v > 100 {
			return fail(reply, wire.RCWrongParam, "bad volume")
		}
		r.volume = v
		return ok(reply)

	case wire.TypeLED:
		var para map[string]string
		if err := msg.Get(wire.KeyPara, &para); err != nil {
			return fail(reply, wire.RCWrongParam, "bad led para")
		}
		group, color, mode := para[wire.KeyType], para["color"], para["mode"]
		if !slices.Contains(command.LEDTypes, group) ||
			!slices.Contains(command.LEDColors, color) ||
			!slices.Contains(command.LEDModes, mode) {
			return fail(reply, wire.RCWrongParam, "bad led para")
		}
		r.leds[group] = LEDState{Color: color, Mode: mode}
		return ok(reply)

	default:
		return fail(reply, wire.RCWrongParam, "unsupported set "+msg.Type)
	}
}

func (r *Robot) servo(msg *wire.Message, reply *wire.Message) *wire.Message {
	switch msg.Type {
	case wire.TypeServoRead:
		if err := reply.Set("angle", strings.ToUpper(hex.EncodeToString(r.servos[:]))); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	case wire.TypeServoWrite:
		s, _ := msg.GetString("angle")
		angles, err := hex.DecodeString(s)
		if err != nil || len(angles) == 0 || len(angles) > command.ServoCount {
			return fail(reply, wire.RCWrongParam, "bad angle string")
		}
		for i, a := range angles {
			if a == command.ServoKeep {
				continue
			}
			if a > 180 {
				return fail(reply, wire.RCWrongParam, fmt.Sprintf("servo %d angle %d out of range", i+1, a))
			}
		}
		for i, a := range angles {
			if a != command.ServoKeep {
				r.servos[i] = a
			}
		}
		return ok(reply)

	default:
		return fail(reply, wire.RCWrongParam, "unsupported servo type "+msg.Type)
	}
}

func (r *Robot) voice(msg *wire.Message, reply *wire.Message) *wire.Message {
	text, _ := msg.GetString(wire.KeyData)

	switch msg.Type {
	case wire.TypeTTS:
		if text == "" {
			return fail(reply, wire.RCWrongParam, "empty text")
		}
		r.spoken = append(r.spoken, text)
		return ok(reply)

	case wire.TypeRecognitionStart:
		r.listening = true
		return ok(reply)

	case wire.TypeRecognitionStop:
		r.listening = false
		return ok(reply)

	case wire.TypeDetecting:
		if !slices.Contains(r.config.Heard, text) {
			return fail(reply, wire.RCFailed, "not heard")
		}
		return ok(reply)

	default:
		return fail(reply, wire.RCWrongParam, "unsupported voice type "+msg.Type)
	}
}

// musicPage is how many names one getlist reply carries.
const musicPage = 10

func (r *Robot) playMusic(msg *wire.Message, reply *wire.Message) *wire.Message {
	name, _ := msg.GetString(wire.KeyName)

	switch msg.Type {
	case "play":
		if !slices.Contains(r.config.Music, name) {
			return fail(reply, wire.RCNotFound, "no such music "+name)
		}
		r.music, r.paused = name, false
		return ok(reply)

	case "Pause":
		if r.music == "" {
			return fail(reply, wire.RCFailed, "nothing playing")
		}
		r.paused = true
		return ok(reply)

	case wire.TypeStop:
		r.music, r.paused = "", false
		return ok(reply)

	case wire.TypeGetList:
		var index int
		_ = msg.Get("index", &index)
		if index < 0 || index > len(r.config.Music) {
			return fail(reply, wire.RCWrongParam, fmt.Sprintf("index %d out of range", index))
		}
		end := min(index+musicPage, len(r.config.Music))
		if err := reply.Set("list", r.config.Music[index:end]); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		if err := reply.Set("index", end); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	default:
		return fail(reply, wire.RCWrongParam, "unsupported music type "+msg.Type)
	}
}

func (r *Robot) runAction(msg *wire.Message, reply *wire.Message) *wire.Message {
	switch msg.Type {
	case wire.TypeStart:
		var para struct {
			Name   string `json:"name"`
			Repeat int    `json:"repeat"`
		}
		if err := msg.Get(wire.KeyPara, &para); err != nil || para.Name == "" {
			return fail(reply, wire.RCWrongParam, "bad action para")
		}
		d, found := r.config.Actions[para.Name]
		if !found {
			return fail(reply, wire.RCNotFound, "no such action "+para.Name)
		}
		if para.Repeat < 1 {
			para.Repeat = 1
		}
		r.action = para.Name
		if err := reply.Set("total_time", int(d.Milliseconds())*para.Repeat); err != nil {
			return fail(reply, wire.RCFailed, err.Error())
		}
		return ok(reply)

	case wire.TypeStop:
		r.action = ""
		return ok(reply)

	default:
		return fail(reply, wire.RCWrongParam, "unsupported action type "+msg.Type)
	}
}

func ok(reply *wire.Message) *wire.Message {
	reply.Status = wire.StatusOK
	return reply
}

func fail(reply *wire.Message, rc wire.RC, reason string) *wire.Message {
	code := int(rc)
	reply.Code = &code
	reply.Status = reason
	return reply
}

func (r *Robot) logMessage(peer *net.UDPAddr, msg *wire.Message, data []byte, dir log.Direction) {
	r.logMessageAt(peer.String(), msg, data, dir)
}

func (r *Robot) logMessageAt(peer string, msg *wire.Message, data []byte, dir log.Direction) {
	log.Stamp(r.logger, log.Event{
		Direction:  dir,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		RemoteAddr: peer,
		RobotName:  r.config.Name,
		Message: &log.MessageEvent{
			Cmd:     string(msg.Cmd),
			Type:    msg.Type,
			Status:  msg.Status,
			Code:    msg.Code,
			Payload: string(data),
		},
	})
}

func (r *Robot) logError(peer *net.UDPAddr, op string, err error) {
	r.logErrorAt(peer.String(), op, err)
}

func (r *Robot) logErrorAt(peer, op string, err error) {
	log.Stamp(r.logger, log.Event{
		Direction:  log.DirectionIn,
		Layer:      log.LayerWire,
		Category:   log.CategoryError,
		RemoteAddr: peer,
		RobotName:  r.config.Name,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: op,
		},
	})
}
