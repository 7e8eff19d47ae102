// Command yanshee-ctl discovers a robot on the local network, connects to
// it and runs commands.
//
// Every run follows the same lifecycle: discover the robot by name,
// connect, run one command (or an interactive shell), disconnect.
//
// Usage:
//
//	yanshee-ctl [flags] <command> [args...]
//
// Commands:
//
//	discover                     List robots answering a discovery probe
//	version [component]          Software version (default CoreBoard)
//	servo-read                   Read all servo angles
//	servo-write <angles> [time]  Move servos (smaller time is faster)
//	led <type> <color> <mode>    Set an LED group
//	volume <0-100>               Set speaker volume
//	sensor <type>                Read a sensor
//	sensor-at <type> <address>   Read a sensor at a bus address
//	query <kind>                 Play state, volume or battery reading
//	action <name> [repeat]       Play a stored motion
//	stop                         Stop the running motion
//	tts [-i] <text...>           Speak text
//	transmit <data...>           Pass raw data through
//	music <play|pause|stop> [name]  Control music playback
//	music-list [index]           List stored music
//	photo [name]                 Take a photo
//	detect <face|hand> [seconds] Wait for a face or hand
//	event <type> [seconds]       Wait for an event such as button
//	listen <on|off>              Start or stop voice recognition
//	hear <text> [seconds]        Wait for text to be recognized
//	posture <posture> [seconds]  Wait for the app to report a posture
//	opcodes                      List opcodes
//	exec <opcode> [args...]      Execute any opcode
//
// Flags:
//
//	-config string           Configuration file path (YAML)
//	-robot string            Robot name to connect to
//	-policy string           Discovery policy: exact, any (default "exact")
//	-attempts int            Discovery rounds (default 3)
//	-timeout duration        Discovery round window (default 3s)
//	-command-timeout dur     Reply timeout per command (default 3s)
//	-interface string        Broadcast on this interface's subnet
//	-broadcast string        Broadcast target address
//	-mdns                    Also discover over mDNS
//	-bridge string           Skip discovery and connect over a TCP bridge (host:port)
//	-account string          Client account (default "sdk")
//	-client-id string        Client instance id (default "1")
//	-local                   Skip the handshake for loopback robots
//	-interactive             Start an interactive shell after connecting
//	-protocol-log string     Write protocol events to a CBOR file
//	-log-level string        Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Find robots on the network
//	yanshee-ctl -policy any discover
//
//	# Read the servo angles of a named robot
//	yanshee-ctl -robot Yanshee_8F83 servo-read
//
//	# Move servos 1 and 3, leaving servo 2 alone
//	yanshee-ctl -robot Yanshee_8F83 servo-write "90,-,45" 20
//
//	# Talk to a simulator through its TCP bridge
//	yanshee-ctl -bridge 127.0.0.1:20002 version Servo
//
//	# Interactive shell with a protocol capture
//	yanshee-ctl -robot Yanshee_8F83 -interactive -protocol-log ctl.ylog
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/ubtedu/yanshee-go/cmd/yanshee-ctl/interactive"
	"github.com/ubtedu/yanshee-go/pkg/discovery"
	protolog "github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/robot"
	"github.com/ubtedu/yanshee-go/pkg/session"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&config.Robot, "robot", "", "Robot name to connect to")
	flag.StringVar(&config.Policy, "policy", "exact", "Discovery policy: exact, any")
	flag.IntVar(&config.Attempts, "attempts", discovery.DefaultMaxAttempts, "Discovery rounds")
	flag.DurationVar(&config.Timeout, "timeout", discovery.DefaultPerAttemptTimeout, "Discovery round window")
	flag.DurationVar(&config.CommandTimeout, "command-timeout", session.DefaultTimeout, "Reply timeout per command")
	flag.StringVar(&config.Interface, "interface", "", "Broadcast on this interface's subnet")
	flag.StringVar(&config.Broadcast, "broadcast", "", "Broadcast target address")
	flag.BoolVar(&config.MDNS, "mdns", false, "Also discover over mDNS")
	flag.StringVar(&config.Bridge, "bridge", "", "Skip discovery and connect over a TCP bridge (host:port)")
	flag.StringVar(&config.Account, "account", wire.DefaultAccount, "Client account")
	flag.StringVar(&config.ClientID, "client-id", wire.DefaultClientID, "Client instance id")
	flag.BoolVar(&config.Local, "local", false, "Skip the handshake for loopback robots")
	flag.BoolVar(&config.Interactive, "interactive", false, "Start an interactive shell after connecting")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Write protocol events to a CBOR file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()
	setupLogging(config.LogLevel)

	if config.ConfigFile != "" {
		fc, err := loadFileConfig(config.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		mergeFileConfig(&config, fc, setFlags(flag.CommandLine))
	}

	verb := flag.Arg(0)
	var args []string
	if flag.NArg() > 1 {
		args = flag.Args()[1:]
	}
	if verb == "" && !config.Interactive {
		fmt.Fprintln(os.Stderr, "Error: command required")
		flag.Usage()
		os.Exit(2)
	}

	if verb == "discover" && config.Robot == "" {
		config.Policy = "any"
	}
	if err := validateConfig(config); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	os.Exit(run(verb, args))
}

// run executes the command and returns the process exit code. It is
// separate from main so deferred cleanup runs before exit.
func run(verb string, args []string) int {
	logger, closeLog, err := protocolLogger()
	if err != nil {
		log.Printf("Failed to open protocol log: %v", err)
		return 1
	}
	defer closeLog()

	rcfg, err := buildRobotConfig(config, logger)
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if verb == "discover" {
		if err := runDiscover(ctx, rcfg); err != nil {
			log.Printf("Discovery failed: %v", err)
			return 1
		}
		return 0
	}

	if config.Bridge != "" {
		log.Printf("Connecting through bridge %s...", config.Bridge)
	} else {
		log.Printf("Discovering %q (%d attempts, %s each)...", config.Robot, config.Attempts, config.Timeout)
	}
	r, err := openRobot(ctx, config, rcfg)
	if err != nil {
		log.Printf("Failed to connect: %v", err)
		return 1
	}
	log.Printf("Connected to %s (session %s)", r.Identity(), r.Session().ID())

	defer func() {
		if err := r.Close(context.Background()); err != nil {
			log.Printf("Disconnect: %v", err)
		}
		log.Println("Disconnected")
	}()

	if config.Interactive {
		sh, err := interactive.NewShell(r)
		if err != nil {
			log.Printf("Failed to start shell: %v", err)
			return 1
		}
		// Redirect log output through readline to avoid interfering with input
		log.SetOutput(sh.Stdout())
		if verb != "" {
			if err := interactive.NewCommands(r, sh.Stdout()).Run(ctx, verb, args); err != nil {
				log.Printf("Error: %v", err)
			}
		}
		sh.Run(ctx, cancel)
		return 0
	}

	if err := interactive.NewCommands(r, os.Stdout).Run(ctx, verb, args); err != nil {
		log.Printf("Error: %v", err)
		return 1
	}
	return 0
}

// runDiscover lists every robot heard, or finds the named one.
func runDiscover(ctx context.Context, rcfg robot.Config) error {
	if rcfg.Query.TargetName != "" {
		id, err := discovery.NewDiscoverer(rcfg.Discovery).Discover(ctx, rcfg.Query)
		if err != nil {
			return err
		}
		fmt.Printf("%-32s %s\n", id.Name, id.Address)
		return nil
	}

	var mu sync.Mutex
	found := make(map[string]discovery.Identity)
	for attempt := 1; attempt <= rcfg.Query.MaxAttempts; attempt++ {
		err := rcfg.Discovery.Prober.Probe(ctx, "", rcfg.Query.PerAttemptTimeout, func(id discovery.Identity) bool {
			mu.Lock()
			defer mu.Unlock()
			if _, ok := found[id.Name]; !ok {
				found[id.Name] = id
				log.Printf("Found %s", id)
			}
			return false
		})
		if err != nil {
			return err
		}
	}

	if len(found) == 0 {
		return discovery.ErrNotFound
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-32s %s\n", name, found[name].Address)
	}
	return nil
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// protocolLogger builds the event sink from -protocol-log and -log-level.
func protocolLogger() (protolog.Logger, func(), error) {
	var loggers []protolog.Logger
	closeFn := func() {}

	if config.ProtocolLog != "" {
		fl, err := protolog.NewFileLogger(config.ProtocolLog)
		if err != nil {
			return nil, closeFn, err
		}
		loggers = append(loggers, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				log.Printf("Error closing protocol log: %v", err)
			}
			log.Printf("Protocol log: %d events written to %s", fl.Count(), fl.Path())
		}
	}
	if config.LogLevel == "debug" {
		loggers = append(loggers, protolog.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, nil))).WithLevel(slog.LevelInfo))
	}

	if len(loggers) == 0 {
		return nil, closeFn, nil
	}
	return protolog.NewMultiLogger(loggers...), closeFn, nil
}
