// Command yanshee-sim runs a simulated robot on the local network.
//
// The simulator answers discovery probes and every built-in command over
// the vendor UDP protocol, so yanshee-ctl and the library can be tried
// without hardware.
//
// Usage:
//
//	yanshee-sim [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-name string          Advertised robot name (default "Yanshee_SIM0")
//	-model string         Robot model: yanshee, alpha1x (default "yanshee")
//	-listen string        UDP listen address (default ":20001")
//	-advertise-ip string  IP put in discovery replies (default: omitted)
//	-bridge string        Also serve length-prefixed frames on this TCP address
//	-mdns                 Also advertise over mDNS
//	-interface string     Network interface for mDNS
//	-latency duration     Delay every reply
//	-mute string          Comma separated commands to drop (e.g. "connect,servo")
//	-status duration      Interval of the state report, 0 to disable (default 10s)
//	-protocol-log string  Write protocol events to a CBOR file
//	-log-level string     Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start a simulated robot on the default port
//	yanshee-sim
//
//	# Simulate a robot that never acknowledges connect
//	yanshee-sim -name Yanshee_8F83 -mute connect
//
//	# Accept yanshee-ctl -bridge connections
//	yanshee-sim -bridge 127.0.0.1:20002
//
//	# Advertise over mDNS and capture traffic
//	yanshee-sim -mdns -protocol-log sim.ylog
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ubtedu/yanshee-go/internal/simulator"
	"github.com/ubtedu/yanshee-go/pkg/discovery"
	protolog "github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// Config holds the simulator command configuration.
type Config struct {
	ConfigFile     string
	Name           string
	Model          string
	Listen         string
	AdvertiseIP    string
	Bridge         string
	MDNS           bool
	Interface      string
	Latency        time.Duration
	Mute           string
	StatusInterval time.Duration
	ProtocolLog    string
	LogLevel       string
}

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&config.Name, "name", "", "Advertised robot name (default \"Yanshee_SIM0\")")
	flag.StringVar(&config.Model, "model", "", "Robot model: yanshee, alpha1x")
	flag.StringVar(&config.Listen, "listen", "", "UDP listen address (default \":20001\")")
	flag.StringVar(&config.AdvertiseIP, "advertise-ip", "", "IP put in discovery replies")
	flag.StringVar(&config.Bridge, "bridge", "", "Also serve length-prefixed frames on this TCP address")
	flag.BoolVar(&config.MDNS, "mdns", false, "Also advertise over mDNS")
	flag.StringVar(&config.Interface, "interface", "", "Network interface for mDNS")
	flag.DurationVar(&config.Latency, "latency", 0, "Delay every reply")
	flag.StringVar(&config.Mute, "mute", "", "Comma separated commands to drop")
	flag.DurationVar(&config.StatusInterval, "status", 10*time.Second, "Interval of the state report, 0 to disable")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Write protocol events to a CBOR file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()
	setupLogging(config.LogLevel)

	simConfig, err := buildSimConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog, err := protocolLogger()
	if err != nil {
		log.Fatalf("Failed to open protocol log: %v", err)
	}
	defer closeLog()
	simConfig.Logger = logger

	sim := simulator.New(simConfig)
	if err := sim.Start(); err != nil {
		log.Fatalf("Failed to start simulator: %v", err)
	}

	log.Println("Yanshee Robot Simulator")
	log.Println("=======================")
	log.Printf("Name:   %s", sim.Name())
	log.Printf("Port:   %d", sim.Port())
	if addr := sim.BridgeAddr(); addr != "" {
		log.Printf("Bridge: %s", addr)
	}
	if simConfig.MDNS != nil {
		log.Printf("mDNS:   %s", discovery.ServiceTypeRobot)
	}
	if len(simConfig.Mute) > 0 {
		log.Printf("Muted:  %v", simConfig.Mute)
	}

	stop := make(chan struct{})
	if config.StatusInterval > 0 {
		go runStatusReport(sim, config.StatusInterval, stop)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down...")
	close(stop)

	if err := sim.Close(); err != nil {
		log.Printf("Error stopping simulator: %v", err)
	}
	log.Println("Goodbye!")
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

// buildSimConfig loads the config file, if any, and applies flags on top.
func buildSimConfig() (simulator.Config, error) {
	var cfg simulator.Config
	if config.ConfigFile != "" {
		data, err := os.ReadFile(config.ConfigFile)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", config.ConfigFile, err)
		}
	}

	if config.Name != "" {
		cfg.Name = config.Name
	}
	if config.Model != "" {
		cfg.Model = config.Model
	}
	switch cfg.Model {
	case "", "yanshee", "alpha1x":
	default:
		return cfg, fmt.Errorf("unknown model: %s", cfg.Model)
	}
	if config.Listen != "" {
		cfg.ListenAddress = config.Listen
	}
	if config.AdvertiseIP != "" {
		cfg.AdvertiseIP = config.AdvertiseIP
	}
	if config.Bridge != "" {
		cfg.BridgeAddress = config.Bridge
	}
	if config.Latency > 0 {
		cfg.Latency = config.Latency
	}
	if config.MDNS || config.Interface != "" {
		if cfg.MDNS == nil {
			cfg.MDNS = &discovery.MDNSConfig{}
		}
		if config.Interface != "" {
			cfg.MDNS.Interface = config.Interface
		}
	}
	if cfg.MDNS != nil {
		name := cfg.Name
		if name == "" {
			name = simulator.DefaultName
		}
		if err := discovery.ValidateInstanceName(name); err != nil {
			return cfg, err
		}
	}
	for _, c := range strings.Split(config.Mute, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cfg.Mute = append(cfg.Mute, wire.Command(c))
		}
	}
	return cfg, nil
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
