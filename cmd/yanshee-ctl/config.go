package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ubtedu/yanshee-go/pkg/command"
	"github.com/ubtedu/yanshee-go/pkg/discovery"
	protolog "github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/retry"
	"github.com/ubtedu/yanshee-go/pkg/robot"
	"github.com/ubtedu/yanshee-go/pkg/session"
	"github.com/ubtedu/yanshee-go/pkg/transport"
)

// FileConfig is the YAML configuration file. Command-line flags override
// the values it sets.
type FileConfig struct {
	Robot          string              `yaml:"robot"`
	Policy         string              `yaml:"policy"`
	Attempts       int                 `yaml:"attempts"`
	Timeout        time.Duration       `yaml:"timeout"`
	CommandTimeout time.Duration       `yaml:"command_timeout"`
	Interface      string              `yaml:"interface"`
	Broadcast      string              `yaml:"broadcast"`
	MDNS           bool                `yaml:"mdns"`
	Bridge         string              `yaml:"bridge"`
	Account        string              `yaml:"account"`
	ClientID       string              `yaml:"client_id"`
	Local          bool                `yaml:"local"`
	ProtocolLog    string              `yaml:"protocol_log"`
	Backoff        *retry.Config       `yaml:"backoff"`
	UDP            transport.UDPConfig `yaml:"udp"`
}

// Config holds the yanshee-ctl configuration.
type Config struct {
	FileConfig `yaml:",inline"`

	ConfigFile  string `yaml:"-"`
	LogLevel    string `yaml:"-"`
	Interactive bool   `yaml:"-"`
}

// loadFileConfig reads a YAML configuration file.
func loadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// setFlags returns the names of the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// mergeFileConfig copies file values into cfg for every flag that was not
// given explicitly.
func mergeFileConfig(cfg *Config, fc FileConfig, set map[string]bool) {
	str := func(name string, dst *string, v string) {
		if !set[name] && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration, v time.Duration) {
		if !set[name] && v > 0 {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool, v bool) {
		if !set[name] && v {
			*dst = v
		}
	}

	str("robot", &cfg.Robot, fc.Robot)
	str("policy", &cfg.Policy, fc.Policy)
	if !set["attempts"] && fc.Attempts > 0 {
		cfg.Attempts = fc.Attempts
	}
	dur("timeout", &cfg.Timeout, fc.Timeout)
	dur("command-timeout", &cfg.CommandTimeout, fc.CommandTimeout)
	str("interface", &cfg.Interface, fc.Interface)
	str("broadcast", &cfg.Broadcast, fc.Broadcast)
	boolean("mdns", &cfg.MDNS, fc.MDNS)
	str("bridge", &cfg.Bridge, fc.Bridge)
	str("account", &cfg.Account, fc.Account)
	str("client-id", &cfg.ClientID, fc.ClientID)
	boolean("local", &cfg.Local, fc.Local)
	str("protocol-log", &cfg.ProtocolLog, fc.ProtocolLog)

	if fc.Backoff != nil && cfg.Backoff == nil {
		cfg.Backoff = fc.Backoff
	}
	cfg.UDP = fc.UDP
}

func validateConfig(cfg Config) error {
	policy, err := discovery.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}
	if cfg.Robot == "" && policy == discovery.MatchExact && cfg.Bridge == "" {
		return fmt.Errorf("robot name required (or -policy any)")
	}
	if cfg.Attempts <= 0 {
		return fmt.Errorf("attempts must be positive, got %d", cfg.Attempts)
	}
	if len(cfg.Robot) > 32 {
		return fmt.Errorf("robot name %q longer than 32 bytes", cfg.Robot)
	}
	return nil
}

// buildRobotConfig turns the CLI configuration into a robot.Config.
func buildRobotConfig(cfg Config, logger protolog.Logger) (robot.Config, error) {
	policy, err := discovery.ParsePolicy(cfg.Policy)
	if err != nil {
		return robot.Config{}, err
	}

	var prober discovery.Prober = discovery.NewUDPProber(discovery.UDPProberConfig{
		BroadcastConfig: transport.BroadcastConfig{
			UDPConfig: cfg.UDP,
			Interface: cfg.Interface,
			Target:    cfg.Broadcast,
		},
		Logger: logger,
	})
	if cfg.MDNS {
		prober = discovery.NewMultiProber(prober, discovery.NewMDNSProber(discovery.MDNSConfig{Interface: cfg.Interface}))
	}

	var opener transport.Opener = transport.NewUDPOpener(cfg.UDP)
	if cfg.Bridge != "" {
		opener = &transport.StreamOpener{}
	}

	var backoff retry.Policy
	if cfg.Backoff != nil {
		backoff = retry.NewBackoffWithConfig(*cfg.Backoff)
	}

	return robot.Config{
		Query: discovery.Query{
			TargetName:        cfg.Robot,
			MaxAttempts:       cfg.Attempts,
			PerAttemptTimeout: cfg.Timeout,
			Policy:            policy,
		},
		Discovery: discovery.Config{
			Prober:  prober,
			Backoff: backoff,
		},
		Opener: opener,
		Credentials: session.Credentials{
			Account:  cfg.Account,
			ClientID: cfg.ClientID,
		},
		Session: session.Config{
			Timeout:       cfg.CommandTimeout,
			LocalShortcut: cfg.Local,
		},
		Command: command.Config{Timeout: cfg.CommandTimeout},
		Logger:  logger,
	}, nil
}

// openRobot discovers and connects, or dials the bridge directly when one
// is configured.
func openRobot(ctx context.Context, cfg Config, rcfg robot.Config) (*robot.Robot, error) {
	if cfg.Bridge != "" {
		return robot.Connect(ctx, discovery.Identity{Name: cfg.Robot, Address: cfg.Bridge}, rcfg)
	}
	return robot.Open(ctx, rcfg)
}
