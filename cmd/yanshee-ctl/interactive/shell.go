package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/ubtedu/yanshee-go/pkg/robot"
	"github.com/ubtedu/yanshee-go/pkg/session"
)

// Shell is the interactive command loop of yanshee-ctl.
type Shell struct {
	robot    *robot.Robot
	commands *Commands
	rl       *readline.Instance
}

// NewShell creates a shell bound to a connected robot.
func NewShell(r *robot.Robot) (*Shell, error) {
	completer := readline.NewPrefixCompleter(shellCompletions()...)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.Identity().Name + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		robot:    r,
		commands: NewCommands(r, rl.Stdout()),
		rl:       rl,
	}, nil
}

func shellCompletions() []readline.PrefixCompleterInterface {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("status"),
		readline.PcItem("quit"),
	}
	for _, v := range Verbs {
		items = append(items, readline.PcItem(v))
	}
	return items
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is done. While the shell runs
// it keeps the session alive with heartbeats.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go s.heartbeat(hbCtx)

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		verb := strings.ToLower(parts[0])
		args := parts[1:]

		switch verb {
		case "help", "?":
			s.printHelp()

		case "status":
			s.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			if err := s.commands.Run(ctx, verb, args); err != nil {
				fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
			}
		}
	}
}

func (s *Shell) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(session.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.robot.Session().IsConnected() {
				return
			}
			if err := s.robot.Heartbeat(ctx); err != nil {
				fmt.Fprintf(s.rl.Stderr(), "Heartbeat failed: %v\n", err)
			}
		}
	}
}

func (s *Shell) cmdStatus() {
	sess := s.robot.Session()
	fmt.Fprintf(s.rl.Stdout(), "Robot:   %s\n", sess.Identity())
	fmt.Fprintf(s.rl.Stdout(), "Session: %s\n", sess.ID())
	fmt.Fprintf(s.rl.Stdout(), "State:   %s\n", sess.State())
	fmt.Fprintf(s.rl.Stdout(), "Account: %s\n", sess.Credentials().Account)
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Robot Commands:
  Query:
    version [component]        - Software version (default CoreBoard)
    servo-read                 - Read all 17 servo angles
    sensor <type>              - Read a sensor (gyro, environment, ...)
    sensor-at <type> <addr>    - Read a sensor at a bus address
    query <kind>               - Play state, volume or battery reading
    music-list [index]         - List stored music

  Control:
    servo-write <angles> [time]- Move servos ("90,-,45" or hex "5AFF2D")
    led <type> <color> <mode>  - Set an LED group
    volume <0-100>             - Set speaker volume
    action <name> [repeat]     - Play a stored motion
    stop                       - Stop the running motion
    tts [-i] <text>            - Speak text (-i interrupts)
    transmit <data>            - Pass raw data through
    music <mode> [name]        - Play, pause or stop music
    photo [name]               - Take a photo

  Wait:
    detect <face|hand> [sec]   - Wait for a face or hand
    event <type> [sec]         - Wait for an event such as button
    listen <on|off>            - Start or stop voice recognition
    hear <text> [sec]          - Wait for text to be recognized
    posture <posture> [sec]    - Wait for the app to report a posture

  Raw:
    opcodes                    - List opcodes and their arguments
    exec <opcode> [args...]    - Execute any opcode

  Session:
    status                     - Show session status
    help                       - Show this help
    quit                       - Disconnect and exit`)
}
