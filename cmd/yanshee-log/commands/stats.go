package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats
	Opcodes           map[string]int
	Discoveries       map[log.DiscoveryOutcome]int
	Errors            int
	Truncated         bool
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	RobotName  string
	RemoteAddr string
	RoundTrips int
	TotalRTT   time.Duration
	MaxRTT     time.Duration
}

// AverageRTT returns the mean round trip time of the session's replies.
func (s *SessionStats) AverageRTT() time.Duration {
	if s.RoundTrips == 0 {
		return 0
	}
	return s.TotalRTT / time.Duration(s.RoundTrips)
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
		Opcodes:           make(map[string]int),
		Discoveries:       make(map[log.DiscoveryOutcome]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if errors.Is(err, log.ErrTruncated) {
			stats.Truncated = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Discovery != nil {
			stats.Discoveries[event.Discovery.Outcome]++
		}
		if event.Error != nil {
			stats.Errors++
		}

		// Discovery events carry no session.
		if event.SessionID == "" {
			continue
		}
		sess, ok := stats.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}
		if sess.RobotName == "" {
			sess.RobotName = event.RobotName
		}
		if sess.RemoteAddr == "" {
			sess.RemoteAddr = event.RemoteAddr
		}

		if m := event.Message; m != nil {
			if m.Opcode != "" && event.Direction == log.DirectionOut {
				stats.Opcodes[m.Opcode]++
			}
			if m.RoundTrip != nil {
				sess.RoundTrips++
				sess.TotalRTT += *m.RoundTrip
				if *m.RoundTrip > sess.MaxRTT {
					sess.MaxRTT = *m.RoundTrip
				}
			}
		}
	}
	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Robot Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	if stats.Truncated {
		fmt.Fprintln(w, "Capture truncated: last event incomplete")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerSession, log.LayerDiscovery} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryDiscovery, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Discoveries) > 0 {
		fmt.Fprintln(w, "Discovery:")
		for _, o := range []log.DiscoveryOutcome{log.DiscoveryProbe, log.DiscoveryResponse, log.DiscoveryDuplicate, log.DiscoveryFound, log.DiscoveryNotFound} {
			if count := stats.Discoveries[o]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", o.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	if len(stats.Opcodes) > 0 {
		fmt.Fprintln(w, "Opcodes:")
		names := make([]string, 0, len(stats.Opcodes))
		for name := range stats.Opcodes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-14s %d\n", name+":", stats.Opcodes[name])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessionInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessionInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessionInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenSessionID(s.id), s.stats.Events, duration)
			if s.stats.RobotName != "" {
				fmt.Fprintf(w, "           Robot: %s (%s)\n", s.stats.RobotName, s.stats.RemoteAddr)
			}
			if s.stats.RoundTrips > 0 {
				fmt.Fprintf(w, "           Round trips: %d (avg %s, max %s)\n",
					s.stats.RoundTrips, formatDuration(s.stats.AverageRTT()), formatDuration(s.stats.MaxRTT))
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
