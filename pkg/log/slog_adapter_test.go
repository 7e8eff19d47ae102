package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func newTestSlog(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func parseEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	adapter.Log(Event{
		Timestamp: time.Now(),
		SessionID: "sess-123",
		Direction: DirectionIn,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Frame:     &FrameEvent{Size: 256, Data: []byte{0x01, 0x02}},
	})

	entry := parseEntry(t, &buf)
	if entry["session_id"] != "sess-123" {
		t.Errorf("session_id: got %v", entry["session_id"])
	}
	if entry["direction"] != "IN" {
		t.Errorf("direction: got %v", entry["direction"])
	}
	if entry["layer"] != "TRANSPORT" {
		t.Errorf("layer: got %v", entry["layer"])
	}
	if entry["frame_size"] != float64(256) {
		t.Errorf("frame_size: got %v", entry["frame_size"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v", entry["level"])
	}
}

func TestSlogAdapterLogsMessageEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	rtt := 12 * time.Millisecond
	adapter.Log(Event{
		Direction: DirectionIn,
		Layer:     LayerWire,
		RobotName: "Yanshee_8F83",
		Message: &MessageEvent{
			Cmd:       "query_ack",
			Type:      "version",
			Opcode:    "version.get",
			Status:    "ok",
			RoundTrip: &rtt,
		},
	})

	entry := parseEntry(t, &buf)
	if entry["cmd"] != "query_ack" {
		t.Errorf("cmd: got %v", entry["cmd"])
	}
	if entry["opcode"] != "version.get" {
		t.Errorf("opcode: got %v", entry["opcode"])
	}
	if entry["robot"] != "Yanshee_8F83" {
		t.Errorf("robot: got %v", entry["robot"])
	}
	if _, ok := entry["round_trip"]; !ok {
		t.Error("round_trip missing")
	}
}

func TestSlogAdapterDuplicateIsWarning(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	adapter.Log(Event{
		Layer:    LayerDiscovery,
		Category: CategoryDiscovery,
		Discovery: &DiscoveryEvent{
			Target:  "Yanshee_8F83",
			Attempt: 1,
			Outcome: DiscoveryDuplicate,
			Name:    "Yanshee_8F83",
			Address: "192.168.1.24",
		},
	})

	entry := parseEntry(t, &buf)
	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["outcome"] != "DUPLICATE" {
		t.Errorf("outcome: got %v", entry["outcome"])
	}
}

func TestSlogAdapterWithLevel(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	NewSlogAdapter(slogger).Log(Event{Layer: LayerSession})
	if buf.Len() != 0 {
		t.Fatalf("debug event should be filtered, got %q", buf.String())
	}

	NewSlogAdapter(slogger).WithLevel(slog.LevelInfo).Log(Event{
		Layer:       LayerSession,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{OldState: "CONNECTED", NewState: "DISCONNECTED", Reason: "io error"},
	})
	entry := parseEntry(t, &buf)
	if entry["new_state"] != "DISCONNECTED" || entry["reason"] != "io error" {
		t.Errorf("state fields mismatch: %v", entry)
	}
}
