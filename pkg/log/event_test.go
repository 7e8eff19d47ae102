package log

import (
	"bytes"
	"testing"
)

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionIn, "IN"},
		{DirectionOut, "OUT"},
		{Direction(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.dir.String()
		if got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestLayerString(t *testing.T) {
	tests := []struct {
		layer Layer
		want  string
	}{
		{LayerTransport, "TRANSPORT"},
		{LayerWire, "WIRE"},
		{LayerSession, "SESSION"},
		{LayerDiscovery, "DISCOVERY"},
		{Layer(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.layer.String()
		if got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", tt.layer, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryMessage, "MESSAGE"},
		{CategoryDiscovery, "DISCOVERY"},
		{CategoryState, "STATE"},
		{CategoryError, "ERROR"},
		{Category(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.cat.String()
		if got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestDiscoveryOutcomeString(t *testing.T) {
	tests := []struct {
		outcome DiscoveryOutcome
		want    string
	}{
		{DiscoveryProbe, "PROBE"},
		{DiscoveryResponse, "RESPONSE"},
		{DiscoveryDuplicate, "DUPLICATE"},
		{DiscoveryFound, "FOUND"},
		{DiscoveryNotFound, "NOT_FOUND"},
		{DiscoveryOutcome(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.outcome.String()
		if got != tt.want {
			t.Errorf("DiscoveryOutcome(%d).String() = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}

func TestNewFrameEvent(t *testing.T) {
	small := []byte(`{"cmd":"heartbeat"}`)
	fe := NewFrameEvent(small)
	if fe.Size != len(small) || fe.Truncated {
		t.Errorf("small frame: got size=%d truncated=%v", fe.Size, fe.Truncated)
	}
	if !bytes.Equal(fe.Data, small) {
		t.Errorf("small frame data mismatch")
	}

	// Data must be copied, not aliased.
	small[0] = 'X'
	if fe.Data[0] == 'X' {
		t.Error("frame data aliases the caller's buffer")
	}

	large := bytes.Repeat([]byte{'a'}, MaxFrameCapture+10)
	fe = NewFrameEvent(large)
	if fe.Size != len(large) {
		t.Errorf("Size = %d, want %d", fe.Size, len(large))
	}
	if !fe.Truncated || len(fe.Data) != MaxFrameCapture {
		t.Errorf("large frame: truncated=%v len=%d", fe.Truncated, len(fe.Data))
	}
}
