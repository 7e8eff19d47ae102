package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxMessageSize is the largest datagram the robot firmware accepts.
const MaxMessageSize = 1024

// Codec errors.
var (
	ErrMissingCmd     = errors.New("message has no cmd")
	ErrMissingKey     = errors.New("missing key")
	ErrNotObject      = errors.New("message is not a JSON object")
	ErrMessageTooLong = errors.New("message exceeds maximum size")
	ErrUnexpectedCmd  = errors.New("unexpected cmd")
)

// Encode encodes a message to JSON bytes.
func Encode(m *Message) ([]byte, error) {
	if m.Cmd == "" {
		return nil, ErrMissingCmd
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLong, len(data), MaxMessageSize)
	}
	return data, nil
}

// Decode decodes JSON bytes into a message.
// Trailing NUL padding left by fixed-size C buffers is ignored.
func Decode(data []byte) (*Message, error) {
	data = bytes.TrimRight(data, "\x00")
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	if m.Cmd == "" {
		return nil, ErrMissingCmd
	}
	return &m, nil
}

// DecodeAck decodes a reply and checks it acknowledges cmd.
func DecodeAck(data []byte, cmd Command) (*Message, error) {
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if m.Cmd != cmd.Ack() {
		return m, fmt.Errorf("%w: got %q, want %q", ErrUnexpectedCmd, m.Cmd, cmd.Ack())
	}
	return m, nil
}
