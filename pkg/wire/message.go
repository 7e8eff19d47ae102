package wire

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// JSON keys with a fixed meaning across all commands.
const (
	KeyCmd     = "cmd"
	KeyAccount = "account"
	KeyName    = "name"
	KeyIP      = "ip"
	KeyPort    = "port"
	KeyVersion = "version"
	KeyType    = "type"
	KeyStatus  = "status"
	KeyCode    = "code"
	KeyPara    = "para"
	KeyData    = "data"
)

// Field length limits taken from the vendor robot info struct.
const (
	MaxNameLen = 32
	MaxIPLen   = 16
)

// Message is one JSON datagram exchanged with a robot.
//
// Keys with a fixed meaning are struct fields; everything else lives in
// Fields as raw JSON so opcode codecs can decode it into their own types.
type Message struct {
	Cmd     Command
	Account string
	Name    string
	IP      string
	Port    int
	Version string
	Type    string
	Status  string

	// Code is the numeric vendor code when the robot reports one.
	Code *int

	Fields map[string]json.RawMessage
}

// NewMessage creates a message for the given command.
func NewMessage(cmd Command) *Message {
	return &Message{Cmd: cmd}
}

// Set stores an opcode specific key. The value is encoded immediately.
func (m *Message) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if m.Fields == nil {
		m.Fields = make(map[string]json.RawMessage)
	}
	m.Fields[key] = raw
	return nil
}

// Has reports whether an opcode specific key is present.
func (m *Message) Has(key string) bool {
	_, ok := m.Fields[key]
	return ok
}

// Raw returns the raw JSON of an opcode specific key.
func (m *Message) Raw(key string) (json.RawMessage, bool) {
	raw, ok := m.Fields[key]
	return raw, ok
}

// Get decodes an opcode specific key into v.
func (m *Message) Get(key string, v any) error {
	raw, ok := m.Fields[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// GetString returns a string valued key, or false if absent or not a string.
func (m *Message) GetString(key string) (string, bool) {
	var s string
	if err := m.Get(key, &s); err != nil {
		return "", false
	}
	return s, true
}

// Result maps the reply status onto a vendor code and a message.
// A reply without any status is an acknowledgement and counts as success.
func (m *Message) Result() (RC, string) {
	if m.Code != nil {
		rc := RC(*m.Code)
		if rc.IsSuccess() {
			return RCSuccess, ""
		}
		msg := m.Status
		if msg == "" {
			msg = rc.String()
		}
		return rc, msg
	}
	if m.Status == "" || strings.EqualFold(m.Status, StatusOK) {
		return RCSuccess, ""
	}
	return RCFailed, m.Status
}

// MarshalJSON encodes the message as a flat JSON object.
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+9)
	for k, v := range m.Fields {
		out[k] = v
	}
	if m.Cmd != "" {
		out[KeyCmd] = m.Cmd
	}
	putString(out, KeyAccount, m.Account)
	putString(out, KeyName, m.Name)
	putString(out, KeyIP, m.IP)
	putString(out, KeyVersion, m.Version)
	putString(out, KeyType, m.Type)
	putString(out, KeyStatus, m.Status)
	if m.Port != 0 {
		out[KeyPort] = m.Port
	}
	if m.Code != nil {
		out[KeyCode] = *m.Code
	}
	return json.Marshal(out)
}

func putString(out map[string]any, key, value string) {
	if value != "" {
		out[key] = value
	}
}

// UnmarshalJSON decodes a flat JSON object. Unknown keys, and known string
// keys that carry a non-string value, are kept in Fields.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return ErrNotObject
	}

	*m = Message{}
	strFields := []struct {
		key string
		dst *string
	}{
		{KeyAccount, &m.Account},
		{KeyName, &m.Name},
		{KeyIP, &m.IP},
		{KeyVersion, &m.Version},
		{KeyType, &m.Type},
	}

	if v, ok := raw[KeyCmd]; ok {
		var cmd string
		if err := json.Unmarshal(v, &cmd); err != nil {
			return fmt.Errorf("decode %q: %w", KeyCmd, err)
		}
		m.Cmd = Command(cmd)
		delete(raw, KeyCmd)
	}

	for _, f := range strFields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			// Query replies reuse "version" and "name" for non-string data.
			continue
		}
		delete(raw, f.key)
	}

	if v, ok := raw[KeyPort]; ok {
		if err := json.Unmarshal(v, &m.Port); err != nil {
			return fmt.Errorf("decode %q: %w", KeyPort, err)
		}
		delete(raw, KeyPort)
	}

	if v, ok := raw[KeyCode]; ok {
		var code int
		if err := json.Unmarshal(v, &code); err != nil {
			return fmt.Errorf("decode %q: %w", KeyCode, err)
		}
		m.Code = &code
		delete(raw, KeyCode)
	}

	if v, ok := raw[KeyStatus]; ok {
		if err := m.decodeStatus(v); err != nil {
			return err
		}
		delete(raw, KeyStatus)
	}

	if len(raw) > 0 {
		m.Fields = raw
	}
	return nil
}

// decodeStatus accepts both "ok"/reason strings and numeric codes.
func (m *Message) decodeStatus(v json.RawMessage) error {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		m.Status = s
		return nil
	}
	var code int
	if err := json.Unmarshal(v, &code); err != nil {
		return fmt.Errorf("decode %q: %w", KeyStatus, err)
	}
	if m.Code == nil {
		m.Code = &code
	}
	return nil
}

// Truncate cuts s to at most n bytes, matching the fixed-size buffers the
// robot firmware copies names and addresses into. The cut backs off to a
// rune boundary so the result stays valid UTF-8.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
