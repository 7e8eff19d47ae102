package session

// State represents the session state.
type State uint8

const (
	// StateDisconnected indicates no live link to the robot.
	StateDisconnected State = iota

	// StateConnecting indicates the handshake is in progress.
	StateConnecting

	// StateConnected indicates the robot accepted the connection.
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}
