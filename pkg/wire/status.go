package wire

import "fmt"

// RC is a vendor return code.
type RC int

const (
	// RCSuccess indicates the operation completed successfully.
	RCSuccess RC = 0

	// RCFailed is the generic failure code.
	RCFailed RC = 1

	// RCNoResource indicates the robot ran out of a resource.
	RCNoResource RC = 2

	// RCNotFound indicates the requested item does not exist.
	RCNotFound RC = 3

	// RCWrongParam indicates a parameter was rejected.
	RCWrongParam RC = 4

	// RCIgnore asks the caller to ignore the reply.
	RCIgnore RC = 5

	// RCSocketFailed and the following codes are transport level codes
	// reported by the vendor SDK. They appear in replies relayed by
	// bridges that wrap the SDK.
	RCSocketFailed       RC = 100
	RCSocketNoResource   RC = 101
	RCSocketTimeout      RC = 102
	RCSocketEncodeFailed RC = 103
	RCSocketDecodeFailed RC = 104
	RCSocketEncodeError  RC = 105
	RCSocketDecodeError  RC = 106
	RCSocketSendError    RC = 107

	// RCVoiceFailed indicates voice recognition failed.
	RCVoiceFailed        RC = 108
	RCVoiceGrammarError  RC = 109
	RCVoiceAIUIDecodeErr RC = 110
)

// StatusOK is the "status" value of a successful reply.
const StatusOK = "ok"

// IsSuccess returns true if the code indicates success.
func (rc RC) IsSuccess() bool {
	return rc == RCSuccess
}

// String returns the code name.
func (rc RC) String() string {
	switch rc {
	case RCSuccess:
		return "SUCCESS"
	case RCFailed:
		return "FAILED"
	case RCNoResource:
		return "NO_RESOURCE"
	case RCNotFound:
		return "NOT_FOUND"
	case RCWrongParam:
		return "WRONG_PARAM"
	case RCIgnore:
		return "IGNORE"
	case RCSocketFailed:
		return "SOCKET_FAILED"
	case RCSocketNoResource:
		return "SOCKET_NO_RESOURCE"
	case RCSocketTimeout:
		return "SOCKET_TIMEOUT"
	case RCSocketEncodeFailed:
		return "SOCKET_ENCODE_FAILED"
	case RCSocketDecodeFailed:
		return "SOCKET_DECODE_FAILED"
	case RCSocketEncodeError:
		return "SOCKET_ENCODE_ERROR"
	case RCSocketDecodeError:
		return "SOCKET_DECODE_ERROR"
	case RCSocketSendError:
		return "SOCKET_SEND_ERROR"
	case RCVoiceFailed:
		return "VOICE_FAILED"
	case RCVoiceGrammarError:
		return "VOICE_GRAMMAR_ERROR"
	case RCVoiceAIUIDecodeErr:
		return "VOICE_AIUI_DECODE_ERROR"
	default:
		return fmt.Sprintf("RC(%d)", int(rc))
	}
}
