// Package command issues opcodes over a connected session.
//
// An opcode such as "servo.read" names a codec in a Registry. The codec
// validates the request arguments, builds the vendor message and pulls
// the payload out of the robot's reply. Execute ties these together:
//
//	result, err := client.Execute(ctx, sess, command.Request{
//		Opcode:               "servo.read",
//		ExpectedResponseSize: command.ServoCount,
//	})
//
// Execute returns an error only for local or protocol problems
// (ErrInvalidState, ErrUnknownOpcode, ErrInvalidArgument, ErrTimeout,
// ErrProtocol). A robot that answers with a failure status yields a
// Result whose Failure is set; callers inspect it instead of an error.
//
// Nothing is retried. A call moves from PhaseIdle to PhaseSent and ends
// in PhaseCompleted, PhaseTimedOut or PhaseProtocolError.
package command
