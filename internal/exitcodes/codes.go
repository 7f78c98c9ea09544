package exitcodes

import "errors"

// Standard exit codes for songscout
const (
	// Success indicates successful command completion
	Success = 0

	// GeneralError indicates a general/unknown error
	GeneralError = 1

	// InvalidArgs indicates invalid command-line arguments or flags
	InvalidArgs = 2

	// PreconditionFailed indicates a precondition was not met
	// (e.g., database missing, ffmpeg not installed, server already running)
	PreconditionFailed = 3

	// NetworkError indicates network/connectivity failure
	// (e.g., Spotify/YouTube unreachable, timeout, DNS failure)
	NetworkError = 4

	// ProcessError indicates process management failure
	// (e.g., failed to start/stop the server, permission denied)
	ProcessError = 5

	// ValidationError indicates validation failure
	// (e.g., invalid config, corrupted database)
	ValidationError = 6

	// AudioError indicates audio decode/convert/fingerprint failure
	// (e.g., malformed WAV header, unsupported sample format)
	AudioError = 7
)

// CodeForError returns the appropriate exit code for an error.
// Unwraps ErrorWithCode for explicit codes, otherwise returns GeneralError.
// Use explicit error constructors (NetworkErr, ProcessErr, etc.) for specific codes.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}
	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}
	return GeneralError
}
