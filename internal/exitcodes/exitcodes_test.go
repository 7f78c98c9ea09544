package exitcodes

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"plain error", errors.New("boom"), GeneralError},
		{"invalid args", InvalidArgsError("bad flag"), InvalidArgs},
		{"precondition", PreconditionErrorf("missing %s", "ffmpeg"), PreconditionFailed},
		{"network", NetworkErr("spotify unreachable"), NetworkError},
		{"process", ProcessErr("cannot stop server"), ProcessError},
		{"validation", ValidationErr("corrupt db"), ValidationError},
		{"audio", AudioErr("bad wav header"), AudioError},
		{"wrapped", WrapError(ProcessError, "stop failed", errors.New("eperm")), ProcessError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeForError(tc.err); got != tc.want {
				t.Fatalf("CodeForError(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorWithCodeUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapError(AudioError, "decode failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find cause through Unwrap")
	}
	want := "decode failed: root cause"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCodeForErrorThroughFmt(t *testing.T) {
	// %w-wrapped ErrorWithCode keeps its code through the unwrap chain.
	err := fmt.Errorf("context: %w", ProcessErr("inner"))
	if got := CodeForError(err); got != ProcessError {
		t.Fatalf("fmt-wrapped error should keep its code, got %d", got)
	}
}
