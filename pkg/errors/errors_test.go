package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "plain",
			err:  New(ErrCodeMalformedGeometry, "connection %s: %d waypoints", "c1", 1),
			want: "MALFORMED_GEOMETRY: connection c1: 1 waypoints",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeInvalidFormat, io.ErrUnexpectedEOF, "decode %s", "chip.json"),
			want: "INVALID_FORMAT: decode chip.json: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrCodeInvalidFormat, io.ErrUnexpectedEOF, "decode")

	if errors.Unwrap(err) != io.ErrUnexpectedEOF {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), io.ErrUnexpectedEOF)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is(err, io.ErrUnexpectedEOF) = false, want true")
	}
}

func TestIs(t *testing.T) {
	unresolved := New(ErrCodeUnresolvedFeature, "no feature f9")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", unresolved, ErrCodeUnresolvedFeature, true},
		{"other code", unresolved, ErrCodeNotFound, false},
		{"fmt wrapped", fmt.Errorf("set params on c1: %w", unresolved), ErrCodeUnresolvedFeature, true},
		{"outer code wins", Wrap(ErrCodeInvalidFormat, unresolved, "decode"), ErrCodeInvalidFormat, true},
		{"inner code hidden", Wrap(ErrCodeInvalidFormat, unresolved, "decode"), ErrCodeUnresolvedFeature, false},
		{"plain error", errors.New("boom"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", New(ErrCodeTypeMismatch, "channelWidth is Float"), ErrCodeTypeMismatch},
		{"fmt wrapped", fmt.Errorf("stored device chip: %w", New(ErrCodeUnsupported, "version 2")), ErrCodeUnsupported},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeUnknownParameter, `Channel has no parameter "colour"`), `Channel has no parameter "colour"`},
		{"wrapped cause hidden", Wrap(ErrCodeInvalidFormat, io.EOF, "decode chip.json"), "decode chip.json"},
		{"plain", errors.New("open chip.json: no such file"), "open chip.json: no such file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("footprint", `shape "blob"`)

	if !Is(err, ErrCodeUnsupported) {
		t.Error("Is(err, ErrCodeUnsupported) = false, want true")
	}
	if want := `footprint is not supported for shape "blob"`; err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}
