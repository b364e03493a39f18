package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeEncoder, cause, "render failed")

	if err.Code != ErrCodeEncoder {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeEncoder)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "test"), ErrCodeInvalidInput, true},
		{"different code", New(ErrCodeInvalidInput, "test"), ErrCodeNotFound, false},
		{"wrapped with fmt", fmt.Errorf("outer: %w", New(ErrCodeProbe, "inner")), ErrCodeProbe, true},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil error", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := fmt.Errorf("ctx: %w", New(ErrCodeFileNotFound, "video %s missing", "a.mp4"))
	if got := GetCode(err); got != ErrCodeFileNotFound {
		t.Errorf("GetCode() = %v", got)
	}
	if got := UserMessage(err); got != "video a.mp4 missing" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := GetCode(errors.New("x")); got != "" {
		t.Errorf("GetCode(plain) = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{New(ErrCodeInvalidVideoType, "x"), http.StatusBadRequest},
		{New(ErrCodeFileTooLarge, "x"), http.StatusRequestEntityTooLarge},
		{New(ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{New(ErrCodeEncoder, "x"), http.StatusInternalServerError},
		{New(ErrCodeUnavailable, "x"), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestToolError(t *testing.T) {
	exit := errors.New("exit status 1")
	err := &ToolError{Tool: "ffmpeg", Stderr: "  No such file\n", Err: exit}
	if !strings.Contains(err.Error(), "ffmpeg failed: exit status 1: No such file") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, exit) {
		t.Error("ToolError should unwrap to the exit error")
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidParams,
		ErrCodeInvalidVideoType,
		ErrCodeInvalidPath,
		ErrCodeFileTooLarge,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeEncoder,
		ErrCodeProbe,
		ErrCodeUnavailable,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
