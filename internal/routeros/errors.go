package routeros

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	goros "github.com/go-routeros/routeros/v3"
)

// ValidationError describes a user-supplied invalid value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation error"
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthenticationError means the device rejected the supplied credentials.
type AuthenticationError struct {
	Address  string
	Username string
	Err      error
}

func (e *AuthenticationError) Error() string {
	if e == nil {
		return "authentication failed"
	}
	return fmt.Sprintf("routeros login to %s as %q rejected: %v", e.Address, e.Username, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TransportError wraps connection level failures: refused, timed out, reset.
type TransportError struct {
	Address string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	return fmt.Sprintf("routeros %s %s: %v", e.Op, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CommandError is a !trap reply from the device for an otherwise healthy session.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	if e == nil {
		return "command failed"
	}
	return fmt.Sprintf("routeros command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsMissingCommand reports whether err means the device does not know the
// requested menu, which happens when the controller package is not installed.
func IsMissingCommand(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return isMissingCommandError(cmdErr.Err)
}

func classifyDialError(cfg Config, err error) error {
	if err == nil {
		return nil
	}
	if isLoginRejected(err) {
		return &AuthenticationError{Address: cfg.Address, Username: cfg.Username, Err: err}
	}
	return &TransportError{Address: cfg.Address, Op: "dial", Err: err}
}

func classifyRunError(cfg Config, cmd string, err error) error {
	if err == nil {
		return nil
	}
	var deviceErr *goros.DeviceError
	if errors.As(err, &deviceErr) {
		return &CommandError{Command: cmd, Err: err}
	}
	if isTransportError(err) {
		return &TransportError{Address: cfg.Address, Op: "run " + cmd, Err: err}
	}
	return &CommandError{Command: cmd, Err: err}
}

func isLoginRejected(err error) bool {
	if err == nil {
		return false
	}
	var deviceErr *goros.DeviceError
	if errors.As(err, &deviceErr) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "cannot log in") ||
		strings.Contains(message, "invalid user name or password")
}

func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}

	message := strings.ToLower(err.Error())
	if strings.Contains(message, "broken pipe") {
		return true
	}
	if strings.Contains(message, "connection reset") {
		return true
	}
	if strings.Contains(message, "use of closed network connection") {
		return true
	}
	if strings.Contains(message, "connection refused") {
		return true
	}
	if strings.Contains(message, "timeout") {
		return true
	}
	return false
}

func isMissingCommandError(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "no such command") ||
		strings.Contains(text, "bad command name") ||
		strings.Contains(text, "input does not match")
}
