package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

var (
	// ErrClientDisconnected is returned by operations that need a live transport
	// when the session holds none.
	ErrClientDisconnected = errors.New("client disconnected")
	// ErrAlreadyStarted is returned when Handshake runs on a session that left Connecting.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrInvalidCommand is returned by Do for a command without a packet or a success filter.
	ErrInvalidCommand = errors.New("invalid command")
)

// ConnectionRejectedError reports that the server refused the handshake.
type ConnectionRejectedError struct {
	Type   proto.RejectType
	Reason string
}

func (e *ConnectionRejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("connection rejected: %s", e.Type)
	}
	return fmt.Sprintf("connection rejected: %s: %s", e.Type, e.Reason)
}

func rejectedError(r *proto.Reject) *ConnectionRejectedError {
	return &ConnectionRejectedError{Type: r.GetRejectType(), Reason: r.GetReason()}
}

// CommandTimedOutError reports that neither a confirmation nor a denial
// arrived before the command's deadline.
type CommandTimedOutError struct {
	Command string
	ID      string
	Timeout time.Duration
}

func (e *CommandTimedOutError) Error() string {
	return fmt.Sprintf("command %s timed out after %s", e.Command, e.Timeout)
}

// PermissionDeniedError carries the server's explicit refusal of a command.
type PermissionDeniedError struct {
	Permission uint32
	ChannelID  uint32
	Session    uint32
	Type       proto.DenyType
	Reason     string
	Name       string
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason != "" {
		return "permission denied: " + e.Reason
	}
	return fmt.Sprintf("permission denied: %s", e.Type)
}

func deniedError(pd *proto.PermissionDenied) *PermissionDeniedError {
	e := &PermissionDeniedError{}
	if pd.Permission != nil {
		e.Permission = *pd.Permission
	}
	if pd.ChannelID != nil {
		e.ChannelID = *pd.ChannelID
	}
	if pd.Session != nil {
		e.Session = *pd.Session
	}
	if pd.DenyType != nil {
		e.Type = *pd.DenyType
	}
	if pd.Reason != nil {
		e.Reason = *pd.Reason
	}
	if pd.Name != nil {
		e.Name = *pd.Name
	}
	return e
}

// UserNotRegisteredError reports a failed lookup in the registered user list.
type UserNotRegisteredError struct {
	Name string
}

func (e *UserNotRegisteredError) Error() string {
	return fmt.Sprintf("user %q is not registered", e.Name)
}

// TransportError wraps a failure of the underlying byte stream.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
