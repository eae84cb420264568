package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/mumblebot/internal/proto"
	"github.com/vovakirdan/mumblebot/internal/utils"
)

// Outcome is how a command ended.
type Outcome int

const (
	// OutcomeSuccess means a packet matching the success filter arrived first.
	OutcomeSuccess Outcome = iota
	// OutcomeDenied means a packet matching the failure filter arrived first.
	OutcomeDenied
	// OutcomeTimeout means the deadline elapsed with neither.
	OutcomeTimeout
	// OutcomeAborted means the send failed, the stream ended or the caller gave up.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDenied:
		return "denied"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "aborted"
	}
}

// Command is a request whose result is only observable as a later packet.
type Command struct {
	// Name identifies the command in errors, logs and metrics.
	Name string
	// Packet is sent once the filters are armed.
	Packet proto.Message
	// Success selects the confirming packet. Required.
	Success Filter
	// Failure selects an explicit denial. Nil means the command cannot be denied.
	Failure Filter
	// Timeout bounds the wait. Zero means no deadline beyond ctx.
	Timeout time.Duration
}

// Do sends cmd.Packet and waits for exactly one of: a packet matching
// cmd.Success (returned), a packet matching cmd.Failure
// (*PermissionDeniedError) or the deadline (*CommandTimedOutError).
//
// The view is armed before the packet is written, so a reply that
// overtakes the local write is still observed. If one packet matches
// both filters, success wins.
func (h *Hub) Do(ctx context.Context, cmd Command) (proto.Message, error) {
	if cmd.Packet == nil || cmd.Success == nil {
		return nil, fmt.Errorf("%w %q: packet and success filter are required", ErrInvalidCommand, cmd.Name)
	}

	id := utils.NewID()
	log := h.log.With().Str("command", cmd.Name).Str("command_id", id).Logger()

	view := h.View(func(m proto.Message) bool {
		return cmd.Success(m) || (cmd.Failure != nil && cmd.Failure(m))
	})

	if err := h.Send(cmd.Packet); err != nil {
		h.metrics.CommandResolved(cmd.Name, OutcomeAborted)
		return nil, err
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, cmd.Timeout, &CommandTimedOutError{
			Command: cmd.Name,
			ID:      id,
			Timeout: cmd.Timeout,
		})
		defer cancel()
	}

	m, err := view.Next(ctx)
	if err != nil {
		var timedOut *CommandTimedOutError
		if errors.As(err, &timedOut) {
			h.metrics.CommandResolved(cmd.Name, OutcomeTimeout)
			log.Debug().Dur("timeout", cmd.Timeout).Msg("command timed out")
			return nil, err
		}
		h.metrics.CommandResolved(cmd.Name, OutcomeAborted)
		return nil, err
	}

	if cmd.Success(m) {
		h.metrics.CommandResolved(cmd.Name, OutcomeSuccess)
		log.Debug().Msg("command confirmed")
		return m, nil
	}

	h.metrics.CommandResolved(cmd.Name, OutcomeDenied)
	if pd, ok := m.(*proto.PermissionDenied); ok {
		err = deniedError(pd)
	} else {
		err = &PermissionDeniedError{Reason: "denied by " + m.Type().String()}
	}
	log.Debug().Err(err).Msg("command denied")
	return nil, err
}
