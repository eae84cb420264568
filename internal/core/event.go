package core

import (
	"sync"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

// EventKind is a notification the session emits to its consumers.
type EventKind int

const (
	// EventConnect fires once the handshake has been accepted.
	EventConnect EventKind = iota
	// EventDisconnect fires once when the session ends. Reason is set when the server removed us.
	EventDisconnect
	// EventPacket fires for every decoded inbound packet.
	EventPacket
	// EventUserCreate fires when a user is first observed.
	EventUserCreate
	// EventUserUpdate fires when an existing user's state changes.
	EventUserUpdate
	// EventUserRemove fires when a user leaves the server.
	EventUserRemove
	// EventChannelCreate fires when a channel is first observed.
	EventChannelCreate
	// EventChannelUpdate fires when an existing channel's state changes.
	EventChannelUpdate
	// EventChannelRemove fires when a channel is deleted.
	EventChannelRemove
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventPacket:
		return "packet"
	case EventUserCreate:
		return "user_create"
	case EventUserUpdate:
		return "user_update"
	case EventUserRemove:
		return "user_remove"
	case EventChannelCreate:
		return "channel_create"
	case EventChannelUpdate:
		return "channel_update"
	case EventChannelRemove:
		return "channel_remove"
	default:
		return "unknown"
	}
}

// Event describes what happened. Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind
	Packet  proto.Message
	User    User
	Channel Channel
	Reason  string
	Ban     bool
	Err     error
}

type handler struct {
	id uint64
	fn func(Event)
}

// Emitter is a typed event bus scoped to one session.
// Handlers run synchronously, in registration order, on the goroutine
// that emits. They must return quickly and must not block on the session.
type Emitter struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[EventKind][]handler
}

// NewEmitter returns an empty bus.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventKind][]handler)}
}

// On registers fn for kind and returns a function that unregisters it.
func (e *Emitter) On(kind EventKind, fn func(Event)) (off func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers[kind] = append(e.handlers[kind], handler{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		hs := e.handlers[kind]
		for i, h := range hs {
			if h.id == id {
				e.handlers[kind] = append(hs[:i:i], hs[i+1:]...)
				return
			}
		}
	}
}

func (e *Emitter) emit(ev Event) {
	e.mu.Lock()
	hs := e.handlers[ev.Kind]
	e.mu.Unlock()

	for _, h := range hs {
		h.fn(ev)
	}
}
