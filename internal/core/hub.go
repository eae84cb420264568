package core

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/mumblebot/internal/proto"
	"github.com/vovakirdan/mumblebot/internal/pubsub"
)

// Metrics receives protocol counters. All methods must be safe for concurrent use.
type Metrics interface {
	PacketReceived(t proto.MessageType)
	PacketSent(t proto.MessageType)
	CommandResolved(command string, outcome Outcome)
	PingSkipped()
}

type nopMetrics struct{}

func (nopMetrics) PacketReceived(proto.MessageType) {}
func (nopMetrics) PacketSent(proto.MessageType)     {}
func (nopMetrics) CommandResolved(string, Outcome)  {}
func (nopMetrics) PingSkipped()                     {}

// Hub turns a byte stream into a multicast stream of decoded packets
// and writes encoded packets back to it.
//
// A single read loop decodes frames, runs the registered observers
// synchronously and then publishes the packet. Views and subscribers each
// walk the published stream independently, so none of them can hold up
// the read loop or each other.
type Hub struct {
	conn    io.ReadWriteCloser
	log     *zerolog.Logger
	metrics Metrics

	wmu sync.Mutex

	mu        sync.Mutex
	tail      *pubsub.Stream[proto.Message]
	observers []func(proto.Message)
	closing   bool
	closed    bool
	err       error

	runOnce sync.Once
	done    chan struct{}
}

// NewHub wraps conn. Call Run to start reading.
func NewHub(conn io.ReadWriteCloser, logger *zerolog.Logger, metrics Metrics) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Hub{
		conn:    conn,
		log:     logger,
		metrics: metrics,
		tail:    pubsub.NewStream[proto.Message](),
		done:    make(chan struct{}),
	}
}

// Run starts the read loop. Subsequent calls are no-ops.
func (h *Hub) Run() {
	h.runOnce.Do(func() {
		go h.readLoop()
	})
}

// Done is closed once the read loop has exited.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Err reports why the stream ended, or nil while it is still open.
func (h *Hub) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Close closes the transport. It does not wait for the read loop,
// so it is safe to call from an observer.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		return nil
	}
	h.closing = true
	h.mu.Unlock()

	if err := h.conn.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// observe registers fn to run in the read loop for every packet,
// before the packet becomes visible to views.
func (h *Hub) observe(fn func(proto.Message)) {
	h.mu.Lock()
	h.observers = append(h.observers, fn)
	h.mu.Unlock()
}

func (h *Hub) readLoop() {
	defer close(h.done)

	for {
		t, payload, err := proto.ReadFrame(h.conn)
		if err != nil {
			h.finish(err)
			return
		}

		msg, err := proto.Decode(t, payload)
		if err != nil {
			h.log.Warn().Err(err).Stringer("type", t).Msg("dropping undecodable packet")
			continue
		}

		h.metrics.PacketReceived(t)
		if e := h.log.Debug(); e.Enabled() {
			e.Stringer("type", t).Int("size", len(payload)).Msg("packet received")
		}
		h.dispatch(msg)
	}
}

func (h *Hub) dispatch(msg proto.Message) {
	h.mu.Lock()
	observers := h.observers
	h.mu.Unlock()

	for _, fn := range observers {
		fn(msg)
	}

	h.mu.Lock()
	h.tail = h.tail.Publish(msg)
	h.mu.Unlock()
}

func (h *Hub) finish(readErr error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.closing {
		err = ErrClientDisconnected
	} else {
		err = &TransportError{Op: "read", Err: readErr}
		if !errors.Is(readErr, io.EOF) {
			h.log.Warn().Err(readErr).Msg("transport read failed")
		}
	}
	h.closed = true
	h.err = err
	h.tail.Close(err)
}

// Send encodes msg and writes it as one frame.
// There is no protocol-level acknowledgement.
func (h *Hub) Send(msg proto.Message) error {
	buf, err := proto.Encode(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	closed := h.closing || h.closed
	h.mu.Unlock()
	if closed {
		return &TransportError{Op: "write", Err: net.ErrClosed}
	}

	h.wmu.Lock()
	_, err = h.conn.Write(buf)
	h.wmu.Unlock()
	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}

	h.metrics.PacketSent(msg.Type())
	if e := h.log.Debug(); e.Enabled() {
		e.Stringer("type", msg.Type()).Int("size", len(buf)-proto.HeaderSize).Msg("packet sent")
	}
	return nil
}

// View is a filtered window onto the packet stream.
// It only observes packets published after it was created and never
// replays history. Dropping a View is all it takes to cancel it.
type View struct {
	cur    *pubsub.Cursor[proto.Message]
	filter Filter
}

// View returns a new view positioned at the current end of the stream.
func (h *Hub) View(f Filter) *View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &View{cur: pubsub.NewCursor(h.tail), filter: f}
}

// Next blocks until the next matching packet arrives.
// Once the stream has ended and every earlier packet has been seen,
// it returns the reason the stream ended.
func (v *View) Next(ctx context.Context) (proto.Message, error) {
	for {
		m, err := v.cur.Next(ctx)
		if err != nil {
			return nil, err
		}
		if v.filter.match(m) {
			return m, nil
		}
	}
}

// Subscribe calls fn for every matching packet in its own goroutine,
// in arrival order, until ctx ends, the stream ends or stop is called.
// stop waits for the goroutine to exit and must not be called from fn.
func (h *Hub) Subscribe(ctx context.Context, f Filter, fn func(proto.Message)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	v := h.View(f)
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		for {
			m, err := v.Next(ctx)
			if err != nil || ctx.Err() != nil {
				return
			}
			fn(m)
		}
	}()

	return func() {
		cancel()
		<-exited
	}
}
