package core

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

const (
	selfSession  uint32 = 7
	otherSession uint32 = 9
	waitTimeout         = 2 * time.Second
)

// fakeServer is the far end of an in-memory connection. It decodes every
// frame the client writes and lets the test write frames back.
type fakeServer struct {
	t    *testing.T
	conn net.Conn
	recv chan proto.Message
	wmu  sync.Mutex
}

func newFakeServer(t *testing.T) (*fakeServer, net.Conn) {
	t.Helper()

	client, server := net.Pipe()
	fs := &fakeServer{t: t, conn: server, recv: make(chan proto.Message, 256)}
	go fs.readLoop()

	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return fs, client
}

func (fs *fakeServer) readLoop() {
	defer close(fs.recv)
	for {
		typ, payload, err := proto.ReadFrame(fs.conn)
		if err != nil {
			return
		}
		m, err := proto.Decode(typ, payload)
		if err != nil {
			continue
		}
		fs.recv <- m
	}
}

// write is safe to call from any goroutine.
func (fs *fakeServer) write(msgs ...proto.Message) error {
	fs.wmu.Lock()
	defer fs.wmu.Unlock()
	for _, m := range msgs {
		if err := proto.WriteFrame(fs.conn, m); err != nil {
			return err
		}
	}
	return nil
}

func (fs *fakeServer) send(msgs ...proto.Message) {
	fs.t.Helper()
	require.NoError(fs.t, fs.write(msgs...))
}

// next returns the next packet the client wrote, whatever its type.
func (fs *fakeServer) next() proto.Message {
	fs.t.Helper()
	select {
	case m, ok := <-fs.recv:
		if !ok {
			fs.t.Fatalf("client closed the connection")
		}
		return m
	case <-time.After(waitTimeout):
		fs.t.Fatalf("no packet from client")
	}
	return nil
}

// expect skips packets until one of type typ arrives.
func (fs *fakeServer) expect(typ proto.MessageType) proto.Message {
	fs.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case m, ok := <-fs.recv:
			if !ok {
				fs.t.Fatalf("client closed the connection while waiting for %s", typ)
			}
			if m.Type() == typ {
				return m
			}
		case <-deadline:
			fs.t.Fatalf("expected %s from client", typ)
		}
	}
}

// respond answers every packet of type typ with reply(m) until the client hangs up.
// It consumes the receive queue, so it must not be combined with expect.
func (fs *fakeServer) respond(typ proto.MessageType, reply func(proto.Message) []proto.Message) {
	go func() {
		for m := range fs.recv {
			if m.Type() != typ {
				continue
			}
			if err := fs.write(reply(m)...); err != nil {
				return
			}
		}
	}()
}

// greet reads the client's opening packets and sends back everything a
// server sends to an accepted client.
func (fs *fakeServer) greet(session uint32) {
	fs.t.Helper()

	fs.expect(proto.TypeVersion)
	fs.expect(proto.TypeAuthenticate)
	fs.expect(proto.TypePing)

	fs.send(
		&proto.Version{
			VersionV2: proto.Uint64(proto.SemVer{Major: 1, Minor: 5, Patch: 634}.V2()),
			Release:   proto.String("1.5.634"),
			OS:        proto.String("Linux"),
		},
		&proto.ChannelState{ChannelID: proto.Uint32(RootChannelID), Name: proto.String("Root")},
		&proto.ChannelState{ChannelID: proto.Uint32(1), Parent: proto.Uint32(RootChannelID), Name: proto.String("Lobby")},
		&proto.UserState{Session: proto.Uint32(session), Name: proto.String("bot"), ChannelID: proto.Uint32(RootChannelID)},
		&proto.UserState{Session: proto.Uint32(otherSession), Name: proto.String("alice"), ChannelID: proto.Uint32(1), UserID: proto.Uint32(3)},
		&proto.ServerSync{
			Session:      proto.Uint32(session),
			MaxBandwidth: proto.Uint32(72000),
			WelcomeText:  proto.String("welcome"),
		},
		&proto.ServerConfig{MessageLength: proto.Uint32(5000)},
		&proto.Ping{Timestamp: proto.Uint64(1)},
	)
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testOptions() Options {
	return Options{
		Username:       "bot",
		PingInterval:   time.Hour,
		CommandTimeout: time.Second,
		GraceDelay:     20 * time.Millisecond,
	}
}

// startHandshake runs Handshake in the background and returns its result channel.
func startHandshake(ctx context.Context, s *Session) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- s.Handshake(ctx) }()
	return errc
}

func waitErr(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(waitTimeout):
		t.Fatalf("operation did not finish")
	}
	return nil
}

// connectSession returns a session that has completed its handshake
// against a fake server.
func connectSession(t *testing.T, opts Options) (*Session, *fakeServer) {
	t.Helper()

	fs, conn := newFakeServer(t)
	s := NewSession(conn, opts, nil)
	errc := startHandshake(context.Background(), s)
	fs.greet(selfSession)
	require.NoError(t, waitErr(t, errc))
	t.Cleanup(s.Disconnect)
	return s, fs
}

// recordEvents buffers every event of the given kinds.
func recordEvents(s *Session, kinds ...EventKind) <-chan Event {
	ch := make(chan Event, 256)
	for _, k := range kinds {
		s.Events().On(k, func(ev Event) { ch <- ev })
	}
	return ch
}

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
		}
	}
}

func noEvent(t *testing.T, ch <-chan Event, kind EventKind, within time.Duration) {
	t.Helper()

	deadline := time.After(within)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				t.Fatalf("unexpected %v event: %+v", kind, ev)
			}
		case <-deadline:
			return
		}
	}
}

type recordedMetrics struct {
	mu       sync.Mutex
	received map[proto.MessageType]int
	sent     map[proto.MessageType]int
	outcomes map[string][]Outcome
	skipped  int
}

func newRecordedMetrics() *recordedMetrics {
	return &recordedMetrics{
		received: make(map[proto.MessageType]int),
		sent:     make(map[proto.MessageType]int),
		outcomes: make(map[string][]Outcome),
	}
}

func (m *recordedMetrics) PacketReceived(t proto.MessageType) {
	m.mu.Lock()
	m.received[t]++
	m.mu.Unlock()
}

func (m *recordedMetrics) PacketSent(t proto.MessageType) {
	m.mu.Lock()
	m.sent[t]++
	m.mu.Unlock()
}

func (m *recordedMetrics) CommandResolved(command string, outcome Outcome) {
	m.mu.Lock()
	m.outcomes[command] = append(m.outcomes[command], outcome)
	m.mu.Unlock()
}

func (m *recordedMetrics) PingSkipped() {
	m.mu.Lock()
	m.skipped++
	m.mu.Unlock()
}

func (m *recordedMetrics) outcomesOf(command string) []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Outcome(nil), m.outcomes[command]...)
}

func (m *recordedMetrics) skips() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.skipped
}

func (m *recordedMetrics) sentOf(t proto.MessageType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[t]
}
