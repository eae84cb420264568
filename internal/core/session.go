package core

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

// State is a stage of the connection lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateHandshaking
	StateConnected
	StateDisconnected
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Options configures a session.
type Options struct {
	ClientName string
	Username   string
	Password   string
	Tokens     []string

	// PingInterval is the heartbeat period once connected.
	PingInterval time.Duration
	// CommandTimeout applies to every command that sets no timeout of its own.
	CommandTimeout time.Duration
	// GraceDelay is how long the handshake waits after the server's
	// informational packets for a trailing Reject before it accepts.
	// Mumble sends the same packets ahead of a Reject, so this has to
	// cover the server's observed gap between them.
	GraceDelay time.Duration

	Metrics Metrics
}

// DefaultOptions returns the options used for any zero field.
func DefaultOptions() Options {
	return Options{
		ClientName:     "simple mumble bot",
		PingInterval:   10 * time.Second,
		CommandTimeout: 10 * time.Second,
		GraceDelay:     time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ClientName == "" {
		o.ClientName = def.ClientName
	}
	if o.PingInterval <= 0 {
		o.PingInterval = def.PingInterval
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = def.CommandTimeout
	}
	if o.GraceDelay < 0 {
		o.GraceDelay = 0
	}
	if o.Metrics == nil {
		o.Metrics = nopMetrics{}
	}
	return o
}

var errGraceElapsed = errors.New("handshake grace delay elapsed")

// Session is one connection to a Mumble server, from handshake to disconnect.
// A session is never reused: reconnecting means creating a new one.
type Session struct {
	opts     Options
	log      *zerolog.Logger
	events   *Emitter
	users    *Users
	channels *Channels
	perms    *PermissionCache

	mu            sync.RWMutex
	state         State
	hub           *Hub
	id            uint32
	welcomeText   string
	maxBandwidth  uint32
	serverVersion *proto.Version
	serverConfig  *proto.ServerConfig
	pinger        *pinger
}

// NewSession wraps an established transport and starts reading from it.
// Register event handlers on Events before calling Handshake to observe
// every packet.
func NewSession(conn io.ReadWriteCloser, opts Options, logger *zerolog.Logger) *Session {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	opts = opts.withDefaults()

	s := &Session{
		opts:   opts,
		log:    logger,
		events: NewEmitter(),
		perms:  NewPermissionCache(),
		state:  StateConnecting,
	}
	s.users = newUsers(s)
	s.channels = newChannels(s)

	hub := NewHub(conn, logger, opts.Metrics)
	hub.observe(s.handlePacket)
	s.hub = hub
	hub.Run()

	go func() {
		<-hub.Done()
		s.teardown("", false, hub.Err())
	}()

	return s
}

// Connect creates a session on conn and performs the handshake.
func Connect(ctx context.Context, conn io.ReadWriteCloser, opts Options, logger *zerolog.Logger) (*Session, error) {
	s := NewSession(conn, opts, logger)
	if err := s.Handshake(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Handshake announces the client, authenticates and waits for the server
// to accept or reject the connection.
//
// The server is considered to have accepted once ServerSync, ServerConfig,
// Version and a Ping reply have each arrived and no Reject follows within
// the grace delay. A Reject at any point fails with *ConnectionRejectedError.
func (s *Session) Handshake(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateHandshaking
	hub := s.hub
	s.mu.Unlock()

	s.log.Info().Str("state", StateHandshaking.String()).Msg("starting handshake")

	view := hub.View(OfType(
		proto.TypeServerSync, proto.TypeServerConfig, proto.TypeVersion, proto.TypePing, proto.TypeReject,
	))

	for _, m := range s.handshakePackets() {
		if err := hub.Send(m); err != nil {
			s.fail(StateDisconnected)
			return err
		}
	}

	var (
		welcome *proto.ServerSync
		config  *proto.ServerConfig
		version *proto.Version
		pinged  bool
		wait    = ctx
	)
	for {
		m, err := view.Next(wait)
		if err != nil {
			if errors.Is(err, errGraceElapsed) {
				break
			}
			s.fail(StateDisconnected)
			return err
		}

		switch m := m.(type) {
		case *proto.Reject:
			s.fail(StateRejected)
			rerr := rejectedError(m)
			s.log.Warn().Stringer("type", rerr.Type).Str("reason", rerr.Reason).Msg("connection rejected")
			return rerr
		case *proto.ServerSync:
			if welcome == nil {
				welcome = m
			}
		case *proto.ServerConfig:
			if config == nil {
				config = m
			}
		case *proto.Version:
			if version == nil {
				version = m
			}
		case *proto.Ping:
			pinged = true
		}

		if wait == ctx && welcome != nil && config != nil && version != nil && pinged {
			var cancel context.CancelFunc
			wait, cancel = context.WithTimeoutCause(ctx, s.opts.GraceDelay, errGraceElapsed)
			defer cancel()
		}
	}

	if ctx.Err() != nil {
		s.fail(StateDisconnected)
		return context.Cause(ctx)
	}
	return s.accept(welcome, config, version)
}

func (s *Session) handshakePackets() []proto.Message {
	auth := &proto.Authenticate{
		Username: proto.String(s.opts.Username),
		Tokens:   s.opts.Tokens,
		Opus:     proto.Bool(true),
	}
	if s.opts.Password != "" {
		auth.Password = proto.String(s.opts.Password)
	}

	return []proto.Message{
		&proto.Version{
			Release:   proto.String(s.opts.ClientName),
			VersionV1: proto.Uint32(proto.ClientVersion.Legacy()),
			VersionV2: proto.Uint64(proto.ClientVersion.V2()),
			OS:        proto.String(runtime.GOOS),
			OSVersion: proto.String(runtime.GOARCH + " " + runtime.Version()),
		},
		auth,
		pingPacket(),
	}
}

func pingPacket() *proto.Ping {
	return &proto.Ping{Timestamp: proto.Uint64(uint64(time.Now().UnixMilli()))}
}

func (s *Session) accept(welcome *proto.ServerSync, config *proto.ServerConfig, version *proto.Version) error {
	s.mu.Lock()
	if s.state != StateHandshaking || s.hub == nil {
		s.mu.Unlock()
		return ErrClientDisconnected
	}
	// The read loop may have ended while the grace delay ran; its watcher
	// only tears down connected sessions, so catch that here.
	if err := s.hub.Err(); err != nil {
		s.mu.Unlock()
		s.fail(StateDisconnected)
		return err
	}
	s.state = StateConnected
	if welcome.Session != nil {
		s.id = *welcome.Session
	}
	if welcome.WelcomeText != nil {
		s.welcomeText = *welcome.WelcomeText
	}
	if welcome.MaxBandwidth != nil {
		s.maxBandwidth = *welcome.MaxBandwidth
	}
	s.serverConfig = config
	s.serverVersion = version

	hub := s.hub
	p := newPinger(s.opts.PingInterval, func() error {
		return hub.Send(pingPacket())
	}, s.log, s.opts.Metrics)
	s.pinger = p
	// Started before the lock is released so a teardown racing with
	// EventConnect always finds a running pinger to stop.
	p.start(context.Background())
	id := s.id
	s.mu.Unlock()

	s.log.Info().
		Uint32("session", id).
		Stringer("server_version", proto.SemVerOf(version)).
		Str("state", StateConnected.String()).
		Msg("connected")

	s.events.emit(Event{Kind: EventConnect})

	// A removal or hang-up observed while EventConnect ran has already
	// torn the session down.
	if s.State() != StateConnected {
		return ErrClientDisconnected
	}
	return nil
}

// fail ends a handshake that did not succeed.
func (s *Session) fail(state State) {
	s.mu.Lock()
	if s.state != StateHandshaking {
		s.mu.Unlock()
		return
	}
	s.state = state
	hub := s.hub
	s.hub = nil
	s.mu.Unlock()

	if hub != nil {
		_ = hub.Close()
	}
	s.reset()
}

// Disconnect closes the connection. It is a no-op once the session has ended.
func (s *Session) Disconnect() {
	s.mu.Lock()
	switch s.state {
	case StateConnected:
		s.mu.Unlock()
		s.teardown("", false, nil)
		return
	case StateConnecting, StateHandshaking:
		// An in-progress Handshake observes the closed stream and returns.
		s.state = StateDisconnected
		hub := s.hub
		s.hub = nil
		s.mu.Unlock()
		if hub != nil {
			_ = hub.Close()
		}
		s.reset()
	default:
		s.mu.Unlock()
	}
}

// teardown ends a connected session exactly once.
func (s *Session) teardown(reason string, ban bool, cause error) {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected
	hub := s.hub
	s.hub = nil
	p := s.pinger
	s.pinger = nil
	s.mu.Unlock()

	// Close first so an in-flight ping write is released before stop waits on it.
	_ = hub.Close()
	p.stop()

	if errors.Is(cause, ErrClientDisconnected) {
		cause = nil
	}
	ev := s.log.Info().Str("state", StateDisconnected.String())
	if reason != "" {
		ev = ev.Str("reason", reason).Bool("ban", ban)
	}
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("disconnected")

	s.events.emit(Event{Kind: EventDisconnect, Reason: reason, Ban: ban, Err: cause})
	s.reset()
}

func (s *Session) reset() {
	s.users.reg.reset()
	s.channels.reg.reset()
	s.perms.clear()
}

// handlePacket runs in the read loop for every packet, before any view sees it.
func (s *Session) handlePacket(m proto.Message) {
	s.events.emit(Event{Kind: EventPacket, Packet: m})

	switch m := m.(type) {
	case *proto.UserState:
		if m.Session == nil {
			return
		}
		u, created, changed := s.users.apply(m)
		switch {
		case created:
			s.events.emit(Event{Kind: EventUserCreate, User: u})
		case changed:
			s.events.emit(Event{Kind: EventUserUpdate, User: u})
		}

	case *proto.UserRemove:
		if m.Session == nil {
			return
		}
		ban := m.Ban != nil && *m.Ban
		if u, ok := s.users.remove(*m.Session); ok {
			s.events.emit(Event{Kind: EventUserRemove, User: u, Reason: m.GetReason(), Ban: ban})
		}
		if s.isSelf(*m.Session) {
			s.teardown(m.GetReason(), ban, nil)
		}

	case *proto.ChannelState:
		if m.ChannelID == nil {
			return
		}
		c, created, changed := s.channels.apply(m)
		switch {
		case created:
			s.events.emit(Event{Kind: EventChannelCreate, Channel: c})
		case changed:
			s.events.emit(Event{Kind: EventChannelUpdate, Channel: c})
		}

	case *proto.ChannelRemove:
		if m.ChannelID == nil {
			return
		}
		if c, ok := s.channels.remove(*m.ChannelID); ok {
			s.events.emit(Event{Kind: EventChannelRemove, Channel: c})
		}

	case *proto.PermissionQuery:
		s.perms.apply(m)
	}
}

func (s *Session) isSelf(session uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateConnected && s.id == session
}

func (s *Session) currentHub() *Hub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub
}

// Send writes msg without waiting for any reply.
func (s *Session) Send(msg proto.Message) error {
	hub := s.currentHub()
	if hub == nil {
		return ErrClientDisconnected
	}
	return hub.Send(msg)
}

// Do runs cmd on the session's hub, applying the default command timeout
// when cmd sets none.
func (s *Session) Do(ctx context.Context, cmd Command) (proto.Message, error) {
	hub := s.currentHub()
	if hub == nil {
		return nil, ErrClientDisconnected
	}
	if cmd.Timeout == 0 {
		cmd.Timeout = s.opts.CommandTimeout
	}
	return hub.Do(ctx, cmd)
}

// QueryPermissions asks the server for the session's permissions in
// channelID and returns them once the cache has been updated.
func (s *Session) QueryPermissions(ctx context.Context, channelID uint32) (Permissions, error) {
	_, err := s.Do(ctx, Command{
		Name:   "queryPermissions",
		Packet: &proto.PermissionQuery{ChannelID: proto.Uint32(channelID)},
		Success: Match(func(pq *proto.PermissionQuery) bool {
			return eqUint32(pq.ChannelID, channelID) && pq.Permissions != nil
		}),
		Failure: Match(func(pd *proto.PermissionDenied) bool {
			return pd.ChannelID == nil || *pd.ChannelID == channelID
		}),
	})
	if err != nil {
		return 0, err
	}
	p, _ := s.perms.Get(channelID)
	return p, nil
}

// Subscribe calls fn for every matching packet until ctx ends or stop is called.
func (s *Session) Subscribe(ctx context.Context, f Filter, fn func(proto.Message)) (stop func(), err error) {
	hub := s.currentHub()
	if hub == nil {
		return nil, ErrClientDisconnected
	}
	return hub.Subscribe(ctx, f, fn), nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ID returns the session id the server assigned, or 0 before connect.
func (s *Session) ID() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Self returns the session's own user.
func (s *Session) Self() (User, bool) {
	s.mu.RLock()
	connected := s.state == StateConnected
	id := s.id
	s.mu.RUnlock()
	if !connected {
		return User{}, false
	}
	return s.users.Get(id)
}

// WelcomeText returns the text from ServerSync.
func (s *Session) WelcomeText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.welcomeText
}

// MaxBandwidth returns the bandwidth limit from ServerSync.
func (s *Session) MaxBandwidth() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxBandwidth
}

// ServerVersion returns the server's Version packet, or nil before connect.
func (s *Session) ServerVersion() *proto.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverVersion
}

// ServerConfig returns the server's ServerConfig packet, or nil before connect.
func (s *Session) ServerConfig() *proto.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverConfig
}

// Events returns the session's event bus.
func (s *Session) Events() *Emitter { return s.events }

// Users returns the user registry.
func (s *Session) Users() *Users { return s.users }

// Channels returns the channel registry.
func (s *Session) Channels() *Channels { return s.channels }

// Permissions returns the per-channel permission cache.
func (s *Session) Permissions() *PermissionCache { return s.perms }
