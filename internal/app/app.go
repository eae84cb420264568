package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/mumblebot/internal/config"
	"github.com/vovakirdan/mumblebot/internal/core"
	"github.com/vovakirdan/mumblebot/internal/metrics"
	"github.com/vovakirdan/mumblebot/internal/proto"
	"github.com/vovakirdan/mumblebot/internal/service/registered"
	"github.com/vovakirdan/mumblebot/internal/transport/tcp"
	transporthttp "github.com/vovakirdan/mumblebot/internal/transport/http"
)

// ErrKicked is returned by Run when the server removed the bot.
var ErrKicked = errors.New("removed by server")

// App wires together the session, the dialer and the status server.
type App struct {
	cfg             config.Config
	shutdownTimeout time.Duration
	registry        *prometheus.Registry
	metrics         *metrics.Metrics
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		cfg:             *cfg,
		shutdownTimeout: cfg.ShutdownTimeout,
		registry:        reg,
		metrics:         metrics.New(reg),
		log:             logger,
	}, nil
}

func (a *App) sessionOptions() core.Options {
	return core.Options{
		ClientName:     a.cfg.ClientName,
		Username:       a.cfg.Username,
		Password:       a.cfg.Password,
		Tokens:         a.cfg.Tokens,
		PingInterval:   a.cfg.PingInterval,
		CommandTimeout: a.cfg.CommandTimeout,
		GraceDelay:     a.cfg.ConnectGrace,
		Metrics:        a.metrics,
	}
}

// connect dials the server and returns a session that has not started
// its handshake yet, so callers can register handlers first.
func (a *App) connect(ctx context.Context) (*core.Session, error) {
	conn, err := tcp.Dial(ctx, a.cfg.ServerAddr(), tcp.Options{
		Timeout:            a.cfg.DialTimeout,
		InsecureSkipVerify: a.cfg.InsecureSkipVerify,
		CertFile:           a.cfg.CertFile,
		KeyFile:            a.cfg.KeyFile,
	}, a.log)
	if err != nil {
		return nil, err
	}
	return core.NewSession(conn, a.sessionOptions(), a.log), nil
}

// Run connects, serves the status API when configured and blocks until
// ctx is cancelled or the session ends.
func (a *App) Run(ctx context.Context) error {
	sess, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Disconnect()

	ended := make(chan core.Event, 1)
	var once sync.Once
	sess.Events().On(core.EventDisconnect, func(ev core.Event) {
		once.Do(func() { ended <- ev })
	})
	a.watch(sess)

	if err := sess.Handshake(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	var server *stdhttp.Server
	serverErr := make(chan error, 1)
	if a.cfg.StatusAddr != "" {
		server = transporthttp.NewServer(transporthttp.SessionSource{Session: sess}, a.registry, a.cfg, a.log)
		go func() {
			a.log.Info().Str("addr", server.Addr).Msg("status server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case ev := <-ended:
		switch {
		case ev.Reason != "" || ev.Ban:
			runErr = fmt.Errorf("%w: %s", ErrKicked, ev.Reason)
		case ev.Err != nil:
			runErr = ev.Err
		}
	case err := <-serverErr:
		runErr = fmt.Errorf("status server: %w", err)
		server = nil
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down status server")
		if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// Exec connects, runs fn against the live session and disconnects.
func (a *App) Exec(ctx context.Context, fn func(ctx context.Context, sess *core.Session) error) error {
	sess, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Disconnect()

	if err := sess.Handshake(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return fn(ctx, sess)
}

// Registered returns the registered user service for sess.
func (a *App) Registered(sess *core.Session) *registered.Service {
	return registered.New(sess, a.log, a.cfg.CommandTimeout)
}

// watch logs what happens on the server.
func (a *App) watch(sess *core.Session) {
	events := sess.Events()

	events.On(core.EventConnect, func(core.Event) {
		self, _ := sess.Self()
		channel, _ := self.Channel()
		a.log.Info().
			Uint32("session", sess.ID()).
			Str("channel", channel.Name).
			Int("users", sess.Users().Len()).
			Int("channels", sess.Channels().Len()).
			Msg("joined server")
		if text := sess.WelcomeText(); text != "" {
			a.log.Info().Str("welcome", text).Msg("server welcome")
		}
	})

	events.On(core.EventUserCreate, func(ev core.Event) {
		if sess.State() != core.StateConnected {
			return
		}
		a.log.Info().Uint32("session", ev.User.Session).Str("user", ev.User.Name).Msg("user connected")
	})

	events.On(core.EventUserRemove, func(ev core.Event) {
		a.log.Info().Uint32("session", ev.User.Session).Str("user", ev.User.Name).Str("reason", ev.Reason).Msg("user left")
	})

	events.On(core.EventPacket, func(ev core.Event) {
		tm, ok := ev.Packet.(*proto.TextMessage)
		if !ok || tm.Message == nil {
			return
		}
		from := "server"
		if tm.Actor != nil {
			if u, ok := sess.Users().Get(*tm.Actor); ok {
				from = u.Name
			}
		}
		a.log.Info().Str("from", from).Str("text", *tm.Message).Msg("text message")
	})
}
