package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// pinger sends a keep-alive on every tick. A tick that fires while the
// previous ping is still being written is dropped, not queued.
type pinger struct {
	interval time.Duration
	send     func() error
	log      *zerolog.Logger
	metrics  Metrics

	inflight atomic.Bool
	wg       sync.WaitGroup

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func newPinger(interval time.Duration, send func() error, logger *zerolog.Logger, metrics Metrics) *pinger {
	return &pinger{interval: interval, send: send, log: logger, metrics: metrics}
}

// start launches the ticker. It does nothing once stop has been called.
func (p *pinger) start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run(ctx)
}

func (p *pinger) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.inflight.CompareAndSwap(false, true) {
				p.metrics.PingSkipped()
				p.log.Debug().Msg("previous ping still in flight, skipping tick")
				continue
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				defer p.inflight.Store(false)
				if ctx.Err() != nil {
					return
				}
				if err := p.send(); err != nil {
					p.log.Debug().Err(err).Msg("ping failed")
				}
			}()
		}
	}
}

// stop cancels the ticker and waits for an in-flight ping to return.
// It is safe to call more than once, and before start.
func (p *pinger) stop() {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}
