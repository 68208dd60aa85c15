package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/starwatch/sentiment/internal/logger"
)

const defaultPollIntervalSeconds = 30

// PollerConfig holds poller configuration.
type PollerConfig struct {
	PollInterval time.Duration
}

// Poller runs the enrichment runner on an interval until stopped.
type Poller struct {
	runner   *Runner
	log      logger.Logger
	interval time.Duration
	running  bool
	stopChan chan struct{}
}

// NewPoller creates a poller around a runner.
func NewPoller(runner *Runner, config PollerConfig, log logger.Logger) *Poller {
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollIntervalSeconds * time.Second
	}
	return &Poller{
		runner:   runner,
		log:      log,
		interval: config.PollInterval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the polling loop. It returns an error if already running.
func (p *Poller) Start(ctx context.Context) error {
	if p.running {
		return errors.New("poller is already running")
	}

	p.running = true
	if p.log != nil {
		p.log.Info("poller starting", logger.Duration("poll_interval", p.interval))
	}

	go p.run(ctx)
	return nil
}

// Stop stops the polling loop.
func (p *Poller) Stop() {
	if !p.running {
		return
	}
	if p.log != nil {
		p.log.Info("poller stopping")
	}
	close(p.stopChan)
	p.running = false
}

// IsRunning reports whether the polling loop is active.
func (p *Poller) IsRunning() bool {
	return p.running
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Process immediately on start.
	p.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			if p.log != nil {
				p.log.Info("poller stopped, context cancelled")
			}
			return
		case <-p.stopChan:
			if p.log != nil {
				p.log.Info("poller stopped")
			}
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if _, err := p.runner.RunOnce(ctx); err != nil && p.log != nil {
		p.log.Error("enrichment run failed", logger.Error(err))
	}
}
