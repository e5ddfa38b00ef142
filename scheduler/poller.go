package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"

	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/metrics"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// Poller periodically closes expired cash sessions and receives purchases
// whose expected delivery time has passed.
type Poller struct {
	db       *gorm.DB
	logger   *zap.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	receive  bool
	now      func() time.Time
}

// Result is the outcome of one tick.
type Result struct {
	Received       []uint
	Cancelled      []uint
	SessionsClosed int64
}

func NewPoller(db *gorm.DB, cfg config.SchedulerConfig, logger *zap.Logger, m *metrics.Metrics) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		db:       db,
		logger:   logger.Named("scheduler.poller"),
		metrics:  m,
		interval: interval,
		receive:  cfg.AutoReceive,
		now:      time.Now,
	}
}

// Start runs a tick immediately and then on every interval until ctx is done.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("starting poller", zap.Duration("interval", p.interval), zap.Bool("auto_receive", p.receive))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("poller tick failed", zap.Error(err))
	}
}

// RunOnce executes a single tick. Both jobs run even if the first one fails.
func (p *Poller) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	if err := ctx.Err(); err != nil {
		return res, err
	}
	start := time.Now()
	now := p.now()

	var errs []error
	closed, err := services.CloseExpiredSessions(p.db, now)
	if err != nil {
		errs = append(errs, err)
	}
	res.SessionsClosed = closed

	if p.receive {
		received, cancelled, err := services.AutoReceiveDue(p.db, now)
		if err != nil {
			errs = append(errs, err)
		}
		res.Received = received
		res.Cancelled = cancelled
		if len(cancelled) > 0 {
			p.logger.Warn("cancelled purchases with deleted products", zap.Uints("purchases", cancelled))
		}
	}

	err = errors.Join(errs...)
	p.metrics.SchedulerRun(start, len(res.Received), res.SessionsClosed, err)
	if res.SessionsClosed > 0 || len(res.Received) > 0 {
		p.logger.Info("poller tick",
			zap.Int64("sessions_closed", res.SessionsClosed),
			zap.Uints("purchases_received", res.Received),
			zap.Duration("took", time.Since(start)))
	}
	return res, err
}
