package risk

import (
	"context"
	"fmt"

	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically classifies messages that missed in-process
// classification, e.g. rows written by other clients.
type Sweeper struct {
	svc    *Service
	batch  int
	logger *zap.Logger
	cron   *rcron.Cron
}

func NewSweeper(svc *Service, batch int, logger *zap.Logger) *Sweeper {
	if batch <= 0 {
		batch = 100
	}
	return &Sweeper{svc: svc, batch: batch, logger: logger}
}

// Start registers the sweep under a cron spec such as "@every 5m" and runs it
// until ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	s.cron = rcron.New()
	if _, err := s.cron.AddFunc(schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("register risk sweep %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("risk sweep scheduled", zap.String("schedule", schedule), zap.Int("batch", s.batch))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	return s.svc.Sweep(ctx, s.batch)
}

func (s *Sweeper) run(ctx context.Context) {
	n, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("risk sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("risk sweep classified messages", zap.Int("count", n))
	}
}
