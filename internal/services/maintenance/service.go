package maintenance

import (
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/services/dedup"
)

// Service runs periodic housekeeping: storage value-log GC and pruning of
// the in-process dedup fallback.
type Service struct {
	cron    *cron.Cron
	storage interfaces.StorageManager
	dedup   *dedup.Service
	logger  arbor.ILogger
}

// NewService creates a maintenance service
func NewService(storage interfaces.StorageManager, dedupService *dedup.Service, logger arbor.ILogger) *Service {
	return &Service{
		cron:    cron.New(),
		storage: storage,
		dedup:   dedupService,
		logger:  logger,
	}
}

// Start schedules the maintenance job on the given cron spec
func (s *Service) Start(spec string) error {
	if spec == "" {
		spec = "@every 10m"
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("spec", spec).Msg("Maintenance scheduler started")
	return nil
}

func (s *Service) run() {
	if err := s.storage.RunGC(); err != nil {
		s.logger.Warn().Err(err).Msg("Storage GC pass failed")
	}

	if s.dedup != nil {
		if pruned := s.dedup.Prune(); pruned > 0 {
			s.logger.Debug().Int("pruned", pruned).Msg("Pruned dedup fallback entries")
		}
	}
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Maintenance scheduler stopped")
}
