package service

import (
	"context"
	"encoding/json"
	"time"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/config"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/pkg/logger"
	"golang-deal-sentinel/pkg/telegram"
)

// PulseService builds the recurring briefing of the highest-conviction
// signals inside the configured window and optionally pushes it to Telegram.
type PulseService struct {
	cfg        *config.Config
	logger     *logger.Logger
	signalRepo repository.SignalRepository
	pulseRepo  repository.PulseRepository
	notifier   telegram.Notifier
}

// NewPulseService creates a new PulseService. notifier may be nil when no
// Telegram credentials are configured; the pulse is still persisted.
func NewPulseService(
	cfg *config.Config,
	log *logger.Logger,
	signalRepo repository.SignalRepository,
	pulseRepo repository.PulseRepository,
	notifier telegram.Notifier,
) *PulseService {
	return &PulseService{
		cfg:        cfg,
		logger:     log,
		signalRepo: signalRepo,
		pulseRepo:  pulseRepo,
		notifier:   notifier,
	}
}

// GeneratePulse collects the top signals since the window cutoff, stores the
// briefing, and sends the notification.
func (s *PulseService) GeneratePulse(ctx context.Context) (*entity.Pulse, error) {
	now := time.Now().UTC()
	since := now.Add(-time.Duration(s.cfg.Pulse.WindowHours) * time.Hour)

	signals, err := s.signalRepo.FindTopSince(ctx, since, s.cfg.Pulse.TopN)
	if err != nil {
		return nil, err
	}

	items, err := json.Marshal(signals)
	if err != nil {
		return nil, err
	}

	pulse := &entity.Pulse{
		PulseDate:   now.Format("2006-01-02"),
		SignalCount: len(signals),
		Items:       items,
	}
	if err := s.pulseRepo.Create(ctx, pulse); err != nil {
		return nil, err
	}

	s.logger.Info("Pulse generated",
		logger.StringField("pulse_date", pulse.PulseDate),
		logger.IntField("signal_count", pulse.SignalCount),
	)

	if s.notifier != nil {
		message := telegram.FormatPulseMessage(pulse.PulseDate, signals)
		if err := s.notifier.SendMessage(message); err != nil {
			// Delivery is best effort; the stored pulse is the record.
			s.logger.Error("Failed to send pulse notification", logger.ErrorField(err))
		}
	}

	return pulse, nil
}

// GetLatestPulse returns the most recently generated briefing.
func (s *PulseService) GetLatestPulse(ctx context.Context) (*entity.Pulse, error) {
	return s.pulseRepo.GetLatest(ctx)
}
