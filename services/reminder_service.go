package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studyflow-backend/models"
	"studyflow-backend/utils"
)

type ReminderServiceConfig struct {
	Location     *time.Location
	Locale       models.DayLocale
	ReminderTime string
}

// ReminderService runs one resolve+dispatch cycle per call.
type ReminderService struct {
	store      RecipientStore
	resolver   *EligibilityResolver
	dispatcher *Dispatcher
	recorder   DeliveryRecorder
	cfg        ReminderServiceConfig
	now        func() time.Time
	log        zerolog.Logger
}

// NewReminderService wires the pipeline. recorder may be nil.
func NewReminderService(store RecipientStore, dispatcher *Dispatcher, recorder DeliveryRecorder, cfg ReminderServiceConfig, log zerolog.Logger) *ReminderService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Locale == "" {
		cfg.Locale = models.LocaleIndonesian
	}
	return &ReminderService{
		store:      store,
		resolver:   NewEligibilityResolver(store, cfg.Location, log),
		dispatcher: dispatcher,
		recorder:   recorder,
		cfg:        cfg,
		now:        time.Now,
		log:        log.With().Str("component", "reminders").Logger(),
	}
}

// SetClock replaces the clock used for "today". Intended for tests and re-runs.
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
	s.resolver.now = now
}

// SendDailyReminders resolves today's audience in the configured timezone and dispatches the daily reminder.
// It always returns a summary; a store failure yields Attempted=0 with Error set.
func (s *ReminderService) SendDailyReminders(ctx context.Context, trigger models.Trigger) models.DispatchSummary {
	started := s.now()
	today := started.In(s.cfg.Location)
	day := models.WeekdayOf(today)
	dayName := day.Label(s.cfg.Locale)

	base := models.DispatchSummary{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		Template:  DailyReminder.String(),
		Day:       dayName,
		Date:      today.Format(utils.DateLayout),
		StartedAt: started,
	}
	log := s.log.With().Str("run_id", base.RunID).Str("trigger", string(trigger)).Str("day", dayName).Str("date", base.Date).Logger()
	log.Info().Msg("reminder cycle started")

	recipients, err := s.resolver.ResolveEligibleAt(ctx, day, today)
	if err != nil {
		base.Error = err.Error()
		base.FinishedAt = s.now()
		base.Tally()
		log.Error().Err(err).Msg("reminder cycle failed: could not resolve recipients")
		return base
	}
	if len(recipients) == 0 {
		base.FinishedAt = s.now()
		log.Info().Msg("no users need a reminder today")
		return base
	}

	dayOnly := map[string]string{"day": dayName}
	result := s.dispatcher.Dispatch(ctx, recipients, DailyReminder, func(models.Recipient) map[string]string {
		return dayOnly
	})
	summary := s.finish(ctx, base, result)

	s.logSummary(log, summary)
	return summary
}

// SendTemplate pushes kind to a single user, ignoring schedule and activity. Used by the test and welcome endpoints.
func (s *ReminderService) SendTemplate(ctx context.Context, userID string, kind TemplateKind) (models.DispatchSummary, error) {
	recipient, enabled, err := s.store.FindRecipient(ctx, userID)
	if err != nil {
		return models.DispatchSummary{}, err
	}
	if !enabled {
		return models.DispatchSummary{}, ErrNotificationsDisabled
	}

	started := s.now()
	today := started.In(s.cfg.Location)
	dayName := models.WeekdayOf(today).Label(s.cfg.Locale)
	base := models.DispatchSummary{
		RunID:     uuid.NewString(),
		Trigger:   models.TriggerTest,
		Template:  kind.String(),
		Day:       dayName,
		Date:      today.Format(utils.DateLayout),
		StartedAt: started,
	}

	subs := map[string]string{"day": dayName, "time": s.cfg.ReminderTime}
	result := s.dispatcher.Dispatch(ctx, []models.Recipient{recipient}, kind, func(models.Recipient) map[string]string {
		return subs
	})
	summary := s.finish(ctx, base, result)

	s.logSummary(s.log.With().Str("run_id", summary.RunID).Str("trigger", string(summary.Trigger)).Logger(), summary)
	if summary.Delivered == 0 {
		return summary, fmt.Errorf("%w: %s", ErrDeliveryFailed, summary.Outcomes[0].Error)
	}
	return summary, nil
}

func (s *ReminderService) finish(ctx context.Context, base, result models.DispatchSummary) models.DispatchSummary {
	base.Template = result.Template
	base.Outcomes = result.Outcomes
	base.Tally()
	base.FinishedAt = s.now()

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, s.dispatcher.Provider(), base); err != nil {
			s.log.Warn().Err(err).Str("run_id", base.RunID).Msg("could not record delivery log")
		}
	}
	return base
}

func (s *ReminderService) logSummary(log zerolog.Logger, summary models.DispatchSummary) {
	for _, o := range summary.Outcomes {
		ev := log.Info()
		if !o.Delivered {
			ev = log.Warn().Str("error", o.Error)
		}
		ev.Str("user_id", o.Recipient.UserID).Bool("delivered", o.Delivered).Str("message_id", o.ProviderMessageID).Msg("reminder outcome")
	}
	log.Info().
		Int("attempted", summary.Attempted).
		Int("delivered", summary.Delivered).
		Int("failed", summary.Failed).
		Dur("took", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("reminder cycle finished")
}

// IsStoreFailure reports whether err came from the recipient store being unavailable.
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
