package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"studyflow-backend/models"
)

// DeliveryRecorder persists a finished cycle's outcomes for auditing.
type DeliveryRecorder interface {
	Record(ctx context.Context, provider string, summary models.DispatchSummary) error
}

type GormDeliveryLog struct {
	db *gorm.DB
}

var _ DeliveryRecorder = (*GormDeliveryLog)(nil)

func NewGormDeliveryLog(db *gorm.DB) *GormDeliveryLog {
	return &GormDeliveryLog{db: db}
}

func (l *GormDeliveryLog) Record(ctx context.Context, provider string, summary models.DispatchSummary) error {
	if len(summary.Outcomes) == 0 {
		return nil
	}

	rows := make([]models.ReminderLog, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		status := "sent"
		if !o.Delivered {
			status = "failed"
		}
		rows = append(rows, models.ReminderLog{
			RunID:             summary.RunID,
			UserID:            o.Recipient.UserID,
			Trigger:           string(summary.Trigger),
			Template:          summary.Template,
			Day:               summary.Day,
			Status:            status,
			ErrorMessage:      o.Error,
			ProviderMessageID: o.ProviderMessageID,
			Provider:          provider,
			SentAt:            summary.FinishedAt,
		})
	}

	if err := l.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("record reminder logs: %w", err)
	}
	return nil
}
