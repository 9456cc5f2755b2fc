package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"studyflow-backend/models"
	"studyflow-backend/utils"
)

// RecipientStore is the read-only view of user data the reminder core needs.
type RecipientStore interface {
	// QueryEligible returns opted-in users scheduled on day with no learning log on asOf's calendar date.
	// Rows may repeat a user; callers dedup.
	QueryEligible(ctx context.Context, day models.Weekday, asOf time.Time) ([]models.Recipient, error)
	// FindRecipient returns the user's push address and whether reminders are enabled.
	FindRecipient(ctx context.Context, userID string) (models.Recipient, bool, error)
}

type GormRecipientStore struct {
	db *gorm.DB
}

var _ RecipientStore = (*GormRecipientStore)(nil)

func NewGormRecipientStore(db *gorm.DB) *GormRecipientStore {
	return &GormRecipientStore{db: db}
}

type candidateRow struct {
	UserID      string
	DeviceToken string
	Days        string
}

func (s *GormRecipientStore) QueryEligible(ctx context.Context, day models.Weekday, asOf time.Time) ([]models.Recipient, error) {
	start, end := utils.DateBounds(asOf)

	var rows []candidateRow
	err := s.db.WithContext(ctx).
		Table("notification_tokens AS nt").
		Select("nt.user_id, nt.device_token, wt.days").
		Joins("INNER JOIN weekly_targets wt ON wt.user_id = nt.user_id").
		Where("nt.is_enabled = ?", true).
		Where("nt.device_token IS NOT NULL AND nt.device_token <> ''").
		Where("NOT EXISTS (SELECT 1 FROM learning_logs ll WHERE ll.user_id = nt.user_id AND ll.log_date >= ? AND ll.log_date < ?)", start, end).
		Order("nt.id ASC, wt.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query eligible: %w", ErrStoreUnavailable, err)
	}

	recipients := make([]models.Recipient, 0, len(rows))
	for _, row := range rows {
		if !scheduledOn(row.Days, day) {
			continue
		}
		recipients = append(recipients, models.Recipient{UserID: row.UserID, PushAddress: row.DeviceToken})
	}
	return recipients, nil
}

func (s *GormRecipientStore) FindRecipient(ctx context.Context, userID string) (models.Recipient, bool, error) {
	var token models.NotificationToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Recipient{}, false, ErrRecipientNotFound
	}
	if err != nil {
		return models.Recipient{}, false, fmt.Errorf("%w: find recipient: %w", ErrStoreUnavailable, err)
	}
	if strings.TrimSpace(token.DeviceToken) == "" {
		return models.Recipient{}, false, ErrRecipientNotFound
	}
	return models.Recipient{UserID: token.UserID, PushAddress: token.DeviceToken}, token.IsEnabled, nil
}

// NotificationStatus reports the user's registration. ErrRecipientNotFound means no token row exists.
func (s *GormRecipientStore) NotificationStatus(ctx context.Context, userID string) (models.NotificationStatus, error) {
	var token models.NotificationToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotificationStatus{UserID: userID}, ErrRecipientNotFound
	}
	if err != nil {
		return models.NotificationStatus{UserID: userID}, fmt.Errorf("%w: notification status: %w", ErrStoreUnavailable, err)
	}
	hasToken := strings.TrimSpace(token.DeviceToken) != ""
	return models.NotificationStatus{
		UserID:     userID,
		Subscribed: hasToken,
		Enabled:    token.IsEnabled,
		HasToken:   hasToken,
	}, nil
}

// scheduledOn reports whether the JSON day list contains day. Malformed lists never match.
func scheduledOn(raw string, day models.Weekday) bool {
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return false
	}
	for _, label := range labels {
		if d, err := models.ParseWeekday(label); err == nil && d == day {
			return true
		}
	}
	return false
}
