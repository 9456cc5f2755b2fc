package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderLog struct {
	ID                uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	RunID             string    `gorm:"type:varchar(36);index;not null"`
	UserID            string    `gorm:"type:varchar(64);index;not null"`
	Trigger           string    `gorm:"type:varchar(20)"` // timer, manual, test
	Template          string    `gorm:"type:varchar(40)"`
	Day               string    `gorm:"type:varchar(20)"`
	Status            string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage      string    `gorm:"type:text"`
	ProviderMessageID string    `gorm:"type:varchar(100)"`
	Provider          string    `gorm:"type:varchar(20)"` // onesignal, twilio, log
	SentAt            time.Time
	CreatedAt         time.Time
}

func (ReminderLog) TableName() string { return "reminder_logs" }

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
