package models

import "time"

// NotificationToken is owned by the registration flow; the reminder core only reads it.
type NotificationToken struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      string `gorm:"type:varchar(64);uniqueIndex;not null"`
	DeviceToken string `gorm:"type:varchar(255)"`
	IsEnabled   bool   `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (NotificationToken) TableName() string { return "notification_tokens" }

// WeeklyTarget holds the days a user plans to study as a JSON array of day labels.
type WeeklyTarget struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"type:varchar(64);index;not null"`
	Days      string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WeeklyTarget) TableName() string { return "weekly_targets" }

// LearningLog marks study activity for a user on LogDate (YYYY-MM-DD).
type LearningLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"type:varchar(64);index;not null"`
	LogDate   string `gorm:"type:date;index;not null"`
	Notes     string `gorm:"type:text"`
	CreatedAt time.Time
}

func (LearningLog) TableName() string { return "learning_logs" }
