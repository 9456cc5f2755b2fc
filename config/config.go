package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"studyflow-backend/models"
	"studyflow-backend/utils"
)

// ErrInvalidConfiguration is returned by Load when the environment cannot produce a runnable config.
var ErrInvalidConfiguration = errors.New("invalid configuration")

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Push      PushConfig
}

type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"5001"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"LOG_FORMAT" default:"json"` // json|console
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"https://studyflow.my.id,http://studyflow.my.id"`
}

type DatabaseConfig struct {
	Driver       string `envconfig:"DB_DRIVER" default:"mysql"` // mysql|postgres|sqlite
	URL          string `envconfig:"DB_URL"`
	Host         string `envconfig:"DB_HOST" default:"localhost"`
	Port         int    `envconfig:"DB_PORT" default:"3306"`
	User         string `envconfig:"DB_USER" default:"root"`
	Password     string `envconfig:"DB_PASSWORD"`
	Name         string `envconfig:"DB_NAME" default:"learningweeklytarget"`
	Path         string `envconfig:"DB_PATH" default:"./studyflow.db"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	AutoMigrate  bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	AuditLog     bool   `envconfig:"REMINDER_AUDIT_LOG" default:"true"`
}

// SchedulerConfig describes when the daily reminder fires.
type SchedulerConfig struct {
	Enabled      bool   `envconfig:"ENABLE_SCHEDULER" default:"false"`
	ReminderTime string `envconfig:"REMINDER_TIME" default:"09:00"`
	Timezone     string `envconfig:"TIMEZONE" default:"Asia/Jakarta"`
	DayLocale    string `envconfig:"DAY_LOCALE" default:"id"`

	Hour     int            `ignored:"true"`
	Minute   int            `ignored:"true"`
	Location *time.Location `ignored:"true"`
}

type PushConfig struct {
	Provider    string        `envconfig:"PUSH_PROVIDER" default:"onesignal"` // onesignal|twilio|log
	Timeout     time.Duration `envconfig:"PUSH_TIMEOUT" default:"5s"`
	Concurrency int           `envconfig:"PUSH_CONCURRENCY" default:"4"`
	RatePerSec  float64       `envconfig:"PUSH_RATE_PER_SEC" default:"0"`

	OneSignalAppID  string `envconfig:"ONESIGNAL_APP_ID"`
	OneSignalAPIKey string `envconfig:"ONESIGNAL_REST_API_KEY"`
	OneSignalURL    string `envconfig:"ONESIGNAL_API_URL" default:"https://onesignal.com/api/v1/notifications"`
	WebURL          string `envconfig:"WEB_URL" default:"http://localhost:5001/dashboard"`

	TwilioAccountSID       string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken        string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioNotifyServiceSID string `envconfig:"TWILIO_NOTIFY_SERVICE_SID"`
}

// Load reads the process environment and validates it. Any error wraps ErrInvalidConfiguration.
func Load() (*Config, error) {
	var cfg Config
	for _, section := range []any{&cfg.Server, &cfg.Database, &cfg.Scheduler, &cfg.Push} {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and resolves derived scheduler fields.
func (c *Config) Validate() error {
	if err := c.Scheduler.resolve(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if err := c.Push.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return nil
}

func (s *SchedulerConfig) resolve() error {
	hour, minute, err := utils.ParseClock(s.ReminderTime)
	if err != nil {
		return fmt.Errorf("REMINDER_TIME: %w", err)
	}
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		return errors.New("TIMEZONE is required")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("TIMEZONE: unknown zone %q", tz)
	}
	if !models.ValidLocale(models.DayLocale(s.DayLocale)) {
		return fmt.Errorf("DAY_LOCALE: unsupported locale %q (use id or en)", s.DayLocale)
	}
	s.Hour, s.Minute, s.Location = hour, minute, loc
	return nil
}

// Locale returns the configured day-label locale.
func (s SchedulerConfig) Locale() models.DayLocale {
	return models.DayLocale(s.DayLocale)
}

func (d DatabaseConfig) validate() error {
	switch d.Driver {
	case "mysql":
	case "postgres":
		if d.URL == "" {
			return errors.New("DB_URL is required for postgres")
		}
	case "sqlite":
		if d.Path == "" && d.URL == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER: unsupported driver %q", d.Driver)
	}
	return nil
}

func (p PushConfig) validate() error {
	if p.Timeout <= 0 {
		return errors.New("PUSH_TIMEOUT must be positive")
	}
	if p.Concurrency < 1 {
		return errors.New("PUSH_CONCURRENCY must be at least 1")
	}
	if p.RatePerSec < 0 {
		return errors.New("PUSH_RATE_PER_SEC must not be negative")
	}
	switch p.Provider {
	case "onesignal":
		if p.OneSignalAppID == "" || p.OneSignalAPIKey == "" {
			return errors.New("ONESIGNAL_APP_ID and ONESIGNAL_REST_API_KEY are required for the onesignal provider")
		}
	case "twilio":
		if p.TwilioAccountSID == "" || p.TwilioAuthToken == "" || p.TwilioNotifyServiceSID == "" {
			return errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_NOTIFY_SERVICE_SID are required for the twilio provider")
		}
	case "log":
	default:
		return fmt.Errorf("PUSH_PROVIDER: unsupported provider %q", p.Provider)
	}
	return nil
}
