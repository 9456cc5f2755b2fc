package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"studyflow-backend/models"
)

// ConnectDB opens the configured database and tunes its connection pool.
func ConnectDB(cfg DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates the reminder audit table, and the read-only source tables when autoMigrate is set.
func Migrate(db *gorm.DB, cfg DatabaseConfig) error {
	tables := []any{&models.ReminderLog{}}
	if cfg.AutoMigrate {
		tables = append(tables, &models.NotificationToken{}, &models.WeeklyTarget{}, &models.LearningLog{})
	}
	return db.AutoMigrate(tables...)
}

func dialectorFor(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.URL), nil
	case "mysql":
		dsn := cfg.URL
		if dsn == "" {
			dsn = mysqlDSN(cfg)
		}
		return gormmysql.Open(dsn), nil
	case "sqlite":
		dsn := cfg.URL
		if dsn == "" {
			dsn = cfg.Path
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrInvalidConfiguration, cfg.Driver)
	}
}

func mysqlDSN(cfg DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host + ":" + strconv.Itoa(cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
