package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyflow-backend/config"
	"studyflow-backend/controllers"
	"studyflow-backend/routes"
	"studyflow-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := config.NewLogger("info", "json")
		bootLog.Fatal().Err(err).Msg("load configuration")
	}
	log := config.NewLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if envErr != nil {
		log.Debug().Msg("no .env file found")
	}

	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("connect database")
	}
	if err := config.Migrate(db, cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	provider := newPushProvider(cfg.Push, log)
	dispatcher := services.NewDispatcher(provider, services.DispatcherOptions{
		Concurrency: cfg.Push.Concurrency,
		Timeout:     cfg.Push.Timeout,
		RatePerSec:  cfg.Push.RatePerSec,
	}, log)

	var recorder services.DeliveryRecorder
	if cfg.Database.AuditLog {
		recorder = services.NewGormDeliveryLog(db)
	}

	store := services.NewGormRecipientStore(db)
	reminders := services.NewReminderService(store, dispatcher, recorder, services.ReminderServiceConfig{
		Location:     cfg.Scheduler.Location,
		Locale:       cfg.Scheduler.Locale(),
		ReminderTime: cfg.Scheduler.ReminderTime,
	}, log)

	scheduler := services.NewScheduler(reminders, services.SchedulerConfig{
		Hour:     cfg.Scheduler.Hour,
		Minute:   cfg.Scheduler.Minute,
		Location: cfg.Scheduler.Location,
	}, log)
	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("start reminder scheduler")
		}
	} else {
		log.Info().Msg("reminder scheduler disabled (ENABLE_SCHEDULER=false)")
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(cfg.Server, &controllers.NotificationController{
		Scheduler:        scheduler,
		Reminders:        reminders,
		Status:           store,
		SchedulerEnabled: cfg.Scheduler.Enabled,
		Log:              log,
	}, log)
	printRoutes(r, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Str("push_provider", provider.Name()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	scheduler.Stop(shutdownCtx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newPushProvider(cfg config.PushConfig, log zerolog.Logger) services.PushProvider {
	switch cfg.Provider {
	case "twilio":
		return services.NewTwilioNotifyProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioNotifyServiceSID)
	case "log":
		return services.NewLogProvider(log)
	default:
		return services.NewOneSignalProvider(services.OneSignalConfig{
			AppID:  cfg.OneSignalAppID,
			APIKey: cfg.OneSignalAPIKey,
			APIURL: cfg.OneSignalURL,
			WebURL: cfg.WebURL,
		}, &http.Client{Timeout: cfg.Timeout})
	}
}

func printRoutes(r *gin.Engine, log zerolog.Logger) {
	for _, route := range r.Routes() {
		log.Debug().Str("method", route.Method).Str("path", route.Path).Msg("route")
	}
}
