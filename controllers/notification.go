package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studyflow-backend/models"
	"studyflow-backend/services"
	"studyflow-backend/utils"
)

// ReminderScheduler is the part of services.Scheduler the HTTP layer needs.
type ReminderScheduler interface {
	TriggerNow(ctx context.Context) models.DispatchSummary
	State() services.SchedulerState
	NextRun() (time.Time, bool)
	SkippedFires() int64
	LastSummary() (models.DispatchSummary, bool)
	Location() *time.Location
	ReminderTime() string
}

// TemplateSender pushes a single template to one user.
type TemplateSender interface {
	SendTemplate(ctx context.Context, userID string, kind services.TemplateKind) (models.DispatchSummary, error)
}

// StatusReader looks up a user's push registration.
type StatusReader interface {
	NotificationStatus(ctx context.Context, userID string) (models.NotificationStatus, error)
}

// NotificationController serves the operator endpoints for reminders.
type NotificationController struct {
	Scheduler        ReminderScheduler
	Reminders        TemplateSender
	Status           StatusReader
	SchedulerEnabled bool
	Log              zerolog.Logger
}

type SendTestInput struct {
	UserID   string `json:"user_id" binding:"required"`
	Template string `json:"template"`
}

type SendWelcomeInput struct {
	UserID string `json:"user_id" binding:"required"`
}

type SchedulerStatus struct {
	Enabled      bool                    `json:"enabled"`
	State        services.SchedulerState `json:"state"`
	ReminderTime string                  `json:"reminder_time"`
	Timezone     string                  `json:"timezone"`
	NextRun      *time.Time              `json:"next_run,omitempty"`
	SkippedFires int64                   `json:"skipped_fires"`
	LastRun      *models.DispatchSummary `json:"last_run,omitempty"`
}

// TriggerReminders runs a reminder cycle now. It answers 200 with the summary even when sends fail.
func (nc *NotificationController) TriggerReminders(c *gin.Context) {
	summary := nc.Scheduler.TriggerNow(c.Request.Context())
	if !wantDetail(c) {
		summary = summary.WithoutOutcomes()
	}

	message := "Reminder cycle finished"
	if summary.CycleFailed() {
		message = "Reminder cycle failed"
	} else if summary.Attempted == 0 {
		message = "No users need a reminder today"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": !summary.CycleFailed(),
		"message": message,
		"data":    summary,
	})
}

// GetSchedulerStatus reports the timer state and the last cycle.
func (nc *NotificationController) GetSchedulerStatus(c *gin.Context) {
	status := SchedulerStatus{
		Enabled:      nc.SchedulerEnabled,
		State:        nc.Scheduler.State(),
		ReminderTime: nc.Scheduler.ReminderTime(),
		Timezone:     nc.Scheduler.Location().String(),
		SkippedFires: nc.Scheduler.SkippedFires(),
	}
	if next, ok := nc.Scheduler.NextRun(); ok {
		status.NextRun = &next
	}
	if last, ok := nc.Scheduler.LastSummary(); ok {
		last = last.WithoutOutcomes()
		status.LastRun = &last
	}
	utils.RespondWithData(c, http.StatusOK, "Scheduler status", status)
}

// GetNotificationStatus reports whether a user has a device token and has reminders enabled.
func (nc *NotificationController) GetNotificationStatus(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "user_id parameter is required")
		return
	}

	status, err := nc.Status.NotificationStatus(c.Request.Context(), userID)
	switch {
	case err == nil:
		utils.RespondWithData(c, http.StatusOK, "Notification status", status)
	case errors.Is(err, services.ErrRecipientNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "User not found",
			"data":    models.NotificationStatus{UserID: userID},
		})
	case services.IsStoreFailure(err):
		nc.Log.Error().Err(err).Str("user_id", userID).Msg("notification status lookup failed")
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Database unavailable")
	default:
		nc.Log.Error().Err(err).Str("user_id", userID).Msg("notification status lookup failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get notification status")
	}
}

// SendTestNotification pushes one template to one user, ignoring schedule and activity.
func (nc *NotificationController) SendTestNotification(c *gin.Context) {
	var input SendTestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	kind := services.Motivational
	if input.Template != "" {
		var err error
		if kind, err = services.ParseTemplateKind(input.Template); err != nil {
			nc.Log.Warn().Str("template", input.Template).Msg("unknown template requested, using default")
		}
	}
	nc.send(c, input.UserID, kind, "Test notification sent")
}

// SendWelcomeNotification pushes the welcome message to a user who just enabled notifications.
func (nc *NotificationController) SendWelcomeNotification(c *gin.Context) {
	var input SendWelcomeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	nc.send(c, input.UserID, services.WelcomeMessage, "Welcome notification sent")
}

func (nc *NotificationController) send(c *gin.Context, userID string, kind services.TemplateKind, okMessage string) {
	summary, err := nc.Reminders.SendTemplate(c.Request.Context(), userID, kind)
	switch {
	case err == nil:
		utils.RespondWithData(c, http.StatusOK, okMessage, summary)
	case errors.Is(err, services.ErrRecipientNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "User has no registered device token")
	case errors.Is(err, services.ErrNotificationsDisabled):
		utils.RespondWithError(c, http.StatusBadRequest, "Notifications are disabled for this user")
	case services.IsStoreFailure(err):
		nc.Log.Error().Err(err).Str("user_id", userID).Msg("recipient lookup failed")
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Database unavailable")
	case errors.Is(err, services.ErrDeliveryFailed):
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Notification was not delivered",
			"data":    summary,
		})
	default:
		nc.Log.Error().Err(err).Str("user_id", userID).Msg("send notification failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send notification")
	}
}

// Health is a liveness probe. It does not touch the database.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func wantDetail(c *gin.Context) bool {
	raw, ok := c.GetQuery("detail")
	if !ok {
		return true
	}
	detail, err := strconv.ParseBool(raw)
	return err != nil || detail
}
