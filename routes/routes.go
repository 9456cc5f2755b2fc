package routes

import (
	"time"

	"studyflow-backend/config"
	"studyflow-backend/controllers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func SetupRouter(server config.ServerConfig, notifications *controllers.NotificationController, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	allowed := make(map[string]bool, len(server.AllowedOrigins))
	for _, o := range server.AllowedOrigins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
		MaxAge: 12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger(log))

	r.GET("/health", controllers.Health)

	api := r.Group("/api")
	{
		// Notification routes
		n := api.Group("/notifications")
		{
			n.POST("/trigger", notifications.TriggerReminders)
			n.GET("/scheduler", notifications.GetSchedulerStatus)
			n.GET("/status/:user_id", notifications.GetNotificationStatus)
			n.POST("/test", notifications.SendTestNotification)
			n.POST("/welcome", notifications.SendWelcomeNotification)
		}
	}

	return r
}
