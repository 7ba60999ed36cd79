package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/drop-oss/dropd/internal/api/controllers"
	"github.com/drop-oss/dropd/internal/app"
	"github.com/drop-oss/dropd/internal/download"
	"github.com/drop-oss/dropd/internal/events"
)

func RegisterRoutes(e *echo.Echo, app *app.Context, manager *download.Manager, emitter *events.Emitter) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	dlCtrl := &controllers.DownloadsController{App: app, Manager: manager, Emitter: emitter}

	// Queue management
	e.GET("/api/v1/downloads", dlCtrl.List)
	e.POST("/api/v1/downloads", dlCtrl.Queue)
	e.POST("/api/v1/downloads/resume", dlCtrl.Resume)
	e.POST("/api/v1/downloads/pause", dlCtrl.Pause)
	e.DELETE("/api/v1/downloads/:id", dlCtrl.Cancel)

	// Observation
	e.GET("/api/v1/progress", dlCtrl.Progress)
	e.GET("/api/v1/events", dlCtrl.Events)
}
