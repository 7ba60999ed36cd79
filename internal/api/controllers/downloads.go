package controllers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/drop-oss/dropd/internal/app"
	"github.com/drop-oss/dropd/internal/domain"
	"github.com/drop-oss/dropd/internal/download"
	"github.com/drop-oss/dropd/internal/events"
)

type DownloadsController struct {
	App     *app.Context
	Manager *download.Manager
	Emitter *events.Emitter
}

// List returns the manager status, the live queue, and the persisted status
// of every known game. The three snapshots are taken independently; a
// transition may land between them, so clients re-poll rather than assume
// they line up.
func (ctrl *DownloadsController) List(c *echo.Context) error {
	status, lastErr := ctrl.Manager.Status()

	resp := DownloadsResponse{
		Status: status.String(),
		Jobs:   make([]JobInfo, 0),
	}
	if lastErr != nil {
		resp.Error = lastErr.Error()
	}

	for _, job := range ctrl.Manager.Jobs() {
		resp.Jobs = append(resp.Jobs, JobInfo{ID: job.ID, Status: job.Status})
	}

	games, err := ctrl.App.Store.GameStatuses()
	if err != nil {
		ctrl.App.Logger.Warn("Could not read persisted game statuses: %v", err)
		games = make(map[string]domain.GameStatus)
	}
	resp.Games = games

	return c.JSON(http.StatusOK, resp)
}

// Queue admits an already-resolved job descriptor. Admission is
// asynchronous: 202 means the signal is on the channel, not that the
// download started.
func (ctrl *DownloadsController) Queue(c *echo.Context) error {
	var req QueueRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if req.ID == "" || req.Version == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id and version are required"})
	}

	if req.InstallDir == "" {
		req.InstallDir = ctrl.App.Config.Download.InstallDir
	}

	ctrl.Manager.QueueGame(req.ID, req.Version, req.InstallDir)
	return c.JSON(http.StatusAccepted, JobInfo{ID: req.ID, Status: domain.StatusQueued})
}

func (ctrl *DownloadsController) Resume(c *echo.Context) error {
	ctrl.Manager.Resume()
	return c.NoContent(http.StatusNoContent)
}

func (ctrl *DownloadsController) Pause(c *echo.Context) error {
	ctrl.Manager.Pause()
	return c.NoContent(http.StatusNoContent)
}

func (ctrl *DownloadsController) Cancel(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing id"})
	}

	ctrl.Manager.Cancel(id)
	return c.NoContent(http.StatusNoContent)
}

// Progress answers 204 when nothing is transferring: "no meaningful
// progress to show" is distinct from "0 of 0 bytes".
func (ctrl *DownloadsController) Progress(c *echo.Context) error {
	current, total, ok := ctrl.Manager.Progress()
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, ProgressResponse{Current: current, Total: total})
}

func (ctrl *DownloadsController) Events(c *echo.Context) error {
	return c.JSON(http.StatusOK, ctrl.Emitter.Recent())
}
