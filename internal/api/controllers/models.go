package controllers

import "github.com/drop-oss/dropd/internal/domain"

// --- REQUESTS ---

type QueueRequest struct {
	ID         string `json:"id"`
	Version    string `json:"version"`
	InstallDir string `json:"install_dir"`
}

// --- RESPONSES ---

type JobInfo struct {
	ID     string            `json:"id"`
	Status domain.GameStatus `json:"status"`
}

type DownloadsResponse struct {
	Status string `json:"status"`
	// Error carries the last download error while Status is "error"
	Error string `json:"error,omitempty"`
	// Jobs is the live queue, admission order preserved
	Jobs []JobInfo `json:"jobs"`
	// Games maps every known game id to its persisted status, including
	// games no longer in the queue
	Games map[string]domain.GameStatus `json:"games"`
}

type ProgressResponse struct {
	Current int64 `json:"current"`
	Total   int64 `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
