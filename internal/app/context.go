package app

import (
	"github.com/drop-oss/dropd/internal/domain"
	"github.com/drop-oss/dropd/internal/infra/config"
	"github.com/drop-oss/dropd/internal/infra/logger"
)

// Store persists per-game status and daemon settings. The download manager
// calls SaveGameStatus on every transition and must keep working when it
// fails, so implementations report errors rather than panic.
type Store interface {
	SaveGameStatus(id string, status domain.GameStatus) error
	// GameStatus returns StatusUninitialised (and no error) for an unknown
	// game.
	GameStatus(id string) (domain.GameStatus, error)
	GameStatuses() (map[string]domain.GameStatus, error)
	SetSetting(key, value string) error
	Setting(key string) (string, error)
	Close() error
}

// Notifier fans one game's status transition out to whoever is watching.
type Notifier interface {
	Emit(ev domain.StatusEvent)
}

// Context holds the core environment and shared resources for dropd.
// It acts as the "Single Source of Truth" for the application state.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	// High-level interfaces for services to use
	Store    Store
	Notifier Notifier
}

// NewContext initializes the base environment. Store and Notifier are wired
// by the caller once their backends exist.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}
