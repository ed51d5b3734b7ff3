package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/internal/config"
	"github.com/jakechorley/exam-scheduler/pkg/db"
)

// AppContext holds the application dependencies shared across all commands.
// Database is nil when no database_url is configured.
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Logger   *zap.Logger
	Ctx      context.Context
	Verbose  bool
}

// store returns the configured database as a pipeline store, or a nil
// interface when persistence is off
func (app *AppContext) store() db.TimetableStore {
	if app.Database == nil {
		return nil
	}
	return app.Database
}
