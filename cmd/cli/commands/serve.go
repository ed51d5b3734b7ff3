package commands

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/internal/server"
	"github.com/jakechorley/exam-scheduler/pkg/metrics"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduling pipeline over HTTP",
		Long: `Start an HTTP server exposing POST /api/v1/schedule, run history and Prometheus
metrics. Stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				app.Cfg.Server.Addr = addr
			}
			app.Logger.Debug("serve command", zap.String("addr", app.Cfg.Server.Addr))

			if !app.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			var store server.Store
			if app.Database != nil {
				store = app.Database
			}

			srv := server.New(app.Cfg, store, app.Logger, metrics.New())
			return srv.Run(app.Ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")

	return cmd
}
