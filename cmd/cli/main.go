package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/cmd/cli/commands"
	"github.com/jakechorley/exam-scheduler/internal/config"
	"github.com/jakechorley/exam-scheduler/pkg/postgres"
	"github.com/jakechorley/exam-scheduler/pkg/utils/logging"
)

var (
	env        string
	configPath string
	logsDir    string
	verbose    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &commands.AppContext{Ctx: ctx}

	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Exam Scheduler CLI - Build exam timetables",
		Long:  `A CLI tool for scheduling exams into slots, allocating rooms and seats, assigning invigilators and proposing makeups.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp(app)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default exam_config.<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&logsDir, "logs-dir", logging.DefaultDir, "Directory for JSON log files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ScheduleCmd(app))
	rootCmd.AddCommand(commands.GraphCmd(app))
	rootCmd.AddCommand(commands.HistoryCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config and, when configured, the database
func initApp(app *commands.AppContext) error {
	logger, logPath, err := logging.InitLogger(logging.Options{Env: env, Dir: logsDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Verbose = verbose

	app.Logger.Info("Starting application", zap.String("environment", env))
	app.Logger.Debug("Logging to file", zap.String("path", logPath))

	// Load configuration
	if configPath != "" {
		app.Logger.Info("Loading configuration", zap.String("path", configPath))
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Logger.Info("Loading configuration")
		app.Cfg, err = config.Load(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	if app.Cfg.DatabaseURL == "" {
		app.Logger.Info("No database_url configured, runs will not be saved")
		return nil
	}

	// Connect and migrate
	app.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	applied, err := database.RunMigrations(app.Ctx)
	if err != nil {
		database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Logger.Debug("Migrations complete", zap.Strings("applied", applied))

	app.Database = database
	app.Logger.Info("Database initialized successfully")

	return nil
}

func closeApp(app *commands.AppContext) {
	if app.Database != nil {
		app.Database.Close()
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
