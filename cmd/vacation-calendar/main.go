package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/username/vacation-calendar/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vacation-calendar",
		Short: "Team vacation calendar",
		Long:  "Shared yearly calendar of team vacations with production calendar day types",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err = initLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(preloadCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogger builds a console logger, or a rotated JSON file logger when
// log.file is set
func initLogger(lc config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if lc.File == "" {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zc.Build()
	}

	logWriter := &lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		level,
	)

	return zap.New(core, zap.AddCaller()), nil
}
