package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/matillion/mattermost-export/internal/config"
	"github.com/matillion/mattermost-export/internal/export"
	"github.com/matillion/mattermost-export/internal/mattermost"
	"github.com/matillion/mattermost-export/internal/report"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration invalid: %v", err)
	}

	logger := initLogger(cfg.Debug, cfg.OutputDir)
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Fatal("Export failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	client, err := mattermost.NewClient(mattermost.Config{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.APIToken,
		VerifySSL: cfg.VerifySSL,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		return mattermost.WrapError(logger, "ping", err)
	}

	privilege, me, err := export.ResolvePrivilege(ctx, client)
	if err != nil {
		return mattermost.WrapError(logger, "resolve_privilege", err)
	}
	logger.Info("Resolved acting principal",
		zap.String("username", me.Username),
		zap.Stringer("privilege", privilege))

	channel, err := client.Channel(ctx, cfg.ChannelID)
	if err != nil {
		return mattermost.WrapError(logger, "get_channel", err)
	}
	channelName := channel.DisplayName
	if channelName == "" {
		channelName = channel.Name
	}

	aggregator := export.NewAggregator(client, logger)
	tree, err := aggregator.Aggregate(ctx, cfg.ChannelID, privilege.IncludeDeleted())
	if err != nil {
		return mattermost.WrapError(logger, "aggregate", err)
	}

	window := export.Window{}
	if !cfg.FetchAll {
		window, err = export.ParseWindow(cfg.StartDate, cfg.EndDate)
		if err != nil {
			return fmt.Errorf("invalid date window: %w", err)
		}
	}
	tree = export.FilterByDate(tree, window, cfg.KeepThreadReplies)

	publisher := report.NewPublisher(cfg.OutputDir, logger)
	refs, err := publisher.Publish(tree, report.Options{
		Privilege:   privilege,
		ChannelName: channelName,
		DateRange:   window.Label(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish artifacts: %w", err)
	}

	logger.Info("Output files have been generated successfully",
		zap.Int("artifacts", len(refs)),
		zap.Int("roots", len(tree)),
		zap.Int("users_resolved", client.CachedUsers()))
	return nil
}

func initLogger(debug bool, outputDir string) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	logFilePath := filepath.Join(outputDir, "mattermost_export.log")
	logFile, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	stderrCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logFile),
		level,
	)

	return zap.New(zapcore.NewTee(stderrCore, fileCore), zap.AddCaller())
}
