package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/config"
	db "github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/db"
	httpapi "github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/httpapi"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/migrate"
	irrigation "github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/service"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/views"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/mqtt"
)

const bannerFile = "logo.svg"

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sqliteLogSQL", cfg.SQLiteLogSQL,
		"timeColumn", cfg.TimeColumn,
		"maxUploadBytes", cfg.MaxUploadBytes,
		"corsAllowedOrigins", cfg.CORSAllowedOrigins,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}
	slog.Info("database ready")

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	var (
		publisher     service.Publisher
		mqttPublisher *mqtt.Publisher
	)
	if cfg.MQTTEnabled() {
		mqttPublisher, err = mqtt.NewPublisher(cfg, slog.Default().With("component", "mqtt"))
		if err != nil {
			return err
		}
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = mqttPublisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing, recommendations will not be published until it connects)", "error", err)
		}
		publisher = mqttPublisher
	} else {
		slog.Info("mqtt publishing disabled")
	}

	mux := httpapi.NewMux(dbConn, cfg.StaticDir)
	irrigation.RegisterFeature(mux, dbConn, irrigation.Options{
		TimeColumn:     cfg.TimeColumn,
		MaxUploadBytes: cfg.MaxUploadBytes,
		BannerURL:      bannerURL(cfg.StaticDir),
		Publisher:      publisher,
		Logger:         slog.Default().With("module", "irrigation"),
	})

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttPublisher != nil {
		slog.Info("mqtt disconnecting")
		mqttPublisher.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// bannerURL returns the dashboard banner path when the image exists.
func bannerURL(staticDir string) string {
	if staticDir == "" {
		return ""
	}
	if _, err := os.Stat(filepath.Join(staticDir, bannerFile)); err != nil {
		return ""
	}
	return "/static/" + bannerFile
}
