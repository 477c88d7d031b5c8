package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"neurothrive/internal/auth"
	"neurothrive/internal/config"
	"neurothrive/internal/database"
	logger "neurothrive/internal/logging"
	"neurothrive/internal/repository"
	"neurothrive/internal/risk"
	"neurothrive/internal/router"
	"neurothrive/internal/screening"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// bootstrap loads config, starts the logger and opens the migrated database.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(projectRoot, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.Init(cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Reload with the logger so config file changes are watched and logged.
	if cfg, err = config.Load(projectRoot, log); err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, log, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("Database schema is up to date")
	return nil
}

func loadRouteTable(file string) (*auth.RouteTable, error) {
	if file == "" {
		return auth.DefaultRoutes()
	}
	return auth.LoadRoutes(file)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	routes, err := loadRouteTable(cfg.Routes.File)
	if err != nil {
		log.Error("Failed to load route table", zap.Error(err))
		return err
	}

	unit, err := risk.ParseUnit(cfg.Screening.RiskUnit)
	if err != nil {
		return err
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	screenings := repository.NewScreeningRepository(db)
	analyzer := screening.NewHTTPAnalyzer(cfg.Screening.AnalyzerURL, cfg.Screening.Timeout)

	engine, err := router.Setup(router.Deps{
		Log:           log,
		Config:        config.Current,
		Users:         repository.NewUserRepository(db),
		Screenings:    screenings,
		Interventions: repository.NewInterventionRepository(db),
		Patients:      repository.NewPatientRepository(db),
		Monitoring:    repository.NewMonitoringRepository(db),
		Screening:     screening.NewService(analyzer, screenings, unit, log),
		Routes:        routes,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		log.Error("Failed to run server", zap.Error(err))
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
