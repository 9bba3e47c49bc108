package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/config"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/dashboard"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/database"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/dyeing"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/inventory"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/logging"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/machines"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/parties"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/production"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "erp-api",
		Short: "Yarn manufacturing ERP backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Float64("fallback-capacity", defaults.GetFloat64("production.fallback_capacity"), "Theoretical capacity used when no other source is available")
	cmd.PersistentFlags().Int("machine-cache-ttl", defaults.GetInt("machines.cache_ttl_seconds"), "Machine list cache TTL in seconds")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "production.fallback_capacity", "fallback-capacity")
	bindFlag(cmd, "machines.cache_ttl_seconds", "machine-cache-ttl")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	productionStore, err := production.NewService(production.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: production.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	tracker, err := machines.NewTracker(machines.TrackerConfig{
		Database: db,
		Entries:  productionStore,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	machineService, err := machines.NewService(machines.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
		CacheTTL: appConfig.MachineCacheTTL,
		Tracker:  tracker,
		Purger:   productionStore,
	})
	if err != nil {
		return err
	}

	capacityResolver, err := production.NewCapacityResolver(production.CapacityResolverConfig{
		Machines: machineService,
		Fallback: appConfig.FallbackCapacity,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	aggregator, err := production.NewAggregator(production.AggregatorConfig{
		Store:    productionStore,
		Capacity: capacityResolver,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	orchestrator, err := production.NewOrchestrator(production.OrchestratorConfig{
		Store:   productionStore,
		History: machineService,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	partyService, err := parties.NewService(parties.ServiceConfig{Database: db, Clock: time.Now, Logger: logger})
	if err != nil {
		return err
	}

	dyeingService, err := dyeing.NewService(dyeing.ServiceConfig{Database: db, Clock: time.Now, Logger: logger})
	if err != nil {
		return err
	}

	inventoryService, err := inventory.NewService(inventory.ServiceConfig{Database: db, Clock: time.Now, Logger: logger})
	if err != nil {
		return err
	}

	dashboardService, err := dashboard.NewService(dashboard.ServiceConfig{
		Production: aggregator,
		Orders:     dyeingService,
		Parties:    partyService,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Machines:     machineService,
		Orchestrator: orchestrator,
		Aggregator:   aggregator,
		Parties:      partyService,
		Dyeing:       dyeingService,
		Inventory:    inventoryService,
		Dashboard:    dashboardService,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
