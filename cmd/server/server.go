package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/axellelanca/qrforge/cmd"
	"github.com/axellelanca/qrforge/internal/api"
	"github.com/axellelanca/qrforge/internal/config"
	"github.com/axellelanca/qrforge/internal/models"
	"github.com/axellelanca/qrforge/internal/monitor"
	"github.com/axellelanca/qrforge/internal/qrencode"
	"github.com/axellelanca/qrforge/internal/repository"
	"github.com/axellelanca/qrforge/internal/services"
	"github.com/axellelanca/qrforge/internal/workers"
)

// RunServerCmd represents the 'run-server' Cobra command, the entry
// point for launching the service.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Launches the QR code API server and background processes.",
	Long: `This command initializes the database, configures the API,
starts the asynchronous scan-recording workers and the expiry monitor,
then launches the HTTP server.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		log := logrus.New()
		log.SetFormatter(&logrus.JSONFormatter{})

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}

		if err := db.AutoMigrate(&models.ScannableCode{}, &models.AnalyticsEvent{}); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}

		codeRepo := repository.NewCodeRepository(db)
		eventRepo := repository.NewEventRepository(db)
		log.Info("repositories initialized")

		encoder := qrencode.NewEncoder(cfg.QR.DefaultSizePx)
		codeService := services.NewCodeService(codeRepo, eventRepo, encoder, log, cfg.Server.BaseURL, cfg.ShortCode.Length)
		resolverService := services.NewResolverService(codeRepo, eventRepo, log)
		log.Info("services initialized")

		// Scan observations flow through a buffered channel into the
		// worker pool; resolution never waits on storage.
		scanEvents := make(chan models.ScanEventMsg, cfg.Analytics.BufferSize)
		api.ScanEventsChannel = scanEvents
		workers.StartScanWorkers(cfg.Analytics.WorkerCount, scanEvents, resolverService, log)
		log.WithFields(logrus.Fields{
			"buffer":  cfg.Analytics.BufferSize,
			"workers": cfg.Analytics.WorkerCount,
		}).Info("scan event channel and workers started")

		monitorInterval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
		expiryMonitor := monitor.NewExpiryMonitor(codeRepo, monitorInterval, log)
		go expiryMonitor.Start()
		log.WithField("interval", monitorInterval.String()).Info("expiry monitor started")

		router := gin.Default()
		api.SetupRoutes(router, codeService, resolverService, log, cfg.Auth.JWTSecret, cfg.Analytics.BufferSize)
		log.Info("API routes configured")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		go func() {
			log.Infof("starting server on %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Graceful shutdown: wait for SIGINT/SIGTERM, stop accepting
		// traffic, then let the workers drain the event channel.
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutdown signal received, stopping server")

		close(scanEvents)
		time.Sleep(5 * time.Second)

		log.Info("server stopped cleanly")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
