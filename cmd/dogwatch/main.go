package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/backup"
	"github.com/dogwatchapp/dogwatch/internal/database"
	"github.com/dogwatchapp/dogwatch/internal/identity"
	"github.com/dogwatchapp/dogwatch/internal/logging"
	"github.com/dogwatchapp/dogwatch/internal/push"
	"github.com/dogwatchapp/dogwatch/internal/server"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	logger := logging.Setup(os.Getenv("DOGWATCH_LOG_LEVEL"))

	port := envOr("DOGWATCH_PORT", "8080")
	dbPath := envOr("DOGWATCH_DB_PATH", "dogwatch.db")

	secret := os.Getenv("DOGWATCH_IDENTITY_SECRET")
	if secret == "" {
		logger.Error("DOGWATCH_IDENTITY_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("DOGWATCH_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("DOGWATCH_VAPID_PRIVATE_KEY"),
	}
	if pushCfg.VAPIDPublicKey == "" || pushCfg.VAPIDPrivateKey == "" {
		logger.Warn("VAPID keys not set, push notifications disabled")
	}

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("DOGWATCH_S3_ENDPOINT"),
			Bucket:    os.Getenv("DOGWATCH_S3_BUCKET"),
			Region:    envOr("DOGWATCH_S3_REGION", "us-east-1"),
			AccessKey: os.Getenv("DOGWATCH_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("DOGWATCH_S3_SECRET_KEY"),
		},
		DBPath:        dbPath,
		Passphrase:    os.Getenv("DOGWATCH_BACKUP_PASSPHRASE"),
		ScheduleHour:  envInt("DOGWATCH_BACKUP_HOUR", 3),
		RetentionDays: envInt("DOGWATCH_BACKUP_RETENTION_DAYS", 30),
	}

	verifier := identity.NewHMACVerifier(secret)
	srv := server.New(db, verifier, backupCfg, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := srv.BackupManager()
	if mgr.Enabled() {
		mgr.Start(ctx)
		defer mgr.Stop()
	} else {
		logger.Info("offsite backups disabled")
	}

	// Periodic cleanup of stale rate-limit buckets.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("DogWatch running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
