package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/bot"
	"taskboard/internal/config"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	logger.SetLevel(cfg.Level())

	kv, closeKV, err := openKeyValue(cfg, logger)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer closeKV()

	primary := repository.NewTaskRepository(kv, cfg.StorageKey)
	backups := service.NewBackupService(primary, repository.NewTaskRepository(kv, cfg.BackupKey()), logger)

	if cfg.RestoreFromBackup {
		if _, err := backups.Restore(ctx); err != nil {
			logger.WithError(err).Warn("restore from backup skipped")
		}
	}

	store := service.NewTaskStore(ctx, primary, service.WithLogger(logger))

	if cfg.BackupSchedule != "" {
		scheduler := service.NewSchedulerService(time.Local, logger)
		if _, err := scheduler.Schedule(cfg.BackupSchedule, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := backups.Snapshot(jobCtx, store); err != nil {
				logger.WithError(err).Error("backup snapshot")
			}
		}); err != nil {
			logger.Fatalf("schedule backups: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	var wg sync.WaitGroup

	if cfg.HTTPEnabled() {
		e := web.New(store, cfg.Categories, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.WithField("addr", cfg.HTTPAddr).Info("web server started")
			if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("web server stopped")
				stop()
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("web server shutdown")
			}
		}()
	}

	if cfg.TelegramEnabled() {
		telegramBot, err := bot.New(cfg.TelegramToken, store, cfg.Categories, logger)
		if err != nil {
			logger.Fatalf("bot: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("bot stopped with error")
				stop()
			}
		}()
	}

	logger.Info("Taskboard started.")
	<-ctx.Done()
	wg.Wait()
	logger.Info("Shutdown complete.")
}

func openKeyValue(cfg config.Config, logger *log.Logger) (repository.KeyValue, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverRedis:
		client, err := repository.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisKV(client, cfg.RedisNamespace), func() { _ = client.Close() }, nil
	default:
		db, err := repository.NewDB(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {}
		if sqlDB, err := db.DB(); err == nil {
			closer = func() { _ = sqlDB.Close() }
		}
		return repository.NewSQLiteKV(db), closer, nil
	}
}
