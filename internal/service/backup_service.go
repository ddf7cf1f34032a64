package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"taskboard/internal/model"
)

// ErrNoBackup is returned by Restore when no snapshot has been taken yet.
var ErrNoBackup = errors.New("no backup available")

// Snapshotter is the subset of the store a backup reads from.
type Snapshotter interface {
	Filter(mode model.Filter) []model.Task
}

// BackupService copies the task list between the primary key and a backup key.
type BackupService struct {
	primary Persister
	backup  Persister
	log     logrus.FieldLogger
}

func NewBackupService(primary, backup Persister, log logrus.FieldLogger) *BackupService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BackupService{primary: primary, backup: backup, log: log}
}

// Snapshot writes the store's current list to the backup key.
func (b *BackupService) Snapshot(ctx context.Context, store Snapshotter) error {
	tasks := store.Filter(model.FilterAll)
	if err := b.backup.Save(ctx, tasks); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	b.log.WithField("tasks", len(tasks)).Info("backup snapshot written")
	return nil
}

// Restore overwrites the primary key with the last snapshot. Run it before the store loads.
func (b *BackupService) Restore(ctx context.Context) (int, error) {
	tasks, err := b.backup.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("read backup: %w", err)
	}
	if tasks == nil {
		return 0, ErrNoBackup
	}
	if err := b.primary.Save(ctx, tasks); err != nil {
		return 0, fmt.Errorf("restore backup: %w", err)
	}
	b.log.WithField("tasks", len(tasks)).Info("tasks restored from backup")
	return len(tasks), nil
}
