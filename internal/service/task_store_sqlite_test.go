package service

import (
	"context"
	"path/filepath"
	"testing"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

func newSQLiteRepository(t *testing.T) *repository.TaskRepository {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "tasks.db"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewTaskRepository(repository.NewSQLiteKV(db), repository.DefaultTasksKey)
}

func TestTaskStorePersistsAfterCallerCancels(t *testing.T) {
	repo := newSQLiteRepository(t)
	store := NewTaskStore(context.Background(), repo, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task, err := store.Add(ctx, "Water plants", "Personal", model.PriorityMedium)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := store.Toggle(ctx, task.ID); !ok {
		t.Fatalf("toggle: task %s not found", task.ID)
	}

	reloaded := NewTaskStore(context.Background(), repo, WithLogger(quietLogger()))
	got, ok := reloaded.Get(task.ID)
	if !ok {
		t.Fatalf("task %s lost after reload", task.ID)
	}
	if !got.IsCompleted {
		t.Fatalf("toggle lost after reload: %+v", got)
	}
}
