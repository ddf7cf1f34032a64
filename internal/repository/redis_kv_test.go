package repository

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisKVNamespacedKeys(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	kv := NewRedisKV(client, "taskboard")

	if _, err := kv.Get(ctx, "tasks"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := kv.Set(ctx, "tasks", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}
	stored, err := mr.Get("taskboard:tasks")
	if err != nil {
		t.Fatalf("miniredis get: %v", err)
	}
	if stored != "[]" {
		t.Fatalf("unexpected stored value %q", stored)
	}
	if ttl := mr.TTL("taskboard:tasks"); ttl != 0 {
		t.Fatalf("expected no TTL, got %v", ttl)
	}
}

func TestRedisTaskRepositoryRoundTrip(t *testing.T) {
	_, client := newMiniredis(t)
	ctx := context.Background()
	repo := NewTaskRepository(NewRedisKV(client, ""), DefaultTasksKey)

	want := sampleTasks()
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameTasks(t, got, want)
}

func TestRedisKVBackendError(t *testing.T) {
	mr, client := newMiniredis(t)
	kv := NewRedisKV(client, "")
	mr.SetError("boom")

	_, err := kv.Get(context.Background(), "tasks")
	if err == nil || errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestNewRedisClientConnectionString(t *testing.T) {
	client, err := NewRedisClient("localhost:6380,password=secret,ssl=true")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	opts := client.Options()
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.TLSConfig == nil {
		t.Fatalf("unexpected options: addr=%s password=%s tls=%v", opts.Addr, opts.Password, opts.TLSConfig != nil)
	}

	if _, err := NewRedisClient(" "); err == nil {
		t.Fatalf("expected error for empty connection string")
	}
}
