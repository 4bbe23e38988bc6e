package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client
}

func mustAcquire(t *testing.T, l *Lock, name string) {
	t.Helper()
	acquired, err := l.Acquire(context.Background(), name, 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire(%s) error: %v", name, err)
	}
	if !acquired {
		t.Fatalf("Acquire(%s) = false, want true", name)
	}
}

func TestLock_AcquireRelease(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	holder := NewLock(client)
	rival := NewLock(client)

	if holder.OwnerID() == rival.OwnerID() {
		t.Fatalf("owner IDs collided: %s", holder.OwnerID())
	}

	mustAcquire(t, holder, "sweep")

	// Held locks are exclusive, including against the holder itself.
	if acquired, err := rival.Acquire(ctx, "sweep", 10*time.Second); err != nil || acquired {
		t.Errorf("rival Acquire = (%v, %v), want (false, nil)", acquired, err)
	}
	if acquired, err := holder.Acquire(ctx, "sweep", 10*time.Second); err != nil || acquired {
		t.Errorf("re-Acquire = (%v, %v), want (false, nil)", acquired, err)
	}

	// Distinct names do not contend.
	mustAcquire(t, holder, "other")

	if err := holder.Release(ctx, "sweep"); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	mustAcquire(t, rival, "sweep")
}

func TestLock_ReleaseOnlyByOwner(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	holder := NewLock(client)
	rival := NewLock(client)

	mustAcquire(t, holder, "sweep")

	// A non-owner release is a silent no-op.
	if err := rival.Release(ctx, "sweep"); err != nil {
		t.Fatalf("rival Release error: %v", err)
	}
	if acquired, err := rival.Acquire(ctx, "sweep", 10*time.Second); err != nil || acquired {
		t.Errorf("Acquire after foreign release = (%v, %v), want (false, nil)", acquired, err)
	}
}

func TestLock_ReleaseUnheld(t *testing.T) {
	client := setupTestRedis(t)

	lock := NewLock(client)
	if err := lock.Release(context.Background(), "never-acquired"); err != nil {
		t.Errorf("Release of unheld lock error: %v", err)
	}
}

func TestLock_Extend(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	holder := NewLock(client)
	rival := NewLock(client)

	mustAcquire(t, holder, "sweep")

	if err := holder.Extend(ctx, "sweep", 30*time.Second); err != nil {
		t.Errorf("Extend by owner error: %v", err)
	}
	if err := rival.Extend(ctx, "sweep", 30*time.Second); err == nil {
		t.Error("Extend by non-owner should fail")
	}
	if err := rival.Extend(ctx, "unheld", 30*time.Second); err == nil {
		t.Error("Extend of unheld lock should fail")
	}
}

func TestLock_Ping(t *testing.T) {
	client := setupTestRedis(t)

	lock := NewLock(client)
	if err := lock.Ping(context.Background()); err != nil {
		t.Errorf("Ping error: %v", err)
	}
}
