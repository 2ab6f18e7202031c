package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(addr, pass string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       0,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Redis connected (checkout-service)")
	return rdb
}

// Locker hands out short-lived advisory locks. Used to serialize order
// creation per (user, course): the pre-insert duplicate checks are
// check-then-act, the lock narrows that window.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

func (l *Locker) Acquire(ctx context.Context, userID, courseID uint) (bool, error) {
	return l.rdb.SetNX(ctx, lockKey(userID, courseID), 1, l.ttl).Result()
}

func (l *Locker) Release(ctx context.Context, userID, courseID uint) {
	l.rdb.Del(ctx, lockKey(userID, courseID))
}

func lockKey(userID, courseID uint) string {
	return fmt.Sprintf("checkout:lock:%d:%d", userID, courseID)
}
