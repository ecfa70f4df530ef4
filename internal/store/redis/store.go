// Package redis provides the key-value store used for alert dedup
// fingerprints and the latest-alert display cache, with a circuit breaker
// guarding against a down or slow Redis.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const opTimeout = 2 * time.Second

// Store wraps a Redis client behind the model.KVStore contract. Values
// are stored without TTL; dedup state survives restarts deliberately.
type Store struct {
	client  *goredis.Client
	breaker *Breaker
}

// NewStore connects to Redis at addr and verifies the connection.
func NewStore(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	s := &Store{
		client:  client,
		breaker: NewBreaker(5, 10*time.Second),
	}
	s.breaker.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
	}
	return s, nil
}

// NewStoreWithClient wraps an existing client. Used by tests.
func NewStoreWithClient(client *goredis.Client) *Store {
	return &Store{
		client:  client,
		breaker: NewBreaker(5, 10*time.Second),
	}
}

// Get returns the value at key and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var val string
	var found bool
	err := s.breaker.Execute(func() error {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		v, err := s.client.Get(opCtx, key).Result()
		if err == goredis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		val, found = v, true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, found, nil
}

// Set writes value at key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	err := s.breaker.Execute(func() error {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		return s.client.Set(opCtx, key, value, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping probes the connection. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Ping(opCtx).Err()
}

// BreakerState exposes the circuit breaker state for health reporting.
func (s *Store) BreakerState() State {
	return s.breaker.CurrentState()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}
