package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// kvStore is the flat key-value surface the store runs on. Update is
// the important part of the contract: it must apply fn as an atomic
// read-modify-write on one key, so two concurrent counter increments
// on the same message never collapse into one.
//
// The production implementation is Redis; tests substitute an
// in-memory map with the same semantics.
type kvStore interface {
	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Update atomically rewrites key. fn receives the current value
	// (nil raw, found=false when absent) and returns the replacement;
	// returning nil bytes with a nil error leaves the key untouched.
	// An error from fn aborts the update and is returned as-is.
	Update(ctx context.Context, key string, fn func(raw []byte, found bool) ([]byte, error)) error
}

// maxTxRetries bounds optimistic-transaction retries under contention.
const maxTxRetries = 20

// redisKV implements kvStore on a Redis client. Update uses
// WATCH/MULTI: the write only commits if the key was not touched
// between the read and the EXEC, and a conflict retries from the read.
type redisKV struct {
	client *redis.Client
}

func newRedisKV(client *redis.Client) *redisKV {
	return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return raw, true, nil
}

func (r *redisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *redisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *redisKV) Update(ctx context.Context, key string, fn func(raw []byte, found bool) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			raw, found = nil, false
		} else if err != nil {
			return err
		}

		next, err := fn(raw, found)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// Another writer got there first; re-read and retry.
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: too much contention", key)
}

// getJSON decodes the value at key into v. Returns false when absent.
func getJSON(ctx context.Context, kv kvStore, key string, v any) (bool, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, kv kvStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}
