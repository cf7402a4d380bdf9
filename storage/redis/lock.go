// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package redis provides a storage.Locker shared by every pdfqa process
// pointed at the same Redis server.
package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/pdfqa/storage"
	"github.com/redis/go-redis/v9"
)

var _ storage.Locker = (*Locker)(nil)

// DefaultPrefix namespaces lock keys.
const DefaultPrefix = "pdfqa:lock:"

// Locker implements storage.Locker with SET NX and a TTL.
// Each instance has its own owner ID so one process cannot release another's lock.
type Locker struct {
	client  *redis.Client
	prefix  string
	ownerID string
}

// NewLocker creates a Redis-backed lock. An empty prefix uses DefaultPrefix.
func NewLocker(client *redis.Client, prefix string) *Locker {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Locker{
		client:  client,
		prefix:  prefix,
		ownerID: generateOwnerID(),
	}
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

// Format: hostname:pid:random
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

// Acquire attempts to take the named lock for ttl.
// Returns false if another owner holds it.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+name, l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// Deletes the key only while it still carries our owner ID.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release gives up the named lock.
// Returns storage.ErrLockNotHeld if it expired or belongs to another owner.
func (l *Locker) Release(ctx context.Context, name string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.prefix + name}, l.ownerID).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrLockNotHeld, name)
	}
	return nil
}

var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Extend pushes out the TTL of a held lock, for builds that outlive the first ttl.
func (l *Locker) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.prefix + name}, l.ownerID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrLockNotHeld, name)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this instance in lock values.
func (l *Locker) OwnerID() string {
	return l.ownerID
}
