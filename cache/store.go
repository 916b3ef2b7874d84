// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FormatVersion is written into every sidecar
const FormatVersion = 1

const (
	dataExt  = ".json"
	metaExt  = ".meta.toml"
	lockExt  = ".lock"
	stageExt = ".tmp"
)

var (
	ErrLocked = errors.New("cache entry is locked by another writer")
)

// Metadata is the sidecar record stored next to every data file
type Metadata struct {
	Namespace     Namespace `toml:"namespace"`
	Key           string    `toml:"key"`
	CreatedAt     time.Time `toml:"created_at"`
	ExpiresAt     time.Time `toml:"expires_at"`
	Checksum      string    `toml:"checksum"`
	Size          int64     `toml:"size"`
	FormatVersion int       `toml:"format_version"`
}

// Expired reports whether the entry is stale at now
func (meta *Metadata) Expired(now time.Time) bool {
	return !now.Before(meta.ExpiresAt)
}

func (meta *Metadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Namespace", string(meta.Namespace))
	e.Str("Key", meta.Key)
	e.Time("CreatedAt", meta.CreatedAt)
	e.Time("ExpiresAt", meta.ExpiresAt)
}

// Store is a file backed key-value store with one data file and one sidecar per entry
type Store struct {
	root        string
	ttl         map[Namespace]time.Duration
	now         func() time.Time
	retryDelay  time.Duration
	lockTimeout time.Duration
	staleLock   time.Duration
}

type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(store *Store) {
		store.now = now
	}
}

// WithTTL sets the time to live of a namespace
func WithTTL(ns Namespace, ttl time.Duration) Option {
	return func(store *Store) {
		store.ttl[ns] = ttl
	}
}

// WithRetryDelay sets how long a reader waits before retrying a read that raced a writer
func WithRetryDelay(delay time.Duration) Option {
	return func(store *Store) {
		store.retryDelay = delay
	}
}

// New opens (and creates when needed) a store rooted at root
func New(root string, opts ...Option) (*Store, error) {
	store := &Store{
		root:        root,
		ttl:         make(map[Namespace]time.Duration),
		now:         time.Now,
		retryDelay:  50 * time.Millisecond,
		lockTimeout: 10 * time.Second,
		staleLock:   2 * time.Minute,
	}

	for ns, ttl := range DefaultTTL {
		store.ttl[ns] = ttl
	}

	for _, opt := range opts {
		opt(store)
	}

	for _, ns := range Namespaces {
		if err := os.MkdirAll(filepath.Join(root, string(ns)), 0o755); err != nil {
			return nil, fmt.Errorf("could not create cache namespace %s: %w", ns, err)
		}
	}

	return store, nil
}

// Root returns the directory the store writes to
func (store *Store) Root() string {
	return store.root
}

// TTL returns the time to live of a namespace
func (store *Store) TTL(ns Namespace) time.Duration {
	if ttl, ok := store.ttl[ns]; ok {
		return ttl
	}
	return DefaultTTL[Financials]
}

func (store *Store) path(ns Namespace, key, ext string) string {
	return filepath.Join(store.root, string(ns), key+ext)
}

// Validate rejects values that should never be cached: nil, blank strings, non-finite
// numbers, empty collections and documents without any available statement
func Validate(value any) error {
	switch v := value.(type) {
	case nil:
		return fmt.Errorf("%w: nil", data.ErrInvalidValue)
	case string:
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: empty string", data.ErrInvalidValue)
		}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite number", data.ErrInvalidValue)
		}
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite number", data.ErrInvalidValue)
		}
	case interface{ Available() bool }:
		if !v.Available() {
			return fmt.Errorf("%w: document has no available statements", data.ErrInvalidValue)
		}
	}

	return nil
}

// Put validates and writes value under (ns, key). The data file and sidecar are staged and
// renamed into place so readers never observe a partial entry.
func (store *Store) Put(ctx context.Context, ns Namespace, key string, value any) error {
	logger := zerolog.Ctx(ctx)

	if err := Validate(value); err != nil {
		return err
	}

	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode cache entry %s/%s: %w", ns, key, err)
	}

	switch strings.TrimSpace(string(body)) {
	case "null", "{}", "[]", `""`:
		return fmt.Errorf("%w: %s/%s encodes to an empty value", data.ErrInvalidValue, ns, key)
	}

	unlock, err := store.lock(ctx, ns, key)
	if err != nil {
		return err
	}
	defer unlock()

	sum := sha256.Sum256(body)
	now := store.now()
	meta := Metadata{
		Namespace:     ns,
		Key:           key,
		CreatedAt:     now.UTC(),
		ExpiresAt:     now.Add(store.TTL(ns)).UTC(),
		Checksum:      hex.EncodeToString(sum[:]),
		Size:          int64(len(body)),
		FormatVersion: FormatVersion,
	}

	metaBody, err := toml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("could not encode cache metadata %s/%s: %w", ns, key, err)
	}

	dataStage, err := store.stage(ns, key, dataExt, body)
	if err != nil {
		return err
	}

	metaStage, err := store.stage(ns, key, metaExt, metaBody)
	if err != nil {
		os.Remove(dataStage)
		return err
	}

	// a cancelled run must not replace the entry
	if err := ctx.Err(); err != nil {
		os.Remove(dataStage)
		os.Remove(metaStage)
		return err
	}

	if err := os.Rename(dataStage, store.path(ns, key, dataExt)); err != nil {
		os.Remove(dataStage)
		os.Remove(metaStage)
		return fmt.Errorf("could not commit cache entry %s/%s: %w", ns, key, err)
	}

	if err := os.Rename(metaStage, store.path(ns, key, metaExt)); err != nil {
		os.Remove(metaStage)
		return fmt.Errorf("could not commit cache metadata %s/%s: %w", ns, key, err)
	}

	logger.Debug().Object("Entry", &meta).Int64("Bytes", meta.Size).Msg("wrote cache entry")
	return nil
}

func (store *Store) stage(ns Namespace, key, ext string, body []byte) (string, error) {
	name := filepath.Join(store.root, string(ns), fmt.Sprintf(".%s%s.%s%s", key, ext, uuid.NewString(), stageExt))
	fh, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("could not create staging file: %w", err)
	}

	if _, err := fh.Write(body); err != nil {
		fh.Close()
		os.Remove(name)
		return "", fmt.Errorf("could not write staging file: %w", err)
	}

	if err := fh.Sync(); err != nil {
		fh.Close()
		os.Remove(name)
		return "", fmt.Errorf("could not sync staging file: %w", err)
	}

	if err := fh.Close(); err != nil {
		os.Remove(name)
		return "", err
	}

	return name, nil
}

// lock takes the per-entry writer lock. The lock is a file created exclusively; locks older
// than staleLock are assumed abandoned by a crashed writer.
func (store *Store) lock(ctx context.Context, ns Namespace, key string) (func(), error) {
	lockPath := store.path(ns, key, lockExt)
	deadline := time.Now().Add(store.lockTimeout)

	for {
		fh, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(fh, "%d\n", os.Getpid())
			fh.Close()
			return func() { os.Remove(lockPath) }, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("could not lock cache entry %s/%s: %w", ns, key, err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > store.staleLock {
			os.Remove(lockPath)
			continue
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s/%s", ErrLocked, ns, key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(store.retryDelay):
		}
	}
}

// Meta returns the sidecar of an entry
func (store *Store) Meta(ns Namespace, key string) (*Metadata, error) {
	body, err := os.ReadFile(store.path(ns, key, metaExt))
	if err != nil {
		return nil, err
	}

	meta := &Metadata{}
	if err := toml.Unmarshal(body, meta); err != nil {
		return nil, fmt.Errorf("%w: sidecar %s/%s: %s", data.ErrCacheCorrupt, ns, key, err)
	}

	return meta, nil
}

// Get decodes the entry (ns, key) into out. Missing, expired and corrupt entries are
// reported as a miss; expired and corrupt entries are removed.
func (store *Store) Get(ctx context.Context, ns Namespace, key string, out any) (bool, error) {
	logger := zerolog.Ctx(ctx)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(store.retryDelay):
			}
		}

		hit, retry, err := store.read(ns, key, out)
		if err == nil {
			return hit, nil
		}

		lastErr = err
		if !retry {
			break
		}
	}

	if errors.Is(lastErr, errExpired) {
		logger.Debug().Str("Namespace", string(ns)).Str("Key", key).Msg("cache entry expired")
	} else {
		logger.Warn().Err(lastErr).Str("Namespace", string(ns)).Str("Key", key).Msg("removing unreadable cache entry")
	}

	if err := store.Delete(ns, key); err != nil {
		return false, err
	}

	return false, nil
}

var errExpired = errors.New("cache entry expired")

// read makes one attempt at reading an entry. retry is true when the failure may be caused
// by a concurrent writer.
func (store *Store) read(ns Namespace, key string, out any) (hit bool, retry bool, err error) {
	meta, err := store.Meta(ns, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if _, statErr := os.Stat(store.path(ns, key, dataExt)); statErr == nil {
				return false, true, fmt.Errorf("%w: %s/%s has no sidecar", data.ErrCacheCorrupt, ns, key)
			}
			return false, false, nil
		}
		return false, true, err
	}

	if meta.Expired(store.now()) {
		return false, false, errExpired
	}

	body, err := os.ReadFile(store.path(ns, key, dataExt))
	if err != nil {
		return false, true, fmt.Errorf("%w: %s", data.ErrCacheCorrupt, err)
	}

	sum := sha256.Sum256(body)
	if hex.EncodeToString(sum[:]) != meta.Checksum {
		return false, true, fmt.Errorf("%w: checksum mismatch for %s/%s", data.ErrCacheCorrupt, ns, key)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, false, fmt.Errorf("%w: %s", data.ErrCacheCorrupt, err)
	}

	return true, false, nil
}

// Exists reports whether a fresh entry is stored under (ns, key)
func (store *Store) Exists(ns Namespace, key string) bool {
	meta, err := store.Meta(ns, key)
	if err != nil {
		return false
	}

	if meta.Expired(store.now()) {
		return false
	}

	_, err = os.Stat(store.path(ns, key, dataExt))
	return err == nil
}

// Delete removes an entry; deleting a missing entry is not an error
func (store *Store) Delete(ns Namespace, key string) error {
	for _, ext := range []string{dataExt, metaExt} {
		if err := os.Remove(store.path(ns, key, ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// List returns the sidecars of every fresh entry in a namespace ordered by key
func (store *Store) List(ns Namespace) ([]*Metadata, error) {
	entries, err := os.ReadDir(filepath.Join(store.root, string(ns)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	now := store.now()
	var result []*Metadata
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, metaExt) {
			continue
		}

		meta, err := store.Meta(ns, strings.TrimSuffix(name, metaExt))
		if err != nil {
			log.Warn().Err(err).Str("File", name).Msg("skipping unreadable cache sidecar")
			continue
		}

		if meta.Expired(now) {
			continue
		}

		result = append(result, meta)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result, nil
}

// Purge removes expired entries and abandoned staging files from every namespace
func (store *Store) Purge(ctx context.Context) (int, error) {
	logger := zerolog.Ctx(ctx)
	now := store.now()
	removed := 0

	for _, ns := range Namespaces {
		entries, err := os.ReadDir(filepath.Join(store.root, string(ns)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, err
		}

		for _, entry := range entries {
			name := entry.Name()
			switch {
			case strings.HasPrefix(name, ".") && strings.HasSuffix(name, stageExt):
				if info, err := entry.Info(); err == nil && time.Since(info.ModTime()) > store.staleLock {
					os.Remove(filepath.Join(store.root, string(ns), name))
				}
			case strings.HasSuffix(name, metaExt):
				key := strings.TrimSuffix(name, metaExt)
				meta, err := store.Meta(ns, key)
				if err != nil || meta.Expired(now) {
					if err := store.Delete(ns, key); err != nil {
						return removed, err
					}
					removed++
					logger.Debug().Str("Namespace", string(ns)).Str("Key", key).Msg("purged cache entry")
				}
			}
		}
	}

	return removed, nil
}
