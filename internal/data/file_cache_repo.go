package data

import (
	"context"
	"crypto/sha1" //nolint:gosec // filename digest, not security
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// FileCacheRepo implements the CacheRepository interface on the local
// filesystem. Each entry is one JSON file holding the write timestamp, the
// TTL it was stored with, and the payload. Writes go through a temp file and
// rename so concurrent writers degrade to last-writer-wins.
type FileCacheRepo struct {
	dir          string
	timeProvider TimeProvider
}

// NewFileCacheRepo creates a file cache rooted at dir.
func NewFileCacheRepo(dir string) *FileCacheRepo {
	return &FileCacheRepo{
		dir:          dir,
		timeProvider: &RealTimeProvider{},
	}
}

type fileCacheEntry struct {
	TS         float64         `json:"ts"`
	TTLSeconds float64         `json:"ttl_seconds"`
	Payload    json.RawMessage `json:"payload"`
}

var safeCacheKeyRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Set stores a value. A zero TTL never expires.
func (r *FileCacheRepo) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	entry := fileCacheEntry{
		TS:         float64(r.timeProvider.Now().UnixNano()) / 1e9,
		TTLSeconds: ttl.Seconds(),
		Payload:    json.RawMessage(value),
	}
	if !json.Valid(value) {
		// Non-JSON payloads are stored as a JSON string.
		encoded, err := json.Marshal(string(value))
		if err != nil {
			return fmt.Errorf("encode cache payload: %w", err)
		}
		entry.Payload = encoded
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	path := r.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}

// Get retrieves a value, or nil when the key is missing or expired. Expired
// entries are unlinked on read.
func (r *FileCacheRepo) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	path := r.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	var entry fileCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry: treat as a miss.
		return nil, nil
	}

	if entry.TTLSeconds > 0 {
		age := float64(r.timeProvider.Now().UnixNano())/1e9 - entry.TS
		if age > entry.TTLSeconds {
			_ = os.Remove(path)
			return nil, nil
		}
	}

	var asString string
	if json.Unmarshal(entry.Payload, &asString) == nil {
		return []byte(asString), nil
	}
	return []byte(entry.Payload), nil
}

// Delete removes a key, reporting whether it existed.
func (r *FileCacheRepo) Delete(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	err := os.Remove(r.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete cache entry: %w", err)
	}
	return true, nil
}

// Health verifies the cache directory is writable.
func (r *FileCacheRepo) Health(_ context.Context) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("cache dir unavailable: %w", err)
	}
	probe := filepath.Join(r.dir, ".health")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("cache dir not writable: %w", err)
	}
	_ = os.Remove(probe)
	return nil
}

func (r *FileCacheRepo) path(key string) string {
	if !safeCacheKeyRe.MatchString(key) {
		sum := sha1.Sum([]byte(key)) //nolint:gosec // filename digest, not security
		key = hex.EncodeToString(sum[:])
	}
	return filepath.Join(r.dir, key+".json")
}
