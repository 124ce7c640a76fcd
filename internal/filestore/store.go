package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"propadmin/internal/apperr"
	"propadmin/internal/config"
)

// Store кладёт файл по ключу и возвращает локатор: путь для local, публичный URL для s3.
type Store interface {
	Type() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type Factory func(cfg *config.Config) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

// New выбирает бэкенд по cfg.FileStore.
func New(cfg *config.Config) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.FileStore))
	if key == "" {
		return nil, fmt.Errorf("FILE_STORE is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.FileStore)
	}
	return factory(cfg)
}

func validKey(key string) error {
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidFileKey, key)
	}
	return nil
}
