package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"propadmin/internal/config"
)

type localStore struct {
	dir       string
	urlPrefix string
}

func init() {
	Register(config.FileStoreLocal, createLocalStore)
}

func createLocalStore(cfg *config.Config) (Store, error) {
	if cfg.StaticDir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	return NewLocal(cfg.StaticDir, cfg.StaticURLPrefix), nil
}

func NewLocal(dir, urlPrefix string) Store {
	return &localStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func (s *localStore) Type() string {
	return config.FileStoreLocal
}

// Put перезаписывает файл с тем же ключом.
func (s *localStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, key)
	tmp, err := os.CreateTemp(s.dir, "."+key+".*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return s.urlPrefix + "/" + key, nil
}
