package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"propadmin/internal/apperr"
	"propadmin/internal/models"
)

type fakeAccounts struct {
	mu        sync.Mutex
	passwords map[string]string
	err       error
}

func newFakeAccounts(usernames ...string) *fakeAccounts {
	f := &fakeAccounts{passwords: map[string]string{}}
	for _, u := range usernames {
		f.passwords[u] = "old-hash"
	}
	return f
}

func (f *fakeAccounts) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.passwords[username]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &models.Account{Username: username, PasswordHash: p}, nil
}

func (f *fakeAccounts) password(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passwords[username]
}

// fakeTokens ведёт себя как транзакционное хранилище: проверка и запись под одним мьютексом.
type fakeTokens struct {
	mu        sync.Mutex
	accounts  *fakeAccounts
	records   map[string]*models.PasswordResetToken
	createErr error
}

func newFakeTokens(accounts *fakeAccounts) *fakeTokens {
	return &fakeTokens{accounts: accounts, records: map[string]*models.PasswordResetToken{}}
}

func (f *fakeTokens) Create(_ context.Context, t *models.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *t
	f.records[t.TokenHash] = &cp
	return nil
}

func (f *fakeTokens) Consume(_ context.Context, hash string, now time.Time, pw string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[hash]
	if !ok || !rec.Valid(now) {
		return "", apperr.ErrInvalidOrExpiredToken
	}
	f.accounts.mu.Lock()
	f.accounts.passwords[rec.Username] = pw
	f.accounts.mu.Unlock()
	rec.Used = true
	return rec.Username, nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []EmailJob
	err  error
}

func (f *fakeMailer) Send(_ context.Context, job EmailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, job)
	return nil
}

type fakeImageRepo struct {
	mu        sync.Mutex
	rows      []models.Image
	pingErr   error
	failOnURL map[string]bool
}

func (f *fakeImageRepo) Ping(context.Context) error { return f.pingErr }

func (f *fakeImageRepo) Insert(_ context.Context, img *models.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnURL[img.URL] {
		return apperr.Storage("insert image", errors.New("constraint violation"))
	}
	img.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *img)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	blobs   map[string]string
	failKey map[string]bool
	delay   map[string]time.Duration // по содержимому файла
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: map[string]string{}, failKey: map[string]bool{}, delay: map[string]time.Duration{}}
}

func (f *fakeStore) Type() string { return "fake" }

func (f *fakeStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	d := f.delay[string(data)]
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failKey[key] {
		return "", errors.New("bucket unavailable")
	}
	f.blobs[key] = string(data)
	return "/static/images/" + key, nil
}
