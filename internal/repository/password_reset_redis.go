package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"propadmin/internal/apperr"
	"propadmin/internal/logger"
	"propadmin/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CredentialUpdater — то, что меняет пароль после захвата токена (AccountRepository).
type CredentialUpdater interface {
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

// claimScript атомарно проверяет токен и помечает его использованным.
// Возвращает username или nil, если токена нет, он погашен или истёк.
var claimScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'username', 'expires_at', 'used')
if not v[1] then
	return false
end
if v[3] == '1' then
	return false
end
if tonumber(ARGV[1]) >= tonumber(v[2]) then
	return false
end
redis.call('HSET', KEYS[1], 'used', '1')
return v[1]
`)

// RedisResetTokenStore хранит токены сброса в Redis, а пароль меняет в Postgres.
// Захват токена и смена пароля не атомарны: при сбое второго шага захват снимается best-effort.
type RedisResetTokenStore struct {
	client   *redis.Client
	accounts CredentialUpdater
}

func NewRedisResetTokenStore(client *redis.Client, accounts CredentialUpdater) *RedisResetTokenStore {
	return &RedisResetTokenStore{client: client, accounts: accounts}
}

// NewRedisClient разбирает REDIS_URL и проверяет соединение.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	const op = "repository.NewRedisClient"

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

func resetKey(tokenHash string) string {
	return "reset:" + tokenHash
}

func (s *RedisResetTokenStore) Create(ctx context.Context, t *models.PasswordResetToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	data := map[string]any{
		"username":   t.Username,
		"expires_at": t.ExpiresAt.UnixMilli(),
		"used":       "0",
		"created_at": t.CreatedAt.UnixMilli(),
	}
	// записи не истекают по TTL: история токенов хранится как в Postgres
	if err := s.client.HSet(ctx, resetKey(t.TokenHash), data).Err(); err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса в Redis", zap.String("username", t.Username), zap.Error(err))
		return apperr.Storage("insert token", err)
	}
	return nil
}

func (s *RedisResetTokenStore) Consume(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (string, error) {
	key := resetKey(tokenHash)

	username, err := claimScript.Run(ctx, s.client, []string{key}, strconv.FormatInt(now.UnixMilli(), 10)).Text()
	if errors.Is(err, redis.Nil) {
		return "", apperr.ErrInvalidOrExpiredToken
	}
	if err != nil {
		logger.Log.Error("Ошибка захвата токена в Redis", zap.Error(err))
		return "", apperr.Storage("claim token", err)
	}

	if err := s.accounts.UpdatePassword(ctx, username, passwordHash); err != nil {
		logger.Log.Error("Пароль не обновлён после захвата токена, снимаем захват",
			zap.String("username", username), zap.Error(err))
		if rerr := s.client.HSet(context.WithoutCancel(ctx), key, "used", "0").Err(); rerr != nil {
			logger.Log.Error("Не удалось снять захват токена", zap.String("username", username), zap.Error(rerr))
		}
		if apperr.IsNotFound(err) {
			return "", apperr.ErrInvalidOrExpiredToken
		}
		return "", err
	}
	return username, nil
}
