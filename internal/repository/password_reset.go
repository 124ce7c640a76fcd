package repository

import (
	"context"
	"errors"
	"time"

	"propadmin/internal/apperr"
	"propadmin/internal/logger"
	"propadmin/internal/models"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxQuerier — пул, умеющий открывать транзакции (*pgxpool.Pool).
type TxQuerier interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PasswordResetRepository struct {
	db       TxQuerier
	accounts *AccountRepository
}

func NewPasswordResetRepository(db TxQuerier, accounts *AccountRepository) *PasswordResetRepository {
	return &PasswordResetRepository{db: db, accounts: accounts}
}

func (r *PasswordResetRepository) Create(ctx context.Context, t *models.PasswordResetToken) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO password_resets (username, token, expires_at, used) VALUES ($1, $2, $3, FALSE)
		 RETURNING id, created_at`,
		t.Username, t.TokenHash, t.ExpiresAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса (repo)", zap.String("username", t.Username), zap.Error(err))
		return apperr.Storage("insert token", err)
	}
	return nil
}

// FindByHash читает запись токена. forUpdate блокирует строку до конца транзакции.
func (r *PasswordResetRepository) FindByHash(ctx context.Context, q Querier, tokenHash string, forUpdate bool) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, username, token, expires_at, used, created_at
		FROM password_resets
		WHERE token = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var t models.PasswordResetToken
	err := q.QueryRow(ctx, query, tokenHash).
		Scan(&t.ID, &t.Username, &t.TokenHash, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Storage("find token", err)
	}
	return &t, nil
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, q Querier, tokenHash string) error {
	_, err := q.Exec(ctx, `UPDATE password_resets SET used = TRUE WHERE token = $1`, tokenHash)
	if err != nil {
		return apperr.Storage("mark token used", err)
	}
	return nil
}

// Consume гасит токен и меняет пароль в одной транзакции.
// Строка токена блокируется FOR UPDATE, поэтому из двух параллельных попыток
// с одним токеном успешной будет только первая.
func (r *PasswordResetRepository) Consume(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (string, error) {
	var username string
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		t, err := r.FindByHash(ctx, tx, tokenHash, true)
		if apperr.IsNotFound(err) {
			return apperr.ErrInvalidOrExpiredToken
		}
		if err != nil {
			return err
		}
		if !t.Valid(now) {
			return apperr.ErrInvalidOrExpiredToken
		}

		if err := r.accounts.WithTx(tx).UpdatePassword(ctx, t.Username, passwordHash); err != nil {
			if apperr.IsNotFound(err) {
				// аккаунт удалён после выдачи токена
				return apperr.ErrInvalidOrExpiredToken
			}
			return err
		}
		if err := r.MarkUsed(ctx, tx, tokenHash); err != nil {
			return err
		}
		username = t.Username
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidOrExpiredToken) || errors.Is(err, apperr.ErrStorage) {
			return "", err
		}
		logger.Log.Error("Ошибка транзакции сброса пароля (repo)", zap.Error(err))
		return "", apperr.Storage("consume token", err)
	}
	return username, nil
}
