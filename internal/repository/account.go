package repository

import (
	"context"
	"errors"

	"propadmin/internal/apperr"
	"propadmin/internal/logger"
	"propadmin/internal/models"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AccountRepository struct {
	db Querier
}

func NewAccountRepository(db Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx — тот же репозиторий, но поверх транзакции.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	return &AccountRepository{db: tx}
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	logger.Log.Debug("Поиск администратора по username (repo)", zap.String("username", username))

	var a models.Account
	err := r.db.QueryRow(ctx, `SELECT username, password FROM admins WHERE username = $1`, username).
		Scan(&a.Username, &a.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		logger.Log.Error("Ошибка поиска администратора (repo)", zap.String("username", username), zap.Error(err))
		return nil, apperr.Storage("find account", err)
	}
	return &a, nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE admins SET password = $1 WHERE username = $2`, passwordHash, username)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.String("username", username), zap.Error(err))
		return apperr.Storage("update credential", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, username, passwordHash string) error {
	logger.Log.Info("Создание администратора (repo)", zap.String("username", username))
	_, err := r.db.Exec(ctx, `INSERT INTO admins (username, password) VALUES ($1, $2)`, username, passwordHash)
	if err != nil {
		logger.Log.Error("Ошибка создания администратора (repo)", zap.String("username", username), zap.Error(err))
		return apperr.Storage("create account", err)
	}
	return nil
}
