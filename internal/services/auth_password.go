package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"propadmin/internal/apperr"
	"propadmin/internal/logger"
	"propadmin/internal/models"
	helpers "propadmin/internal/utils/helpers"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// ResetTokenTTL — срок жизни ссылки сброса.
	ResetTokenTTL   = time.Hour
	resetTokenBytes = 32

	resetSubject = "Password Reset Request"
)

type AccountFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
}

// ResetTokenStore — хранилище токенов сброса (Postgres или Redis).
// Consume атомарно проверяет токен, меняет пароль и гасит токен.
type ResetTokenStore interface {
	Create(ctx context.Context, t *models.PasswordResetToken) error
	Consume(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (string, error)
}

type PasswordService struct {
	accounts    AccountFinder
	tokens      ResetTokenStore
	mailer      Mailer
	frontendURL string
	bcryptCost  int
	tokenTTL    time.Duration
	now         func() time.Time
}

func NewPasswordService(accounts AccountFinder, tokens ResetTokenStore, mailer Mailer, frontendURL string, bcryptCost int) *PasswordService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PasswordService{
		accounts:    accounts,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		bcryptCost:  bcryptCost,
		tokenTTL:    ResetTokenTTL,
		now:         time.Now,
	}
}

// GenerateResetToken возвращает сырой токен (base64url, 32 случайных байта) и его хеш для хранения.
func GenerateResetToken() (raw, hash string, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(b)
	return raw, HashResetToken(raw), nil
}

// HashResetToken — hex(SHA-256) сырого токена; по нему ищется запись.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *PasswordService) resetLink(raw string) string {
	return fmt.Sprintf("%s/admin/reset-password?token=%s", s.frontendURL, url.QueryEscape(raw))
}

// RequestReset выпускает одноразовый токен для username и отправляет ссылку на почту.
// Для неизвестного username возвращает apperr.ErrNotFound и ничего не пишет.
func (s *PasswordService) RequestReset(ctx context.Context, username string) (time.Time, error) {
	log := logger.WithCtx(ctx)
	username = strings.TrimSpace(username)
	if username == "" {
		return time.Time{}, fmt.Errorf("%w: username required", apperr.ErrBadRequest)
	}

	log.Info("Запрос на сброс пароля", zap.String("username", username))

	if _, err := s.accounts.FindByUsername(ctx, username); err != nil {
		if apperr.IsNotFound(err) {
			log.Warn("Администратор не найден при запросе сброса", zap.String("username", username))
		}
		return time.Time{}, err
	}

	raw, hash, err := GenerateResetToken()
	if err != nil {
		log.Error("Ошибка генерации токена для сброса", zap.Error(err))
		return time.Time{}, fmt.Errorf("generate token: %w", err)
	}

	expires := s.now().Add(s.tokenTTL)
	rec := &models.PasswordResetToken{
		Username:  username,
		TokenHash: hash,
		ExpiresAt: expires,
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		log.Error("Ошибка сохранения токена сброса пароля", zap.String("username", username), zap.Error(err))
		return time.Time{}, err
	}

	link := s.resetLink(raw)
	job := EmailJob{
		To:      []string{username},
		Subject: resetSubject,
		Text:    "Click the link to reset your password: " + link,
		HTML:    helpers.BuildPasswordResetHTML(link, s.tokenTTL),
	}
	if err := s.mailer.Send(ctx, job); err != nil {
		// токен уже сохранён и остаётся валидным до истечения
		log.Error("Ошибка отправки письма для сброса пароля", zap.String("username", username), zap.Error(err))
		if !errors.Is(err, apperr.ErrDelivery) {
			err = apperr.Delivery("send reset email", err)
		}
		return time.Time{}, err
	}

	log.Info("Ссылка на сброс пароля отправлена",
		zap.String("username", username),
		zap.Time("expires_at", expires),
	)
	return expires, nil
}

// ResetPassword гасит токен и устанавливает новый пароль.
// Любой неподходящий токен (нет записи, использован, истёк) даёт apperr.ErrInvalidOrExpiredToken.
func (s *PasswordService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	log := logger.WithCtx(ctx)
	if rawToken == "" || newPassword == "" {
		return fmt.Errorf("%w: missing data", apperr.ErrBadRequest)
	}

	log.Info("Попытка сброса пароля по токену")

	pwHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		log.Error("Ошибка генерации хеша пароля", zap.Error(err))
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return fmt.Errorf("%w: %w", apperr.ErrBadRequest, err)
		}
		return fmt.Errorf("hash password: %w", err)
	}

	username, err := s.tokens.Consume(ctx, HashResetToken(rawToken), s.now(), string(pwHash))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidOrExpiredToken) {
			log.Warn("Неверный или просроченный токен при сбросе пароля")
		} else {
			log.Error("Ошибка сброса пароля", zap.Error(err))
		}
		return err
	}

	log.Info("Пароль успешно сброшен", zap.String("username", username))
	return nil
}
