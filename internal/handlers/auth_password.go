package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"propadmin/internal/apperr"
	"propadmin/internal/logger"
	helpers "propadmin/internal/utils/helpers"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type passwordResetter interface {
	RequestReset(ctx context.Context, username string) (time.Time, error)
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

type PasswordHandler struct {
	svc passwordResetter
}

func NewPasswordHandler(svc passwordResetter) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

type forgotReq struct {
	Username string `json:"username" example:"admin@example.com"`
}

func (r forgotReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 320)),
	)
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r resetReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Forgot godoc
// @Summary Запрос восстановления пароля администратора
// @Description Выпускает одноразовый токен (1 час) и отправляет ссылку на почту администратора.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotReq true "Username (email) администратора"
// @Success 200 {object} messageResponse
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Failure 500 {object} errorResponse
// @Router /admin/forgot-password [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON в Forgot", zap.Error(err))
		helpers.Message(w, http.StatusBadRequest, "Username required")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		log.Warn("Невалидный payload в Forgot", zap.Error(err))
		helpers.Message(w, http.StatusBadRequest, "Username required")
		return
	}

	_, err := h.svc.RequestReset(r.Context(), req.Username)
	switch {
	case err == nil:
		helpers.Message(w, http.StatusOK, "Password reset link sent")
	case errors.Is(err, apperr.ErrBadRequest):
		helpers.Message(w, http.StatusBadRequest, "Username required")
	case errors.Is(err, apperr.ErrNotFound):
		helpers.Message(w, http.StatusNotFound, "User not found")
	default:
		log.Error("Сбой при запросе восстановления пароля", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Гасит токен из письма и устанавливает новый пароль. Токен одноразовый.
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetReq true "Токен и новый пароль"
// @Success 200 {object} messageResponse
// @Failure 400 {object} messageResponse
// @Failure 500 {object} errorResponse
// @Router /admin/reset-password [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON в Reset", zap.Error(err))
		helpers.Message(w, http.StatusBadRequest, "Missing data")
		return
	}
	if err := req.Validate(); err != nil {
		log.Warn("Невалидный payload в Reset", zap.Error(err))
		helpers.Message(w, http.StatusBadRequest, "Missing data")
		return
	}

	err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		helpers.Message(w, http.StatusOK, "Password reset successful")
	case errors.Is(err, apperr.ErrInvalidOrExpiredToken):
		helpers.Message(w, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		helpers.Message(w, http.StatusBadRequest, "Password too long")
	case errors.Is(err, apperr.ErrBadRequest):
		helpers.Message(w, http.StatusBadRequest, "Missing data")
	default:
		log.Error("Сбой при сбросе пароля", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, err.Error())
	}
}
