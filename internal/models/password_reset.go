package models

import "time"

// PasswordResetToken — строка password_resets. Сырой токен здесь не хранится, только его хеш.
type PasswordResetToken struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid — токен можно погасить, только если он не использован и срок ещё не вышел.
func (t *PasswordResetToken) Valid(now time.Time) bool {
	return t != nil && !t.Used && now.Before(t.ExpiresAt)
}
