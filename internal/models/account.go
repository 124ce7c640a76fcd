package models

// Account — администратор из таблицы admins. Username хранит e-mail.
type Account struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
