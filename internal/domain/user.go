package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User - аккаунт владельца гаража.
// Каждый автомобиль принадлежит ровно одному аккаунту.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Никогда не возвращаем в JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail приводит email к нижнему регистру без крайних пробелов
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate проверяет корректность данных аккаунта
func (u *User) Validate() error {
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if u.PasswordHash == "" {
		return ErrInvalidUserData
	}
	return nil
}
