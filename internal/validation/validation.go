// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"strings"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

var (
	// ErrIncompleteAddress возвращается, если не указаны улица или город.
	ErrIncompleteAddress = errors.New("street and city are required")
	// ErrPasswordMismatch возвращается, если пароль и подтверждение не совпадают.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrMissingField возвращается, если не заполнено обязательное поле профиля.
	ErrMissingField = errors.New("required field is missing")
)

// ValidateAddress проверяет, что адрес доставки пригоден для геокодирования.
func ValidateAddress(street, city string) error {
	if strings.TrimSpace(street) == "" || strings.TrimSpace(city) == "" {
		return ErrIncompleteAddress
	}
	return nil
}

// ValidateRegistration проверяет профиль перед отправкой в сервис авторизации.
func ValidateRegistration(p model.RegistrationProfile) error {
	required := []struct {
		name  string
		value string
	}{
		{"username", p.Username},
		{"email", p.Email},
		{"password", p.Password},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{Field: f.name}
		}
	}

	if p.Password != p.ConfirmPassword {
		return ErrPasswordMismatch
	}

	return nil
}

// FieldError указывает на незаполненное поле.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + ErrMissingField.Error()
}

func (e *FieldError) Unwrap() error {
	return ErrMissingField
}
