package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork оборачивает сбои транспорта: таймауты, DNS, отказ в соединении.
	ErrNetwork = errors.New("network error")
	// ErrRoleNotAllowed возвращается, если аутентифицированный аккаунт не является клиентом.
	ErrRoleNotAllowed = errors.New("access restricted to customers")
	// ErrUnauthenticated возвращается при вызове защищённого метода без токена.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrRegistrationFailed возвращается, если сервис авторизации отклонил регистрацию.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrMenuNotFound возвращается, если у ресторана нет меню.
	ErrMenuNotFound = errors.New("menu not found")
)

// RejectedError описывает ответ сервиса с неуспешным HTTP-статусом.
type RejectedError struct {
	StatusCode int
	Message    string
	// Err уточняет операцию, например ErrRegistrationFailed.
	Err error
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: status %d", e.Err, e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func networkError(err error) error {
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
