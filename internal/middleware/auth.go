// Package middleware содержит HTTP middleware локального API клиента FastGo.
package middleware

import (
	"context"
	"net/http"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// UserSource возвращает пользователя текущей сессии.
type UserSource interface {
	User() (model.User, bool)
}

// AuthMiddleware пропускает запросы только при активной сессии пользователя.
type AuthMiddleware struct {
	users UserSource
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware поверх хранилища сессии.
func NewAuthMiddleware(users UserSource) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// Middleware проверяет наличие сессии и добавляет пользователя в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.users.User()
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserFromContext извлекает пользователя из контекста запроса.
func GetUserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey).(model.User)
	return user, ok
}
