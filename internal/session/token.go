package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// claims повторяет полезную нагрузку токена сервиса авторизации.
type claims struct {
	UserID flexibleID `json:"userId"`
	Role   string     `json:"role"`
	jwt.RegisteredClaims
}

// flexibleID принимает идентификатор как строкой, так и числом.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexibleID(s)
		return nil
	}
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexibleID(n.String())
	return nil
}

type identity struct {
	userID    string
	name      string
	expiresAt time.Time
}

// decodeToken извлекает идентичность из токена без проверки подписи: её проверяют сервисы.
func decodeToken(token string) (identity, error) {
	c := &claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, c); err != nil {
		return identity{}, fmt.Errorf("decode token: %w", err)
	}

	id := identity{
		userID: string(c.UserID),
		name:   c.Subject,
	}
	if c.ExpiresAt != nil {
		id.expiresAt = c.ExpiresAt.Time
	}
	return id, nil
}

// expired сообщает, что срок действия токена истёк. Токен без exp считается истёкшим.
func (id identity) expired(now time.Time) bool {
	return id.expiresAt.IsZero() || !id.expiresAt.After(now)
}
