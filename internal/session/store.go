// Package session хранит сессию текущего пользователя: токен, роль и извлечённую из токена идентичность.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

// ErrNoSession возвращается, если пользователь не вошёл в систему.
var ErrNoSession = errors.New("no active session")

// Store является единственным владельцем состояния «кто вошёл в систему».
type Store struct {
	secrets SecretStore
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	user    *model.User
	token   string
	loading bool
}

// NewStore создаёт хранилище сессии. До вызова Restore хранилище находится в состоянии загрузки.
func NewStore(secrets SecretStore, logger *zap.Logger) *Store {
	return &Store{
		secrets: secrets,
		logger:  logger,
		now:     time.Now,
		loading: true,
	}
}

// Restore загружает ранее сохранённую сессию. Истёкший токен удаляется.
func (s *Store) Restore(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	token, okToken, err := s.secrets.Get(KeyToken)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	role, okRole, err := s.secrets.Get(KeyRole)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !okToken || !okRole || token == "" {
		return nil
	}

	id, err := decodeToken(token)
	if err != nil {
		s.logger.Warn("stored token cannot be decoded, clearing session", zap.Error(err))
		return s.Logout()
	}

	if id.expired(s.now()) {
		s.logger.Info("stored token expired, clearing session", zap.Time("expiresAt", id.expiresAt))
		return s.Logout()
	}

	s.mu.Lock()
	s.token = token
	s.user = &model.User{ID: id.userID, Name: id.name, Role: role}
	s.mu.Unlock()

	s.logger.Info("session restored", zap.String("user", id.name))
	return nil
}

// Login сохраняет токен и роль и делает их текущей сессией.
func (s *Store) Login(token, role string) error {
	id, err := decodeToken(token)
	if err != nil {
		return err
	}

	if err := s.secrets.Set(KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.secrets.Set(KeyRole, role); err != nil {
		return fmt.Errorf("store role: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &model.User{ID: id.userID, Name: id.name, Role: role}
	s.mu.Unlock()

	return nil
}

// Logout безусловно очищает сохранённые значения и текущую сессию.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	return errors.Join(
		s.secrets.Delete(KeyToken),
		s.secrets.Delete(KeyRole),
	)
}

// User возвращает текущего пользователя.
func (s *Store) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Token возвращает bearer-токен текущей сессии или пустую строку.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Loading сообщает, что восстановление сессии ещё не завершено.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
