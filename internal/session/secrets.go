package session

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

// Ключи хранилища секретов.
const (
	KeyToken = "token"
	KeyRole  = "role"
)

const nonceSize = 24

// SecretStore описывает защищённое хранилище строковых значений.
type SecretStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// FileSecretStore хранит каждое значение в отдельном зашифрованном файле.
type FileSecretStore struct {
	dir string
	key [32]byte
}

// NewFileSecretStore создаёт хранилище в каталоге dir; ключ шифрования выводится из passphrase.
func NewFileSecretStore(dir, passphrase string) (*FileSecretStore, error) {
	if passphrase == "" {
		return nil, errors.New("secret store passphrase is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create secret dir: %w", err)
	}
	return &FileSecretStore{
		dir: dir,
		key: sha256.Sum256([]byte(passphrase)),
	}, nil
}

// Get читает и расшифровывает значение. Отсутствующий ключ не считается ошибкой.
func (s *FileSecretStore) Get(key string) (string, bool, error) {
	blob, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read secret %s: %w", key, err)
	}

	if len(blob) < nonceSize+secretbox.Overhead {
		return "", false, fmt.Errorf("secret %s is truncated", key)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], blob[:nonceSize])

	plain, ok := secretbox.Open(nil, blob[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", false, fmt.Errorf("secret %s cannot be decrypted", key)
	}
	return string(plain), true, nil
}

// Set шифрует и сохраняет значение.
func (s *FileSecretStore) Set(key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	if err := os.WriteFile(s.path(key), sealed, 0o600); err != nil {
		return fmt.Errorf("write secret %s: %w", key, err)
	}
	return nil
}

// Delete удаляет значение; отсутствие файла не считается ошибкой.
func (s *FileSecretStore) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete secret %s: %w", key, err)
	}
	return nil
}

func (s *FileSecretStore) path(key string) string {
	return filepath.Join(s.dir, key+".enc")
}

// MemorySecretStore хранит значения в памяти процесса.
type MemorySecretStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemorySecretStore создаёт пустое хранилище в памяти.
func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{values: make(map[string]string)}
}

func (s *MemorySecretStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemorySecretStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemorySecretStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
