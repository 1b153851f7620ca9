package storage

import (
	"context"
	"sync"
)

// MemoryStore хранит данные в памяти процесса. Используется, если база не настроена.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load возвращает копию значения по ключу.
func (s *MemoryStore) Load(_ context.Context, user, key string) ([]byte, bool, error) {
	if err := checkUser(user); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[StorageKey(user, key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Save сохраняет копию значения.
func (s *MemoryStore) Save(_ context.Context, user, key string, value []byte) error {
	if err := checkUser(user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[StorageKey(user, key)] = append([]byte(nil), value...)
	return nil
}

// SaveMany сохраняет копии нескольких значений под одной блокировкой.
func (s *MemoryStore) SaveMany(_ context.Context, user string, values map[string][]byte) error {
	if err := checkUser(user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range values {
		s.data[StorageKey(user, key)] = append([]byte(nil), value...)
	}
	return nil
}

// Delete удаляет перечисленные ключи пользователя.
func (s *MemoryStore) Delete(_ context.Context, user string, keys ...string) error {
	if err := checkUser(user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.data, StorageKey(user, key))
	}
	return nil
}

// Close ничего не делает.
func (s *MemoryStore) Close() error {
	return nil
}
