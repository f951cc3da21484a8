package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"

	"taskflow-console/internal/model"
)

const nonceSize = 24

// FileStorage keeps all items in a single JSON document on disk. When a secret is
// configured the document is sealed with NaCl secretbox.
type FileStorage struct {
	path  string
	key   *[32]byte
	mu    sync.RWMutex
	items map[string]string
}

func NewFile(path string, secret string) (*FileStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage file path is required: %w", model.ErrInvalidInput)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &FileStorage{path: path, items: map[string]string{}}
	if secret != "" {
		key := sha256.Sum256([]byte(secret))
		s.key = &key
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStorage) GetItem(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return "", fmt.Errorf("get %q: %w", key, model.ErrItemNotFound)
	}

	return value, nil
}

func (s *FileStorage) SetItem(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.items[key]
	s.items[key] = value
	if err := s.saveLocked(); err != nil {
		if existed {
			s.items[key] = previous
		} else {
			delete(s.items, key)
		}
		return err
	}

	return nil
}

func (s *FileStorage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return nil
	}

	delete(s.items, key)
	return s.saveLocked()
}

func (s *FileStorage) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read storage file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	if s.key != nil {
		data, err = s.open(data)
		if err != nil {
			return err
		}
	}

	items := map[string]string{}
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode storage file: %w", err)
	}

	s.items = items
	return nil
}

func (s *FileStorage) saveLocked() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage file: %w", err)
	}

	if s.key != nil {
		data, err = s.seal(data)
		if err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace storage file: %w", err)
	}

	return nil
}

func (s *FileStorage) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return secretbox.Seal(nonce[:], plain, &nonce, s.key), nil
}

func (s *FileStorage) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, model.ErrSealedStorage
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, s.key)
	if !ok {
		return nil, model.ErrSealedStorage
	}

	return plain, nil
}
