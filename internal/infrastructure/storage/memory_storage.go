package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	settlementapp "github.com/messmate/backend/internal/application/settlement"
)

// MemoryObjectStorage keeps objects in process memory. It is used in
// development when no S3 endpoint is configured, so the export and download
// flow can be exercised locally.
type MemoryObjectStorage struct {
	// BaseURL prefixes generated download links
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "http://localhost:8080/_storage",
		objects: make(map[string]memoryObject),
	}
}

var _ settlementapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// Upload stores a copy of data. An existing object is kept.
func (s *MemoryObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[storageKey]; ok {
		return nil
	}
	s.objects[storageKey] = memoryObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
	}
	return nil
}

// ObjectExists reports whether storageKey was uploaded
func (s *MemoryObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, ErrStorageKeyRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// GenerateDownloadURL builds a fake link carrying the expiry
func (s *MemoryObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	expiresAt := time.Now().Add(expiresIn)
	link := s.BaseURL + "/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Get returns a stored object
func (s *MemoryObjectStorage) Get(storageKey string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}
