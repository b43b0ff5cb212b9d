package dal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mcpadmin/utils/logger"
)

// fileDocument is the on-disk layout: namespace -> key -> value
type fileDocument struct {
	Namespaces map[string]map[string]string `json:"namespaces"`
}

// FileStore persists every namespace in one JSON document. Writes go to a
// temp file that is renamed over the original, so readers never observe a
// partially written document.
type FileStore struct {
	mu        sync.Mutex
	path      string
	namespace string
	logger    logger.Logger
}

// NewFileStore creates a file-backed store. The file is created lazily on first write.
func NewFileStore(path, namespace string, log logger.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{path: path, namespace: namespace, logger: log}, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	v, ok := doc.Namespaces[s.namespace][key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	ns, ok := doc.Namespaces[s.namespace]
	if !ok {
		ns = make(map[string]string)
		doc.Namespaces[s.namespace] = ns
	}
	ns[key] = string(value)
	return s.write(doc)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	ns, ok := doc.Namespaces[s.namespace]
	if !ok {
		return nil
	}
	if _, ok := ns[key]; !ok {
		return nil
	}
	delete(ns, key)
	return s.write(doc)
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	if _, ok := doc.Namespaces[s.namespace]; !ok {
		return nil
	}
	delete(doc.Namespaces, s.namespace)
	return s.write(doc)
}

func (s *FileStore) Close() error {
	return nil
}

// read loads the document. A missing or corrupt file reads as empty.
func (s *FileStore) read() *fileDocument {
	doc := &fileDocument{Namespaces: make(map[string]map[string]string)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warnf("Failed to read storage file %s: %v", s.path, err)
		}
		return doc
	}

	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warnf("Ignoring corrupt storage file %s: %v", s.path, err)
		return &fileDocument{Namespaces: make(map[string]map[string]string)}
	}
	if doc.Namespaces == nil {
		doc.Namespaces = make(map[string]map[string]string)
	}
	for name, ns := range doc.Namespaces {
		if ns == nil {
			doc.Namespaces[name] = make(map[string]string)
		}
	}
	return doc
}

func (s *FileStore) write(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage document: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp storage file: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp storage file: %w", err)
	}
	return nil
}
