// Package mailfs keeps message bodies and raw headers outside the database,
// one directory per message key.
package mailfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

const (
	bodyFile    = "body.txt"
	headersFile = "headers.txt"
)

// Store is a directory of per-message files grouped by account address.
type Store struct {
	root string
}

// New returns a store rooted at root. The directory is created on first
// write.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) dir(account string, key int64) string {
	return filepath.Join(s.root, account, strconv.FormatInt(key, 10))
}

// Save writes the body and headers of a message, replacing previous content.
// Empty headers remove any stored headers file.
func (s *Store) Save(account string, key int64, body, headers string) error {
	dir := s.dir(account, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating message directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, bodyFile), []byte(body), 0o644); err != nil {
		return fmt.Errorf("writing body of %d: %w", key, err)
	}
	headersPath := filepath.Join(dir, headersFile)
	if headers == "" {
		if err := os.Remove(headersPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing headers of %d: %w", key, err)
		}
		return nil
	}
	if err := os.WriteFile(headersPath, []byte(headers), 0o644); err != nil {
		return fmt.Errorf("writing headers of %d: %w", key, err)
	}
	return nil
}

// Load returns the body and headers of a message. Missing files read as
// empty strings.
func (s *Store) Load(account string, key int64) (body, headers string, err error) {
	dir := s.dir(account, key)
	if body, err = readOptional(filepath.Join(dir, bodyFile)); err != nil {
		return "", "", err
	}
	if headers, err = readOptional(filepath.Join(dir, headersFile)); err != nil {
		return "", "", err
	}
	return body, headers, nil
}

// Delete removes everything stored for a message.
func (s *Store) Delete(account string, key int64) error {
	if err := os.RemoveAll(s.dir(account, key)); err != nil {
		return fmt.Errorf("deleting message %d: %w", key, err)
	}
	return nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
