package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	usersFile    = "users.json"
	chatsFile    = "chats.json"
	messagesFile = "messages.json"
)

// FileBackend persists each collection as a plain JSON array in its own
// file, rewritten in full on every flush. There is no atomic multi-file
// commit: a crash mid-flush can leave the files mutually inconsistent.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (fb *FileBackend) Load() (Collections, error) {
	var cols Collections

	if err := readCollection(filepath.Join(fb.dir, usersFile), &cols.Users); err != nil {
		return Collections{}, err
	}
	if err := readCollection(filepath.Join(fb.dir, chatsFile), &cols.Chats); err != nil {
		return Collections{}, err
	}
	if err := readCollection(filepath.Join(fb.dir, messagesFile), &cols.Messages); err != nil {
		return Collections{}, err
	}

	return cols, nil
}

func (fb *FileBackend) Flush(cols Collections) error {
	if err := writeCollection(filepath.Join(fb.dir, usersFile), emptyIfNil(cols.Users)); err != nil {
		return err
	}
	if err := writeCollection(filepath.Join(fb.dir, chatsFile), emptyIfNil(cols.Chats)); err != nil {
		return err
	}
	return writeCollection(filepath.Join(fb.dir, messagesFile), emptyIfNil(cols.Messages))
}

func (fb *FileBackend) Ping() error {
	_, err := os.Stat(fb.dir)
	return err
}

func (fb *FileBackend) Close() error {
	return nil
}

// readCollection decodes a JSON array file into v. A missing file is an
// empty collection, not an error.
func readCollection(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeCollection(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
