package store

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
)

var (
	usersKey    = []byte("collections/users")
	chatsKey    = []byte("collections/chats")
	messagesKey = []byte("collections/messages")
)

// PebbleBackend stores the collections in an embedded pebble database,
// one key per collection. Unlike the file backend, a flush writes all
// three collections in a single batch, so they can never be mutually
// inconsistent on disk.
type PebbleBackend struct {
	db *pebble.DB
}

func NewPebbleBackend(path string) (*PebbleBackend, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble db: %w", err)
	}
	return &PebbleBackend{db: db}, nil
}

func (pb *PebbleBackend) Load() (Collections, error) {
	var cols Collections

	if err := pb.get(usersKey, &cols.Users); err != nil {
		return Collections{}, err
	}
	if err := pb.get(chatsKey, &cols.Chats); err != nil {
		return Collections{}, err
	}
	if err := pb.get(messagesKey, &cols.Messages); err != nil {
		return Collections{}, err
	}

	return cols, nil
}

func (pb *PebbleBackend) Flush(cols Collections) error {
	batch := pb.db.NewBatch()
	defer batch.Close()

	if err := set(batch, usersKey, cols.Users); err != nil {
		return err
	}
	if err := set(batch, chatsKey, cols.Chats); err != nil {
		return err
	}
	if err := set(batch, messagesKey, cols.Messages); err != nil {
		return err
	}

	return batch.Commit(pebble.Sync)
}

func (pb *PebbleBackend) Ping() error {
	if pb.db == nil {
		return fmt.Errorf("pebble db not open")
	}
	return nil
}

func (pb *PebbleBackend) Close() error {
	if pb.db == nil {
		return nil
	}
	err := pb.db.Close()
	pb.db = nil
	return err
}

func (pb *PebbleBackend) get(key []byte, v any) error {
	data, closer, err := pb.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	defer closer.Close()

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func set(batch *pebble.Batch, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return batch.Set(key, data, nil)
}
