package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore keeps every key in one JSON document on disk. The document is
// read once on open and rewritten in full on every change.
type FileStore struct {
	path string
	mu   sync.Mutex
	data map[string]string
}

// OpenFileStore loads the document at path. A missing file yields an empty
// store; the file is created on the first write. An unreadable document is
// moved to path+".corrupt" and the store starts empty.
func OpenFileStore(path string, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fs := &FileStore{path: path, data: make(map[string]string)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("open store file: %w", err)
	}
	err = json.NewDecoder(f).Decode(&fs.data)
	f.Close()
	if err != nil {
		fs.data = make(map[string]string)
		aside := path + ".corrupt"
		log.Warn("discarding unreadable store file",
			zap.String("path", path), zap.String("moved_to", aside), zap.Error(err))
		if rerr := os.Rename(path, aside); rerr != nil {
			log.Warn("move unreadable store file", zap.Error(rerr))
		}
		return fs, nil
	}
	if fs.data == nil {
		fs.data = make(map[string]string)
	}
	return fs, nil
}

func (fs *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (fs *FileStore) Set(_ context.Context, key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.data[key]
	fs.data[key] = string(value)
	if err := fs.save(); err != nil {
		if had {
			fs.data[key] = prev
		} else {
			delete(fs.data, key)
		}
		return err
	}
	return nil
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.data[key]
	if !had {
		return nil
	}
	delete(fs.data, key)
	if err := fs.save(); err != nil {
		fs.data[key] = prev
		return err
	}
	return nil
}

// save writes the document to a temp file in the same directory and renames
// it over the old one, so readers never observe a half-written file.
func (fs *FileStore) save() error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".agrivision-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(fs.data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
