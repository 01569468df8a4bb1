// Package storage is the on-device persistence facade: the session user,
// the bounded scan history and the user directory, each one JSON blob in a
// key/value backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/AgriVision/internal/kv"
	"github.com/atinyakov/AgriVision/internal/models"
	"go.uber.org/zap"
)

type LocalStorage struct {
	store kv.Store
	log   *zap.Logger

	mu      sync.Mutex
	users   []models.UserProfile
	byPhone map[string]int
}

// Open wraps store and loads the user directory into memory. A malformed
// directory is treated as empty.
func Open(ctx context.Context, store kv.Store, log *zap.Logger) *LocalStorage {
	if log == nil {
		log = zap.NewNop()
	}
	ls := &LocalStorage{store: store, log: log}
	ls.loadUsers(ctx)
	return ls
}

func (ls *LocalStorage) SaveScan(ctx context.Context, scan models.ScanRecord) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	history := ls.history(ctx)
	updated := make([]models.ScanRecord, 0, min(len(history)+1, HistoryLimit))
	updated = append(updated, scan)
	updated = append(updated, history...)
	if len(updated) > HistoryLimit {
		updated = updated[:HistoryLimit]
	}
	return ls.put(ctx, historyKey, updated)
}

// GetHistory returns saved scans newest first. Missing or unreadable data
// yields an empty list.
func (ls *LocalStorage) GetHistory(ctx context.Context) []models.ScanRecord {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.history(ctx)
}

func (ls *LocalStorage) history(ctx context.Context) []models.ScanRecord {
	var history []models.ScanRecord
	if !ls.get(ctx, historyKey, &history) || history == nil {
		return []models.ScanRecord{}
	}
	return history
}

func (ls *LocalStorage) SaveUser(ctx context.Context, user models.UserProfile) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.put(ctx, userKey, user)
}

// GetUser returns the session user. ok is false when nobody is logged in.
func (ls *LocalStorage) GetUser(ctx context.Context) (user models.UserProfile, ok bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.get(ctx, userKey, &user) {
		return models.UserProfile{}, false
	}
	return user, true
}

// LogoutUser clears the session slot. History and the directory are kept.
func (ls *LocalStorage) LogoutUser(ctx context.Context) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.store.Delete(ctx, userKey); err != nil {
		return fmt.Errorf("clear session user: %w", err)
	}
	return nil
}

func (ls *LocalStorage) FindUserByPhone(_ context.Context, phone string) (models.UserProfile, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	i, ok := ls.byPhone[phone]
	if !ok {
		return models.UserProfile{}, false
	}
	return ls.users[i], true
}

// RegisterNewUser appends user to the directory. It returns false, and
// leaves the directory unchanged, when the phone is already registered.
func (ls *LocalStorage) RegisterNewUser(ctx context.Context, user models.UserProfile) (bool, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, exists := ls.byPhone[user.Phone]; exists {
		return false, nil
	}

	users := append(ls.allUsers(), user)
	if err := ls.put(ctx, usersDBKey, users); err != nil {
		return false, err
	}
	ls.users = users
	ls.byPhone[user.Phone] = len(users) - 1
	return true, nil
}

// UpdateUser writes user to the session slot and, when the phone is in the
// directory, replaces that entry too.
func (ls *LocalStorage) UpdateUser(ctx context.Context, user models.UserProfile) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if i, ok := ls.byPhone[user.Phone]; ok {
		users := ls.allUsers()
		users[i] = user
		if err := ls.put(ctx, usersDBKey, users); err != nil {
			return err
		}
		ls.users = users
	}
	return ls.put(ctx, userKey, user)
}

// allUsers returns a copy of the directory in registration order.
func (ls *LocalStorage) allUsers() []models.UserProfile {
	out := make([]models.UserProfile, len(ls.users))
	copy(out, ls.users)
	return out
}

func (ls *LocalStorage) loadUsers(ctx context.Context) {
	var users []models.UserProfile
	if !ls.get(ctx, usersDBKey, &users) {
		users = nil
	}

	ls.users = make([]models.UserProfile, 0, len(users))
	ls.byPhone = make(map[string]int, len(users))
	for _, u := range users {
		// first registration wins, as with a linear scan
		if _, dup := ls.byPhone[u.Phone]; dup {
			continue
		}
		ls.byPhone[u.Phone] = len(ls.users)
		ls.users = append(ls.users, u)
	}
}

// get decodes the value under key into v. It reports false when the key is
// absent or cannot be read; read failures are logged, never returned.
func (ls *LocalStorage) get(ctx context.Context, key string, v any) bool {
	data, err := ls.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			ls.log.Warn("read from local store failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		ls.log.Warn("discarding malformed local data", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (ls *LocalStorage) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := ls.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
