// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/scadenza/internal/models"
)

// Key prefixes for BadgerDB storage. Entities are stored as JSON values;
// usernames and category names get index keys for uniqueness checks.
const (
	userKeyPrefix     = "user:"
	usernameKeyPrefix = "username:"
	deadlineKeyPrefix = "deadline:"
	categoryKeyPrefix = "category:"
	logKeyPrefix      = "log:"
	stateKeyPrefix    = "state:"
)

// sequence bandwidth: ids are leased in small batches, so a crash can leave
// gaps but never reuses an id.
const seqBandwidth = 16

// BadgerStore implements Store on an embedded BadgerDB. It serves as the
// server's durable store and as the client's local device store.
type BadgerStore struct {
	db          *badger.DB
	userSeq     *badger.Sequence
	deadlineSeq *badger.Sequence
}

// Open opens (or creates) a BadgerStore at the given directory.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts = opts.WithLogger(nil)
	return openStore(opts)
}

// OpenInMemory opens a BadgerStore that lives entirely in memory. Used by
// tests.
func OpenInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("")
	opts = opts.WithInMemory(true).WithLogger(nil)
	return openStore(opts)
}

func openStore(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	userSeq, err := db.GetSequence([]byte("seq:user"), seqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open user sequence: %w", err)
	}
	deadlineSeq, err := db.GetSequence([]byte("seq:deadline"), seqBandwidth)
	if err != nil {
		_ = userSeq.Release()
		_ = db.Close()
		return nil, fmt.Errorf("open deadline sequence: %w", err)
	}

	return &BadgerStore{db: db, userSeq: userSeq, deadlineSeq: deadlineSeq}, nil
}

// Close releases id sequences and closes the underlying database.
func (s *BadgerStore) Close() error {
	_ = s.userSeq.Release()
	_ = s.deadlineSeq.Release()
	return s.db.Close()
}

func userKey(id int64) []byte {
	return fmt.Appendf(nil, "%s%016d", userKeyPrefix, id)
}

func usernameKey(name string) []byte {
	return []byte(usernameKeyPrefix + name)
}

func deadlineKey(id int64) []byte {
	return fmt.Appendf(nil, "%s%016d", deadlineKeyPrefix, id)
}

func categoryKey(name string) []byte {
	return []byte(categoryKeyPrefix + name)
}

func logKey(e *models.ActivityLogEntry) []byte {
	// Timestamp-ordered keys so reverse iteration yields newest first.
	return fmt.Appendf(nil, "%s%020d:%s", logKeyPrefix, e.Timestamp.UnixNano(), e.ID)
}

func (s *BadgerStore) nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return int64(n) + 1, nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return txn.Set(key, data)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// ---- users ----

// CreateUser stores a new user, assigning its id. Fails with ErrConflict if
// the username is taken.
func (s *BadgerStore) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	stored := *u
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(stored.Username)); err == nil {
			return ErrConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check username: %w", err)
		}

		id, err := s.nextID(s.userSeq)
		if err != nil {
			return err
		}
		stored.ID = id

		if err := setJSON(txn, userKey(stored.ID), &stored); err != nil {
			return err
		}
		return setJSON(txn, usernameKey(stored.Username), stored.ID)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetUser retrieves a user by id.
func (s *BadgerStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername retrieves a user through the username index.
func (s *BadgerStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.View(func(txn *badger.Txn) error {
		var id int64
		if err := getJSON(txn, usernameKey(username), &id); err != nil {
			return err
		}
		return getJSON(txn, userKey(id), &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by id.
func (s *BadgerStore) ListUsers(_ context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, []byte(userKeyPrefix), func(val []byte) error {
			var u models.User
			if err := json.Unmarshal(val, &u); err != nil {
				return err
			}
			users = append(users, u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser applies a partial update. An empty Password keeps the
// stored hash. Renaming to a taken username fails with ErrConflict.
func (s *BadgerStore) UpdateUser(_ context.Context, id int64, upd UserUpdate) (*models.User, error) {
	var u models.User
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, userKey(id), &u); err != nil {
			return err
		}

		if upd.Username != "" && upd.Username != u.Username {
			if _, err := txn.Get(usernameKey(upd.Username)); err == nil {
				return ErrConflict
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check username: %w", err)
			}
			if err := txn.Delete(usernameKey(u.Username)); err != nil {
				return fmt.Errorf("drop username index: %w", err)
			}
			u.Username = upd.Username
			if err := setJSON(txn, usernameKey(u.Username), u.ID); err != nil {
				return err
			}
		}
		u.IsAdmin = upd.IsAdmin
		if upd.Password != "" {
			u.Password = upd.Password
		}
		if err := u.Validate(); err != nil {
			return err
		}
		return setJSON(txn, userKey(u.ID), &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes a user and its username index entry.
func (s *BadgerStore) DeleteUser(_ context.Context, id int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var u models.User
		if err := getJSON(txn, userKey(id), &u); err != nil {
			return err
		}
		if err := txn.Delete(usernameKey(u.Username)); err != nil {
			return fmt.Errorf("drop username index: %w", err)
		}
		return txn.Delete(userKey(id))
	})
}

// ---- deadlines ----

// CreateDeadline stores a new deadline, assigning its id.
func (s *BadgerStore) CreateDeadline(_ context.Context, d *models.Deadline) (*models.Deadline, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	stored := *d
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := s.nextID(s.deadlineSeq)
		if err != nil {
			return err
		}
		stored.ID = id
		return setJSON(txn, deadlineKey(stored.ID), &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListDeadlines returns all deadlines ordered by (date asc, time asc).
func (s *BadgerStore) ListDeadlines(_ context.Context) ([]models.Deadline, error) {
	var deadlines []models.Deadline
	err := s.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, []byte(deadlineKeyPrefix), func(val []byte) error {
			var d models.Deadline
			if err := json.Unmarshal(val, &d); err != nil {
				return err
			}
			deadlines = append(deadlines, d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(deadlines, func(i, j int) bool {
		if deadlines[i].Date != deadlines[j].Date {
			return deadlines[i].Date < deadlines[j].Date
		}
		if deadlines[i].Time != deadlines[j].Time {
			return deadlines[i].Time < deadlines[j].Time
		}
		return deadlines[i].ID < deadlines[j].ID
	})
	return deadlines, nil
}

// UpdateDeadline applies the editable fields of upd. Completed, CreatedBy
// and CreatedAt are preserved.
func (s *BadgerStore) UpdateDeadline(_ context.Context, id int64, upd DeadlineUpdate) (*models.Deadline, error) {
	var d models.Deadline
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, deadlineKey(id), &d); err != nil {
			return err
		}
		d.Title = upd.Title
		d.Description = upd.Description
		d.Date = upd.Date
		d.Time = upd.Time
		d.Category = upd.Category
		d.Priority = upd.Priority
		d.Prealert = upd.Prealert
		d.AssignedTo = upd.AssignedTo
		if err := d.Validate(); err != nil {
			return err
		}
		return setJSON(txn, deadlineKey(id), &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDeadline removes a deadline. A second delete of the same id fails
// with ErrNotFound.
func (s *BadgerStore) DeleteDeadline(_ context.Context, id int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(deadlineKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("get deadline: %w", err)
		}
		return txn.Delete(deadlineKey(id))
	})
}

// ToggleDeadlineCompleted flips the completed flag.
func (s *BadgerStore) ToggleDeadlineCompleted(_ context.Context, id int64) (*models.Deadline, error) {
	var d models.Deadline
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, deadlineKey(id), &d); err != nil {
			return err
		}
		d.Completed = !d.Completed
		return setJSON(txn, deadlineKey(id), &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ---- categories ----

// CreateCategory stores a category name. Fails with ErrConflict if it
// already exists.
func (s *BadgerStore) CreateCategory(_ context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: category name is required", models.ErrInvalidEntity)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(categoryKey(name)); err == nil {
			return ErrConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check category: %w", err)
		}
		return txn.Set(categoryKey(name), []byte(name))
	})
}

// ListCategories returns all category names sorted ascending.
func (s *BadgerStore) ListCategories(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, []byte(categoryKeyPrefix), func(val []byte) error {
			names = append(names, string(val))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// DeleteCategory removes a category by name.
func (s *BadgerStore) DeleteCategory(_ context.Context, name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(categoryKey(name)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("get category: %w", err)
		}
		return txn.Delete(categoryKey(name))
	})
}

// ---- activity log ----

// AppendLog stores one immutable audit entry.
func (s *BadgerStore) AppendLog(_ context.Context, e *models.ActivityLogEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, logKey(e), e)
	})
}

// ListLogs returns up to limit entries, newest first.
func (s *BadgerStore) ListLogs(_ context.Context, limit int) ([]models.ActivityLogEntry, error) {
	var entries []models.ActivityLogEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(logKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the last log key.
		seek := append([]byte(logKeyPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix([]byte(logKeyPrefix)); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e models.ActivityLogEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearLogs bulk-removes every log entry.
func (s *BadgerStore) ClearLogs(_ context.Context) error {
	return s.deletePrefix([]byte(logKeyPrefix))
}

// ---- cache mirror helpers (client local store) ----

// PutDeadline upserts a deadline under its existing id. Used to mirror
// server-assigned records into the local cache.
func (s *BadgerStore) PutDeadline(_ context.Context, d *models.Deadline) error {
	if d.ID == 0 {
		return fmt.Errorf("%w: deadline id is required", models.ErrInvalidEntity)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, deadlineKey(d.ID), d)
	})
}

// RemoveDeadline deletes a deadline if present. Unlike DeleteDeadline it is
// idempotent: mirroring a broadcast delete must not fail when the record was
// never cached.
func (s *BadgerStore) RemoveDeadline(_ context.Context, id int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(deadlineKey(id))
	})
}

// ReplaceDeadlines swaps the whole cached deadline collection.
func (s *BadgerStore) ReplaceDeadlines(_ context.Context, deadlines []models.Deadline) error {
	if err := s.deletePrefix([]byte(deadlineKeyPrefix)); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range deadlines {
			if err := setJSON(txn, deadlineKey(deadlines[i].ID), &deadlines[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceCategories swaps the whole cached category collection.
func (s *BadgerStore) ReplaceCategories(_ context.Context, names []string) error {
	if err := s.deletePrefix([]byte(categoryKeyPrefix)); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, name := range names {
			if err := txn.Set(categoryKey(name), []byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---- device state ----

// PutState persists one device-state value (session, server-mode flag, ...).
func (s *BadgerStore) PutState(key string, val []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(stateKeyPrefix+key), val)
	})
}

// GetState reads one device-state value. Fails with ErrNotFound when unset.
func (s *BadgerStore) GetState(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get state: %w", err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteState removes one device-state value. Missing keys are not an error.
func (s *BadgerStore) DeleteState(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(stateKeyPrefix + key))
	})
}

// ClearCollections drops every cached entity collection, keeping device
// state. Invoked on logout when "remember this device" is unset.
func (s *BadgerStore) ClearCollections() error {
	for _, prefix := range []string{userKeyPrefix, usernameKeyPrefix, deadlineKeyPrefix, categoryKeyPrefix, logKeyPrefix} {
		if err := s.deletePrefix([]byte(prefix)); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerStore) deletePrefix(prefix []byte) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func iteratePrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

var _ Store = (*BadgerStore)(nil)
