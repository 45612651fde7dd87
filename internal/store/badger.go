package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/greenroom-live/greenroom/internal/domain"
)

// Badger is the embedded document store. Layout:
//   - "user:<id>"        JSON User
//   - "interview:<id>"   JSON Interview
//   - "event:<id>"       JSON ProctorEvent
//
// Secondary lookups (email, sessionId, interviewId) are prefix scans;
// the working set here is small enough that indexes would only add
// write paths to keep consistent.
type Badger struct {
	db *badger.DB
}

func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

func (s *Badger) Close() error { return s.db.Close() }

func (s *Badger) put(key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), buf)
	})
}

func (s *Badger) get(key string, v any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// scan walks every value under prefix and hands the raw JSON to fn.
func (s *Badger) scan(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Badger) CreateUser(_ context.Context, u *domain.User) error {
	return s.put("user:"+u.ID, u)
}

func (s *Badger) UserByID(_ context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := s.get("user:"+id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Badger) UserByEmail(_ context.Context, email string) (*domain.User, error) {
	var found *domain.User
	err := s.scan("user:", func(val []byte) error {
		var u domain.User
		if err := json.Unmarshal(val, &u); err != nil {
			return err
		}
		if found == nil && strings.EqualFold(u.Email, email) {
			found = &u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *Badger) FindUsers(_ context.Context, f UserFilter) ([]*domain.User, error) {
	var out []*domain.User
	err := s.scan("user:", func(val []byte) error {
		var u domain.User
		if err := json.Unmarshal(val, &u); err != nil {
			return err
		}
		if matchUser(&u, f) {
			out = append(out, &u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Badger) CreateInterview(_ context.Context, iv *domain.Interview) error {
	return s.put("interview:"+iv.ID, iv)
}

func (s *Badger) InterviewByID(_ context.Context, id string) (*domain.Interview, error) {
	var iv domain.Interview
	if err := s.get("interview:"+id, &iv); err != nil {
		return nil, err
	}
	return &iv, nil
}

func (s *Badger) InterviewBySessionID(_ context.Context, sessionID string) (*domain.Interview, error) {
	var found *domain.Interview
	err := s.scan("interview:", func(val []byte) error {
		var iv domain.Interview
		if err := json.Unmarshal(val, &iv); err != nil {
			return err
		}
		if found == nil && iv.SessionID == sessionID {
			found = &iv
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *Badger) UpdateInterview(_ context.Context, id string, fn func(*domain.Interview) error) (*domain.Interview, error) {
	key := []byte("interview:" + id)
	var out domain.Interview
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		}); err != nil {
			return err
		}
		if err := fn(&out); err != nil {
			return err
		}
		buf, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return txn.Set(key, buf)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Badger) FindInterviews(_ context.Context, f InterviewFilter) ([]*domain.Interview, error) {
	var out []*domain.Interview
	err := s.scan("interview:", func(val []byte) error {
		var iv domain.Interview
		if err := json.Unmarshal(val, &iv); err != nil {
			return err
		}
		if matchInterview(&iv, f) {
			out = append(out, &iv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortInterviews(out)
	return capInterviews(out, f.Limit), nil
}

func (s *Badger) CreateEvent(_ context.Context, ev *domain.ProctorEvent) error {
	return s.put("event:"+ev.ID, ev)
}

func (s *Badger) FindEvents(_ context.Context, f EventFilter) ([]*domain.ProctorEvent, error) {
	var out []*domain.ProctorEvent
	err := s.scan("event:", func(val []byte) error {
		var ev domain.ProctorEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if matchEvent(&ev, f) {
			out = append(out, &ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortEvents(out, f.Ascending)
	return capEvents(out, f.Limit), nil
}
