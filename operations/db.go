package operations

import (
	"errors"
	"fmt"
	"time"

	"github.com/CorrelAid/debtor_submission_uploader/inits"
	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

var ErrSessionNotFound = errors.New("form session not found")

// Store keeps form sessions in memdb. Stored objects are never modified;
// updates insert a changed copy.
type Store struct {
	db  *memdb.MemDB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *memdb.MemDB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl, now: time.Now}
}

func (s *Store) CreateSession() (*models.Session, error) {
	now := s.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		Phase:     models.PhaseIdle,
		CreatedAt: now.Format(time.RFC3339),
		ExpiresAt: now.Add(s.ttl).Format(time.RFC3339),
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(inits.SessionTable, session); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	txn.Commit()

	copied := *session
	return &copied, nil
}

func (s *Store) GetSession(id string) (*models.Session, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(inits.SessionTable, "id", id)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if obj == nil {
		return nil, ErrSessionNotFound
	}
	copied := *obj.(*models.Session)
	return &copied, nil
}

// UpdateSession runs fn on a copy of the session inside a write transaction
// and stores the result unless fn fails. Write transactions are exclusive, so
// fn sees no concurrent changes. Every update extends the session's expiry.
func (s *Store) UpdateSession(id string, fn func(*models.Session) error) (*models.Session, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(inits.SessionTable, "id", id)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if obj == nil {
		return nil, ErrSessionNotFound
	}

	updated := *obj.(*models.Session)
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.ExpiresAt = s.now().UTC().Add(s.ttl).Format(time.RFC3339)

	if err := txn.Insert(inits.SessionTable, &updated); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	txn.Commit()

	copied := updated
	return &copied, nil
}

// DeleteExpired removes sessions whose expiry is not after now.
func (s *Store) DeleteExpired(now time.Time) ([]string, error) {
	cutoff := now.UTC().Format(time.RFC3339)

	txn := s.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(inits.SessionTable, "expiry")
	if err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}

	var expired []*models.Session
	for obj := it.Next(); obj != nil; obj = it.Next() {
		session := obj.(*models.Session)
		if session.ExpiresAt > cutoff {
			break
		}
		expired = append(expired, session)
	}

	ids := make([]string, 0, len(expired))
	for _, session := range expired {
		if err := txn.Delete(inits.SessionTable, session); err != nil {
			return nil, fmt.Errorf("delete session %s: %w", session.ID, err)
		}
		ids = append(ids, session.ID)
	}
	txn.Commit()

	return ids, nil
}
