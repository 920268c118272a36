// Package memstore provides an in-memory, transactional implementation of
// carpool.Store. WithTx works on a copy of the data and swaps it in on
// commit, so a failed transaction leaves no partial writes behind.
//
// Foreign keys are enforced the same way the PostgreSQL schema enforces
// them: a carpool cannot be deleted while members, invitations or messages
// still reference it.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// ErrForeignKey is returned when a write would leave a dangling reference.
var ErrForeignKey = errors.New("foreign key violation")

type pairKey struct {
	userID    int64
	carpoolID int64
}

type state struct {
	users       map[int64]domain.User
	groups      map[int64]domain.Group
	groupUsers  map[int64]map[int64]struct{}
	events      map[int64]domain.Event
	signups     map[int64][]domain.EventSignup
	carpools    map[int64]domain.Carpool
	members     map[int64][]domain.CarpoolMember
	invitations map[pairKey]domain.Invitation
	messages    map[int64]domain.Message
	lastID      int64
}

func newState() *state {
	return &state{
		users:       make(map[int64]domain.User),
		groups:      make(map[int64]domain.Group),
		groupUsers:  make(map[int64]map[int64]struct{}),
		events:      make(map[int64]domain.Event),
		signups:     make(map[int64][]domain.EventSignup),
		carpools:    make(map[int64]domain.Carpool),
		members:     make(map[int64][]domain.CarpoolMember),
		invitations: make(map[pairKey]domain.Invitation),
		messages:    make(map[int64]domain.Message),
	}
}

func (st *state) clone() *state {
	c := newState()
	c.lastID = st.lastID
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.groups {
		c.groups[k] = v
	}
	for k, v := range st.groupUsers {
		set := make(map[int64]struct{}, len(v))
		for id := range v {
			set[id] = struct{}{}
		}
		c.groupUsers[k] = set
	}
	for k, v := range st.events {
		c.events[k] = v
	}
	for k, v := range st.signups {
		c.signups[k] = append([]domain.EventSignup(nil), v...)
	}
	for k, v := range st.carpools {
		c.carpools[k] = v
	}
	for k, v := range st.members {
		c.members[k] = append([]domain.CarpoolMember(nil), v...)
	}
	for k, v := range st.invitations {
		c.invitations[k] = v
	}
	for k, v := range st.messages {
		c.messages[k] = v
	}
	return c
}

func (st *state) nextID() int64 {
	st.lastID++
	return st.lastID
}

type db struct {
	mu     sync.Mutex
	st     *state
	faults map[string]error
}

// Store is an in-memory carpool.Store.
type Store struct {
	db *db
	tx *state
}

var _ carpool.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{db: &db{st: newState(), faults: make(map[string]error)}}
}

// FailOn makes the next call of the named repository operation return err,
// for example FailOn("carpools.AddMember", err). The fault is cleared once it
// fires.
func (s *Store) FailOn(op string, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.faults[op] = err
}

// WithTx runs fn on a private copy of the data and publishes it only when fn
// returns nil. Transactions are serialized.
func (s *Store) WithTx(ctx context.Context, fn func(tx carpool.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	tx := &Store{db: s.db, tx: s.db.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.db.st = tx.tx
	return nil
}

// view runs fn against the transaction's data, or against the committed
// data under the store lock.
func (s *Store) view(op string, fn func(st *state) error) error {
	if s.tx != nil {
		if err := s.fault(op); err != nil {
			return err
		}
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.fault(op); err != nil {
		return err
	}
	return fn(s.db.st)
}

// fault must be called with db.mu held.
func (s *Store) fault(op string) error {
	err, ok := s.db.faults[op]
	if !ok {
		return nil
	}
	delete(s.db.faults, op)
	return err
}

func (s *Store) Carpools() carpool.CarpoolRepository       { return carpoolRepo{s} }
func (s *Store) Invitations() carpool.InvitationRepository { return invitationRepo{s} }
func (s *Store) Events() carpool.EventRepository           { return eventRepo{s} }
func (s *Store) Groups() carpool.GroupRepository           { return groupRepo{s} }
func (s *Store) Users() carpool.UserRepository             { return userRepo{s} }
func (s *Store) Messages() carpool.MessageRepository       { return messageRepo{s} }

// AddUser seeds a user and returns it with its assigned ID.
func (s *Store) AddUser(name, email string) *domain.User {
	var u domain.User
	s.view("seed", func(st *state) error {
		u = domain.User{ID: st.nextID(), Name: name, Email: email}
		st.users[u.ID] = u
		return nil
	})
	return &u
}

// AddGroup seeds a group containing the given users.
func (s *Store) AddGroup(name string, userIDs ...int64) *domain.Group {
	var g domain.Group
	s.view("seed", func(st *state) error {
		g = domain.Group{ID: st.nextID(), Name: name}
		st.groups[g.ID] = g
		set := make(map[int64]struct{}, len(userIDs))
		for _, id := range userIDs {
			set[id] = struct{}{}
		}
		st.groupUsers[g.ID] = set
		return nil
	})
	return &g
}

// AddEvent seeds an event and sets its ID.
func (s *Store) AddEvent(e *domain.Event) error {
	return s.view("seed", func(st *state) error {
		if e.GroupID != nil {
			if _, ok := st.groups[*e.GroupID]; !ok {
				return fmt.Errorf("event group %d: %w", *e.GroupID, ErrForeignKey)
			}
		}
		if e.StartTime.IsZero() {
			e.StartTime = time.Now()
		}
		e.ID = st.nextID()
		st.events[e.ID] = *e
		return nil
	})
}

// AddSignup seeds an event signup.
func (s *Store) AddSignup(eventID, userID int64, canDrive bool) error {
	return s.view("seed", func(st *state) error {
		if _, ok := st.events[eventID]; !ok {
			return domain.ErrEventNotFound
		}
		if _, ok := st.users[userID]; !ok {
			return domain.ErrUserNotFound
		}
		for _, su := range st.signups[eventID] {
			if su.UserID == userID {
				return nil
			}
		}
		st.signups[eventID] = append(st.signups[eventID], domain.EventSignup{
			EventID:  eventID,
			UserID:   userID,
			CanDrive: canDrive,
		})
		return nil
	})
}
