// Package memstore is an in-memory implementation of the user, group,
// membership and record stores. It enforces the same uniqueness and
// atomicity rules as the Postgres schema and is used by tests and the
// API scenario suite.
package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safecollab/safecollab/internal/group"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/record"
	"github.com/safecollab/safecollab/internal/user"
)

// DB holds every table behind one mutex, so multi-table operations are atomic.
type DB struct {
	mu          sync.Mutex
	now         func() time.Time
	users       map[string]*user.User
	passwords   map[string]string
	sessions    map[string]*user.Session
	groups      map[string]*group.Group
	memberships map[string]*membership.Membership
	records     map[string]*record.Record
	seq         int64
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		now:         time.Now,
		users:       make(map[string]*user.User),
		passwords:   make(map[string]string),
		sessions:    make(map[string]*user.Session),
		groups:      make(map[string]*group.Group),
		memberships: make(map[string]*membership.Membership),
		records:     make(map[string]*record.Record),
	}
}

// Users returns the user and session store view.
func (db *DB) Users() *Users { return &Users{db: db} }

// Groups returns the group store view.
func (db *DB) Groups() *Groups { return &Groups{db: db} }

// Memberships returns the membership store view.
func (db *DB) Memberships() *Memberships { return &Memberships{db: db} }

// Records returns the record store view.
func (db *DB) Records() *Records { return &Records{db: db} }

// tick returns a strictly increasing timestamp so ordering by creation time
// is deterministic. Callers hold db.mu.
func (db *DB) tick() time.Time {
	db.seq++
	return db.now().Add(time.Duration(db.seq) * time.Microsecond)
}

func newID() string { return uuid.NewString() }
