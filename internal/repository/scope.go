package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnerScope is a reusable predicate restricting a query to rows owned by a
// fixed set of users. It is a tagged value the store adapter translates into
// its native WHERE clause, so callers never assemble filters ad hoc.
//
// The empty set is the correctness-critical case: it must translate to a
// provably always-false clause, never an empty IN () — a user with no venues
// sees nothing, not everything.
type OwnerScope struct {
	ownerIDs  []uuid.UUID
	matchNone bool
}

// ScopeOwners builds an OwnerScope from a user-ID set. An empty or nil set
// yields the match-nothing scope.
func ScopeOwners(ids []uuid.UUID) OwnerScope {
	if len(ids) == 0 {
		return OwnerScope{matchNone: true}
	}
	return OwnerScope{ownerIDs: ids}
}

// MatchesNone reports whether the scope can never match a row.
func (s OwnerScope) MatchesNone() bool { return s.matchNone }

// Contains reports whether a user ID is inside the scope. Used by in-memory
// test stubs so they filter exactly like the SQL translation.
func (s OwnerScope) Contains(id uuid.UUID) bool {
	if s.matchNone {
		return false
	}
	for _, o := range s.ownerIDs {
		if o == id {
			return true
		}
	}
	return false
}

// Apply translates the scope onto a GORM query against the given owner column.
func (s OwnerScope) Apply(db *gorm.DB, column string) *gorm.DB {
	if s.matchNone {
		return db.Where("1 = 0")
	}
	return db.Where(column+" IN ?", s.ownerIDs)
}
