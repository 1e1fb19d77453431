// Package permissions manages the resource/action catalog backing the
// evaluator's activeness checks.
package permissions

import (
	"sync/atomic"

	"github.com/cabildo-gob/cabildo/internal/authz"
)

// Store holds the current catalog snapshot. Readers get an immutable
// *authz.Catalog; updates build a fresh catalog and swap it in atomically,
// so an in-flight evaluation never observes a half-updated catalog.
type Store struct {
	current atomic.Pointer[authz.Catalog]
}

// NewStore builds a store seeded with the given records.
func NewStore(records []authz.PermissionRecord) *Store {
	s := &Store{}
	s.Swap(records)
	return s
}

// Swap replaces the catalog snapshot.
func (s *Store) Swap(records []authz.PermissionRecord) {
	s.current.Store(authz.NewCatalog(records))
}

// IsActive implements authz.CatalogView.
func (s *Store) IsActive(p authz.Permission) bool {
	return s.current.Load().IsActive(p)
}
