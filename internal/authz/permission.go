package authz

// Permission identifies a capability as a resource/action pair, independent
// of role level.
type Permission struct {
	Resource string
	Action   string
}

// Perm is a convenience constructor for a permission pair.
func Perm(resource, action string) Permission {
	return Permission{Resource: resource, Action: action}
}

// PermissionRecord is a catalog entry. Grants held by a principal were
// snapshotted at login; the catalog's IsActive flag still gates them at
// evaluation time.
type PermissionRecord struct {
	ID          int64
	Resource    string
	Action      string
	Description string
	IsActive    bool
}

// CatalogView answers whether a permission pair is currently active. The
// evaluator consults it on every permission check so that deactivating a
// catalog entry blocks immediately, without waiting for sessions to rebuild.
type CatalogView interface {
	IsActive(p Permission) bool
}

// Catalog is an immutable CatalogView built from catalog records. A pair
// without a record is treated as inactive.
type Catalog struct {
	active map[Permission]bool
}

// NewCatalog builds a catalog snapshot from records.
func NewCatalog(records []PermissionRecord) *Catalog {
	active := make(map[Permission]bool, len(records))
	for _, rec := range records {
		active[Permission{Resource: rec.Resource, Action: rec.Action}] = rec.IsActive
	}
	return &Catalog{active: active}
}

// IsActive implements CatalogView.
func (c *Catalog) IsActive(p Permission) bool {
	return c != nil && c.active[p]
}
