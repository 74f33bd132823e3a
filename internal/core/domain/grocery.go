package domain

import "time"

// ShareRole enumerates the roles a list owner can grant to another account.
type ShareRole string

const (
	ShareRoleViewer ShareRole = "viewer"
	ShareRoleEditor ShareRole = "editor"
)

// Valid reports whether the role is one of the grantable values.
func (r ShareRole) Valid() bool {
	return r == ShareRoleViewer || r == ShareRoleEditor
}

// ListRole describes the effective role a user holds on a list, including ownership.
type ListRole string

const (
	ListRoleOwner  ListRole = "owner"
	ListRoleEditor ListRole = "editor"
	ListRoleViewer ListRole = "viewer"
)

// User mirrors the persisted representation in the users table.
// Accounts created through a federated login carry no password hash; the
// usecase layer guarantees at least one of PasswordHash or ExternalSub is set.
type User struct {
	ID                int64
	Email             string
	PasswordHash      *string
	ExternalSub       *string
	Name              *string
	Picture           *string
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
}

// GroceryList is a named collection of items owned by a single user.
type GroceryList struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

// ListItem is a single entry on a grocery list.
type ListItem struct {
	ID         int64
	ListID     int64
	Name       string
	Quantity   int
	Expiry     *time.Time
	Purchased  bool
	RemindOn   *time.Time
	RemindedAt *time.Time
}

// ReminderEntry pairs a due item with its list and the owning account so a
// reminder digest can be addressed.
type ReminderEntry struct {
	Item       ListItem
	ListName   string
	OwnerID    int64
	OwnerEmail string
	OwnerName  *string
}

// ListShare grants a user access to another user's list. Hidden is a
// per-grantee display preference and never influences permission checks.
type ListShare struct {
	ID        int64
	ListID    int64
	UserID    int64
	Role      ShareRole
	Hidden    bool
	CreatedAt time.Time
}

// ListView pairs a list with the effective role the requesting user holds on it.
type ListView struct {
	List GroceryList
	Role ListRole
}
