package service

// permissions.go — static role → grant tables.
// The config is built once at startup and injected by reference into the
// permission service; nothing mutates it at runtime.

// Role names. A role name is immutable once referenced by audit history.
const (
	RoleStaff   = "STAFF"
	RoleManager = "MANAGER"
	RoleAdmin   = "ADMIN"
)

// GrantScope says where a grant applies.
type GrantScope int

const (
	// ScopeGlobal grants apply everywhere.
	ScopeGlobal GrantScope = iota
	// ScopeVenue grants only apply when the grantee holds an active
	// membership at the venue being evaluated (manager-at-venue semantics).
	ScopeVenue
)

// GrantKey identifies a capability.
type GrantKey struct {
	Resource string
	Action   string
}

// PermissionConfig maps role names to their grant tables.
type PermissionConfig struct {
	roles map[string]map[GrantKey]GrantScope
}

// Grant looks up the scope of a (role, resource, action) capability.
// Unknown roles have zero grants — that is a policy outcome, not an error.
func (c *PermissionConfig) Grant(role, resource, action string) (GrantScope, bool) {
	grants, ok := c.roles[role]
	if !ok {
		return 0, false
	}
	scope, ok := grants[GrantKey{Resource: resource, Action: action}]
	return scope, ok
}

// DefaultPermissions returns the production grant tables.
func DefaultPermissions() *PermissionConfig {
	staff := map[GrantKey]GrantScope{
		{"timeoff", "create"}: ScopeGlobal,
		{"timeoff", "cancel"}: ScopeGlobal,
		{"timeoff", "read"}:   ScopeGlobal,
		{"schedule", "read"}:  ScopeVenue,
		{"venue", "read"}:     ScopeGlobal,
	}

	manager := map[GrantKey]GrantScope{
		{"timeoff", "create"}:  ScopeGlobal,
		{"timeoff", "cancel"}:  ScopeGlobal,
		{"timeoff", "read"}:    ScopeGlobal,
		{"timeoff", "approve"}: ScopeVenue,
		{"timeoff", "report"}:  ScopeVenue,
		{"schedule", "read"}:   ScopeVenue,
		{"schedule", "write"}:  ScopeVenue,
		{"venue", "read"}:      ScopeGlobal,
		{"user", "read"}:       ScopeVenue,
	}

	admin := map[GrantKey]GrantScope{
		{"timeoff", "create"}:  ScopeGlobal,
		{"timeoff", "cancel"}:  ScopeGlobal,
		{"timeoff", "read"}:    ScopeGlobal,
		{"timeoff", "approve"}: ScopeGlobal,
		{"timeoff", "report"}:  ScopeGlobal,
		{"schedule", "read"}:   ScopeGlobal,
		{"schedule", "write"}:  ScopeGlobal,
		{"venue", "read"}:      ScopeGlobal,
		{"venue", "manage"}:    ScopeGlobal,
		{"user", "read"}:       ScopeGlobal,
		{"user", "manage"}:     ScopeGlobal,
	}

	return &PermissionConfig{roles: map[string]map[GrantKey]GrantScope{
		RoleStaff:   staff,
		RoleManager: manager,
		RoleAdmin:   admin,
	}}
}
