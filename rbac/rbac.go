package rbac

import (
	"errors"
	"fmt"
)

// Role is the flat role enumeration carried in access-token claims.
type Role uint8

const (
	// RoleUser is the default role for verified accounts.
	RoleUser Role = iota
	// RoleModerator adds content-moderation authority.
	RoleModerator
	// RoleAdmin adds account and system administration authority.
	RoleAdmin

	roleCount
)

// Capability names a guarded operation class, e.g. "content.moderate".
type Capability string

// Default capabilities understood by the bundled table.
const (
	CapabilityContentRead     Capability = "content.read"
	CapabilityContentWrite    Capability = "content.write"
	CapabilityContentModerate Capability = "content.moderate"
	CapabilityAdminUsers      Capability = "admin.users"
	CapabilityAdminSessions   Capability = "admin.sessions"
)

// ErrUnknownRole reports a role string outside the enumeration.
var ErrUnknownRole = errors.New("rbac: unknown role")

var roleNames = [roleCount]string{
	RoleUser:      "user",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
}

// String returns the wire name of the role.
func (r Role) String() string {
	if r >= roleCount {
		return fmt.Sprintf("role(%d)", uint8(r))
	}
	return roleNames[r]
}

// ParseRole maps a wire name back to a Role. Unknown names fail; they are
// never defaulted to user, since a claim we cannot interpret must not grant
// anything.
func ParseRole(name string) (Role, error) {
	for role, known := range roleNames {
		if name == known {
			return Role(role), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// DefaultTable is the capability table used when configuration supplies none.
func DefaultTable() map[Capability]Role {
	return map[Capability]Role{
		CapabilityContentRead:     RoleUser,
		CapabilityContentWrite:    RoleUser,
		CapabilityContentModerate: RoleModerator,
		CapabilityAdminUsers:      RoleAdmin,
		CapabilityAdminSessions:   RoleAdmin,
	}
}

// Enforcer holds the immutable capability table.
type Enforcer struct {
	table map[Capability]Role
}

// NewEnforcer copies table into a new Enforcer. An empty table is legal and
// denies everything.
func NewEnforcer(table map[Capability]Role) *Enforcer {
	owned := make(map[Capability]Role, len(table))
	for capability, minimum := range table {
		owned[capability] = minimum
	}
	return &Enforcer{table: owned}
}

// Authorize reports whether role satisfies the capability's minimum role.
// Unknown capabilities are denied: an unlisted endpoint guard is a
// configuration bug, and the safe reading of a bug is "no".
func (e *Enforcer) Authorize(role Role, capability Capability) bool {
	minimum, ok := e.table[capability]
	if !ok {
		return false
	}
	return role >= minimum && role < roleCount
}
