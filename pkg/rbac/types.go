package rbac

import (
	"time"

	"caretrust-hq/minerva/pkg/action"
)

// Role identifies a class of human user with a fixed permission profile.
type Role string

// Roles recognized by the access control layer.
const (
	RoleSystemAdmin      Role = "system_admin"
	RoleClinicalDirector Role = "clinical_director"
	RoleNurseManager     Role = "nurse_manager"
	RoleCareCoordinator  Role = "care_coordinator"
	RoleBillingStaff     Role = "billing_staff"
	RoleFamilyPortal     Role = "family_portal"
)

// Roles returns all recognized roles.
func Roles() []Role {
	return []Role{
		RoleSystemAdmin,
		RoleClinicalDirector,
		RoleNurseManager,
		RoleCareCoordinator,
		RoleBillingStaff,
		RoleFamilyPortal,
	}
}

// Valid reports whether the role is one of the recognized constants.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleClinicalDirector, RoleNurseManager,
		RoleCareCoordinator, RoleBillingStaff, RoleFamilyPortal:
		return true
	}
	return false
}

// User is a human account subject to role-based access control.
type User struct {
	// ID uniquely identifies the user.
	ID string `json:"user_id"`

	// Username is the login name, unique across users.
	Username string `json:"username"`

	// FullName is the display name.
	FullName string `json:"full_name,omitempty"`

	// Role determines the user's permission profile.
	Role Role `json:"role"`

	// Active is false for deactivated accounts. Inactive users are denied
	// all access regardless of role.
	Active bool `json:"is_active"`

	// Overrides lists individually granted action names that bypass the
	// role matrix.
	Overrides []string `json:"permissions_override,omitempty"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"created_at"`
}

// Permission describes what a role may do against a single agent type.
type Permission struct {
	Role      Role             `json:"role"`
	AgentType action.AgentType `json:"agent_type"`

	// AllowedActions lists permitted action names. A single "*" entry
	// permits every action.
	AllowedActions []string `json:"allowed_actions"`

	Read    bool `json:"read_access"`
	Write   bool `json:"write_access"`
	Approve bool `json:"approve_access"`
	Admin   bool `json:"admin_access"`
}

// allowsAction reports whether the permission covers the named action.
func (p Permission) allowsAction(name string) bool {
	for _, a := range p.AllowedActions {
		if a == "*" || a == name {
			return true
		}
	}
	return false
}

// Decision is the outcome of a permission check. Reason is always set,
// for both granted and denied decisions, so callers can log it directly.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// PatientAccessType classifies the kind of patient-record access requested.
type PatientAccessType string

const (
	PatientAccessView    PatientAccessType = "VIEW"
	PatientAccessEdit    PatientAccessType = "EDIT"
	PatientAccessBilling PatientAccessType = "BILLING"
)

// UserPermissions is the introspection view of a user's effective access.
type UserPermissions struct {
	UserID      string                          `json:"user_id"`
	Username    string                          `json:"username"`
	Role        Role                            `json:"role"`
	Permissions map[action.AgentType]Permission `json:"permissions"`
	Overrides   []string                        `json:"overrides,omitempty"`
}
