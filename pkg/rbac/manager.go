package rbac

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"caretrust-hq/minerva/pkg/action"
)

// permKey indexes the permission cache by role and agent type.
type permKey struct {
	role  Role
	agent action.AgentType
}

// Manager enforces role-based access control for the governance layer.
// All methods are safe for concurrent use.
type Manager struct {
	logger *slog.Logger

	mu        sync.RWMutex
	users     map[string]*User
	usernames map[string]string // username -> user ID
	perms     map[permKey]Permission
}

// NewManager creates a manager seeded with the given permission matrix.
// Pass DefaultPermissions() for the built-in matrix.
func NewManager(perms []Permission, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		logger:    logger.With("component", "rbac"),
		users:     make(map[string]*User),
		usernames: make(map[string]string),
		perms:     make(map[permKey]Permission, len(perms)),
	}
	for _, p := range perms {
		m.perms[permKey{p.Role, p.AgentType}] = p
	}
	return m
}

// RegisterUser registers a new user and returns its ID. An empty ID is
// filled with a generated UUID. Duplicate usernames are rejected.
func (m *Manager) RegisterUser(u User) (string, error) {
	if u.Username == "" {
		return "", fmt.Errorf("username is required")
	}
	if !u.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", u.Role)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[u.ID]; exists {
		return "", fmt.Errorf("user %q already registered", u.ID)
	}
	if _, taken := m.usernames[u.Username]; taken {
		return "", fmt.Errorf("username %q already taken", u.Username)
	}

	m.users[u.ID] = &u
	m.usernames[u.Username] = u.ID

	m.logger.Info("User registered",
		"user_id", u.ID,
		"username", u.Username,
		"role", string(u.Role),
	)
	return u.ID, nil
}

// GetUser returns a copy of the user with the given ID.
func (m *Manager) GetUser(userID string) (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return User{}, false
	}
	return copyUser(u), true
}

// GetUserByUsername returns a copy of the user with the given username.
func (m *Manager) GetUserByUsername(username string) (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usernames[username]
	if !ok {
		return User{}, false
	}
	return copyUser(m.users[id]), true
}

// CheckOptions qualifies a permission check beyond basic read access.
type CheckOptions struct {
	RequireWrite   bool
	RequireApprove bool
}

// CheckPermission decides whether a user may perform the named action
// against the given agent type. The decision reason is always populated.
func (m *Manager) CheckPermission(userID string, agentType action.AgentType, actionName string, opts CheckOptions) Decision {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return Decision{Reason: "user not found"}
	}
	if !u.Active {
		return Decision{Reason: "user account is inactive"}
	}

	// Individually granted overrides bypass the role matrix.
	for _, o := range u.Overrides {
		if o == actionName {
			return Decision{Allowed: true, Reason: "permission granted via override"}
		}
	}

	perm, ok := m.perms[permKey{u.Role, agentType}]
	if !ok {
		return Decision{Reason: fmt.Sprintf("no permission defined for %s on %s", u.Role, agentType)}
	}
	if !perm.Read {
		return Decision{Reason: "no read access to this agent"}
	}
	if opts.RequireWrite && !perm.Write {
		return Decision{Reason: "write access required but not granted"}
	}
	if opts.RequireApprove && !perm.Approve {
		return Decision{Reason: "approval access required but not granted"}
	}
	if !perm.allowsAction(actionName) {
		return Decision{Reason: fmt.Sprintf("action %q not in allowed actions", actionName)}
	}

	return Decision{Allowed: true, Reason: "permission granted"}
}

// CheckPatientAccess decides whether a user may access a patient record.
// Care-team assignment checks are out of scope; role is the sole input.
func (m *Manager) CheckPatientAccess(userID, patientID string, accessType PatientAccessType) Decision {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return Decision{Reason: "user not found"}
	}
	if !u.Active {
		return Decision{Reason: "user account is inactive"}
	}

	switch u.Role {
	case RoleSystemAdmin:
		return Decision{Allowed: true, Reason: "admin access"}
	case RoleClinicalDirector:
		return Decision{Allowed: true, Reason: "clinical director access"}
	case RoleNurseManager, RoleCareCoordinator:
		return Decision{Allowed: true, Reason: "care team access"}
	case RoleBillingStaff:
		if accessType == PatientAccessView || accessType == PatientAccessBilling {
			return Decision{Allowed: true, Reason: "billing access for claims processing"}
		}
		return Decision{Reason: "billing staff limited to billing-related access"}
	case RoleFamilyPortal:
		return Decision{Allowed: true, Reason: "family portal access (limited view)"}
	}

	return Decision{Reason: "access denied"}
}

// GetUserPermissions returns the effective permission set for a user
// across all agent types.
func (m *Manager) GetUserPermissions(userID string) (UserPermissions, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return UserPermissions{}, fmt.Errorf("user %q not found", userID)
	}

	perms := make(map[action.AgentType]Permission)
	for _, agent := range action.AgentTypes() {
		if p, ok := m.perms[permKey{u.Role, agent}]; ok {
			perms[agent] = p
		}
	}

	return UserPermissions{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		Permissions: perms,
		Overrides:   append([]string(nil), u.Overrides...),
	}, nil
}

// GrantOverride grants a single-action permission override to a user.
// Only system admins and clinical directors may grant overrides.
func (m *Manager) GrantOverride(userID, actionName, grantedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %q not found", userID)
	}
	granter, ok := m.users[grantedBy]
	if !ok {
		return fmt.Errorf("granting user %q not found", grantedBy)
	}
	if granter.Role != RoleSystemAdmin && granter.Role != RoleClinicalDirector {
		m.logger.Warn("Override grant refused",
			"granted_by", grantedBy,
			"role", string(granter.Role),
		)
		return fmt.Errorf("user %q not authorized to grant overrides", grantedBy)
	}

	for _, o := range u.Overrides {
		if o == actionName {
			return nil // already granted
		}
	}
	u.Overrides = append(u.Overrides, actionName)

	m.logger.Info("Permission override granted",
		"user_id", userID,
		"action", actionName,
		"granted_by", grantedBy,
	)
	return nil
}

// RevokeOverride removes a previously granted override. It returns an
// error if the user does not exist or the override was never granted.
func (m *Manager) RevokeOverride(userID, actionName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %q not found", userID)
	}
	for i, o := range u.Overrides {
		if o == actionName {
			u.Overrides = append(u.Overrides[:i], u.Overrides[i+1:]...)
			m.logger.Info("Permission override revoked",
				"user_id", userID,
				"action", actionName,
			)
			return nil
		}
	}
	return fmt.Errorf("override %q not granted to user %q", actionName, userID)
}

// DeactivateUser marks an account inactive. Inactive users fail every
// permission check until reactivated.
func (m *Manager) DeactivateUser(userID string) error {
	return m.setActive(userID, false)
}

// ActivateUser marks an account active.
func (m *Manager) ActivateUser(userID string) error {
	return m.setActive(userID, true)
}

func (m *Manager) setActive(userID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %q not found", userID)
	}
	u.Active = active

	if active {
		m.logger.Info("User activated", "user_id", userID, "username", u.Username)
	} else {
		m.logger.Info("User deactivated", "user_id", userID, "username", u.Username)
	}
	return nil
}

// UsersByRole returns copies of all users holding the given role,
// sorted by username.
func (m *Manager) UsersByRole(role Role) []User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// ApproversForAgent returns all active users whose role may approve
// actions for the given agent type, sorted by username.
func (m *Manager) ApproversForAgent(agentType action.AgentType) []User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []User
	for _, u := range m.users {
		if !u.Active {
			continue
		}
		if p, ok := m.perms[permKey{u.Role, agentType}]; ok && p.Approve {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// copyUser returns a defensive copy so callers cannot mutate store state.
func copyUser(u *User) User {
	c := *u
	c.Overrides = append([]string(nil), u.Overrides...)
	return c
}
