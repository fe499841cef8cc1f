package rbac

import "caretrust-hq/minerva/pkg/action"

// DefaultPermissions returns the built-in role permission matrix.
//
// Profiles:
//   - System admin: full access to all agents and functions
//   - Clinical director: full clinical access plus approvals
//   - Nurse manager: patient care data access
//   - Care coordinator: scheduling and communication access
//   - Billing staff: billing data only
//   - Family portal: limited read-mostly patient view
func DefaultPermissions() []Permission {
	type profile struct {
		agents  []action.AgentType
		read    bool
		write   bool
		approve bool
		admin   bool
		actions []string
	}

	matrix := map[Role]profile{
		RoleSystemAdmin: {
			agents:  action.AgentTypes(),
			read:    true,
			write:   true,
			approve: true,
			admin:   true,
			actions: []string{"*"},
		},
		RoleClinicalDirector: {
			agents: []action.AgentType{
				action.AgentOrchestrator,
				action.AgentIntake,
				action.AgentCarePlanning,
				action.AgentMedication,
				action.AgentDocumentation,
				action.AgentCompliance,
				action.AgentFamilyCommunication,
				action.AgentScheduling,
			},
			read:    true,
			write:   true,
			approve: true,
			actions: []string{"*"},
		},
		RoleNurseManager: {
			agents: []action.AgentType{
				action.AgentIntake,
				action.AgentCarePlanning,
				action.AgentDocumentation,
				action.AgentFamilyCommunication,
				action.AgentScheduling,
			},
			read:  true,
			write: true,
			actions: []string{
				"view_patient", "update_care_plan", "create_documentation",
				"send_communication", "schedule_appointment",
			},
		},
		RoleCareCoordinator: {
			agents: []action.AgentType{
				action.AgentFamilyCommunication,
				action.AgentScheduling,
			},
			read:  true,
			write: true,
			actions: []string{
				"view_schedule", "create_appointment", "send_reminder",
				"contact_family", "update_contact_info",
			},
		},
		RoleBillingStaff: {
			agents: []action.AgentType{action.AgentBilling},
			read:   true,
			write:  true,
			actions: []string{
				"view_claims", "submit_claim", "process_payment",
				"generate_invoice", "view_documentation",
			},
		},
		RoleFamilyPortal: {
			agents: []action.AgentType{
				action.AgentFamilyCommunication,
				action.AgentScheduling,
			},
			read: true,
			actions: []string{
				"view_appointments", "view_care_updates", "send_message",
			},
		},
	}

	var perms []Permission
	for _, role := range Roles() {
		p := matrix[role]
		for _, agent := range p.agents {
			perms = append(perms, Permission{
				Role:           role,
				AgentType:      agent,
				AllowedActions: p.actions,
				Read:           p.read,
				Write:          p.write,
				Approve:        p.approve,
				Admin:          p.admin,
			})
		}
	}
	return perms
}
