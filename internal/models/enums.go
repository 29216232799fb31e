package models

// SystemRole is a user's system-wide role, fixed at registration.
type SystemRole string

const (
	SystemRoleStudent     SystemRole = "student"
	SystemRoleCoordinator SystemRole = "coordinator"
	SystemRoleDirector    SystemRole = "director"
	SystemRoleEvaluator   SystemRole = "evaluator"
	SystemRoleAdmin       SystemRole = "admin"
)

// IsValid reports whether the role is a known system role.
func (r SystemRole) IsValid() bool {
	switch r {
	case SystemRoleStudent, SystemRoleCoordinator, SystemRoleDirector,
		SystemRoleEvaluator, SystemRoleAdmin:
		return true
	}
	return false
}

// ProjectRole is a role a user holds within one specific project.
// Director is a legal value here; the old schema that forced directors to
// be stored as administrators is not carried forward.
type ProjectRole string

const (
	ProjectRoleStudent       ProjectRole = "student"
	ProjectRoleCoordinator   ProjectRole = "coordinator"
	ProjectRoleEvaluator     ProjectRole = "evaluator"
	ProjectRoleDirector      ProjectRole = "director"
	ProjectRoleAdministrator ProjectRole = "administrator"
)

func (r ProjectRole) IsValid() bool {
	switch r {
	case ProjectRoleStudent, ProjectRoleCoordinator, ProjectRoleEvaluator,
		ProjectRoleDirector, ProjectRoleAdministrator:
		return true
	}
	return false
}

// CanManageMembers reports whether the role may assign or deactivate
// project members and issue invitations.
func (r ProjectRole) CanManageMembers() bool {
	return r == ProjectRoleCoordinator || r == ProjectRoleAdministrator
}

// CanReview reports whether the role may move deliverables through the
// review workflow.
func (r ProjectRole) CanReview() bool {
	switch r {
	case ProjectRoleCoordinator, ProjectRoleEvaluator, ProjectRoleDirector,
		ProjectRoleAdministrator:
		return true
	}
	return false
}

// ProjectStatus is a project's lifecycle state.
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusInReview  ProjectStatus = "in_review"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusActive, ProjectStatusInReview,
		ProjectStatusCompleted:
		return true
	}
	return false
}

// MembershipStatus is a membership's activation state. Memberships are
// never hard-deleted; removal is a transition to inactive.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
)

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Terminal reports whether no transition exists out of the state.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}

// DeliverableStatus is a deliverable's review workflow state.
type DeliverableStatus string

const (
	DeliverablePending          DeliverableStatus = "pending"
	DeliverableSubmitted        DeliverableStatus = "submitted"
	DeliverableInReview         DeliverableStatus = "in_review"
	DeliverableChangesRequested DeliverableStatus = "changes_requested"
	DeliverableApproved         DeliverableStatus = "approved"
)

func (s DeliverableStatus) IsValid() bool {
	switch s {
	case DeliverablePending, DeliverableSubmitted, DeliverableInReview,
		DeliverableChangesRequested, DeliverableApproved:
		return true
	}
	return false
}
