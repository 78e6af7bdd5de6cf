package service

import (
	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/types"
)

type Capability string

const (
	CapEdit    Capability = "edit"
	CapComment Capability = "comment"
	CapReview  Capability = "review"
	CapManage  Capability = "manage"
)

// Can is the role capability table.
func Can(role string, capability Capability) bool {
	switch role {
	case types.RoleOwner:
		return true
	case types.RoleEditor:
		return capability == CapEdit || capability == CapComment
	case types.RoleReviewer:
		return capability == CapComment || capability == CapReview
	default:
		return false
	}
}

// Actor is the user a mutation is performed on behalf of.
type Actor struct {
	UserID   string
	UserName string
	// SessionUserID is the authenticated subject, empty for anonymous calls.
	SessionUserID string
}

type PermissionService interface {
	Check(ws *repository.Workspace, actor Actor, capability Capability) error
}

type permissionService struct {
	enforceRoles bool
}

func NewPermissionService(enforceRoles bool) PermissionService {
	return &permissionService{enforceRoles: enforceRoles}
}

// Check always binds the acting user to an authenticated session when one
// exists; role checks apply only when enforcement is switched on.
func (s *permissionService) Check(ws *repository.Workspace, actor Actor, capability Capability) error {
	if actor.SessionUserID != "" && actor.UserID != actor.SessionUserID {
		return forbiddenError("userId does not match authenticated user")
	}
	if !s.enforceRoles {
		return nil
	}

	participant := ws.FindParticipant(actor.UserID)
	if participant == nil {
		return forbiddenError("User is not a participant of this workspace")
	}
	if !Can(participant.Role, capability) {
		return forbiddenError("Role " + participant.Role + " cannot " + string(capability))
	}
	return nil
}
