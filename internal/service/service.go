package service

import (
	"errors"

	"github.com/Marga-Ghale/protolab-backend/internal/config"
	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/socket"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Error carries a client-facing message while still matching one of the
// sentinel errors above through errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func validationError(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func notFoundError(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func forbiddenError(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

func conflictError(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

// EventPublisher pushes workspace events to live connections.
type EventPublisher interface {
	Publish(workspaceID string, msgType socket.MessageType, payload map[string]interface{})
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	Workspace  WorkspaceService
	Changes    ChangeTracker
	Permission PermissionService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config    *config.Config
	Store     repository.WorkspaceStore
	Publisher EventPublisher
}

func NewServices(deps *ServiceDeps) *Services {
	permissionService := NewPermissionService(deps.Config.EnforceRoles)

	return &Services{
		Auth:       NewAuthService(deps.Config),
		Workspace:  NewWorkspaceService(deps.Store, deps.Publisher),
		Changes:    NewChangeTracker(deps.Store, permissionService, deps.Publisher, deps.Config.RequireVersion),
		Permission: permissionService,
	}
}
