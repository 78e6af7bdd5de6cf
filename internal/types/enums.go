package types

import "slices"

// Workspace categories
const (
	WorkspaceProposal     = "proposal"
	WorkspaceBusinessPlan = "business_plan"
	WorkspaceResume       = "resume"
	WorkspacePitchDeck    = "pitch_deck"
)

// Workspace Status values
const (
	WorkspaceActive    = "active"
	WorkspaceCompleted = "completed"
	WorkspaceArchived  = "archived"
)

// Document Type values
const (
	DocumentTemplate = "template"
	DocumentDraft    = "draft"
	DocumentFinal    = "final"
)

// Change Type values
const (
	ChangeInsert  = "insert"
	ChangeDelete  = "delete"
	ChangeFormat  = "format"
	ChangeReplace = "replace"
)

// Participant Roles
const (
	RoleOwner    = "owner"
	RoleEditor   = "editor"
	RoleReviewer = "reviewer"
	RoleViewer   = "viewer"
)

var ValidWorkspaceTypes = []string{
	WorkspaceProposal, WorkspaceBusinessPlan, WorkspaceResume, WorkspacePitchDeck,
}

var ValidWorkspaceStatuses = []string{
	WorkspaceActive, WorkspaceCompleted, WorkspaceArchived,
}

var ValidDocumentTypes = []string{
	DocumentTemplate, DocumentDraft, DocumentFinal,
}

var ValidChangeTypes = []string{
	ChangeInsert, ChangeDelete, ChangeFormat, ChangeReplace,
}

var ValidRoles = []string{
	RoleOwner, RoleEditor, RoleReviewer, RoleViewer,
}

func IsValidWorkspaceType(t string) bool { return slices.Contains(ValidWorkspaceTypes, t) }

func IsValidWorkspaceStatus(s string) bool { return slices.Contains(ValidWorkspaceStatuses, s) }

func IsValidDocumentType(t string) bool { return slices.Contains(ValidDocumentTypes, t) }

func IsValidChangeType(t string) bool { return slices.Contains(ValidChangeTypes, t) }

func IsValidRole(r string) bool { return slices.Contains(ValidRoles, r) }
