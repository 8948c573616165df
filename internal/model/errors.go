package model

import "errors"

// Common errors used across the application
var (
	// Character errors
	ErrCharacterNotFound = errors.New("character not found")
	ErrCharacterExists   = errors.New("character is already registered")
	ErrInvalidName       = errors.New("name must be between 1 and 32 characters")

	// Attribute errors
	ErrOutOfRange = errors.New("value must be between 1 and 100")

	// Catalog errors
	ErrUnknownHouse     = errors.New("unknown house")
	ErrInvalidSelection = errors.New("invalid personality selection")
	ErrUnknownSkill     = errors.New("unknown skill")

	// Skill allocation errors
	ErrInsufficientSkillPoints = errors.New("not enough skill points")

	// Currency errors
	ErrInvalidAmount   = errors.New("amount must be at least 1")
	ErrBalanceOverflow = errors.New("balance cannot hold that many knuts")

	// Workflow errors
	ErrSelectionLimit   = errors.New("at most 4 personalities can be selected")
	ErrWorkflowNotFound = errors.New("selection not found")
	ErrWorkflowExpired  = errors.New("selection has expired")
	ErrWorkflowClosed   = errors.New("selection is already complete")
	ErrNotWorkflowOwner = errors.New("selection belongs to another member")

	// Infrastructure errors
	ErrStoreUnavailable   = errors.New("character store unavailable")
	ErrExternalSideEffect = errors.New("group membership update failed")

	// Permission errors
	ErrForbidden = errors.New("caller is not allowed to perform this action")
)

// IsDomainError reports whether err is one of the errors above, as opposed to
// an unclassified infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var domainErrors = []error{
	ErrCharacterNotFound,
	ErrCharacterExists,
	ErrInvalidName,
	ErrOutOfRange,
	ErrUnknownHouse,
	ErrInvalidSelection,
	ErrUnknownSkill,
	ErrInsufficientSkillPoints,
	ErrInvalidAmount,
	ErrBalanceOverflow,
	ErrSelectionLimit,
	ErrWorkflowNotFound,
	ErrWorkflowExpired,
	ErrWorkflowClosed,
	ErrNotWorkflowOwner,
	ErrStoreUnavailable,
	ErrExternalSideEffect,
	ErrForbidden,
}
