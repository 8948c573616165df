package discord

import (
	"errors"
	"fmt"

	"github.com/mcoot/sortinghat/internal/model"
)

// errTargetNotRegistered marks a GM command aimed at a member without a
// character. It wraps model.ErrCharacterNotFound.
var errTargetNotRegistered = errors.New("target member is not registered")

// targetError rewords a missing character as the target's problem rather
// than the caller's
func targetError(err error) error {
	if errors.Is(err, model.ErrCharacterNotFound) {
		return fmt.Errorf("%w: %w", errTargetNotRegistered, err)
	}
	return err
}

// UserMessage turns an error into the text shown to the member. Anything
// unrecognised gets a generic apology; the detail is only logged.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, errTargetNotRegistered):
		return "❌ That member has no registered character."
	case errors.Is(err, model.ErrCharacterNotFound):
		return "❌ You are not registered yet. Use `/profile register` first."
	case errors.Is(err, model.ErrCharacterExists):
		return "❌ You are already registered!"
	case errors.Is(err, model.ErrInvalidName):
		return fmt.Sprintf("❌ Names must be between 1 and %d characters.", model.MaxDisplayNameLength)
	case errors.Is(err, model.ErrOutOfRange):
		return fmt.Sprintf("❌ The value must be between %d and %d.", model.MinEditableAttribute, model.MaxEditableAttribute)
	case errors.Is(err, model.ErrUnknownHouse):
		return "❌ That house does not exist."
	case errors.Is(err, model.ErrSelectionLimit):
		return fmt.Sprintf("❌ You can choose at most %d personalities. Deselect one first.", model.MaxPersonalities)
	case errors.Is(err, model.ErrInvalidSelection):
		return fmt.Sprintf("❌ Choose between 1 and %d personalities from the list.", model.MaxPersonalities)
	case errors.Is(err, model.ErrUnknownSkill):
		return "❌ There is no skill with that name."
	case errors.Is(err, model.ErrInsufficientSkillPoints):
		return "❌ You do not have enough skill points left for that."
	case errors.Is(err, model.ErrInvalidAmount):
		return "❌ The amount must be at least 1."
	case errors.Is(err, model.ErrBalanceOverflow):
		return "❌ That purse cannot hold any more Knuts."
	case errors.Is(err, model.ErrForbidden):
		return "❌ Only GMs can use this command."
	case errors.Is(err, model.ErrWorkflowExpired):
		return "⌛ This menu has timed out. Run the command again."
	case errors.Is(err, model.ErrWorkflowClosed):
		return "✅ This choice has already been made."
	case errors.Is(err, model.ErrWorkflowNotFound):
		return "⌛ This menu is no longer active. Run the command again."
	case errors.Is(err, model.ErrNotWorkflowOwner):
		return "❌ This menu belongs to someone else."
	case errors.Is(err, model.ErrExternalSideEffect):
		return "❌ Could not update your house role. Nothing was changed, please try again."
	case errors.Is(err, model.ErrStoreUnavailable):
		return "❌ The character records are unavailable right now. Please try again later."
	default:
		return "❌ Something went wrong."
	}
}
