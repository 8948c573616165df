package discord

import (
	"errors"
	"strings"
)

// customIDPrefix marks components owned by this bot
const customIDPrefix = "sh"

// Component actions
const (
	ActionHouse    = "house"
	ActionToggle   = "toggle"
	ActionPrevious = "prev"
	ActionNext     = "next"
	ActionConfirm  = "confirm"
)

var errBadCustomID = errors.New("malformed component id")

// CustomID identifies the picker and action behind a message component
type CustomID struct {
	Workflow string
	Action   string
	Arg      string
}

// String encodes the id as sh:<workflow>:<action>[:arg]
func (c CustomID) String() string {
	parts := []string{customIDPrefix, c.Workflow, c.Action}
	if c.Arg != "" {
		parts = append(parts, c.Arg)
	}
	return strings.Join(parts, ":")
}

// ParseCustomID decodes a component id produced by CustomID.String
func ParseCustomID(s string) (CustomID, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 || parts[0] != customIDPrefix || parts[1] == "" || parts[2] == "" {
		return CustomID{}, errBadCustomID
	}
	id := CustomID{Workflow: parts[1], Action: parts[2]}
	if len(parts) == 4 {
		id.Arg = parts[3]
	}
	return id, nil
}
