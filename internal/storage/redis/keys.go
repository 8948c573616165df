package redis

import (
	"fmt"

	"github.com/mcoot/sortinghat/internal/model"
)

// Key prefix for all character data
const keyPrefix = "sortinghat"

// characterKey returns the Redis key for a character sheet blob
func characterKey(owner model.OwnerKey) string {
	return fmt.Sprintf("%s:character:%s", keyPrefix, owner)
}

// skillsKey returns the Redis key for the HASH of a character's skills
func skillsKey(owner model.OwnerKey) string {
	return fmt.Sprintf("%s:character:%s:skills", keyPrefix, owner)
}

// characterIndexKey returns the Redis key for the SET of all owner keys
func characterIndexKey() string {
	return fmt.Sprintf("%s:idx:characters", keyPrefix)
}
