package redis

import "fmt"

// Key prefix for all account data
const keyPrefix = "openworld"

// familyKey returns the Redis key for a Family
func familyKey(id string) string {
	return fmt.Sprintf("%s:family:%s", keyPrefix, id)
}

// parentIndexKey returns the Redis key for the parent user id -> family id index
func parentIndexKey(parentUserID string) string {
	return fmt.Sprintf("%s:idx:parent:%s", keyPrefix, parentUserID)
}

// childKey returns the Redis key for a Child
func childKey(id string) string {
	return fmt.Sprintf("%s:child:%s", keyPrefix, id)
}
