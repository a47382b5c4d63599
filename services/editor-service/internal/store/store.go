// Package store keeps editing sessions between requests.
package store

import "errors"

// ErrSessionNotFound is returned when a session does not exist or has expired
var ErrSessionNotFound = errors.New("session not found")

// sessionKeyPrefix namespaces session keys in shared backends
const sessionKeyPrefix = "editor:session:"

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
