package redis

import "github.com/enzo-projet/zogames/internal/model"

// Key prefixes for all stored documents
const (
	keyPrefix = "zogames:"

	// Pub/sub channels carrying change feed events
	sessionChangeChannel = keyPrefix + "changes:sessions"
	playerChangeChannel  = keyPrefix + "changes:players"
)

func sessionKey(kind model.GameKind, code model.SessionCode) string {
	return keyPrefix + "session:" + string(kind) + ":" + string(code)
}

func playerKey(kind model.GameKind, code model.SessionCode, userID model.UserID) string {
	return sessionKey(kind, code) + ":player:" + string(userID)
}

// playerIndexKey is the set of player keys for a session, so ListPlayers
// avoids a SCAN
func playerIndexKey(kind model.GameKind, code model.SessionCode) string {
	return sessionKey(kind, code) + ":players"
}

func userKey(id model.UserID) string {
	return keyPrefix + "user:" + string(id)
}

func credentialKey(id model.UserID) string {
	return keyPrefix + "credential:" + string(id)
}

func emailIndexKey(email string) string {
	return keyPrefix + "email:" + email
}
