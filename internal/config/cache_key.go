package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey holds the JTI of a user's single active login.
func (r *CacheKeyStruct) UserSessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("login:%s", userID)
}

// DraftAnswersKey is the hash of autosaved answers for an exam session.
func (r *CacheKeyStruct) DraftAnswersKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// DraftFlagsKey is the set of self-flagged question ids for an exam session.
func (r *CacheKeyStruct) DraftFlagsKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:flags", sessionID)
}

var CacheKey = NewCacheKeyStruct()
