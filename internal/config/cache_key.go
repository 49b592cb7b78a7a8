package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ProgramListKey returns the cache key for the serialized program list
func (r *CacheKeyStruct) ProgramListKey() string {
	return "programs:list"
}

// ProgramWinnersKey returns the cache key for a program's paid applications
func (r *CacheKeyStruct) ProgramWinnersKey(programID int64) string {
	return fmt.Sprintf("program:%d:winners", programID)
}

// ProgramEventsChannel returns the Redis PubSub channel for a program's live feed
func (r *CacheKeyStruct) ProgramEventsChannel(programID int64) string {
	return fmt.Sprintf("program:%d:events", programID)
}

// RateLimitKey returns the fixed-window counter key for subject in scope
func (r *CacheKeyStruct) RateLimitKey(scope, subject string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, subject, window)
}

var CacheKey = NewCacheKeyStruct()
