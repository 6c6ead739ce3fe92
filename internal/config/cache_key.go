package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionAnswersKey returns the cache key for a candidate's answers in a round.
func (r *CacheKeyStruct) SessionAnswersKey(candidateID int, roundID string) string {
	return fmt.Sprintf("candidate:%d:round:%s:answers", candidateID, roundID)
}

// SessionFlaggedKey returns the cache key for a candidate's flagged questions.
func (r *CacheKeyStruct) SessionFlaggedKey(candidateID int, roundID string) string {
	return fmt.Sprintf("candidate:%d:round:%s:flagged", candidateID, roundID)
}

// SessionOrderKey returns the cache key for the sampled question order.
func (r *CacheKeyStruct) SessionOrderKey(candidateID int, roundID string) string {
	return fmt.Sprintf("candidate:%d:round:%s:question_order", candidateID, roundID)
}

// SessionStartKey returns the cache key for the session start timestamp.
func (r *CacheKeyStruct) SessionStartKey(candidateID int, roundID string) string {
	return fmt.Sprintf("candidate:%d:round:%s:started_at", candidateID, roundID)
}

// SessionStartedKey returns the cache key for the started flag.
func (r *CacheKeyStruct) SessionStartedKey(candidateID int, roundID string) string {
	return fmt.Sprintf("candidate:%d:round:%s:started", candidateID, roundID)
}

// SessionRemainingKey returns the cache key for the cached countdown value.
func (r *CacheKeyStruct) SessionRemainingKey(candidateID int, roundID string) string {
	return fmt.Sprintf("candidate:%d:round:%s:remaining", candidateID, roundID)
}

// RoundPayloadKey returns the cache key for a round's candidate-facing payload.
func (r *CacheKeyStruct) RoundPayloadKey(roundID string) string {
	return fmt.Sprintf("round:%s:payload", roundID)
}

// RoundAnswerKey returns the cache key for a round's MCQ answer key.
func (r *CacheKeyStruct) RoundAnswerKey(roundID string) string {
	return fmt.Sprintf("round:%s:key", roundID)
}

var CacheKey = NewCacheKeyStruct()
