package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session
func (r *CacheKeyStruct) CandidateSessionKey(candidateID int) string {
	return fmt.Sprintf("login:%d", candidateID)
}

// CandidateExamStartKey returns the cache key for a candidate's exam session start time
func (r *CacheKeyStruct) CandidateExamStartKey(examID string, candidateID int) string {
	return fmt.Sprintf("candidate:%d:exam:%s:session_start", candidateID, examID)
}

// ExamPayloadKey returns the cache key for an exam's question payload
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamDurationKey returns the cache key for an exam's duration in minutes
func (r *CacheKeyStruct) ExamDurationKey(examID string) string {
	return fmt.Sprintf("exam:%s:duration", examID)
}

// ExamViolationChannel returns the Redis PubSub channel for live violation fan-out
func (r *CacheKeyStruct) ExamViolationChannel(examID string) string {
	return fmt.Sprintf("exam:%s:violations", examID)
}

var CacheKey = NewCacheKeyStruct()
