package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptAnswersKey returns the cache key for a student's buffered answers
func (r *CacheKeyStruct) AttemptAnswersKey(examID, studentID string) string {
	return fmt.Sprintf("student:%s:exam:%s:answers", studentID, examID)
}

// ExamPaperKey returns the cache key for an exam's student-facing paper
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// ExamDurationKey returns the cache key for an exam's duration
func (r *CacheKeyStruct) ExamDurationKey(examID string) string {
	return fmt.Sprintf("exam:%s:duration", examID)
}

// LeaderboardKey returns the cache key for a computed leaderboard
func (r *CacheKeyStruct) LeaderboardKey(examID string) string {
	if examID == "" {
		return "leaderboard:overall"
	}
	return fmt.Sprintf("leaderboard:exam:%s", examID)
}

var CacheKey = NewCacheKeyStruct()
