package model

import (
	"github.com/google/uuid"
)

// LeaderboardEntry is one row of a score ranking, per exam or overall.
// Only SUBMITTED attempts with a computed score appear.
type LeaderboardEntry struct {
	StudentID    uuid.UUID `json:"student_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	ExamID       uuid.UUID `json:"exam_id"`
	ExamTitle    string    `json:"exam_title"`
	Score        int       `json:"score"`
	TotalMarks   int       `json:"total_marks"`
}
