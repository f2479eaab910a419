package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt lifecycle states.
// The only transition is IN_PROGRESS -> SUBMITTED; SUBMITTED is terminal.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusSubmitted  AttemptStatus = "SUBMITTED"
)

// UnansweredOption is the sentinel stored for a question the student
// never answered. It is always graded incorrect.
const UnansweredOption = -1

// Attempt represents one student's instance of taking one exam.
// At most one attempt exists per (student, exam) pair.
type Attempt struct {
	ID         uuid.UUID     `json:"id"`
	ExamID     uuid.UUID     `json:"exam_id"`
	StudentID  uuid.UUID     `json:"student_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Score      *int          `json:"score,omitempty"`
	Status     AttemptStatus `json:"status"`
	Answers    []Answer      `json:"answers,omitempty"`
}

// Answer records the selected option for one question within an attempt.
// Answers have no identity outside their attempt. IsCorrect is derived
// at finalization and not trusted if supplied earlier.
type Answer struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption int       `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
}

// AttemptHistoryEntry is an attempt joined with its exam title, for the
// student's history view.
type AttemptHistoryEntry struct {
	Attempt
	ExamTitle  string `json:"exam_title"`
	TotalMarks int    `json:"total_marks"`
}

// SelectAnswerRequest is the payload for buffering an answer selection.
type SelectAnswerRequest struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption int       `json:"selected_option" binding:"min=-1"`
}
