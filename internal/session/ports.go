// Package session drives one timed exam attempt from entry to
// finalization. The controller is a small state machine with a single
// transition, IN_PROGRESS -> SUBMITTED, fed by answer selections and a
// countdown; everything durable goes through the Store and Catalog ports
// so the package stays agnostic to the persistence backend.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rvclass/examroom-backend/internal/model"
)

// Store is the attempt store contract. One attempt exists per
// (student, exam) pair; the controller enforces lookup-before-create and
// the store enforces the key itself, so concurrent starts converge on a
// single row.
type Store interface {
	// FindByStudentAndExam returns the pair's attempt with any persisted
	// answer selections, or ErrNoAttempt when absent.
	FindByStudentAndExam(ctx context.Context, studentID, examID uuid.UUID) (*model.Attempt, error)

	// CreateAttempt inserts a new IN_PROGRESS attempt. It must fail with
	// ErrDuplicateAttempt, never overwrite, when the pair already has one.
	CreateAttempt(ctx context.Context, attempt *model.Attempt) error

	// SaveAnswer upserts a single buffered selection for crash recovery.
	// Called by the autosave path, not by finalization.
	SaveAnswer(ctx context.Context, attemptID, questionID uuid.UUID, selectedOption int) error

	// FinalizeAttempt flips the attempt to SUBMITTED with its score and
	// graded answers. The flip is a compare-and-swap on IN_PROGRESS:
	// applied is false when another writer already submitted, in which
	// case the stored result stands untouched.
	FinalizeAttempt(ctx context.Context, attemptID uuid.UUID, finishedAt time.Time, score int, answers []model.Answer) (applied bool, err error)
}

// Catalog resolves exams and their question sets.
type Catalog interface {
	// GetExam returns the exam or ErrExamNotFound.
	GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error)

	// ListQuestions returns the exam's questions in stable insertion
	// order; that order is the canonical numbering shown to the student.
	ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

// FilterByDifficulty returns the subset of questions carrying the given
// tag, preserving order. It is a derived view over the canonical set.
func FilterByDifficulty(questions []model.Question, d model.Difficulty) []model.Question {
	out := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if q.Difficulty == d {
			out = append(out, q)
		}
	}
	return out
}
