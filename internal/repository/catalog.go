package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/session"
)

// Catalog adapts the exam and question repositories to the session
// package's Catalog port.
type Catalog struct {
	exams     *ExamRepository
	questions *QuestionRepository
}

// NewCatalog creates a Catalog over the two repositories.
func NewCatalog(exams *ExamRepository, questions *QuestionRepository) *Catalog {
	return &Catalog{exams: exams, questions: questions}
}

// GetExam implements session.Catalog.
func (c *Catalog) GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := c.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrExamNotFound
		}
		return nil, err
	}
	return exam, nil
}

// ListQuestions implements session.Catalog.
func (c *Catalog) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return c.questions.ListByExam(ctx, examID)
}
