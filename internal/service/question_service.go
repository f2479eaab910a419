package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/repository"
	"github.com/rvclass/examroom-backend/internal/session"
)

// ErrCorrectOptionOutOfRange is returned when a question's correct
// option index does not point into its option list.
var ErrCorrectOptionOutOfRange = errors.New("correct option index out of range")

// QuestionService handles question authoring.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	examRepo     *repository.ExamRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, examRepo *repository.ExamRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, examRepo: examRepo}
}

// validate enforces the question invariants before any write:
// 0 <= CorrectOption < len(Options) and a known difficulty tag.
func validate(q *model.Question) error {
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		return ErrCorrectOptionOutOfRange
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	return nil
}

// lockCheck rejects question writes against an exam with attempts.
func (s *QuestionService) lockCheck(ctx context.Context, examID, ownerID uuid.UUID) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.CreatedBy != ownerID {
		return ErrNotExamOwner
	}
	attempts, err := s.examRepo.CountAttempts(ctx, examID)
	if err != nil {
		return err
	}
	if attempts > 0 {
		return ErrExamLocked
	}
	return nil
}

// ListByExam retrieves the exam's questions in canonical order.
func (s *QuestionService) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByExam(ctx, examID)
}

// ListByDifficulty retrieves the derived difficulty view of the set.
func (s *QuestionService) ListByDifficulty(ctx context.Context, examID uuid.UUID, d model.Difficulty) ([]model.Question, error) {
	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	return session.FilterByDifficulty(questions, d), nil
}

// Add inserts one question at the end of the exam's ordering.
func (s *QuestionService) Add(ctx context.Context, ownerID uuid.UUID, q *model.Question) error {
	if err := validate(q); err != nil {
		return err
	}
	if err := s.lockCheck(ctx, q.ExamID, ownerID); err != nil {
		return err
	}
	return s.questionRepo.Create(ctx, q)
}

// BulkAdd inserts questions preserving slice order.
func (s *QuestionService) BulkAdd(ctx context.Context, examID, ownerID uuid.UUID, questions []model.Question) error {
	for i := range questions {
		if err := validate(&questions[i]); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	if err := s.lockCheck(ctx, examID, ownerID); err != nil {
		return err
	}
	return s.questionRepo.BulkCreate(ctx, examID, questions)
}

// Update mutates a question.
func (s *QuestionService) Update(ctx context.Context, ownerID uuid.UUID, q *model.Question) error {
	if err := validate(q); err != nil {
		return err
	}
	if err := s.lockCheck(ctx, q.ExamID, ownerID); err != nil {
		return err
	}
	return s.questionRepo.Update(ctx, q)
}

// Delete removes a question from an exam.
func (s *QuestionService) Delete(ctx context.Context, examID, questionID, ownerID uuid.UUID) error {
	if err := s.lockCheck(ctx, examID, ownerID); err != nil {
		return err
	}
	return s.questionRepo.Delete(ctx, examID, questionID)
}
