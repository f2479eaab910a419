package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rvclass/examroom-backend/internal/model"
)

// MemoryStore is an in-memory Store implementation with the same keyed
// create and compare-and-swap finalize semantics as the Postgres one.
// It backs the package's tests and any deployment without a relational
// store.
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*model.Attempt
	byPair   map[pairKey]uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts: make(map[uuid.UUID]*model.Attempt),
		byPair:   make(map[pairKey]uuid.UUID),
	}
}

// FindByStudentAndExam implements Store.
func (s *MemoryStore) FindByStudentAndExam(ctx context.Context, studentID, examID uuid.UUID) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPair[pairKey{ExamID: examID, StudentID: studentID}]
	if !ok {
		return nil, ErrNoAttempt
	}
	return cloneAttempt(s.attempts[id]), nil
}

// CreateAttempt implements Store.
func (s *MemoryStore) CreateAttempt(ctx context.Context, attempt *model.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{ExamID: attempt.ExamID, StudentID: attempt.StudentID}
	if _, ok := s.byPair[key]; ok {
		return ErrDuplicateAttempt
	}
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	attempt.Status = model.AttemptStatusInProgress

	s.attempts[attempt.ID] = cloneAttempt(attempt)
	s.byPair[key] = attempt.ID
	return nil
}

// SaveAnswer implements Store: upserts one selection on an IN_PROGRESS
// attempt. Selections on submitted attempts are dropped silently, the
// same way the SQL upsert's status guard does.
func (s *MemoryStore) SaveAnswer(ctx context.Context, attemptID, questionID uuid.UUID, selectedOption int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[attemptID]
	if !ok {
		return ErrNoAttempt
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil
	}
	for i := range attempt.Answers {
		if attempt.Answers[i].QuestionID == questionID {
			attempt.Answers[i].SelectedOption = selectedOption
			return nil
		}
	}
	attempt.Answers = append(attempt.Answers, model.Answer{
		QuestionID:     questionID,
		SelectedOption: selectedOption,
	})
	return nil
}

// FinalizeAttempt implements Store with per-key compare-and-swap: only an
// IN_PROGRESS attempt flips, so the first finalize wins and later ones
// leave the stored result untouched.
func (s *MemoryStore) FinalizeAttempt(ctx context.Context, attemptID uuid.UUID, finishedAt time.Time, score int, answers []model.Answer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[attemptID]
	if !ok {
		return false, ErrNoAttempt
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return false, nil
	}

	attempt.Status = model.AttemptStatusSubmitted
	attempt.FinishedAt = &finishedAt
	attempt.Score = &score
	attempt.Answers = append([]model.Answer(nil), answers...)
	return true, nil
}

// MemoryCatalog is an in-memory Catalog for tests and embedded use.
type MemoryCatalog struct {
	mu        sync.Mutex
	exams     map[uuid.UUID]*model.Exam
	questions map[uuid.UUID][]model.Question
}

// NewMemoryCatalog creates an empty MemoryCatalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		exams:     make(map[uuid.UUID]*model.Exam),
		questions: make(map[uuid.UUID][]model.Question),
	}
}

// PutExam registers an exam and its ordered question set.
func (c *MemoryCatalog) PutExam(exam model.Exam, questions []model.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exam.QuestionCount = len(questions)
	c.exams[exam.ID] = &exam
	c.questions[exam.ID] = append([]model.Question(nil), questions...)
}

// GetExam implements Catalog.
func (c *MemoryCatalog) GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exam, ok := c.exams[examID]
	if !ok {
		return nil, ErrExamNotFound
	}
	cp := *exam
	return &cp, nil
}

// ListQuestions implements Catalog.
func (c *MemoryCatalog) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Question(nil), c.questions[examID]...), nil
}

func cloneAttempt(a *model.Attempt) *model.Attempt {
	cp := *a
	cp.Answers = append([]model.Answer(nil), a.Answers...)
	return &cp
}
