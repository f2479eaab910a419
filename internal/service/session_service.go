package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rvclass/examroom-backend/internal/config"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/repository"
	"github.com/rvclass/examroom-backend/internal/session"
)

// SessionState is the client-facing snapshot of an attempt: what the
// frontend needs after entry or a page reload.
type SessionState struct {
	Attempt          model.Attempt  `json:"attempt"`
	RemainingSeconds float64        `json:"remaining_seconds"`
	Answers          map[string]int `json:"answers"`
	Submitted        bool           `json:"submitted"`
}

// answerPayload is the autosave queue item drained by the worker.
type answerPayload struct {
	AttemptID  string `json:"attempt_id"`
	QuestionID string `json:"question_id"`
	Selected   int    `json:"selected_option"`
}

// SessionService fronts the session manager for HTTP callers and wires
// the Redis autosave buffer around the controller's in-memory one.
type SessionService struct {
	manager     *session.Manager
	attemptRepo *repository.AttemptRepository
	answerCache *AnswerCache
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	manager *session.Manager,
	attemptRepo *repository.AttemptRepository,
	answerCache *AnswerCache,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		manager:     manager,
		attemptRepo: attemptRepo,
		answerCache: answerCache,
		rdb:         rdb,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// Start enters or resumes the student's attempt and returns its state.
func (s *SessionService) Start(ctx context.Context, examID, studentID uuid.UUID) (*SessionState, error) {
	ctrl, err := s.manager.Start(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctrl), nil
}

// SelectAnswer buffers a selection and queues it for autosave. The
// controller validates before anything is written; a failed validation
// leaves both buffers untouched.
func (s *SessionService) SelectAnswer(ctx context.Context, examID, studentID, questionID uuid.UUID, selected int) error {
	ctrl, err := s.manager.Start(ctx, examID, studentID)
	if err != nil {
		return err
	}

	if err := ctrl.SelectAnswer(questionID, selected); err != nil {
		return err
	}

	attempt := ctrl.Attempt()
	payload, _ := json.Marshal(answerPayload{
		AttemptID:  attempt.ID.String(),
		QuestionID: questionID.String(),
		Selected:   selected,
	})

	// The hash is the resume and sweeper read path; the queue feeds the
	// worker that upserts into PostgreSQL. Both are best-effort: the
	// selection survives in the controller buffer either way.
	if err := s.answerCache.Save(ctx, examID, studentID, questionID, selected); err != nil {
		s.log.Warn().Err(err).
			Stringer("attempt_id", attempt.ID).
			Msg("Autosave cache write failed")
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).
			Stringer("attempt_id", attempt.ID).
			Msg("Autosave enqueue failed")
	}
	return nil
}

// State returns the attempt snapshot for a page reload.
func (s *SessionService) State(ctx context.Context, examID, studentID uuid.UUID) (*SessionState, error) {
	ctrl, err := s.manager.Start(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctrl), nil
}

// Submit finalizes the attempt manually and clears its autosave buffer.
func (s *SessionService) Submit(ctx context.Context, examID, studentID uuid.UUID) (*session.ScoredAttempt, error) {
	ctrl, err := s.manager.Start(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	result, err := ctrl.Finalize(ctx, session.ReasonManual)
	if err != nil {
		return nil, err
	}

	if err := s.answerCache.Clear(ctx, examID, studentID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear autosave buffer")
	}
	return result, nil
}

// Subscribe attaches a countdown listener to the live controller.
func (s *SessionService) Subscribe(ctx context.Context, examID, studentID uuid.UUID) (*session.Controller, error) {
	return s.manager.Start(ctx, examID, studentID)
}

// History retrieves the student's past and in-progress attempts.
func (s *SessionService) History(ctx context.Context, studentID uuid.UUID) ([]model.AttemptHistoryEntry, error) {
	return s.attemptRepo.ListByStudent(ctx, studentID)
}

// Results retrieves every attempt against an exam for its owner.
func (s *SessionService) Results(ctx context.Context, examID, ownerID uuid.UUID, exam *model.Exam) ([]model.Attempt, map[uuid.UUID]model.User, error) {
	if exam.CreatedBy != ownerID {
		return nil, nil, ErrNotExamOwner
	}
	attempts, students, err := s.attemptRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, students, nil
}

func (s *SessionService) snapshot(ctrl *session.Controller) *SessionState {
	attempt := ctrl.Attempt()
	answers := make(map[string]int)
	for qid, selected := range ctrl.Answers() {
		answers[qid.String()] = selected
	}
	return &SessionState{
		Attempt:          attempt,
		RemainingSeconds: ctrl.Remaining().Seconds(),
		Answers:          answers,
		Submitted:        attempt.Status == model.AttemptStatusSubmitted,
	}
}
