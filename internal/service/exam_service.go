package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rvclass/examroom-backend/internal/config"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/repository"
)

// Domain errors.
var (
	ErrNotExamOwner = errors.New("not the owner of this exam")
	ErrExamLocked   = errors.New("exam has attempts and cannot be modified")
	ErrNoQuestions  = errors.New("exam has no questions, cannot activate")
)

// ExamService handles teacher-side exam management and the Redis-cached
// student paper.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListActive retrieves exams students may currently enter.
func (s *ExamService) ListActive(ctx context.Context) ([]model.Exam, error) {
	return s.examRepo.ListActive(ctx)
}

// ListByOwner retrieves a teacher's exams.
func (s *ExamService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Exam, error) {
	return s.examRepo.ListByOwner(ctx, ownerID)
}

// Create inserts a new exam owned by the teacher, inactive until
// questions exist and the teacher activates it.
func (s *ExamService) Create(ctx context.Context, exam *model.Exam) error {
	return s.examRepo.Create(ctx, exam)
}

// Update mutates an exam. Exams with existing attempts are locked: a
// changed duration or question set under students already mid-attempt
// has no defined meaning, so the mutation is rejected outright.
func (s *ExamService) Update(ctx context.Context, exam *model.Exam, ownerID uuid.UUID) error {
	current, err := s.examRepo.GetByID(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if current.CreatedBy != ownerID {
		return ErrNotExamOwner
	}

	attempts, err := s.examRepo.CountAttempts(ctx, exam.ID)
	if err != nil {
		return err
	}
	if attempts > 0 {
		return ErrExamLocked
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	if exam.IsActive {
		return s.WarmPaperCache(ctx, exam)
	}
	return nil
}

// SetActive toggles the exam's availability. Activation requires at
// least one question and warms the paper cache so the first student in
// does not race a lazy load.
func (s *ExamService) SetActive(ctx context.Context, examID, ownerID uuid.UUID, active bool) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.CreatedBy != ownerID {
		return ErrNotExamOwner
	}

	if active {
		exam.IsActive = true
		if err := s.WarmPaperCache(ctx, exam); err != nil {
			return err
		}
	}

	if err := s.examRepo.SetActive(ctx, examID, active); err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	s.log.Info().Stringer("exam_id", examID).Bool("active", active).Msg("Exam availability changed")
	return nil
}

// Delete removes an exam that has no attempts yet.
func (s *ExamService) Delete(ctx context.Context, examID, ownerID uuid.UUID) error {
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

	return s.examRepo.Delete(ctx, examID)
}

// WarmPaperCache loads the exam's student-facing paper and duration from
// PostgreSQL into Redis.
func (s *ExamService) WarmPaperCache(ctx context.Context, exam *model.Exam) error {
	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	studentQuestions := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		studentQuestions[i] = model.QuestionForStudent{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			Difficulty:   q.Difficulty,
			OrderNum:     q.OrderNum,
		}
	}

	paper := model.ExamPaper{
		ExamID:    exam.ID,
		Title:     exam.Title,
		Duration:  exam.DurationMinutes,
		Questions: studentQuestions,
	}

	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPaperKey(exam.ID.String()), paperJSON, 0)
	pipe.Set(ctx, config.CacheKey.ExamDurationKey(exam.ID.String()), exam.DurationMinutes, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Stringer("exam_id", exam.ID).
		Int("questions", len(questions)).
		Msg("Paper cache warmed")
	return nil
}

// GetPaper returns the student-facing paper, preferring the Redis copy
// and falling back to PostgreSQL with a self-heal when evicted.
func (s *ExamService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Result()
	if err == nil {
		var paper model.ExamPaper
		if err := json.Unmarshal([]byte(raw), &paper); err == nil {
			return &paper, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get paper: %w", err)
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if err := s.WarmPaperCache(ctx, exam); err != nil {
		return nil, err
	}
	return s.GetPaper(ctx, examID)
}

// Duration returns the exam's time limit in minutes, cache first.
func (s *ExamService) Duration(ctx context.Context, examID uuid.UUID) (int, error) {
	val, err := s.rdb.Get(ctx, config.CacheKey.ExamDurationKey(examID.String())).Result()
	if err == nil {
		if minutes, convErr := strconv.Atoi(val); convErr == nil {
			return minutes, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("redis get duration: %w", err)
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return 0, fmt.Errorf("get exam: %w", err)
	}
	_ = s.rdb.Set(ctx, config.CacheKey.ExamDurationKey(examID.String()), exam.DurationMinutes, 0)
	return exam.DurationMinutes, nil
}

// PrewarmAllCaches loads every active exam's paper into Redis. Called at
// startup before traffic is accepted.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active exams: %w", err)
	}

	warmed := 0
	for i := range exams {
		if err := s.WarmPaperCache(ctx, &exams[i]); err != nil {
			s.log.Warn().Err(err).Stringer("exam_id", exams[i].ID).Msg("Prewarm skipped")
			continue
		}
		warmed++
	}

	s.log.Info().Int("count", warmed).Msg("Exam caches prewarmed")
	return nil
}
