package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rvclass/examroom-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, title, description, created_by, duration_minutes,
	total_marks, question_count, is_active, created_at, updated_at`

func scanExam(row interface{ Scan(...any) error }) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.CreatedBy, &e.DurationMinutes,
		&e.TotalMarks, &e.QuestionCount, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// ListActive retrieves all active exams, newest first.
func (r *ExamRepository) ListActive(ctx context.Context) ([]model.Exam, error) {
	return r.list(ctx, `SELECT `+examColumns+` FROM exams WHERE is_active ORDER BY created_at DESC`)
}

// ListByOwner retrieves all exams created by the given teacher.
func (r *ExamRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Exam, error) {
	return r.list(ctx, `SELECT `+examColumns+` FROM exams WHERE created_by = $1 ORDER BY created_at DESC`, ownerID)
}

func (r *ExamRepository) list(ctx context.Context, query string, args ...any) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam, inactive by default.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, description, created_by, duration_minutes, total_marks, is_active)
		 VALUES ($1, $2, $3, $4, $5, false)
		 RETURNING id, question_count, is_active, created_at, updated_at`,
		e.Title, e.Description, e.CreatedBy, e.DurationMinutes, e.TotalMarks,
	).Scan(&e.ID, &e.QuestionCount, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
}

// Update persists mutable exam fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, description = $2, duration_minutes = $3,
		     total_marks = $4, is_active = $5, updated_at = NOW()
		 WHERE id = $6`,
		e.Title, e.Description, e.DurationMinutes, e.TotalMarks, e.IsActive, e.ID)
	return err
}

// SetActive toggles the exam's active flag.
func (r *ExamRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	return err
}

// Delete removes an exam and, via cascade, its questions and attempts.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

// CountAttempts returns how many attempts exist against the exam. Used to
// lock an exam against mutation once students have started it.
func (r *ExamRepository) CountAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE exam_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}
