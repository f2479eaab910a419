package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/session"
)

// AttemptRepository handles attempt data access. It implements
// session.Store on top of PostgreSQL: the (exam_id, student_id) unique
// key makes create race-free and the status guard makes finalize a
// compare-and-swap.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// FindByStudentAndExam retrieves the pair's attempt with its persisted
// answers, or session.ErrNoAttempt when absent.
func (r *AttemptRepository) FindByStudentAndExam(ctx context.Context, studentID, examID uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, started_at, finished_at, score, status
		 FROM attempts
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.FinishedAt, &a.Score, &a.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNoAttempt
		}
		return nil, err
	}

	answers, err := r.listAnswers(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Answers = answers
	return a, nil
}

// CreateAttempt inserts a new IN_PROGRESS attempt. The keyed insert does
// nothing on conflict, which surfaces as session.ErrDuplicateAttempt.
func (r *AttemptRepository) CreateAttempt(ctx context.Context, a *model.Attempt) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (id, exam_id, student_id, started_at, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, started_at`,
		a.ID, a.ExamID, a.StudentID, a.StartedAt, model.AttemptStatusInProgress,
	).Scan(&a.ID, &a.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.ErrDuplicateAttempt
	}
	return err
}

// SaveAnswer upserts one buffered selection. The status guard drops
// writes against an already submitted attempt — a late autosave must not
// disturb the graded answers.
func (r *AttemptRepository) SaveAnswer(ctx context.Context, attemptID, questionID uuid.UUID, selectedOption int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempt_answers (attempt_id, question_id, selected_option)
		 SELECT $1, $2, $3
		 WHERE EXISTS (
		   SELECT 1 FROM attempts WHERE id = $1 AND status = $4
		 )
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected_option = EXCLUDED.selected_option, updated_at = NOW()`,
		attemptID, questionID, selectedOption, model.AttemptStatusInProgress,
	)
	return err
}

// FinalizeAttempt flips the attempt to SUBMITTED and replaces its answers
// with the graded set, in one transaction. The UPDATE only matches an
// IN_PROGRESS row; when it matches nothing the attempt was already
// submitted and the stored result stands.
func (r *AttemptRepository) FinalizeAttempt(ctx context.Context, attemptID uuid.UUID, finishedAt time.Time, score int, answers []model.Answer) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, score = $2, finished_at = $3
		 WHERE id = $4 AND status = $5`,
		model.AttemptStatusSubmitted, score, finishedAt, attemptID, model.AttemptStatusInProgress,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	n := len(answers)
	questionIDs := make([]uuid.UUID, n)
	selections := make([]int, n)
	corrects := make([]bool, n)
	for i, a := range answers {
		questionIDs[i] = a.QuestionID
		selections[i] = a.SelectedOption
		corrects[i] = a.IsCorrect
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO attempt_answers (attempt_id, question_id, selected_option, is_correct)
		 SELECT $1, t.question_id, t.selected_option, t.is_correct
		 FROM UNNEST($2::uuid[], $3::int[], $4::boolean[])
		      AS t (question_id, selected_option, is_correct)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected_option = EXCLUDED.selected_option,
		     is_correct = EXCLUDED.is_correct,
		     updated_at = NOW()`,
		attemptID, questionIDs, selections, corrects,
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ListExpired retrieves IN_PROGRESS attempts whose exam clock ran out
// before the cutoff, with their buffered answers. Feeds the sweeper.
func (r *AttemptRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, a.student_id, a.started_at, a.finished_at, a.score, a.status
		 FROM attempts a
		 JOIN exams e ON e.id = a.exam_id
		 WHERE a.status = $1
		   AND a.started_at + make_interval(mins => e.duration_minutes) <= $2
		 ORDER BY a.started_at
		 LIMIT $3`,
		model.AttemptStatusInProgress, cutoff, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.FinishedAt, &a.Score, &a.Status); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range attempts {
		answers, err := r.listAnswers(ctx, attempts[i].ID)
		if err != nil {
			return nil, err
		}
		attempts[i].Answers = answers
	}
	return attempts, nil
}

// ListByStudent retrieves a student's attempts joined with exam metadata,
// newest first. Feeds the history view.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.AttemptHistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, a.student_id, a.started_at, a.finished_at, a.score, a.status,
		        e.title, e.total_marks
		 FROM attempts a
		 JOIN exams e ON a.exam_id = e.id
		 WHERE a.student_id = $1
		 ORDER BY a.started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.AttemptHistoryEntry
	for rows.Next() {
		var h model.AttemptHistoryEntry
		if err := rows.Scan(&h.ID, &h.ExamID, &h.StudentID, &h.StartedAt, &h.FinishedAt,
			&h.Score, &h.Status, &h.ExamTitle, &h.TotalMarks); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// ListByExam retrieves every attempt against an exam with student
// metadata and graded answers, for the teacher's results and CSV export.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, map[uuid.UUID]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, a.student_id, a.started_at, a.finished_at, a.score, a.status,
		        u.name, u.email, u.usn
		 FROM attempts a
		 JOIN users u ON a.student_id = u.id
		 WHERE a.exam_id = $1
		 ORDER BY a.started_at`, examID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	students := make(map[uuid.UUID]model.User)
	for rows.Next() {
		var a model.Attempt
		var u model.User
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.FinishedAt,
			&a.Score, &a.Status, &u.Name, &u.Email, &u.USN); err != nil {
			return nil, nil, err
		}
		u.ID = a.StudentID
		attempts = append(attempts, a)
		students[a.StudentID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	for i := range attempts {
		answers, err := r.listAnswers(ctx, attempts[i].ID)
		if err != nil {
			return nil, nil, err
		}
		attempts[i].Answers = answers
	}
	return attempts, students, nil
}

func (r *AttemptRepository) listAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT aa.question_id, aa.selected_option, COALESCE(aa.is_correct, false)
		 FROM attempt_answers aa
		 JOIN questions q ON aa.question_id = q.id
		 WHERE aa.attempt_id = $1
		 ORDER BY q.order_num`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.QuestionID, &a.SelectedOption, &a.IsCorrect); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
