package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rvclass/examroom-backend/internal/model"
)

// LeaderboardRepository computes score rankings over submitted attempts.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

const leaderboardQuery = `
	SELECT u.id, u.name, u.email, e.id, e.title, a.score, e.total_marks
	FROM attempts a
	JOIN users u ON a.student_id = u.id
	JOIN exams e ON a.exam_id = e.id
	WHERE a.status = 'SUBMITTED' AND a.score IS NOT NULL`

// ByExam retrieves the ranking for one exam, highest score first.
func (r *LeaderboardRepository) ByExam(ctx context.Context, examID uuid.UUID) ([]model.LeaderboardEntry, error) {
	return r.query(ctx,
		leaderboardQuery+` AND a.exam_id = $1 ORDER BY a.score DESC, a.finished_at ASC`, examID)
}

// Overall retrieves the ranking across all exams.
func (r *LeaderboardRepository) Overall(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return r.query(ctx, leaderboardQuery+` ORDER BY a.score DESC, a.finished_at ASC`)
}

func (r *LeaderboardRepository) query(ctx context.Context, query string, args ...any) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.StudentID, &e.StudentName, &e.StudentEmail,
			&e.ExamID, &e.ExamTitle, &e.Score, &e.TotalMarks); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
