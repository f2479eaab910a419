package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rvclass/examroom-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions for an exam ordered by order_num,
// which is the canonical numbering shown to students.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_text, options, correct_option, difficulty, order_num
		 FROM questions WHERE exam_id = $1
		 ORDER BY order_num`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.Options, &q.CorrectOption, &q.Difficulty, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question at the end of the exam's ordering and
// bumps the exam's question count.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (exam_id, question_text, options, correct_option, difficulty, order_num)
		 VALUES ($1, $2, $3, $4, $5,
		         (SELECT COALESCE(MAX(order_num), 0) + 1 FROM questions WHERE exam_id = $1))
		 RETURNING id, order_num`,
		q.ExamID, q.QuestionText, q.Options, q.CorrectOption, q.Difficulty,
	).Scan(&q.ID, &q.OrderNum)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE exams SET question_count = question_count + 1, updated_at = NOW()
		 WHERE id = $1`, q.ExamID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// BulkCreate inserts questions in one statement using UNNEST, preserving
// the given slice order as the insertion order.
func (r *QuestionRepository) BulkCreate(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	n := len(questions)
	texts := make([]string, n)
	options := make([][]string, n)
	corrects := make([]int, n)
	difficulties := make([]string, n)
	orders := make([]int, n)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var base int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_num), 0) FROM questions WHERE exam_id = $1`, examID,
	).Scan(&base); err != nil {
		return err
	}

	for i, q := range questions {
		texts[i] = q.QuestionText
		options[i] = q.Options
		corrects[i] = q.CorrectOption
		difficulties[i] = string(q.Difficulty)
		orders[i] = base + i + 1
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO questions (exam_id, question_text, options, correct_option, difficulty, order_num)
		 SELECT $1, t.question_text, t.options, t.correct_option, t.difficulty, t.order_num
		 FROM UNNEST($2::text[], $3::jsonb[], $4::int[], $5::text[], $6::int[])
		      AS t (question_text, options, correct_option, difficulty, order_num)`,
		examID, texts, toJSONBArray(options), corrects, difficulties, orders,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE exams SET question_count = question_count + $1, updated_at = NOW()
		 WHERE id = $2`, n, examID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// toJSONBArray renders each option list as a JSON document, the element
// form pgx expects for a jsonb[] parameter.
func toJSONBArray(optionLists [][]string) []string {
	out := make([]string, len(optionLists))
	for i, opts := range optionLists {
		b, _ := json.Marshal(opts)
		out[i] = string(b)
	}
	return out
}

// Update persists mutable question fields.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, options = $2, correct_option = $3, difficulty = $4
		 WHERE id = $5 AND exam_id = $6`,
		q.QuestionText, q.Options, q.CorrectOption, q.Difficulty, q.ID, q.ExamID)
	return err
}

// Delete removes a question and decrements the exam's question count.
func (r *QuestionRepository) Delete(ctx context.Context, examID, questionID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM questions WHERE id = $1 AND exam_id = $2`, questionID, examID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE exams SET question_count = question_count - 1, updated_at = NOW()
			 WHERE id = $1`, examID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
