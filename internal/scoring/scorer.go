// Package scoring grades a completed set of answers against an exam's
// question set. Grading is a pure function: it never mutates its inputs
// and always produces the same result for the same inputs, which is what
// makes attempt finalization safely repeatable.
package scoring

import (
	"github.com/google/uuid"

	"github.com/rvclass/examroom-backend/internal/model"
)

// Result is the outcome of grading one attempt.
type Result struct {
	Score  int
	Graded []model.Answer
}

// Score grades answers against questions. Each answer is correct when its
// selected option equals the matching question's correct option; the
// unanswered sentinel is always incorrect, as is any answer whose question
// is not part of the set. The score is the count of correct answers.
func Score(answers []model.Answer, questions []model.Question) Result {
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	graded := make([]model.Answer, len(answers))
	score := 0

	for i, a := range answers {
		g := model.Answer{
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
		}
		if q, ok := byID[a.QuestionID]; ok &&
			a.SelectedOption != model.UnansweredOption &&
			a.SelectedOption == q.CorrectOption {
			g.IsCorrect = true
			score++
		}
		graded[i] = g
	}

	return Result{Score: score, Graded: graded}
}
