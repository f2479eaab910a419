package scoring

import (
	"testing"

	"github.com/google/uuid"

	"github.com/rvclass/examroom-backend/internal/model"
)

func makeQuestions(correct ...int) []model.Question {
	questions := make([]model.Question, len(correct))
	for i, c := range correct {
		questions[i] = model.Question{
			ID:            uuid.New(),
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: c,
			OrderNum:      i + 1,
		}
	}
	return questions
}

func answersFor(questions []model.Question, selected ...int) []model.Answer {
	answers := make([]model.Answer, len(selected))
	for i, s := range selected {
		answers[i] = model.Answer{QuestionID: questions[i].ID, SelectedOption: s}
	}
	return answers
}

func TestScoreCountsCorrectAnswers(t *testing.T) {
	questions := makeQuestions(1, 3, 2)
	answers := answersFor(questions, 1, 0, 2)

	result := Score(answers, questions)

	if result.Score != 2 {
		t.Fatalf("expected score 2, got %d", result.Score)
	}
	want := []bool{true, false, true}
	for i, g := range result.Graded {
		if g.IsCorrect != want[i] {
			t.Fatalf("graded[%d]: IsCorrect = %v, want %v", i, g.IsCorrect, want[i])
		}
	}
}

func TestScoreAllUnanswered(t *testing.T) {
	questions := makeQuestions(0, 1, 2, 3)
	answers := answersFor(questions,
		model.UnansweredOption, model.UnansweredOption,
		model.UnansweredOption, model.UnansweredOption)

	result := Score(answers, questions)

	if result.Score != 0 {
		t.Fatalf("expected score 0, got %d", result.Score)
	}
	for i, g := range result.Graded {
		if g.IsCorrect {
			t.Fatalf("graded[%d]: sentinel marked correct", i)
		}
	}
}

func TestScoreIgnoresUnknownQuestions(t *testing.T) {
	questions := makeQuestions(1, 1)
	answers := append(answersFor(questions, 1, 1),
		model.Answer{QuestionID: uuid.New(), SelectedOption: 1})

	result := Score(answers, questions)

	if result.Score != 2 {
		t.Fatalf("expected score 2, got %d", result.Score)
	}
	if result.Graded[2].IsCorrect {
		t.Fatal("answer to an unknown question marked correct")
	}
}

func TestScoreLeavesInputsUntouched(t *testing.T) {
	questions := makeQuestions(2)
	answers := answersFor(questions, 2)

	first := Score(answers, questions)
	second := Score(answers, questions)

	if first.Score != second.Score {
		t.Fatalf("scoring not repeatable: %d then %d", first.Score, second.Score)
	}
	if answers[0].IsCorrect {
		t.Fatal("input answers mutated")
	}
	if first.Graded[0].SelectedOption != 2 || !first.Graded[0].IsCorrect {
		t.Fatalf("unexpected graded entry: %+v", first.Graded[0])
	}
}

func TestScoreEmptySet(t *testing.T) {
	result := Score(nil, nil)
	if result.Score != 0 || len(result.Graded) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
