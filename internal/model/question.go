package model

import (
	"github.com/google/uuid"
)

// Difficulty tags a question with one of a closed set of levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question represents a single multiple-choice exam question.
// Invariant: 0 <= CorrectOption < len(Options).
type Question struct {
	ID            uuid.UUID  `json:"id"`
	ExamID        uuid.UUID  `json:"exam_id"`
	QuestionText  string     `json:"question_text"`
	Options       []string   `json:"options"`
	CorrectOption int        `json:"correct_option"`
	Difficulty    Difficulty `json:"difficulty"`
	OrderNum      int        `json:"order_num"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID  `json:"id"`
	QuestionText string     `json:"question_text"`
	Options      []string   `json:"options"`
	Difficulty   Difficulty `json:"difficulty"`
	OrderNum     int        `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	QuestionText  string   `json:"question_text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,max=8,dive,required"`
	CorrectOption int      `json:"correct_option" binding:"min=0"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
}

// BulkAddQuestionsRequest is the payload for bulk inserting questions.
type BulkAddQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
