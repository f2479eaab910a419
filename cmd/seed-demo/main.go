package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rvclass/examroom-backend/internal/config"
	"github.com/rvclass/examroom-backend/internal/database"
	"github.com/rvclass/examroom-backend/internal/logger"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo teacher, a handful of students, and one active exam so a
// fresh install has something to log in to. Safe to rerun: existing
// accounts are reused.

const demoPassword = "examroom-demo"

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo password")
	}

	fmt.Println("=== Seeding Demo Data ===")

	// ─── Teacher ───────────────────────────────────────────────────────
	teacher, err := userRepo.GetByEmail(ctx, "teacher@examroom.local")
	if err != nil {
		if err != pgx.ErrNoRows {
			log.Fatal().Err(err).Msg("Failed to check existing teacher")
		}
		staffID := "STAFF-001"
		teacher = &model.User{
			Name:         "Demo Teacher",
			Email:        "teacher@examroom.local",
			Role:         model.RoleTeacher,
			Department:   "Computer Science",
			StaffID:      &staffID,
			PasswordHash: string(hash),
		}
		if err := userRepo.Create(ctx, teacher); err != nil {
			log.Fatal().Err(err).Msg("Failed to create teacher")
		}
		fmt.Printf("Created teacher %s\n", teacher.Email)
	} else {
		fmt.Printf("Found existing teacher %s\n", teacher.Email)
	}

	// ─── Students ──────────────────────────────────────────────────────
	students := []struct {
		name  string
		email string
		usn   string
	}{
		{"Asha Rao", "asha@examroom.local", "1RV21CS001"},
		{"Ben Thomas", "ben@examroom.local", "1RV21CS002"},
		{"Chitra Nair", "chitra@examroom.local", "1RV21CS003"},
		{"Dev Patel", "dev@examroom.local", "1RV21CS004"},
		{"Esha Singh", "esha@examroom.local", "1RV21CS005"},
	}
	created := 0
	for _, s := range students {
		if _, err := userRepo.GetByEmail(ctx, s.email); err == nil {
			continue
		} else if err != pgx.ErrNoRows {
			log.Fatal().Err(err).Msg("Failed to check existing student")
		}
		usn := s.usn
		u := &model.User{
			Name:         s.name,
			Email:        s.email,
			Role:         model.RoleStudent,
			Department:   "Computer Science",
			USN:          &usn,
			PasswordHash: string(hash),
		}
		if err := userRepo.Create(ctx, u); err != nil {
			log.Fatal().Err(err).Msg("Failed to create student")
		}
		created++
	}
	fmt.Printf("Created %d students\n", created)

	// ─── Exam ──────────────────────────────────────────────────────────
	exams, err := examRepo.ListByOwner(ctx, teacher.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list exams")
	}
	if len(exams) > 0 {
		fmt.Printf("Found %d existing exams, skipping exam seed\n", len(exams))
		fmt.Println("Done.")
		return
	}

	exam := &model.Exam{
		Title:           "Go Fundamentals Quiz",
		Description:     "Short multiple-choice quiz on Go basics.",
		CreatedBy:       teacher.ID,
		DurationMinutes: 15,
		TotalMarks:      5,
	}
	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}

	questions := []model.Question{
		{
			ExamID:        exam.ID,
			QuestionText:  "Which keyword declares a new variable with inferred type?",
			Options:       []string{"var", ":=", "let", "def"},
			CorrectOption: 1,
			Difficulty:    model.DifficultyEasy,
		},
		{
			ExamID:        exam.ID,
			QuestionText:  "What is the zero value of a pointer?",
			Options:       []string{"0", "undefined", "nil", "empty struct"},
			CorrectOption: 2,
			Difficulty:    model.DifficultyEasy,
		},
		{
			ExamID:        exam.ID,
			QuestionText:  "Which construct is used to wait for multiple goroutines?",
			Options:       []string{"sync.WaitGroup", "time.Sleep", "select{}", "runtime.Gosched"},
			CorrectOption: 0,
			Difficulty:    model.DifficultyMedium,
		},
		{
			ExamID:        exam.ID,
			QuestionText:  "What happens when you send on a closed channel?",
			Options:       []string{"Returns an error", "Blocks forever", "Panics", "Sends the zero value"},
			CorrectOption: 2,
			Difficulty:    model.DifficultyMedium,
		},
		{
			ExamID:        exam.ID,
			QuestionText:  "Which statement about slices is true?",
			Options: []string{
				"A slice copy shares the backing array",
				"Slices are compared with ==",
				"append never reallocates",
				"len(s) can exceed cap(s)",
			},
			CorrectOption: 0,
			Difficulty:    model.DifficultyHard,
		},
	}
	if err := questionRepo.BulkCreate(ctx, exam.ID, questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to create questions")
	}

	exam.IsActive = true
	if err := examRepo.SetActive(ctx, exam.ID, true); err != nil {
		log.Fatal().Err(err).Msg("Failed to activate exam")
	}

	fmt.Printf("Created active exam '%s' with %d questions\n", exam.Title, len(questions))
	fmt.Println("Done.")
}
