package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/repository"
	"github.com/rvclass/examroom-backend/internal/scoring"
	"github.com/rvclass/examroom-backend/internal/service"
)

const sweepBatchSize = 100

// SweeperWorker finalizes abandoned attempts whose clock ran out while
// no server held a live session for them, for example after a process
// restart or when the student never came back. It scores whatever was
// autosaved, preferring the Redis answer hash over the PostgreSQL rows
// since the hash may hold selections the queue has not drained yet;
// every unanswered question counts as incorrect.
type SweeperWorker struct {
	attemptRepo  *repository.AttemptRepository
	questionRepo *repository.QuestionRepository
	examService  *service.ExamService
	answerCache  *service.AnswerCache
	interval     time.Duration
	log          zerolog.Logger
}

// NewSweeperWorker creates a new SweeperWorker.
func NewSweeperWorker(
	attemptRepo *repository.AttemptRepository,
	questionRepo *repository.QuestionRepository,
	examService *service.ExamService,
	answerCache *service.AnswerCache,
	interval time.Duration,
	log zerolog.Logger,
) *SweeperWorker {
	return &SweeperWorker{
		attemptRepo:  attemptRepo,
		questionRepo: questionRepo,
		examService:  examService,
		answerCache:  answerCache,
		interval:     interval,
		log:          log.With().Str("component", "sweeper_worker").Logger(),
	}
}

// Start begins the periodic sweep loop. Call in a goroutine.
func (w *SweeperWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweeperWorker) sweep(ctx context.Context) {
	attempts, err := w.attemptRepo.ListExpired(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("List expired attempts failed")
		return
	}
	if len(attempts) == 0 {
		return
	}

	// Cache questions per exam; one sweep batch usually hits few exams.
	// Durations come through the exam service's Redis cache.
	questions := make(map[uuid.UUID][]model.Question)
	durations := make(map[uuid.UUID]time.Duration)

	swept := 0
	for i := range attempts {
		a := &attempts[i]

		if _, ok := questions[a.ExamID]; !ok {
			minutes, err := w.examService.Duration(ctx, a.ExamID)
			if err != nil {
				w.log.Error().Err(err).Stringer("exam_id", a.ExamID).Msg("Resolve duration failed")
				continue
			}
			qs, err := w.questionRepo.ListByExam(ctx, a.ExamID)
			if err != nil {
				w.log.Error().Err(err).Stringer("exam_id", a.ExamID).Msg("Load questions failed")
				continue
			}
			questions[a.ExamID] = qs
			durations[a.ExamID] = time.Duration(minutes) * time.Minute
		}

		if w.finalize(ctx, a, questions[a.ExamID], durations[a.ExamID]) {
			swept++
		}
	}

	if swept > 0 {
		w.log.Info().Int("count", swept).Msg("Swept expired attempts")
	}
}

// finalize scores the attempt's autosaved answers and applies the
// submit. A false compare-and-swap means another process finalized it
// first, which is fine.
func (w *SweeperWorker) finalize(ctx context.Context, a *model.Attempt, questions []model.Question, duration time.Duration) bool {
	saved := make(map[uuid.UUID]int, len(a.Answers))
	for _, ans := range a.Answers {
		saved[ans.QuestionID] = ans.SelectedOption
	}

	// Selections still sitting in the autosave queue exist only in the
	// hash; without this merge they would score as unanswered.
	cached, err := w.answerCache.Load(ctx, a.ExamID, a.StudentID)
	if err != nil {
		w.log.Warn().Err(err).Stringer("attempt_id", a.ID).Msg("Answer cache read failed, scoring store copy")
	}
	for qid, selected := range cached {
		saved[qid] = selected
	}

	answers := make([]model.Answer, 0, len(questions))
	for _, q := range questions {
		selected, ok := saved[q.ID]
		if !ok {
			selected = model.UnansweredOption
		}
		answers = append(answers, model.Answer{QuestionID: q.ID, SelectedOption: selected})
	}

	result := scoring.Score(answers, questions)
	deadline := a.StartedAt.Add(duration)

	applied, err := w.attemptRepo.FinalizeAttempt(ctx, a.ID, deadline, result.Score, result.Graded)
	if err != nil {
		w.log.Error().Err(err).Stringer("attempt_id", a.ID).Msg("Finalize failed")
		return false
	}
	if applied {
		if err := w.answerCache.Clear(ctx, a.ExamID, a.StudentID); err != nil {
			w.log.Warn().Err(err).Stringer("attempt_id", a.ID).Msg("Failed to clear autosave buffer")
		}
		w.log.Info().
			Stringer("attempt_id", a.ID).
			Int("score", result.Score).
			Msg("Expired attempt finalized")
	}
	return applied
}
