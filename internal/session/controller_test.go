package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rvclass/examroom-backend/internal/model"
)

type testEnv struct {
	launcher  *Launcher
	store     *MemoryStore
	catalog   *MemoryCatalog
	exam      model.Exam
	questions []model.Question
	studentID uuid.UUID
	now       time.Time
}

// newTestEnv builds a launcher over the memory store with a 10 minute
// exam of three questions (correct options 1, 3, 2) and a controllable
// clock. The background ticker stays off; tests drive Tick directly.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     NewMemoryStore(),
		catalog:   NewMemoryCatalog(),
		studentID: uuid.New(),
		now:       time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}

	env.exam = model.Exam{
		ID:              uuid.New(),
		Title:           "Networks Midterm",
		CreatedBy:       uuid.New(),
		DurationMinutes: 10,
		TotalMarks:      3,
		IsActive:        true,
	}
	for i, correct := range []int{1, 3, 2} {
		env.questions = append(env.questions, model.Question{
			ID:            uuid.New(),
			ExamID:        env.exam.ID,
			QuestionText:  "q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: correct,
			OrderNum:      i + 1,
		})
	}
	env.catalog.PutExam(env.exam, env.questions)

	env.launcher = NewLauncher(env.store, env.catalog, zerolog.Nop())
	env.launcher.Now = func() time.Time { return env.now }
	return env
}

func (env *testEnv) start(t *testing.T) *Controller {
	t.Helper()
	ctrl, err := env.launcher.Start(context.Background(), env.exam.ID, env.studentID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return ctrl
}

func TestStartTwiceSharesOneAttempt(t *testing.T) {
	env := newTestEnv(t)

	first := env.start(t)
	second := env.start(t)

	if first.Attempt().ID != second.Attempt().ID {
		t.Fatalf("expected one attempt, got %s and %s", first.Attempt().ID, second.Attempt().ID)
	}
	if got := first.Attempt().Status; got != model.AttemptStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", got)
	}
}

func TestStartUnknownExam(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.launcher.Start(context.Background(), uuid.New(), env.studentID)
	if !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
}

func TestStartInactiveExam(t *testing.T) {
	env := newTestEnv(t)
	env.exam.IsActive = false
	env.catalog.PutExam(env.exam, env.questions)

	if _, err := env.launcher.Start(context.Background(), env.exam.ID, env.studentID); !errors.Is(err, ErrExamInactive) {
		t.Fatalf("expected ErrExamInactive, got %v", err)
	}

	// The owner may preview an inactive exam.
	if _, err := env.launcher.Start(context.Background(), env.exam.ID, env.exam.CreatedBy); err != nil {
		t.Fatalf("owner preview: %v", err)
	}
}

func TestSelectAnswerValidation(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	if err := ctrl.SelectAnswer(uuid.New(), 0); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("unknown question: expected ErrQuestionNotFound, got %v", err)
	}
	if err := ctrl.SelectAnswer(env.questions[0].ID, 4); !errors.Is(err, ErrInvalidAnswerIndex) {
		t.Fatalf("out of range: expected ErrInvalidAnswerIndex, got %v", err)
	}
	if err := ctrl.SelectAnswer(env.questions[0].ID, -2); !errors.Is(err, ErrInvalidAnswerIndex) {
		t.Fatalf("negative: expected ErrInvalidAnswerIndex, got %v", err)
	}

	// The sentinel clears a selection and is always accepted.
	if err := ctrl.SelectAnswer(env.questions[0].ID, model.UnansweredOption); err != nil {
		t.Fatalf("sentinel: %v", err)
	}

	// A rejected call must leave the buffer untouched.
	if err := ctrl.SelectAnswer(env.questions[1].ID, 2); err != nil {
		t.Fatalf("valid select: %v", err)
	}
	if err := ctrl.SelectAnswer(env.questions[1].ID, 9); !errors.Is(err, ErrInvalidAnswerIndex) {
		t.Fatalf("expected ErrInvalidAnswerIndex, got %v", err)
	}
	if got := ctrl.Answers()[env.questions[1].ID]; got != 2 {
		t.Fatalf("buffer changed on rejected call: got %d", got)
	}
}

func TestSelectAnswerLastWriteWins(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	q := env.questions[2].ID
	for _, opt := range []int{0, 3, 1} {
		if err := ctrl.SelectAnswer(q, opt); err != nil {
			t.Fatalf("SelectAnswer(%d): %v", opt, err)
		}
	}
	if got := ctrl.Answers()[q]; got != 1 {
		t.Fatalf("expected last write 1, got %d", got)
	}
}

func TestFinalizeScoresBufferedAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	// Correct options are 1, 3, 2; answer 1, 0, 2 for a score of 2.
	selections := []int{1, 0, 2}
	for i, sel := range selections {
		if err := ctrl.SelectAnswer(env.questions[i].ID, sel); err != nil {
			t.Fatalf("SelectAnswer: %v", err)
		}
	}

	result, err := ctrl.Finalize(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if result.Score != 2 {
		t.Fatalf("expected score 2, got %d", result.Score)
	}
	if result.Reason != ReasonManual {
		t.Fatalf("expected MANUAL, got %s", result.Reason)
	}
	if len(result.Graded) != len(env.questions) {
		t.Fatalf("expected %d graded answers, got %d", len(env.questions), len(result.Graded))
	}
	wantCorrect := []bool{true, false, true}
	for i, g := range result.Graded {
		if g.QuestionID != env.questions[i].ID {
			t.Fatalf("graded[%d]: wrong question order", i)
		}
		if g.IsCorrect != wantCorrect[i] {
			t.Fatalf("graded[%d]: IsCorrect = %v, want %v", i, g.IsCorrect, wantCorrect[i])
		}
	}

	stored, err := env.store.FindByStudentAndExam(context.Background(), env.studentID, env.exam.ID)
	if err != nil {
		t.Fatalf("FindByStudentAndExam: %v", err)
	}
	if stored.Status != model.AttemptStatusSubmitted || stored.Score == nil || *stored.Score != 2 {
		t.Fatalf("stored attempt not submitted with score 2: %+v", stored)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	if err := ctrl.SelectAnswer(env.questions[0].ID, 1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	first, err := ctrl.Finalize(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	second, err := ctrl.Finalize(context.Background(), ReasonTimeout)
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}

	if first != second {
		t.Fatal("repeat finalize recomputed the result")
	}
	if second.Reason != ReasonManual {
		t.Fatalf("repeat finalize changed reason to %s", second.Reason)
	}
}

func TestSelectAnswerAfterFinalize(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	if _, err := ctrl.Finalize(context.Background(), ReasonManual); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := ctrl.SelectAnswer(env.questions[0].ID, 0); !errors.Is(err, ErrSessionFinalized) {
		t.Fatalf("expected ErrSessionFinalized, got %v", err)
	}
}

func TestTickClampsAtZeroAndFinalizesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	if got := ctrl.Tick(4 * time.Minute); got != 6*time.Minute {
		t.Fatalf("expected 6m remaining, got %s", got)
	}

	// Overshooting the deadline clamps to zero instead of going negative.
	if got := ctrl.Tick(20 * time.Minute); got != 0 {
		t.Fatalf("expected 0 remaining, got %s", got)
	}
	if !ctrl.Finalized() {
		t.Fatal("expected timeout finalize at zero")
	}
	result, _ := ctrl.Result()
	if result.Reason != ReasonTimeout {
		t.Fatalf("expected TIMEOUT, got %s", result.Reason)
	}

	// Further ticks stay at zero and never fire a second finalize.
	if got := ctrl.Tick(time.Second); got != 0 {
		t.Fatalf("post-finalize tick: expected 0, got %s", got)
	}
	again, _ := ctrl.Result()
	if again != result {
		t.Fatal("tick after finalize replaced the result")
	}
}

func TestTimeoutWithNothingAnswered(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	ctrl.Tick(time.Hour)

	result, ok := ctrl.Result()
	if !ok {
		t.Fatal("expected finalized result")
	}
	if result.Score != 0 {
		t.Fatalf("expected score 0, got %d", result.Score)
	}
	for i, g := range result.Graded {
		if g.SelectedOption != model.UnansweredOption {
			t.Fatalf("graded[%d]: expected sentinel, got %d", i, g.SelectedOption)
		}
		if g.IsCorrect {
			t.Fatalf("graded[%d]: unanswered marked correct", i)
		}
	}
}

func TestResumeRestoresPersistedAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)
	attemptID := ctrl.Attempt().ID

	if err := ctrl.SelectAnswer(env.questions[0].ID, 3); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	// Autosave path: the selection reaches the store before the crash.
	if err := env.store.SaveAnswer(context.Background(), attemptID, env.questions[0].ID, 3); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	ctrl.Close()

	// Four minutes later the student reconnects.
	env.now = env.now.Add(4 * time.Minute)
	resumed := env.start(t)

	if resumed.Attempt().ID != attemptID {
		t.Fatal("resume created a second attempt")
	}
	if got := resumed.Answers()[env.questions[0].ID]; got != 3 {
		t.Fatalf("expected restored answer 3, got %d", got)
	}
	if got := resumed.Remaining(); got != 6*time.Minute {
		t.Fatalf("expected 6m remaining, got %s", got)
	}
}

func TestResumeMergesUndrainedAutosaves(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)
	attemptID := ctrl.Attempt().ID

	// Only the first selection was drained to the store before the
	// crash; the second and third sit in the autosave buffer, the third
	// superseding the store's stale copy of the first question.
	if err := env.store.SaveAnswer(context.Background(), attemptID, env.questions[0].ID, 0); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	ctrl.Close()

	env.launcher.Restore = func(ctx context.Context, examID, studentID uuid.UUID) (map[uuid.UUID]int, error) {
		if examID != env.exam.ID || studentID != env.studentID {
			t.Fatalf("restore called for wrong pair: %s/%s", examID, studentID)
		}
		return map[uuid.UUID]int{
			env.questions[0].ID: 1,
			env.questions[1].ID: 3,
			uuid.New():          2, // question from another exam
			env.questions[2].ID: 9, // out of range
		}, nil
	}

	env.now = env.now.Add(2 * time.Minute)
	resumed := env.start(t)

	answers := resumed.Answers()
	if got := answers[env.questions[0].ID]; got != 1 {
		t.Fatalf("expected buffered answer 1 to win over store, got %d", got)
	}
	if got := answers[env.questions[1].ID]; got != 3 {
		t.Fatalf("expected undrained answer 3 restored, got %d", got)
	}
	if _, ok := answers[env.questions[2].ID]; ok {
		t.Fatal("out-of-range restore entry must be dropped")
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 restored answers, got %d", len(answers))
	}

	// The merged buffer scores: q0=1 correct, q1=3 correct, q2 unanswered.
	result, err := resumed.Finalize(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if result.Score != 2 {
		t.Fatalf("expected score 2, got %d", result.Score)
	}
}

func TestResumeSurvivesRestoreFailure(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)
	attemptID := ctrl.Attempt().ID

	if err := env.store.SaveAnswer(context.Background(), attemptID, env.questions[0].ID, 2); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	ctrl.Close()

	env.launcher.Restore = func(ctx context.Context, examID, studentID uuid.UUID) (map[uuid.UUID]int, error) {
		return nil, errors.New("redis unavailable")
	}

	resumed := env.start(t)
	if got := resumed.Answers()[env.questions[0].ID]; got != 2 {
		t.Fatalf("expected store answer 2 after failed restore, got %d", got)
	}
}

func TestRestoreSkippedOnceSubmitted(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)
	if _, err := ctrl.Finalize(context.Background(), ReasonManual); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	env.launcher.Restore = func(ctx context.Context, examID, studentID uuid.UUID) (map[uuid.UUID]int, error) {
		t.Fatal("restore must not run for a submitted attempt")
		return nil, nil
	}

	reopened := env.start(t)
	if !reopened.Finalized() {
		t.Fatal("expected finalized controller")
	}
}

func TestResumeAfterDeadlineFinalizesImmediately(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)
	ctrl.Close()

	env.now = env.now.Add(25 * time.Minute)
	resumed := env.start(t)

	if got := resumed.Remaining(); got != 0 {
		t.Fatalf("expected 0 remaining, got %s", got)
	}
	result, ok := resumed.Result()
	if !ok {
		t.Fatal("expected immediate finalize on expired resume")
	}
	if result.Reason != ReasonTimeout {
		t.Fatalf("expected TIMEOUT, got %s", result.Reason)
	}
}

func TestStartOnSubmittedAttemptServesStoredResult(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	if err := ctrl.SelectAnswer(env.questions[1].ID, 3); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if _, err := ctrl.Finalize(context.Background(), ReasonManual); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	reopened := env.start(t)
	result, ok := reopened.Result()
	if !ok {
		t.Fatal("expected stored result on reopened attempt")
	}
	if result.Score != 1 {
		t.Fatalf("expected stored score 1, got %d", result.Score)
	}
	if err := reopened.SelectAnswer(env.questions[0].ID, 0); !errors.Is(err, ErrSessionFinalized) {
		t.Fatalf("expected ErrSessionFinalized, got %v", err)
	}
}

func TestConcurrentFinalizeFirstWins(t *testing.T) {
	env := newTestEnv(t)

	// Two processes, one attempt: each launcher call builds its own
	// controller over the shared store.
	tabA := env.start(t)
	tabB := env.start(t)

	if err := tabA.SelectAnswer(env.questions[0].ID, 1); err != nil {
		t.Fatalf("tab A select: %v", err)
	}
	if err := tabB.SelectAnswer(env.questions[0].ID, 0); err != nil {
		t.Fatalf("tab B select: %v", err)
	}

	resA, err := tabA.Finalize(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("tab A finalize: %v", err)
	}
	if resA.Score != 1 {
		t.Fatalf("tab A: expected score 1, got %d", resA.Score)
	}

	// Tab B loses the compare-and-swap and adopts A's stored result.
	resB, err := tabB.Finalize(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("tab B finalize: %v", err)
	}
	if resB.Score != 1 {
		t.Fatalf("tab B: expected adopted score 1, got %d", resB.Score)
	}

	stored, err := env.store.FindByStudentAndExam(context.Background(), env.studentID, env.exam.ID)
	if err != nil {
		t.Fatalf("FindByStudentAndExam: %v", err)
	}
	if *stored.Score != 1 {
		t.Fatalf("stored score overwritten: got %d", *stored.Score)
	}
}

func TestSubscribeReceivesTicksAndCloses(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	ticks, cancel := ctrl.Subscribe()
	defer cancel()

	ctrl.Tick(time.Minute)
	select {
	case got := <-ticks:
		if got != 9*time.Minute {
			t.Fatalf("expected 9m tick, got %s", got)
		}
	default:
		t.Fatal("no tick delivered to subscriber")
	}

	if _, err := ctrl.Finalize(context.Background(), ReasonManual); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, open := <-ticks; open {
		t.Fatal("subscriber channel still open after finalize")
	}
}

func TestCloseStopsWithoutFinalizing(t *testing.T) {
	env := newTestEnv(t)
	ctrl := env.start(t)

	ctrl.Close()

	if ctrl.Finalized() {
		t.Fatal("Close must not finalize")
	}
	stored, err := env.store.FindByStudentAndExam(context.Background(), env.studentID, env.exam.ID)
	if err != nil {
		t.Fatalf("FindByStudentAndExam: %v", err)
	}
	if stored.Status != model.AttemptStatusInProgress {
		t.Fatalf("expected IN_PROGRESS after Close, got %s", stored.Status)
	}
}

func TestBackgroundTickerFinalizesOnTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.exam.DurationMinutes = 1
	env.catalog.PutExam(env.exam, env.questions)

	// Seed an attempt with ~50ms left on the clock so the ticker
	// crosses the deadline almost immediately.
	attempt := &model.Attempt{
		ID:        uuid.New(),
		ExamID:    env.exam.ID,
		StudentID: env.studentID,
		StartedAt: time.Now().Add(-1*time.Minute + 50*time.Millisecond),
	}
	if err := env.store.CreateAttempt(context.Background(), attempt); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}

	env.launcher.TickInterval = 5 * time.Millisecond
	env.launcher.Now = time.Now

	ctrl := env.start(t)

	deadline := time.After(2 * time.Second)
	for !ctrl.Finalized() {
		select {
		case <-deadline:
			t.Fatal("ticker never finalized the attempt")
		case <-time.After(5 * time.Millisecond):
		}
	}

	result, _ := ctrl.Result()
	if result.Reason != ReasonTimeout {
		t.Fatalf("expected TIMEOUT, got %s", result.Reason)
	}
}
