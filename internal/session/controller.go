package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/scoring"
)

// Reason distinguishes how an attempt was finalized.
type Reason string

const (
	ReasonManual  Reason = "MANUAL"
	ReasonTimeout Reason = "TIMEOUT"
)

// ScoredAttempt is the immutable result of a finalized attempt.
type ScoredAttempt struct {
	Attempt model.Attempt  `json:"attempt"`
	Score   int            `json:"score"`
	Graded  []model.Answer `json:"graded_answers"`
	Reason  Reason         `json:"reason"`
}

// Launcher builds controllers. It resolves the exam and question set
// through the Catalog and the attempt through the Store, creating the
// attempt only when the lookup comes back empty.
type Launcher struct {
	store   Store
	catalog Catalog
	log     zerolog.Logger

	// TickInterval enables the controller's own countdown goroutine.
	// Zero disables it; the caller then drives Tick explicitly.
	TickInterval time.Duration

	// Now is the clock used for start and finish timestamps. Overridable
	// in tests.
	Now func() time.Time

	// Restore supplies autosaved selections that have not reached the
	// store yet. Applied on top of the store's answers when resuming an
	// IN_PROGRESS attempt; the store lags while the autosave queue
	// drains. Optional; a failed restore falls back to the store alone.
	Restore func(ctx context.Context, examID, studentID uuid.UUID) (map[uuid.UUID]int, error)
}

// NewLauncher creates a Launcher with the wall clock and no background
// ticker.
func NewLauncher(store Store, catalog Catalog, log zerolog.Logger) *Launcher {
	return &Launcher{
		store:   store,
		catalog: catalog,
		log:     log.With().Str("component", "session").Logger(),
		Now:     time.Now,
	}
}

// Controller owns one attempt: the countdown, the answer buffer and the
// submission trigger. All methods are safe for concurrent use; a finalize
// in flight holds the lock, so a late SelectAnswer can never interleave
// with it.
type Controller struct {
	mu        sync.Mutex
	store     Store
	exam      model.Exam
	questions []model.Question
	qIndex    map[uuid.UUID]int
	attempt   model.Attempt
	buffer    map[uuid.UUID]int
	remaining time.Duration
	fired     bool
	result    *ScoredAttempt
	now       func() time.Time
	log       zerolog.Logger

	stop    chan struct{}
	stopped bool
	onDone  func()
	done    bool

	subs    map[int]chan time.Duration
	nextSub int
}

// Start resolves or creates the attempt for the (student, exam) pair and
// returns a running controller. An existing IN_PROGRESS attempt is
// resumed with its persisted answers and the remaining time recomputed
// from its start timestamp, clipped to [0, duration]. An already
// submitted attempt yields a controller whose result is immediately
// available and whose mutations are rejected.
func (l *Launcher) Start(ctx context.Context, examID, studentID uuid.UUID) (*Controller, error) {
	exam, err := l.catalog.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, ErrExamNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, &PersistenceError{Op: "resolve exam", Err: err}
	}
	if !exam.IsActive && exam.CreatedBy != studentID {
		return nil, ErrExamInactive
	}

	questions, err := l.catalog.ListQuestions(ctx, examID)
	if err != nil {
		return nil, &PersistenceError{Op: "load question set", Err: err}
	}

	attempt, err := l.resolveAttempt(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		store:     l.store,
		exam:      *exam,
		questions: questions,
		qIndex:    make(map[uuid.UUID]int, len(questions)),
		attempt:   *attempt,
		buffer:    make(map[uuid.UUID]int, len(questions)),
		now:       l.Now,
		log: l.log.With().
			Stringer("attempt_id", attempt.ID).
			Stringer("exam_id", examID).
			Logger(),
		stop: make(chan struct{}),
		subs: make(map[int]chan time.Duration),
	}
	for i, q := range questions {
		c.qIndex[q.ID] = i
	}
	for _, a := range attempt.Answers {
		if _, ok := c.qIndex[a.QuestionID]; ok && a.SelectedOption != model.UnansweredOption {
			c.buffer[a.QuestionID] = a.SelectedOption
		}
	}

	if l.Restore != nil && attempt.Status == model.AttemptStatusInProgress {
		restored, err := l.Restore(ctx, examID, studentID)
		if err != nil {
			c.log.Warn().Err(err).Msg("Answer restore failed, resuming from store alone")
		}
		// Restored selections win over the store's: they were written at
		// select time and the store only catches up when the queue drains.
		for qid, selected := range restored {
			idx, ok := c.qIndex[qid]
			if !ok || selected == model.UnansweredOption {
				continue
			}
			if selected < 0 || selected >= len(c.questions[idx].Options) {
				continue
			}
			c.buffer[qid] = selected
		}
	}

	elapsed := l.Now().Sub(attempt.StartedAt)
	c.remaining = exam.Duration() - elapsed
	if c.remaining < 0 {
		c.remaining = 0
	}
	if c.remaining > exam.Duration() {
		c.remaining = exam.Duration()
	}

	if attempt.Status == model.AttemptStatusSubmitted {
		c.remaining = 0
		c.fired = true
		c.result = storedResult(attempt, ReasonManual)
		c.stopped = true
		return c, nil
	}

	// Deadline already passed while the attempt sat idle: finalize now
	// rather than waiting for a tick that may never come.
	if c.remaining == 0 {
		c.fired = true
		if _, err := c.Finalize(ctx, ReasonTimeout); err != nil {
			return nil, err
		}
		return c, nil
	}

	if l.TickInterval > 0 {
		go c.run(l.TickInterval)
	}

	return c, nil
}

// resolveAttempt looks the pair's attempt up before ever creating one.
// A create that loses the keyed insert race re-fetches the winner's row,
// so two concurrent starts converge on the same attempt.
func (l *Launcher) resolveAttempt(ctx context.Context, examID, studentID uuid.UUID) (*model.Attempt, error) {
	attempt, err := l.store.FindByStudentAndExam(ctx, studentID, examID)
	if err == nil {
		return attempt, nil
	}
	if !errors.Is(err, ErrNoAttempt) {
		return nil, &PersistenceError{Op: "find attempt", Err: err}
	}

	attempt = &model.Attempt{
		ID:        uuid.New(),
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: l.Now(),
		Status:    model.AttemptStatusInProgress,
	}
	if err := l.store.CreateAttempt(ctx, attempt); err != nil {
		if errors.Is(err, ErrDuplicateAttempt) {
			attempt, err = l.store.FindByStudentAndExam(ctx, studentID, examID)
			if err != nil {
				return nil, &PersistenceError{Op: "refetch attempt after duplicate create", Err: err}
			}
			return attempt, nil
		}
		return nil, &PersistenceError{Op: "create attempt", Err: err}
	}
	return attempt, nil
}

// run is the controller's scoped timer. It lives from Start until the
// attempt finalizes or Close is called; no tick fires after either.
func (c *Controller) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if c.Tick(interval) <= 0 {
				return
			}
		}
	}
}

// SelectAnswer upserts the buffered selection for a question. Last write
// wins; nothing is written to the store until finalize or autosave. On a
// rejected call no state changes at all.
func (c *Controller) SelectAnswer(questionID uuid.UUID, optionIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result != nil {
		return ErrSessionFinalized
	}
	idx, ok := c.qIndex[questionID]
	if !ok {
		return ErrQuestionNotFound
	}
	if optionIndex != model.UnansweredOption &&
		(optionIndex < 0 || optionIndex >= len(c.questions[idx].Options)) {
		return ErrInvalidAnswerIndex
	}

	c.buffer[questionID] = optionIndex
	return nil
}

// Tick advances the countdown by elapsed and returns the remaining time,
// which never goes negative. The first tick that hits zero triggers
// exactly one finalize before returning.
func (c *Controller) Tick(elapsed time.Duration) time.Duration {
	c.mu.Lock()
	if c.result != nil {
		c.mu.Unlock()
		return 0
	}

	c.remaining -= elapsed
	if c.remaining < 0 {
		c.remaining = 0
	}
	remaining := c.remaining
	fire := remaining == 0 && !c.fired
	if fire {
		c.fired = true
	}
	c.mu.Unlock()

	c.broadcast(remaining)

	if fire {
		if _, err := c.Finalize(context.Background(), ReasonTimeout); err != nil {
			// The sweeper will force-submit the attempt server-side.
			c.log.Error().Err(err).Msg("Timeout finalize failed")
		}
	}
	return remaining
}

// Finalize transitions the attempt to SUBMITTED exactly once. Every
// question receives an answer entry (unanswered ones the sentinel), the
// scorer runs, and the result is persisted through a compare-and-swap.
// Repeat calls return the stored result without recomputation.
func (c *Controller) Finalize(ctx context.Context, reason Reason) (*ScoredAttempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result != nil {
		return c.result, nil
	}

	answers := make([]model.Answer, len(c.questions))
	for i, q := range c.questions {
		selected, ok := c.buffer[q.ID]
		if !ok {
			selected = model.UnansweredOption
		}
		answers[i] = model.Answer{QuestionID: q.ID, SelectedOption: selected}
	}

	res := scoring.Score(answers, c.questions)
	finishedAt := c.now()

	applied, err := c.store.FinalizeAttempt(ctx, c.attempt.ID, finishedAt, res.Score, res.Graded)
	if err != nil {
		return nil, &PersistenceError{Op: "finalize attempt", Err: err}
	}

	if applied {
		c.attempt.Status = model.AttemptStatusSubmitted
		c.attempt.FinishedAt = &finishedAt
		c.attempt.Score = &res.Score
		c.attempt.Answers = res.Graded
		c.result = &ScoredAttempt{
			Attempt: c.attempt,
			Score:   res.Score,
			Graded:  res.Graded,
			Reason:  reason,
		}
	} else {
		// Another session submitted first (two-tab case): adopt the
		// stored result, discarding this buffer.
		stored, err := c.store.FindByStudentAndExam(ctx, c.attempt.StudentID, c.attempt.ExamID)
		if err != nil {
			return nil, &PersistenceError{Op: "load submitted attempt", Err: err}
		}
		c.attempt = *stored
		c.result = storedResult(stored, reason)
	}

	c.log.Info().
		Str("reason", string(reason)).
		Int("score", c.result.Score).
		Msg("Attempt finalized")

	c.haltLocked()
	return c.result, nil
}

// Close tears the controller down without finalizing: the timer stops and
// no stray tick fires afterwards. The attempt stays IN_PROGRESS and is
// resumable through Start.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.haltLocked()
}

// haltLocked stops the timer, closes subscriber channels and runs the
// deregistration hook once. Callers hold c.mu.
func (c *Controller) haltLocked() {
	if !c.stopped {
		c.stopped = true
		close(c.stop)
	}
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	if c.onDone != nil && !c.done {
		c.done = true
		c.onDone()
	}
}

// Remaining returns the current countdown value.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Finalized reports whether the attempt has reached SUBMITTED.
func (c *Controller) Finalized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result != nil
}

// Result returns the scored attempt once finalized.
func (c *Controller) Result() (*ScoredAttempt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil, false
	}
	return c.result, true
}

// Attempt returns a snapshot of the underlying attempt.
func (c *Controller) Attempt() model.Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// Exam returns the exam this controller is bound to.
func (c *Controller) Exam() model.Exam {
	return c.exam
}

// Questions returns the canonical ordered question set.
func (c *Controller) Questions() []model.Question {
	return c.questions
}

// Answers returns a copy of the current buffer keyed by question ID.
func (c *Controller) Answers() map[uuid.UUID]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uuid.UUID]int, len(c.buffer))
	for k, v := range c.buffer {
		out[k] = v
	}
	return out
}

// Subscribe registers a countdown listener fed on every tick and closed
// on finalize or Close. The returned cancel func detaches the listener.
func (c *Controller) Subscribe() (<-chan time.Duration, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Duration, 4)
	if c.result != nil || c.stopped {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

func (c *Controller) broadcast(remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- remaining:
		default: // Slow listener: drop rather than stall the countdown.
		}
	}
}

func storedResult(attempt *model.Attempt, reason Reason) *ScoredAttempt {
	score := 0
	if attempt.Score != nil {
		score = *attempt.Score
	}
	return &ScoredAttempt{
		Attempt: *attempt,
		Score:   score,
		Graded:  attempt.Answers,
		Reason:  reason,
	}
}
