package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rvclass/examroom-backend/internal/model"
)

func newTestManager(t *testing.T) (*Manager, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	return NewManager(env.launcher, zerolog.Nop()), env
}

func TestManagerSharesControllerPerPair(t *testing.T) {
	m, env := newTestManager(t)

	first, err := m.Start(context.Background(), env.exam.ID, env.studentID)
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	second, err := m.Start(context.Background(), env.exam.ID, env.studentID)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}

	// Two tabs share one controller: a selection in one is visible in
	// the other.
	if first != second {
		t.Fatal("expected the same controller for the pair")
	}
	if err := first.SelectAnswer(env.questions[0].ID, 2); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if got := second.Answers()[env.questions[0].ID]; got != 2 {
		t.Fatalf("selection not shared, got %d", got)
	}
}

func TestManagerDeregistersOnFinalize(t *testing.T) {
	m, env := newTestManager(t)

	ctrl, err := m.Start(context.Background(), env.exam.ID, env.studentID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, ok := m.Get(env.exam.ID, env.studentID); !ok {
		t.Fatal("controller not registered")
	}

	if _, err := ctrl.Finalize(context.Background(), ReasonManual); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, ok := m.Get(env.exam.ID, env.studentID); ok {
		t.Fatal("finalized controller still registered")
	}

	// A later Start serves the stored result without re-registering.
	reopened, err := m.Start(context.Background(), env.exam.ID, env.studentID)
	if err != nil {
		t.Fatalf("reopen Start: %v", err)
	}
	if !reopened.Finalized() {
		t.Fatal("reopened controller should carry the stored result")
	}
	if _, ok := m.Get(env.exam.ID, env.studentID); ok {
		t.Fatal("submitted attempt registered as live")
	}
}

func TestManagerRemainingForLivePair(t *testing.T) {
	m, env := newTestManager(t)

	if _, ok := m.Remaining(env.exam.ID, env.studentID); ok {
		t.Fatal("Remaining reported for unknown pair")
	}

	if _, err := m.Start(context.Background(), env.exam.ID, env.studentID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	remaining, ok := m.Remaining(env.exam.ID, env.studentID)
	if !ok {
		t.Fatal("Remaining missing for live pair")
	}
	if remaining != 10*time.Minute {
		t.Fatalf("expected 10m, got %s", remaining)
	}
}

func TestManagerShutdownLeavesAttemptsResumable(t *testing.T) {
	m, env := newTestManager(t)

	ctrl, err := m.Start(context.Background(), env.exam.ID, env.studentID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	attemptID := ctrl.Attempt().ID

	m.Shutdown()

	if ctrl.Finalized() {
		t.Fatal("Shutdown must not finalize attempts")
	}
	stored, err := env.store.FindByStudentAndExam(context.Background(), env.studentID, env.exam.ID)
	if err != nil {
		t.Fatalf("FindByStudentAndExam: %v", err)
	}
	if stored.Status != model.AttemptStatusInProgress {
		t.Fatalf("expected IN_PROGRESS after shutdown, got %s", stored.Status)
	}
	if stored.ID != attemptID {
		t.Fatal("attempt identity changed across shutdown")
	}
}
