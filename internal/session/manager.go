package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type pairKey struct {
	ExamID    uuid.UUID
	StudentID uuid.UUID
}

// Manager keys live controllers by (student, exam) so every caller of
// Start — two tabs included — shares one controller per pair within the
// process. Creation holds the map lock, so two concurrent starts for the
// same pair cannot both create; the store's keyed insert guards the
// cross-process case.
type Manager struct {
	mu       sync.Mutex
	launcher *Launcher
	active   map[pairKey]*Controller
	log      zerolog.Logger
}

// NewManager creates a Manager around the given launcher.
func NewManager(launcher *Launcher, log zerolog.Logger) *Manager {
	return &Manager{
		launcher: launcher,
		active:   make(map[pairKey]*Controller),
		log:      log.With().Str("component", "session_manager").Logger(),
	}
}

// Start returns the pair's live controller, creating one when none is
// registered. A controller created for an already submitted attempt is
// returned unregistered: it only serves the stored result.
func (m *Manager) Start(ctx context.Context, examID, studentID uuid.UUID) (*Controller, error) {
	key := pairKey{ExamID: examID, StudentID: studentID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ctrl, ok := m.active[key]; ok {
		return ctrl, nil
	}

	ctrl, err := m.launcher.Start(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	if !ctrl.Finalized() {
		ctrl.onDone = func() { m.remove(key) }
		m.active[key] = ctrl
		m.log.Debug().
			Stringer("exam_id", examID).
			Stringer("student_id", studentID).
			Msg("Session registered")
	}
	return ctrl, nil
}

// Get returns the live controller for the pair, if any.
func (m *Manager) Get(examID, studentID uuid.UUID) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.active[pairKey{ExamID: examID, StudentID: studentID}]
	return ctrl, ok
}

// Remaining reports the countdown for a live pair controller, or false
// when none is registered.
func (m *Manager) Remaining(examID, studentID uuid.UUID) (time.Duration, bool) {
	ctrl, ok := m.Get(examID, studentID)
	if !ok {
		return 0, false
	}
	return ctrl.Remaining(), true
}

// Shutdown closes every live controller without finalizing, leaving the
// attempts resumable. Used on graceful server stop.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	controllers := make([]*Controller, 0, len(m.active))
	for _, ctrl := range m.active {
		controllers = append(controllers, ctrl)
	}
	m.mu.Unlock()

	for _, ctrl := range controllers {
		ctrl.Close()
	}
}

func (m *Manager) remove(key pairKey) {
	// Called from Controller.haltLocked; never touches controller state,
	// so the c.mu -> m.mu order cannot invert.
	m.mu.Lock()
	delete(m.active, key)
	m.mu.Unlock()
}
