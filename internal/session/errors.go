package session

import (
	"errors"
	"fmt"
)

// Domain errors. These are terminal for the triggering call and surfaced
// directly to the caller; only PersistenceError is retryable.
var (
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamInactive       = errors.New("exam is not active")
	ErrSessionFinalized   = errors.New("attempt has already been submitted")
	ErrInvalidAnswerIndex = errors.New("selected option index out of range")
	ErrQuestionNotFound   = errors.New("question does not belong to this exam")

	// ErrNoAttempt is returned by Store.FindByStudentAndExam when no
	// attempt exists for the (student, exam) pair.
	ErrNoAttempt = errors.New("no attempt for student and exam")

	// ErrDuplicateAttempt is returned by Store.CreateAttempt when an
	// attempt for the pair already exists. A concurrent Start resolves
	// this by re-fetching the winner's row.
	ErrDuplicateAttempt = errors.New("attempt already exists for student and exam")
)

// PersistenceError wraps a transient storage failure. The caller may retry
// the operation: Start is safe to retry because of lookup-before-create,
// Finalize because the status flip is a compare-and-swap.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
