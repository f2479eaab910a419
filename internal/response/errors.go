package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam & session ────────────────────────────────────────────────
	ErrExamNotFound       ErrCode = "EXAM_NOT_FOUND"
	ErrExamInactive       ErrCode = "EXAM_INACTIVE"
	ErrExamLocked         ErrCode = "EXAM_LOCKED"
	ErrNotExamOwner       ErrCode = "NOT_EXAM_OWNER"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"
	ErrSessionFinalized   ErrCode = "SESSION_FINALIZED"
	ErrInvalidAnswerIndex ErrCode = "INVALID_ANSWER_INDEX"
	ErrQuestionNotFound   ErrCode = "QUESTION_NOT_FOUND"

	// ─── Storage ───────────────────────────────────────────────────────
	ErrPersistence ErrCode = "PERSISTENCE_ERROR"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam & session ────────────────────────────────────────────────
	case ErrExamNotFound:
		return "The exam does not exist."
	case ErrExamInactive:
		return "The exam is not currently active."
	case ErrExamLocked:
		return "The exam cannot be modified once attempts exist."
	case ErrNotExamOwner:
		return "You are not the owner of this exam."
	case ErrNoQuestions:
		return "The exam has no questions."
	case ErrSessionFinalized:
		return "The attempt has already been submitted."
	case ErrInvalidAnswerIndex:
		return "The selected option is out of range for this question."
	case ErrQuestionNotFound:
		return "The question does not belong to this exam."

	// ─── Storage ───────────────────────────────────────────────────────
	case ErrPersistence:
		return "A temporary storage error occurred. Please retry."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
