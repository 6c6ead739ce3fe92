package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrCooldownActive      ErrCode = "COOLDOWN_ACTIVE"
	ErrSequenceLocked      ErrCode = "SEQUENCE_LOCKED"
	ErrNoQuestions         ErrCode = "NO_QUESTIONS"
	ErrSessionNotFound     ErrCode = "SESSION_NOT_FOUND"
	ErrSessionNotStarted   ErrCode = "SESSION_NOT_STARTED"
	ErrSessionCompleted    ErrCode = "SESSION_COMPLETED"
	ErrSessionConflict     ErrCode = "SESSION_CONFLICT"
	ErrUnknownQuestion     ErrCode = "UNKNOWN_QUESTION"
	ErrResultNotSaved      ErrCode = "RESULT_NOT_SAVED"
	ErrSessionInconsistent ErrCode = "SESSION_INCONSISTENT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrCooldownActive:
		return "This round is temporarily frozen after a failed attempt."
	case ErrSequenceLocked:
		return "Previous rounds in this track must be cleared first."
	case ErrNoQuestions:
		return "This round has no questions available."
	case ErrSessionNotFound:
		return "No open session exists for this round."
	case ErrSessionNotStarted:
		return "The session has not been started yet."
	case ErrSessionCompleted:
		return "The session is already completed."
	case ErrSessionConflict:
		return "A submission for this session is already in progress."
	case ErrUnknownQuestion:
		return "The question is not part of this session."
	case ErrResultNotSaved:
		return "The result could not be saved. Please retry the submission."
	case ErrSessionInconsistent:
		return "The stored session state is inconsistent. Please contact support."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
