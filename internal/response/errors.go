package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrNotAdministrator ErrCode = "NOT_ADMINISTRATOR"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrInvalidIdentity ErrCode = "INVALID_IDENTITY"
	ErrInvalidAmount   ErrCode = "INVALID_AMOUNT"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrProgramNotFound ErrCode = "PROGRAM_NOT_FOUND"

	// ─── Scholarship-specific ──────────────────────────────────────────
	ErrProgramInactive      ErrCode = "PROGRAM_INACTIVE"
	ErrDuplicateApplication ErrCode = "DUPLICATE_APPLICATION"
	ErrIneligible           ErrCode = "INELIGIBLE"
	ErrInsufficientFunds    ErrCode = "INSUFFICIENT_FUNDS"

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
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrNotAdministrator:
		return "Only the administrator may perform this action."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidIdentity:
		return "Identity is not a valid wallet address."
	case ErrInvalidAmount:
		return "Amount must be a positive integer."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrProgramNotFound:
		return "Scholarship program not found."

	// ─── Scholarship-specific ──────────────────────────────────────────
	case ErrProgramInactive:
		return "This program is no longer accepting applications."
	case ErrDuplicateApplication:
		return "You have already applied to this program."
	case ErrIneligible:
		return "Application does not meet the program thresholds."
	case ErrInsufficientFunds:
		return "Program balance cannot cover the award."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
