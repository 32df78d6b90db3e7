package types

const (
	PublicHTTPErrorTypeGeneric          = "generic"
	PublicHTTPErrorTypeMaxAttempts      = "max_attempts_reached"
	PublicHTTPErrorTypeInvalidState     = "invalid_session_state"
	PublicHTTPErrorTypeJustification    = "justification_required"
	PublicHTTPErrorTypeSessionNotFound  = "session_not_found"
	PublicHTTPErrorTypeValidationFailed = "validation_failed"
)
