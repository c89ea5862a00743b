package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeMissingField   = "missing_field"

	// Team errors
	ErrCodeTeamCreationFailed = "team_creation_failed"
	ErrCodeTeamUpdateFailed   = "team_update_failed"
	ErrCodeJoinFailed         = "join_failed"
	ErrCodeLeaveFailed        = "leave_failed"
	ErrCodeNoMembership       = "no_team_membership"
	ErrCodeInvalidTeamID      = "invalid_team_id"

	// Game control errors
	ErrCodeGameControlFailed     = "game_control_failed"
	ErrCodeQuestionControlFailed = "question_control_failed"

	// Resource errors
	ErrCodeNotFound = "not_found"

	// Server errors
	ErrCodeInternalError = "internal_error"
)
