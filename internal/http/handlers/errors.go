package handlers

// Error codes carried in ErrorResponse.Code. Generic codes mirror their HTTP
// status; the *_failed codes name the operation that failed server-side.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	ErrCodeIdempotencyMismatch = "idempotency_key_reused"

	ErrCodeChatFailed    = "chat_failed"
	ErrCodeListFailed    = "list_failed"
	ErrCodeHistoryFailed = "history_failed"
)
