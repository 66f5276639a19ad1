package domain

import "errors"

var (
	// authentication — the connection attempt is refused, no state created
	ErrMissingToken     = errors.New("missing token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrIdentityNotFound = errors.New("identity not found")

	// validation — the event is rejected, the connection stays open
	ErrInvalidRoomID      = errors.New("invalid room id")
	ErrInvalidMessageID   = errors.New("invalid message id")
	ErrEmptyContent       = errors.New("empty message content")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMalformedEvent     = errors.New("malformed event payload")
	ErrUnknownEvent       = errors.New("unknown event type")

	// not found
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")

	// authorization
	ErrNotAParticipant = errors.New("identity is not a room participant")
	ErrNotSender       = errors.New("identity is not the message sender")

	// store failure — retryable, no broadcast happened
	ErrStore = errors.New("store failure")
)

// Error envelope codes pushed to clients.
const (
	CodeAuthentication  = "authentication_error"
	CodeValidation      = "validation_error"
	CodeNotFound        = "not_found"
	CodeForbidden       = "authorization_error"
	CodeStoreFailure    = "store_failure"
	CodeSessionReplaced = "session_replaced"
	CodeInternal        = "internal_error"
)

// ErrorCode classifies an error into its envelope code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrIdentityNotFound):
		return CodeAuthentication
	case errors.Is(err, ErrInvalidRoomID),
		errors.Is(err, ErrInvalidMessageID),
		errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrInvalidMessageType),
		errors.Is(err, ErrMalformedEvent),
		errors.Is(err, ErrUnknownEvent):
		return CodeValidation
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrMessageNotFound):
		return CodeNotFound
	case errors.Is(err, ErrNotAParticipant),
		errors.Is(err, ErrNotSender):
		return CodeForbidden
	case errors.Is(err, ErrStore):
		return CodeStoreFailure
	default:
		return CodeInternal
	}
}
