package events

// Client-facing messages.
const (
	MsgTitleRequired          = "title is required"
	MsgEventNotFound          = "event not found"
	MsgUserNotFound           = "user not found"
	MsgAlreadyParticipant     = "user is already a participant of this event"
	MsgParticipantNotFound    = "participant not found for this event"
	MsgConfirmationExpired    = "confirmation deadline has passed"
	MsgCommentRequired        = "comment text is required"
	MsgDateNotInFuture        = "date must be after the current date and time"
	MsgConfirmeUntilNotFuture = "confirme_until must be after the current date and time"
)
