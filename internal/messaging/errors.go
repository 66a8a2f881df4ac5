package messaging

import "errors"

var (
	// ErrReceiverNotFound means a send targeted a participant that the
	// directory does not know. Nothing durable happens in that case.
	ErrReceiverNotFound = errors.New("receiver not found")

	// ErrNotAParticipant means the actor referenced a conversation they
	// are not part of.
	ErrNotAParticipant = errors.New("not a conversation participant")

	// ErrNotSender means a delete was attempted by someone other than
	// the message's sender.
	ErrNotSender = errors.New("only the sender can delete a message")

	// ErrInvalidContent covers empty or oversized message bodies.
	ErrInvalidContent = errors.New("invalid message content")

	// ErrSelfMessage means sender and receiver are the same participant.
	ErrSelfMessage = errors.New("cannot message yourself")
)
