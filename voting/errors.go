package voting

import "errors"

// Every failure a participant can hit has its own kind so the transport
// layer can render a distinct, actionable message.
var (
	ErrInvalidParticipant   = errors.New("participant details are incomplete")
	ErrTournamentNotFound   = errors.New("no tournament exists for this code")
	ErrTournamentClosed     = errors.New("the organizer has closed this tournament")
	ErrUnauthorizedDirector = errors.New("employee identifier is not on the director list")
	ErrAlreadyVoted         = errors.New("this participant already voted in this tournament")
	ErrIncompleteAnswer     = errors.New("answer is incomplete for the configured voting method")
	ErrSessionNotFound      = errors.New("unknown or expired session")
	ErrSessionCompleted     = errors.New("session already completed")
	ErrStoreTimeout         = errors.New("storage did not answer in time")
	ErrPersistence          = errors.New("storage operation failed")
)
