package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound  = errors.New("player not found")
	ErrRedirectCycle   = errors.New("preferred player redirect forms a cycle")
	ErrRedirectTooDeep = errors.New("preferred player redirect chain too deep")
	ErrInvalidRole     = errors.New("invalid role")
	ErrUnknownPlatform = errors.New("unknown platform")

	// Game errors
	ErrGameNotFound            = errors.New("game not found")
	ErrGameExists              = errors.New("game already exists")
	ErrGameAlreadyComplete     = errors.New("game is already complete")
	ErrInsufficientPlayers     = errors.New("insufficient players to start game")
	ErrAlreadyInGame           = errors.New("player is already in game")
	ErrNotInGame               = errors.New("player is not in game")
	ErrTurnAlreadyPlayed       = errors.New("player has already played their turn")
	ErrFrameNotFound           = errors.New("frame not found")
	ErrTurnAlreadyComplete     = errors.New("turn already complete")
	ErrPrecedingTurnIncomplete = errors.New("preceding turn not played")
	ErrInconsistentTurnState   = errors.New("previous turn state is inconsistent")
	ErrEmptyCaption            = errors.New("caption is empty")
	ErrInvalidImage            = errors.New("image could not be decoded")

	// Storage errors
	ErrConflict = errors.New("concurrent modification conflict")
)

// GameLogicError is an expected, user-correctable failure. Its message is
// meant to be shown to the user verbatim.
type GameLogicError struct {
	Kind    error
	Message Message
}

// NewGameLogicError creates a GameLogicError of the given kind
func NewGameLogicError(kind error, chunks ...Chunk) *GameLogicError {
	return &GameLogicError{Kind: kind, Message: NewMessage(chunks...)}
}

// Error implements the error interface
func (e *GameLogicError) Error() string {
	return e.Message.String()
}

// Unwrap allows errors.Is to match on the kind
func (e *GameLogicError) Unwrap() error {
	return e.Kind
}

// AsGameLogicError extracts a GameLogicError from an error chain
func AsGameLogicError(err error) (*GameLogicError, bool) {
	var gle *GameLogicError
	if errors.As(err, &gle) {
		return gle, true
	}
	return nil, false
}
