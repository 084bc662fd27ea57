package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/drawphone/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeGameNotFound            = "GAME_NOT_FOUND"
	CodeFrameNotFound           = "FRAME_NOT_FOUND"
	CodePlayerNotFound          = "PLAYER_NOT_FOUND"
	CodeGameAlreadyComplete     = "GAME_ALREADY_COMPLETE"
	CodeInsufficientPlayers     = "INSUFFICIENT_PLAYERS"
	CodeAlreadyInGame           = "ALREADY_IN_GAME"
	CodeNotInGame               = "NOT_IN_GAME"
	CodeTurnAlreadyPlayed       = "TURN_ALREADY_PLAYED"
	CodeTurnAlreadyComplete     = "TURN_ALREADY_COMPLETE"
	CodePrecedingTurnIncomplete = "PRECEDING_TURN_INCOMPLETE"
	CodeInconsistentTurnState   = "INCONSISTENT_TURN_STATE"
	CodeEmptyCaption            = "EMPTY_CAPTION"
	CodeInvalidImage            = "INVALID_IMAGE"
	CodeInvalidRole             = "INVALID_ROLE"
	CodeInvalidRedirect         = "INVALID_REDIRECT"
	CodeConflict                = "CONFLICT"
	CodeInternalError           = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// kindMapping pairs a sentinel error with how it is reported
type kindMapping struct {
	kind    error
	status  int
	code    string
	message string
}

var kindMappings = []kindMapping{
	{model.ErrGameNotFound, http.StatusNotFound, CodeGameNotFound, "Game not found"},
	{model.ErrFrameNotFound, http.StatusNotFound, CodeFrameNotFound, "Turn not found"},
	{model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound, "Player not found"},
	{model.ErrGameAlreadyComplete, http.StatusConflict, CodeGameAlreadyComplete, "Game is already complete"},
	{model.ErrInsufficientPlayers, http.StatusConflict, CodeInsufficientPlayers, "Not enough players to start"},
	{model.ErrAlreadyInGame, http.StatusConflict, CodeAlreadyInGame, "Already in this game"},
	{model.ErrNotInGame, http.StatusForbidden, CodeNotInGame, "Not in this game"},
	{model.ErrTurnAlreadyPlayed, http.StatusConflict, CodeTurnAlreadyPlayed, "Turn has already been played"},
	{model.ErrTurnAlreadyComplete, http.StatusConflict, CodeTurnAlreadyComplete, "Turn is already complete"},
	{model.ErrPrecedingTurnIncomplete, http.StatusConflict, CodePrecedingTurnIncomplete, "Previous turn has not been played"},
	{model.ErrInconsistentTurnState, http.StatusConflict, CodeInconsistentTurnState, "Wrong kind of turn"},
	{model.ErrEmptyCaption, http.StatusBadRequest, CodeEmptyCaption, "Caption is empty"},
	{model.ErrInvalidImage, http.StatusBadRequest, CodeInvalidImage, "Image could not be read"},
	{model.ErrInvalidRole, http.StatusBadRequest, CodeInvalidRole, "Unknown role"},
	{model.ErrRedirectCycle, http.StatusBadRequest, CodeInvalidRedirect, "Redirect would form a cycle"},
	{model.ErrRedirectTooDeep, http.StatusBadRequest, CodeInvalidRedirect, "Redirect chain too deep"},
	{model.ErrConflict, http.StatusConflict, CodeConflict, "Game was modified concurrently, try again"},
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	gle, isLogic := model.AsGameLogicError(err)
	for _, m := range kindMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		message := m.message
		if isLogic && len(gle.Message) > 0 {
			message = gle.Message.String()
		}
		return &httpError{m.status, APIError{m.code, message}}
	}

	if isLogic {
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, gle.Message.String()}}
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewNotFoundError reports a missing game without revealing whether it exists
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
