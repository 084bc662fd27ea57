package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/drawphone/internal/api/request"
	"github.com/mcoot/drawphone/internal/api/response"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/game"
)

// MaxListLimit caps how many games a listing returns
const MaxListLimit = 100

// GameHandler handles game and turn endpoints
type GameHandler struct {
	games *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *game.Controller) *GameHandler {
	return &GameHandler{games: games}
}

// List handles GET /api/v1/games
//
// Query parameters: completed (bool), channel ("platform:id"), limit (int),
// sample (bool, random selection instead of most recent)
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	games, err := h.games.ListGames(r.Context(), opts)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.GameList{Games: make([]response.GameSummary, len(games))}
	for i, g := range games {
		resp.Games[i] = response.GameSummaryFromModel(g)
	}
	response.JSON(w, http.StatusOK, resp)
}

func listOptions(r *http.Request) (game.ListOptions, error) {
	q := r.URL.Query()
	opts := game.ListOptions{Limit: 20}

	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("completed must be true or false")
		}
		opts.Completed = &completed
	}
	if v := q.Get("channel"); v != "" {
		platform, id, ok := strings.Cut(v, ":")
		if !ok || id == "" {
			return opts, errors.New("channel must be platform:id")
		}
		channel, err := request.Channel{Platform: platform, ID: id}.ToModel()
		if err != nil {
			return opts, err
		}
		opts.Channel = &channel
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return opts, errors.New("limit must be a positive integer")
		}
		opts.Limit = min(limit, MaxListLimit)
	}
	if v := q.Get("sample"); v != "" {
		sample, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("sample must be true or false")
		}
		opts.Sample = sample
	}
	return opts, nil
}

// Get handles GET /api/v1/games/{name}
// Only finished games are visible, so turns in progress stay secret.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := model.GameName(mux.Vars(r)["name"])

	g, err := h.games.GetGame(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !g.IsComplete {
		WriteError(w, NewNotFoundError())
		return
	}

	ids := make([]model.PlayerID, len(g.Frames))
	for i, f := range g.Frames {
		ids[i] = f.PlayerID
	}
	players, err := h.games.GetPlayers(r.Context(), ids)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g, players))
}

// TurnInput handles GET /api/v1/games/{name}/frames/{frame}
func (h *GameHandler) TurnInput(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	input, err := h.games.GetTurnInput(r.Context(), model.GameName(vars["name"]), model.FrameID(vars["frame"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Private(w, http.StatusOK, response.TurnInputFromModel(input))
}

// SubmitCaption handles PUT /api/v1/games/{name}/frames/{frame}/caption
func (h *GameHandler) SubmitCaption(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req request.CaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	g, err := h.games.SubmitCaption(r.Context(), model.GameName(vars["name"]), model.FrameID(vars["frame"]), req.Text)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TurnPlayed{
		Game:         string(g.Name),
		FrameID:      vars["frame"],
		GameComplete: g.IsComplete,
	})
}

// SubmitImage handles PUT /api/v1/games/{name}/frames/{frame}/image
// The request body is the raw image.
func (h *GameHandler) SubmitImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	g, err := h.games.SubmitImage(r.Context(), model.GameName(vars["name"]), model.FrameID(vars["frame"]), r.Body)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TurnPlayed{
		Game:         string(g.Name),
		FrameID:      vars["frame"],
		GameComplete: g.IsComplete,
	})
}
