package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/drawphone/internal/api/request"
	"github.com/mcoot/drawphone/internal/api/response"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/chat"
)

// ChatHandler accepts commands forwarded by chat platform adapters
type ChatHandler struct {
	commands *chat.Handler
}

// NewChatHandler creates a new chat handler
func NewChatHandler(commands *chat.Handler) *ChatHandler {
	return &ChatHandler{commands: commands}
}

// Command handles POST /api/v1/chat/commands
func (h *ChatHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req request.ChatCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	cmd, err := toCommand(req)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	reply, err := h.commands.Handle(r.Context(), cmd)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ChatReply{Reply: reply.String()})
}

func toCommand(req request.ChatCommandRequest) (chat.Command, error) {
	channel, err := req.Channel.ToModel()
	if err != nil {
		return chat.Command{}, err
	}
	sender, err := req.Sender.ToModel()
	if err != nil {
		return chat.Command{}, err
	}
	mentions := make([]model.PlayerRef, 0, len(req.Mentions))
	for _, m := range req.Mentions {
		ref, err := m.ToModel()
		if err != nil {
			return chat.Command{}, err
		}
		mentions = append(mentions, ref)
	}
	return chat.Command{Channel: channel, Sender: sender, Text: req.Text, Mentions: mentions}, nil
}
