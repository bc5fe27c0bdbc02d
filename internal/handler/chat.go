package handler

import (
	"net/http"

	"github.com/tanpawarit/outreach-agent/internal/service"
)

const msgConversationNotFound = "Conversation not found"

type chatRequest struct {
	UserID         *int64 `json:"user_id"`
	CampaignID     *int64 `json:"campaign_id"`
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, msgConversationNotFound)
		return
	}

	res, err := h.manager.HandleChat(r.Context(), service.ChatInput{
		UserID:         int64Value(req.UserID),
		CampaignID:     req.CampaignID,
		Message:        req.Message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		writeError(w, r, err, msgConversationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, msgConversationNotFound)
		return
	}

	conv, err := h.manager.GetConversation(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgConversationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
