package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tanpawarit/outreach-agent/internal/model"
	"github.com/tanpawarit/outreach-agent/internal/service"
)

const (
	msgCampaignCreated  = "Campaign created successfully"
	msgCampaignNotFound = "Campaign not found"
	msgSequenceNotFound = "Sequence not found"
)

type createCampaignRequest struct {
	UserID      *int64  `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	TargetRole  *string `json:"target_role"`
	Industry    *string `json:"industry"`
}

type createCampaignResponse struct {
	CampaignID int64  `json:"campaign_id"`
	Message    string `json:"message"`
}

func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}

	c, err := h.manager.CreateCampaign(r.Context(), service.CreateCampaignInput{
		UserID:      int64Value(req.UserID),
		Name:        req.Name,
		Description: req.Description,
		TargetRole:  req.TargetRole,
		Industry:    req.Industry,
	})
	if err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}

	writeJSON(w, http.StatusOK, createCampaignResponse{CampaignID: c.ID, Message: msgCampaignCreated})
}

func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("user_id")), 10, 64)

	campaigns, err := h.manager.ListCampaigns(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Campaign{"campaigns": campaigns})
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}

	c, err := h.manager.GetCampaign(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type generateSequenceRequest struct {
	CompanyValues       string `json:"company_values"`
	UniqueSellingPoints string `json:"unique_selling_points"`
}

type sequenceResponse struct {
	SequenceID int64                  `json:"sequence_id"`
	Sequence   model.SequenceDocument `json:"sequence"`
}

func (h *Handler) GenerateSequence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}

	var req generateSequenceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}

	seq, err := h.manager.GenerateCampaignSequence(r.Context(), id, service.SequenceExtras{
		CompanyValues:       req.CompanyValues,
		UniqueSellingPoints: req.UniqueSellingPoints,
	})
	if err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sequenceResponse{SequenceID: seq.ID, Sequence: seq.SequenceData})
}

func (h *Handler) ListSequences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}

	seqs, err := h.manager.ListSequences(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgCampaignNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.OutreachSequence{"sequences": seqs})
}

type editSequenceRequest struct {
	EditInstructions string `json:"edit_instructions"`
}

func (h *Handler) EditSequence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, msgSequenceNotFound)
		return
	}

	var req editSequenceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, msgSequenceNotFound)
		return
	}

	seq, err := h.manager.EditSequence(r.Context(), id, req.EditInstructions)
	if err != nil {
		writeError(w, r, err, msgSequenceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sequenceResponse{SequenceID: seq.ID, Sequence: seq.SequenceData})
}
