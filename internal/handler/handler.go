package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	"github.com/tanpawarit/outreach-agent/internal/service"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	manager *service.OutreachManager
}

func New(manager *service.OutreachManager) *Handler {
	return &Handler{manager: manager}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Post("/chat", h.Chat)
	r.Get("/conversations/{id}", h.GetConversation)

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", h.CreateCampaign)
		r.Get("/", h.ListCampaigns)
		r.Get("/{id}", h.GetCampaign)
		r.Post("/{id}/sequence", h.GenerateSequence)
		r.Get("/{id}/sequences", h.ListSequences)
	})

	r.Post("/sequences/{id}/edit", h.EditSequence)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Health(r.Context()))
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps sentinel errors to status codes. notFound is the message
// shown for contractx.ErrNotFound.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validationMessage(err)})
	case errors.Is(err, contractx.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: notFound})
	default:
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	}
}

// validationMessage strips the sentinel prefix from "validation failed: <msg>".
func validationMessage(err error) string {
	msg := err.Error()
	prefix := contractx.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid request body: %v", contractx.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", contractx.ErrValidation, raw)
	}
	return id, nil
}

func int64Value(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
