package handlers

import (
	"net/http"

	"github.com/brainiak-app/brainiak-core/middleware"
	"github.com/brainiak-app/brainiak-core/services"
)

type MatchmakingHandler struct {
	matchmakingService *services.MatchmakingService
}

func NewMatchmakingHandler(matchmakingService *services.MatchmakingService) *MatchmakingHandler {
	return &MatchmakingHandler{matchmakingService: matchmakingService}
}

func (h *MatchmakingHandler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req services.JoinQueueRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.matchmakingService.JoinQueue(r.Context(), userID, req)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, state, nil)
}

func (h *MatchmakingHandler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.matchmakingService.LeaveQueue(r.Context(), userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "left"}, nil)
}

func (h *MatchmakingHandler) CheckMatch(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	state, err := h.matchmakingService.CheckMatch(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state, nil)
}
