package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brainiak-app/brainiak-core/middleware"
	"github.com/brainiak-app/brainiak-core/services"
)

type BattleRoomHandler struct {
	battleRoomService *services.BattleRoomService
}

func NewBattleRoomHandler(battleRoomService *services.BattleRoomService) *BattleRoomHandler {
	return &BattleRoomHandler{battleRoomService: battleRoomService}
}

func (h *BattleRoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req services.CreateBattleRoomRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.battleRoomService.CreateRoom(r.Context(), userID, req)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room, nil)
}

func (h *BattleRoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.battleRoomService.GetRoom(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room, nil)
}

func (h *BattleRoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.battleRoomService.JoinRoom(r.Context(), userID, req.InviteCode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room, nil)
}

func (h *BattleRoomHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req struct {
		Ready bool `json:"ready"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.battleRoomService.SetReady(r.Context(), userID, chi.URLParam(r, "roomID"), req.Ready)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room, nil)
}

func (h *BattleRoomHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	start, err := h.battleRoomService.StartGame(r.Context(), userID, chi.URLParam(r, "roomID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, start, nil)
}

func (h *BattleRoomHandler) CancelRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.battleRoomService.CancelRoom(r.Context(), userID, chi.URLParam(r, "roomID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "cancelled"}, nil)
}
