package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dom/courier-backend/internal/api/middleware"
	"github.com/dom/courier-backend/internal/service"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
	Shortname   string `json:"shortname"`
}

type UpdateGroupRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Shortname   *string `json:"shortname"`
}

type MakePublicRequest struct {
	Shortname string `json:"shortname"`
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	chat, err := h.groupService.CreateGroup(r.Context(), service.CreateGroupInput{
		CreatorID:   userID,
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		Shortname:   req.Shortname,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	chat, err := h.groupService.UpdateGroup(r.Context(), service.UpdateGroupInput{
		CallerID:    userID,
		ChatID:      chatID,
		Name:        req.Name,
		Description: req.Description,
		Shortname:   req.Shortname,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chat)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}

	err := h.groupService.DeleteGroup(r.Context(), service.DeleteGroupInput{
		CallerID: userID,
		ChatID:   chatID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) MakePublic(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}

	var req MakePublicRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.groupService.MakePublicGroup(r.Context(), service.MakePublicGroupInput{
		CallerID:  userID,
		ChatID:    chatID,
		Shortname: req.Shortname,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) MakePrivate(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}

	err := h.groupService.MakePrivateGroup(r.Context(), service.MakePrivateGroupInput{
		CallerID: userID,
		ChatID:   chatID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}

	err := h.groupService.JoinGroup(r.Context(), service.JoinGroupInput{
		UserID: userID,
		ChatID: chatID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}

	err := h.groupService.LeaveGroup(r.Context(), service.LeaveGroupInput{
		UserID: userID,
		ChatID: chatID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) GetByShortname(w http.ResponseWriter, r *http.Request) {
	chat, err := h.groupService.GetByShortname(r.Context(), chi.URLParam(r, "shortname"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chat)
}

func callerAndChat(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		http.Error(w, "Invalid chat id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, chatID, true
}
