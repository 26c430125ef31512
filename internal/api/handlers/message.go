package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dom/courier-backend/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type SendMessageRequest struct {
	Text        string          `json:"text"`
	Attachments json.RawMessage `json:"attachments,omitempty"`
}

type UpdateMessageRequest struct {
	Text string `json:"text"`
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	message, err := h.messageService.SendMessage(r.Context(), service.SendMessageInput{
		AuthorID:    userID,
		ChatID:      chatID,
		Text:        req.Text,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}
	messageID, ok := messageIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	message, err := h.messageService.UpdateMessage(r.Context(), service.UpdateMessageInput{
		CallerID:  userID,
		ChatID:    chatID,
		MessageID: messageID,
		Text:      req.Text,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, message)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}
	messageID, ok := messageIDParam(w, r)
	if !ok {
		return
	}

	err := h.messageService.DeleteMessage(r.Context(), service.DeleteMessageInput{
		CallerID:  userID,
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := callerAndChat(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	messages, err := h.messageService.GetChatMessages(r.Context(), service.GetChatMessagesInput{
		CallerID: userID,
		ChatID:   chatID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func messageIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	messageID, err := strconv.ParseInt(chi.URLParam(r, "messageId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid message id", http.StatusBadRequest)
		return 0, false
	}
	return messageID, true
}
