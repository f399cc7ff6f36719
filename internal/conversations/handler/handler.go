// Package handler exposes the conversation, message, and validation queue
// HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"

	"assurdesk_backend/internal/conversations/domain"
	"assurdesk_backend/internal/conversations/repository"
	"assurdesk_backend/internal/conversations/service"
	"assurdesk_backend/internal/conversations/transport"
	"assurdesk_backend/platform/httpkit"
	"assurdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) CreateConversation(c *gin.Context) {
	var req transport.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	input := service.CreateConversationInput{
		ClientID: clientID,
		Subject:  req.Subject,
	}
	if req.Status != nil {
		status := domain.ConversationStatus(*req.Status)
		input.Status = &status
	}

	conv, err := h.svc.CreateConversation(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toConversationResponse(conv))
}

func (h *Handler) GetConversation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	conv, err := h.svc.GetConversation(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toConversationResponse(conv))
}

func (h *Handler) ListConversations(c *gin.Context) {
	var params repository.ListConversationsParams

	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.ClientID = &clientID
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.ConversationStatus(raw)
		params.Status = &status
	}
	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.Completed = &completed
	}

	conversations, err := h.svc.ListConversations(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		items = append(items, toConversationResponse(conv))
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}

func (h *Handler) ListMessages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	messages, err := h.svc.ListMessages(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		items = append(items, toMessageResponse(msg))
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}

func (h *Handler) Complete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.CompleteConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	conv, err := h.svc.Complete(c.Request.Context(), id, domain.CompletionReason(req.Reason))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toConversationResponse(conv))
}

func (h *Handler) CreateMessage(c *gin.Context) {
	var req transport.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	msg, err := h.svc.CreateMessage(c.Request.Context(), service.CreateMessageInput{
		ConversationID: conversationID,
		Sender:         domain.Sender(req.Sender),
		Direction:      domain.Direction(req.Direction),
		Subject:        req.Subject,
		Body:           req.Body,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toMessageResponse(msg))
}

func (h *Handler) GetMessage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	msg, err := h.svc.GetMessage(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toMessageResponse(msg))
}

func (h *Handler) Validate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ValidateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	input := service.ValidateInput{
		Action:      req.Action,
		EditedBody:  req.EditedBody,
		IsCompleted: req.IsCompleted,
	}
	if req.ConversationStatus != nil {
		status := domain.ConversationStatus(*req.ConversationStatus)
		input.ConversationStatus = &status
	}

	msg, err := h.svc.Validate(c.Request.Context(), id, identity.UserID(), input)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toMessageResponse(msg))
}

func (h *Handler) ValidationQueue(c *gin.Context) {
	items, err := h.svc.ValidationQueue(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.QueueItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, transport.QueueItemResponse{
			Message:             toMessageResponse(item.Message),
			ConversationSubject: item.ConversationSubject,
			ConversationStatus:  string(item.ConversationStatus),
			ClientID:            item.ClientID.String(),
			ClientName:          item.ClientFirstName + " " + item.ClientLastName,
			ClientEmail:         item.ClientEmail,
			OpportunityScore:    item.OpportunityScore,
		})
	}
	httpkit.OK(c, gin.H{"items": resp, "total": len(resp)})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toConversationResponse(conv domain.Conversation) transport.ConversationResponse {
	resp := transport.ConversationResponse{
		ID:             conv.ID.String(),
		ClientID:       conv.ClientID.String(),
		Subject:        conv.Subject,
		Status:         string(conv.Status),
		IsCompleted:    conv.IsCompleted,
		MessageCount:   conv.MessageCount,
		LastActivityAt: conv.LastActivityAt,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}
	if conv.CompletionReason != nil {
		reason := string(*conv.CompletionReason)
		resp.CompletionReason = &reason
	}
	return resp
}

func toMessageResponse(msg domain.Message) transport.MessageResponse {
	resp := transport.MessageResponse{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		Sender:         string(msg.Sender),
		Direction:      string(msg.Direction),
		Subject:        msg.Subject,
		Body:           msg.Body,
		OriginalBody:   msg.OriginalBody,
		IsModified:     msg.IsModified,
		Status:         string(msg.Status),
		ValidatedAt:    msg.ValidatedAt,
		CreatedAt:      msg.CreatedAt,
		UpdatedAt:      msg.UpdatedAt,
	}
	if msg.ValidatedBy != nil {
		validatedBy := msg.ValidatedBy.String()
		resp.ValidatedBy = &validatedBy
	}
	return resp
}
