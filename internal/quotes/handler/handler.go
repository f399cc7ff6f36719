// Package handler exposes the quote HTTP endpoints.
package handler

import (
	"net/http"

	"assurdesk_backend/internal/quotes/domain"
	"assurdesk_backend/internal/quotes/service"
	"assurdesk_backend/internal/quotes/transport"
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

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateQuoteRequest
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

	input := service.CreateQuoteInput{
		ConversationID: conversationID,
		ValidUntil:     req.ValidUntil,
		Items:          make([]service.ItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.ItemInput{
			Label:          item.Label,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	quote, err := h.svc.Create(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toQuoteResponse(quote))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	quote, items, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.QuoteDetailResponse{
		QuoteResponse: toQuoteResponse(quote),
		Items:         make([]transport.QuoteItemResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, transport.QuoteItemResponse{
			ID:             item.ID.String(),
			Label:          item.Label,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Send(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	quote, err := h.svc.Send(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toQuoteResponse(quote))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateQuoteStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	quote, err := h.svc.UpdateStatus(c.Request.Context(), id, domain.QuoteStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toQuoteResponse(quote))
}

func (h *Handler) ListByConversation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	quotes, err := h.svc.ListByConversation(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.QuoteResponse, 0, len(quotes))
	for _, quote := range quotes {
		items = append(items, toQuoteResponse(quote))
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toQuoteResponse(quote domain.Quote) transport.QuoteResponse {
	return transport.QuoteResponse{
		ID:             quote.ID.String(),
		ConversationID: quote.ConversationID.String(),
		ClientID:       quote.ClientID.String(),
		Reference:      quote.Reference,
		Status:         string(quote.Status),
		TotalCents:     quote.TotalCents,
		ValidUntil:     quote.ValidUntil,
		SentAt:         quote.SentAt,
		CreatedAt:      quote.CreatedAt,
		UpdatedAt:      quote.UpdatedAt,
	}
}
