// Package handler exposes the client and contract HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"

	"assurdesk_backend/internal/clients/repository"
	"assurdesk_backend/internal/clients/service"
	"assurdesk_backend/internal/clients/transport"
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
	var req transport.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	client, err := h.svc.CreateClient(c.Request.Context(), service.CreateClientInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Age:       req.Age,
		Job:       req.Job,
		Notes:     req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toClientResponse(client))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	client, contracts, err := h.svc.GetClient(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ClientDetailResponse{
		ClientResponse: toClientResponse(client),
		Contracts:      make([]transport.ContractResponse, 0, len(contracts)),
	}
	for _, contract := range contracts {
		resp.Contracts = append(resp.Contracts, toContractResponse(contract))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	client, err := h.svc.UpdateClient(c.Request.Context(), id, service.UpdateClientInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Age:       req.Age,
		Job:       req.Job,
		Notes:     req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toClientResponse(client))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteClient(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "client deleted"})
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	input := service.ListClientsInput{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	clients, total, err := h.svc.ListClients(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ClientListResponse{
		Items: make([]transport.ClientResponse, 0, len(clients)),
		Total: total,
		Page:  input.Page,
		Limit: input.Limit,
	}
	for _, client := range clients {
		resp.Items = append(resp.Items, toClientResponse(client))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) AddContract(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.AddContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	contract, err := h.svc.AddContract(c.Request.Context(), id, service.AddContractInput{
		Type:         req.Type,
		PolicyNumber: req.PolicyNumber,
		Status:       req.Status,
		PremiumCents: req.PremiumCents,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toContractResponse(contract))
}

func (h *Handler) UpdateContractStatus(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("contractId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateContractStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	contract, err := h.svc.SetContractStatus(c.Request.Context(), contractID, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toContractResponse(contract))
}

func (h *Handler) Rescore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	score, err := h.svc.Rescore(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.RescoreResponse{ClientID: id.String(), OpportunityScore: score})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toClientResponse(client repository.Client) transport.ClientResponse {
	return transport.ClientResponse{
		ID:               client.ID.String(),
		FirstName:        client.FirstName,
		LastName:         client.LastName,
		Email:            client.Email,
		Phone:            client.Phone,
		Address:          client.Address,
		Age:              client.Age,
		Job:              client.Job,
		Notes:            client.Notes,
		LastContactAt:    client.LastContactAt,
		OpportunityScore: client.OpportunityScore,
		CreatedAt:        client.CreatedAt,
		UpdatedAt:        client.UpdatedAt,
	}
}

func toContractResponse(contract repository.Contract) transport.ContractResponse {
	return transport.ContractResponse{
		ID:           contract.ID.String(),
		ClientID:     contract.ClientID.String(),
		Type:         contract.Type,
		PolicyNumber: contract.PolicyNumber,
		Status:       contract.Status,
		PremiumCents: contract.PremiumCents,
		StartDate:    contract.StartDate,
		EndDate:      contract.EndDate,
		CreatedAt:    contract.CreatedAt,
		UpdatedAt:    contract.UpdatedAt,
	}
}
