// Package conversations provides the conversation and message bounded
// context module, including the AI draft validation workflow.
package conversations

import (
	"assurdesk_backend/internal/auth/policy"
	"assurdesk_backend/internal/conversations/handler"
	"assurdesk_backend/internal/conversations/repository"
	"assurdesk_backend/internal/conversations/service"
	"assurdesk_backend/internal/events"
	apphttp "assurdesk_backend/internal/http"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/platform/logger"
	"assurdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the conversations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the conversations module with all its
// dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, outboxRepo *outbox.Repository, log *logger.Logger, validate *validator.Validator) *Module {
	repo := repository.New(pool, outboxRepo)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, validate)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversations"
}

// Service returns the conversations service for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts conversation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	read := ctx.Protected.Group("")
	read.GET("/conversations", m.handler.ListConversations)
	read.GET("/conversations/:id", m.handler.GetConversation)
	read.GET("/conversations/:id/messages", m.handler.ListMessages)
	read.GET("/messages/:id", m.handler.GetMessage)

	write := ctx.Protected.Group("", policy.Require(policy.RoleAdmin, policy.RoleAgent))
	write.POST("/conversations", m.handler.CreateConversation)
	write.POST("/conversations/:id/complete", m.handler.Complete)
	write.POST("/messages", m.handler.CreateMessage)

	review := ctx.Protected.Group("", policy.Require(policy.RoleAdmin, policy.RoleValidator))
	review.GET("/validation/queue", m.handler.ValidationQueue)
	review.PATCH("/messages/:id/validate", m.handler.Validate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
