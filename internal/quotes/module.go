// Package quotes provides the quote bounded context module.
package quotes

import (
	"assurdesk_backend/internal/auth/policy"
	"assurdesk_backend/internal/events"
	apphttp "assurdesk_backend/internal/http"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/internal/quotes/handler"
	"assurdesk_backend/internal/quotes/repository"
	"assurdesk_backend/internal/quotes/service"
	"assurdesk_backend/platform/logger"
	"assurdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the quotes bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the quotes module. The directory resolves
// conversations and client contacts; the completer closes a conversation when
// its quote is accepted.
func NewModule(pool *pgxpool.Pool, outboxRepo *outbox.Repository, directory service.ConversationDirectory, completer service.ConversationCompleter, bus events.Bus, log *logger.Logger, validate *validator.Validator) *Module {
	repo := repository.New(pool, outboxRepo)
	svc := service.New(repo, directory, completer, bus, log)
	h := handler.New(svc, validate)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the quotes service for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts quote routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	read := ctx.Protected.Group("")
	read.GET("/quotes/:id", m.handler.Get)
	read.GET("/conversations/:id/quotes", m.handler.ListByConversation)

	write := ctx.Protected.Group("", policy.Require(policy.RoleAdmin, policy.RoleAgent))
	write.POST("/quotes", m.handler.Create)
	write.POST("/quotes/:id/send", m.handler.Send)
	write.PATCH("/quotes/:id/status", m.handler.UpdateStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
