// Package clients provides the client and contract bounded context module.
package clients

import (
	"assurdesk_backend/internal/auth/policy"
	"assurdesk_backend/internal/clients/handler"
	"assurdesk_backend/internal/clients/repository"
	"assurdesk_backend/internal/clients/service"
	"assurdesk_backend/internal/events"
	apphttp "assurdesk_backend/internal/http"
	"assurdesk_backend/platform/config"
	"assurdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the clients bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the clients module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, rescorer service.Rescorer, cfg config.PhoneConfig, validate *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, rescorer, cfg)
	h := handler.New(svc, validate)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "clients"
}

// Service returns the clients service for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts client routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	read := ctx.Protected.Group("")
	read.GET("/clients", m.handler.List)
	read.GET("/clients/:id", m.handler.Get)

	write := ctx.Protected.Group("", policy.Require(policy.RoleAdmin, policy.RoleAgent))
	write.POST("/clients", m.handler.Create)
	write.PATCH("/clients/:id", m.handler.Update)
	write.DELETE("/clients/:id", m.handler.Delete)
	write.POST("/clients/:id/contracts", m.handler.AddContract)
	write.PATCH("/clients/:id/contracts/:contractId", m.handler.UpdateContractStatus)
	write.POST("/clients/:id/rescore", m.handler.Rescore)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
