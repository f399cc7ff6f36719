// Package analytics provides the reporting module.
package analytics

import (
	"assurdesk_backend/internal/analytics/handler"
	"assurdesk_backend/internal/analytics/repository"
	"assurdesk_backend/internal/analytics/service"
	"assurdesk_backend/internal/auth/policy"
	apphttp "assurdesk_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the analytics module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the analytics module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{handler: handler.New(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// RegisterRoutes mounts analytics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	reporting := ctx.Protected.Group("", policy.Require(policy.RoleAdmin, policy.RoleValidator))
	reporting.GET("/analytics/summary", m.handler.Summary)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
