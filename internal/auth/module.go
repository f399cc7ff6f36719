// Package auth provides the authentication bounded context module.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"assurdesk_backend/internal/auth/handler"
	"assurdesk_backend/internal/auth/policy"
	"assurdesk_backend/internal/auth/repository"
	"assurdesk_backend/internal/auth/service"
	apphttp "assurdesk_backend/internal/http"
	"assurdesk_backend/platform/config"
	"assurdesk_backend/platform/logger"
	"assurdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig combines the config interfaces the auth module needs.
type ModuleConfig interface {
	config.AuthServiceConfig
	config.CookieConfig
}

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg ModuleConfig, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, cfg, validate)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes with stricter rate limiting
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	authGroup.POST("/sign-in", m.handler.SignIn)
	authGroup.POST("/refresh", m.handler.Refresh)
	authGroup.POST("/sign-out", m.handler.SignOut)

	// Protected user routes
	ctx.Protected.GET("/users/me", m.handler.GetMe)

	// Admin routes
	admin := ctx.Protected.Group("", policy.Require(policy.RoleAdmin))
	admin.GET("/users", m.handler.ListUsers)
	admin.POST("/users", m.handler.CreateUser)
	admin.PUT("/users/:id/roles", m.handler.SetUserRoles)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
