// Package api exposes the personal-secret service over HTTP. All routes
// require a bearer token; the actor it encodes scopes every operation.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orgvault/orgvault/internal/logging"
	"github.com/orgvault/orgvault/internal/server/models"
	"github.com/orgvault/orgvault/internal/server/services"
)

// SecretAccess is the slice of the secret service the handlers need.
type SecretAccess interface {
	Create(ctx context.Context, in services.CreateSecretInput) (string, error)
	List(ctx context.Context, in services.ListSecretsInput) (*services.ListSecretsResult, error)
	GetByID(ctx context.Context, actor models.ActorContext, secretID string) (*models.UserSecret, error)
	Update(ctx context.Context, in services.UpdateSecretInput) (*models.UserSecret, error)
	Delete(ctx context.Context, actor models.ActorContext, secretID string) (*models.UserSecret, error)
}

type Server struct {
	secrets   SecretAccess
	secretKey []byte
	logger    logging.Logger
}

func NewServer(secrets SecretAccess, secretKey []byte, logger logging.Logger) *Server {
	return &Server{
		secrets:   secrets,
		secretKey: secretKey,
		logger:    logger.With("module", "api"),
	}
}

// Handler builds the full route tree, ready to be served.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Mount("/api/v1/user-secrets", s.secretRoutes())
	return r
}

func (s *Server) secretRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authenticate)
	r.Get("/", s.handleList)
	r.Post("/", s.handleCreate)
	r.Get("/{secretID}", s.handleGet)
	r.Patch("/{secretID}", s.handleUpdate)
	r.Delete("/{secretID}", s.handleDelete)
	return r
}
