package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/models"
	"github.com/orgvault/orgvault/internal/server/services"
)

type secretRequest struct {
	Name           string            `json:"name"`
	CredentialType string            `json:"credentialType"`
	SecretData     map[string]string `json:"secretData"`
	Metadata       map[string]string `json:"metadata"`
}

type createResponse struct {
	ID string `json:"id"`
}

type listResponse struct {
	Secrets    []secretResponse `json:"secrets"`
	TotalCount int              `json:"totalCount"`
}

func decodeSecretRequest(r *http.Request) (*secretRequest, error) {
	var req secretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: malformed request body", common.ErrorValidation)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	kind := models.CredentialKind(req.CredentialType)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown credential type", common.ErrorValidation)
	}
	return &req, nil
}

// parsePage reads offset and limit query parameters, applying the documented
// defaults when a parameter is absent. Out-of-range values are passed through
// so the service rejects them.
func parsePage(r *http.Request) (offset, limit int, err error) {
	offset = 0
	limit = services.DefaultListLimit

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: offset must be an integer", common.ErrorValidation)
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: limit must be an integer", common.ErrorValidation)
		}
	}
	return offset, limit, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrInvalidToken)
		return
	}

	req, err := decodeSecretRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := s.secrets.Create(r.Context(), services.CreateSecretInput{
		Actor:          *actor,
		Name:           req.Name,
		CredentialKind: models.CredentialKind(req.CredentialType),
		SecretData:     req.SecretData,
		Metadata:       req.Metadata,
	})
	if err != nil {
		s.logger.Error(r.Context(), "create secret failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createResponse{ID: id})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrInvalidToken)
		return
	}

	offset, limit, err := parsePage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.secrets.List(r.Context(), services.ListSecretsInput{
		Actor:  *actor,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error(r.Context(), "list secrets failed", "error", err)
		writeError(w, err)
		return
	}

	resp := listResponse{
		Secrets:    make([]secretResponse, 0, len(result.Secrets)),
		TotalCount: result.TotalCount,
	}
	for _, secret := range result.Secrets {
		resp.Secrets = append(resp.Secrets, toSecretResponse(secret))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrInvalidToken)
		return
	}

	secret, err := s.secrets.GetByID(r.Context(), *actor, chi.URLParam(r, "secretID"))
	if err != nil {
		s.logger.Error(r.Context(), "get secret failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSecretResponse(secret))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrInvalidToken)
		return
	}

	req, err := decodeSecretRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.secrets.Update(r.Context(), services.UpdateSecretInput{
		Actor:          *actor,
		SecretID:       chi.URLParam(r, "secretID"),
		Name:           req.Name,
		CredentialKind: models.CredentialKind(req.CredentialType),
		SecretData:     req.SecretData,
		Metadata:       req.Metadata,
	})
	if err != nil {
		s.logger.Error(r.Context(), "update secret failed", "error", err)
		writeError(w, err)
		return
	}

	// Field values stay sealed here; only GetByID returns plaintext.
	writeJSON(w, http.StatusOK, toSecretResponse(updated))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrInvalidToken)
		return
	}

	deleted, err := s.secrets.Delete(r.Context(), *actor, chi.URLParam(r, "secretID"))
	if err != nil {
		s.logger.Error(r.Context(), "delete secret failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSecretResponse(deleted))
}
