package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/models"
)

// errorDetail is the stable wire form of a failure: a machine-readable code
// and a human-readable message. Plaintext secret values never appear here.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type secretResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	CredentialType string            `json:"credentialType"`
	SecretData     map[string]string `json:"secretData"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	UserID         string            `json:"userId"`
	OrgID          string            `json:"orgId"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func toSecretResponse(s *models.UserSecret) secretResponse {
	return secretResponse{
		ID:             s.ID,
		Name:           s.Name,
		CredentialType: string(s.CredentialKind),
		SecretData:     s.SecretData,
		Metadata:       s.Metadata,
		UserID:         s.UserID,
		OrgID:          s.OrgID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP statuses. Unknown
// errors collapse to a generic 500 so storage details never reach clients.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var detail errorDetail

	switch {
	case errors.Is(err, common.ErrorValidation):
		status = http.StatusUnprocessableEntity
		detail = errorDetail{Code: "validation_error", Message: err.Error()}
	case errors.Is(err, common.ErrorForbidden):
		status = http.StatusForbidden
		detail = errorDetail{Code: "forbidden", Message: err.Error()}
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
		detail = errorDetail{Code: "not_found", Message: err.Error()}
	case errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
		detail = errorDetail{Code: "unauthorized", Message: "invalid or missing access token"}
	case errors.Is(err, common.ErrorDecryptionFailed):
		status = http.StatusInternalServerError
		detail = errorDetail{Code: "decryption_failed", Message: "unable to decrypt secret data"}
	default:
		status = http.StatusInternalServerError
		detail = errorDetail{Code: "internal_error", Message: "internal error"}
	}

	writeJSON(w, status, errorResponse{Error: detail})
}
