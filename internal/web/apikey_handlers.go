package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/rentshed/internal/auth"
)

// apikeyHandlers holds API key management HTTP handlers.
type apikeyHandlers struct {
	apiKeys *auth.APIKeyStore
}

type apiKeyResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

type apiKeyCreateResponse struct {
	Key            string         `json:"key"` // raw key, shown once
	APIKeyResponse apiKeyResponse `json:"api_key"`
}

func toAPIKeyResponse(k auth.APIKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		CreatedAt: k.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format("2006-01-02T15:04:05Z")
		resp.LastUsedAt = &s
	}
	return resp
}

// handleKeys lists the caller's keys or creates a new one.
func (h *apikeyHandlers) handleKeys(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListKeys(w, r)
	case http.MethodPost:
		h.handleCreateKey(w, r)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCreateKey generates a new API key owned by the caller.
func (h *apikeyHandlers) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := h.apiKeys.Create(name, auth.EmailFromContext(r.Context()))
	if err != nil {
		slog.Error("creating api key", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKeyResponse: toAPIKeyResponse(*key)}, http.StatusCreated)
}

// handleListKeys returns the caller's keys without the raw values.
func (h *apikeyHandlers) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.apiKeys.List(auth.EmailFromContext(r.Context()))
	if err != nil {
		slog.Error("listing api keys", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]apiKeyResponse, len(keys))
	for i, k := range keys {
		resp[i] = toAPIKeyResponse(k)
	}
	apiJSON(w, resp, http.StatusOK)
}

// handleDeleteKey revokes one of the caller's keys.
func (h *apikeyHandlers) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/keys/")
	if id == "" {
		apiError(w, "key ID is required", http.StatusBadRequest)
		return
	}

	if err := h.apiKeys.Delete(id, auth.EmailFromContext(r.Context())); err != nil {
		apiError(w, "key not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
