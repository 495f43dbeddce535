package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DulakshanaMalith/Photography-Learning/internal/auth"
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
)

// UserLookup is the directory slice the validator needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// ValidateRequest is the internal token-validation request body.
type ValidateRequest struct {
	Token string `json:"token"`
}

// ValidateResponse carries the authenticated principal.
type ValidateResponse struct {
	UserID string `json:"user_id"`
}

// ValidateToken verifies a session token and confirms the subject is a known
// user. Other services call this over the internal network only.
func ValidateToken(verifier *auth.Verifier, users UserLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, err := verifier.UserID(req.Token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := users.GetByID(r.Context(), userID); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, ValidateResponse{UserID: userID})
	}
}
