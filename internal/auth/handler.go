package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shopfloor/product-catalog/pkg/auth"
	"github.com/shopfloor/product-catalog/pkg/logger"
)

// LoginHandler handles admin login requests
type LoginHandler struct {
	verifier CredentialVerifier
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(verifier CredentialVerifier) *LoginHandler {
	return &LoginHandler{verifier: verifier}
}

// RegisterRoutes registers the auth routes
func (h *LoginHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/auth/login", h.Login).Methods("POST")
}

// Login handles POST /api/auth/login
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"message": "Invalid request body",
		})
		return
	}

	if !h.verifier.Verify(req.Username, req.Password) {
		logger.Logger.Warn().
			Str("username", req.Username).
			Msg("Rejected login attempt")
		respondJSON(w, http.StatusUnauthorized, map[string]string{
			"message": "Invalid credentials",
		})
		return
	}

	token, err := auth.GenerateToken(req.Username, "admin")
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to generate token")
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Login failed",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]string{
			"username": req.Username,
			"role":     "admin",
		},
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
