package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/username/recurro/backend/src/config"
	"github.com/username/recurro/backend/src/database"
	"github.com/username/recurro/backend/src/logger"
	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/security"
	"github.com/username/recurro/backend/src/utils"
)

type UserHandler struct {
	authService *security.AuthService
}

func NewUserHandler(authService *security.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(creds.Username) < 3 || len(creds.Password) < 8 {
		utils.SendJSONError(w, "Username must be at least 3 and password at least 8 characters", http.StatusBadRequest)
		return
	}

	hashed, err := h.authService.HashPassword(creds.Password)
	if err != nil {
		utils.SendJSONError(w, "Failed to process password", http.StatusInternalServerError)
		return
	}
	user := &models.User{Username: creds.Username, Password: hashed}
	if err := user.CreateUser(database.DB); err != nil {
		logger.L.Warn("Registration failed", "username", creds.Username, "error", err)
		utils.SendJSONError(w, "Username already taken", http.StatusConflict)
		return
	}

	logger.L.Info("User registered", "userID", user.ID, "username", user.Username)
	utils.SendJSON(w, user, http.StatusCreated)
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := models.GetUserByUsername(database.DB, creds.Username)
	if err != nil {
		utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err := user.CheckPassword(creds.Password); err != nil {
		utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	userIDStr := fmt.Sprintf("%d", user.ID)
	accessToken, err := h.authService.GenerateToken(userIDStr)
	if err != nil {
		utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		utils.SendJSONError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	session := &models.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := models.CreateSession(database.DB, session); err != nil {
		logger.L.Error("Failed to create session", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]any{
		"token":        accessToken,
		"refreshToken": refreshToken,
		"user":         user,
	}, http.StatusOK)
}

func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		utils.SendJSONError(w, "refreshToken is required", http.StatusBadRequest)
		return
	}

	session, err := models.GetSessionByRefreshToken(database.DB, req.RefreshToken)
	if err != nil || session.IsBlocked || time.Now().After(session.ExpiresAt) {
		utils.SendJSONError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.authService.GenerateToken(fmt.Sprintf("%d", session.UserID))
	if err != nil {
		utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		utils.SendJSONError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}
	expiresAt := time.Now().Add(config.Cfg.RefreshTokenExpiry)
	if err := models.UpdateSessionTokens(database.DB, session.ID, accessToken, refreshToken, expiresAt); err != nil {
		utils.SendJSONError(w, "Failed to rotate session", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{
		"token":        accessToken,
		"refreshToken": refreshToken,
	}, http.StatusOK)
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if err := models.DeleteSessionsForUser(database.DB, userID); err != nil {
		logger.L.Error("Failed to delete sessions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}
