package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/gestorb3/src/config"
	"github.com/username/gestorb3/src/database"
	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/model"
	"github.com/username/gestorb3/src/security"
	"github.com/username/gestorb3/src/utils"
)

// contextKey is unexported so no other package can collide with the
// values this package stores in request contexts.
type contextKey string

const userIDContextKey contextKey = "userID"

// GetUserIDFromContext returns the authenticated user ID placed in the
// context by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

type UserHandler struct {
	authService *security.AuthService
}

func NewUserHandler(authService *security.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	logger.FromContext(r.Context()).Info("Login attempt", "username", credentials.Username)

	user, err := model.GetUserByUsername(database.DB, credentials.Username)
	if err != nil {
		logger.L.Warn("User lookup failed", "username", credentials.Username, "error", err)
		utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if err := user.CheckPassword(credentials.Password); err != nil {
		logger.L.Warn("Password check failed", "username", credentials.Username)
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

	session := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		IsBlocked:    false,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if credentials.Username == "" || len(credentials.Password) < 8 {
		utils.SendJSONError(w, "Username is required and password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hashedPassword, err := h.authService.HashPassword(credentials.Password)
	if err != nil {
		utils.SendJSONError(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Username: credentials.Username,
		Email:    credentials.Email,
		Password: hashedPassword,
	}
	if err := user.CreateUser(database.DB); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			utils.SendJSONError(w, "Username already taken", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create user", "username", credentials.Username, "error", err)
		utils.SendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User registered", "userID", user.ID, "username", user.Username)
	w.WriteHeader(http.StatusCreated)
	utils.SendJSON(w, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if requestBody.RefreshToken == "" {
		utils.SendJSONError(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	session, err := model.GetSessionByRefreshToken(database.DB, requestBody.RefreshToken)
	if err != nil {
		logger.L.Warn("Refresh token lookup failed", "error", err)
		utils.SendJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	userIDStr := fmt.Sprintf("%d", session.UserID)
	newAccessToken, err := h.authService.GenerateToken(userIDStr)
	if err != nil {
		utils.SendJSONError(w, "Failed to generate new access token", http.StatusInternalServerError)
		return
	}
	newRefreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		utils.SendJSONError(w, "Failed to generate new refresh token", http.StatusInternalServerError)
		return
	}

	newSession := &model.Session{
		UserID:       session.UserID,
		Token:        newAccessToken,
		RefreshToken: newRefreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		IsBlocked:    false,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, newSession); err != nil {
		utils.SendJSONError(w, "Failed to create new session on refresh", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{
		"access_token":  newAccessToken,
		"refresh_token": newRefreshToken,
	})
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
		return
	}
	if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
		logger.L.Error("Failed to delete session on logout", "error", err)
		utils.SendJSONError(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "logged out"})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}

func (h *UserHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			logger.L.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		userIDStr, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		if _, err := model.GetSessionByToken(database.DB, tokenString); err != nil {
			logger.L.Warn("AuthMiddleware: Session validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}

		userIDInt, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			logger.L.Error("AuthMiddleware: Invalid user ID format in token", "userIDStr", userIDStr, "error", err)
			utils.SendJSONError(w, "Invalid user ID in token", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userIDInt)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
