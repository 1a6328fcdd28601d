package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"loan-ledger/internal/api/handler/dto"
	mw "loan-ledger/internal/api/middleware"
	"loan-ledger/internal/config"
	"loan-ledger/internal/pkg/apperrors"

	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	cfg    config.AuthConfig
	users  map[string]config.UserConfig
	now    func() time.Time
	logger *slog.Logger
}

func NewAuthHandler(cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	users := make(map[string]config.UserConfig, len(cfg.Users))
	for _, u := range cfg.Users {
		users[u.Username] = u
	}
	return &AuthHandler{
		cfg:    cfg,
		users:  users,
		now:    time.Now,
		logger: l.With("component", "AuthHandler"),
	}
}

// GenerateBearerToken exchanges operator credentials for a signed token.
//
// @Summary Generate a JWT bearer token
// @Description Checks the username and password against the configured operators and returns a token carrying the operator's role.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Operator credentials"
// @Success 200 {object} dto.TokenResponse "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid token request", "error", err)
		respondError(w, err)
		return
	}

	user, ok := h.users[req.Username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.logger.WarnContext(r.Context(), "Rejected credentials", "username", req.Username)
		respondError(w, fmt.Errorf("%w: bad username or password", apperrors.ErrUnauthorized))
		return
	}

	now := h.now()
	token, err := mw.IssueToken(h.cfg.JWTSecret, user.Username, user.Role, h.cfg.TokenTTL, now)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", "error", err)
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInternalServer, err))
		return
	}

	h.logger.InfoContext(r.Context(), "Issued bearer token", "username", user.Username, "role", user.Role)
	respondJSON(w, http.StatusOK, dto.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		Role:      user.Role,
		ExpiresAt: now.Add(h.cfg.TokenTTL).UTC(),
	})
}
