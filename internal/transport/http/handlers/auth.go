package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/infra/config"
	"github.com/arklim/smart-grocery-api/internal/transport/http/middleware"
	"github.com/arklim/smart-grocery-api/internal/usecase"
)

// AuthHandler serves registration, login, logout, and the password flows.
type AuthHandler struct {
	auth   *usecase.AuthService
	resets *usecase.PasswordResetService
	cfg    *config.AppConfig
	logger *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, resets *usecase.PasswordResetService, cfg *config.AppConfig, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthHandler{auth: auth, resets: resets, cfg: cfg, logger: log}
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid registration payload"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusBadRequest, Message: "Email already registered"},
			{Err: usecase.ErrEmailInvalid, Status: http.StatusBadRequest, Message: "Invalid email address"},
			{Err: usecase.ErrNewPasswordInvalid, Status: http.StatusBadRequest, Message: "Password does not meet requirements"},
		}, http.StatusInternalServerError, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{ID: user.ID, Email: user.Email})
}

// Token exchanges form credentials for a session token. The token is also
// installed as the session cookie so browser clients need nothing more.
func (h *AuthHandler) Token(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "username and password are required"})
		return
	}

	token, _, err := h.auth.Login(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Incorrect email or password"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Failed to log in"})
		return
	}

	SetSessionCookie(c, h.cfg.Auth, token)
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Logout clears the session cookie. Tokens simply age out; there is no
// server-side session state to tear down.
func (h *AuthHandler) Logout(c *gin.Context) {
	ClearSessionCookie(c, h.cfg.Auth)
	c.Status(http.StatusNoContent)
}

// ChangePassword updates the authenticated user's password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid payload"})
		return
	}

	err := h.resets.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrCurrentPasswordRequired, Status: http.StatusBadRequest, Message: "Current password is required"},
			{Err: usecase.ErrCurrentPasswordInvalid, Status: http.StatusBadRequest, Message: "Current password is incorrect"},
			{Err: usecase.ErrNewPasswordInvalid, Status: http.StatusBadRequest, Message: "Password does not meet requirements"},
		}, http.StatusInternalServerError, "Failed to change password")
		return
	}

	c.Status(http.StatusNoContent)
}

// ForgotPassword starts the reset flow. The response never reveals whether
// the email matched an account; outside production it carries the reset URL
// so local flows work without a mail provider.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid payload"})
		return
	}

	result, err := h.resets.RequestReset(c.Request.Context(), usecase.ResetRequestInput{
		Email:        req.Email,
		CaptchaToken: req.CaptchaToken,
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailInvalid, Status: http.StatusBadRequest, Message: "Invalid email address"},
			{Err: usecase.ErrCaptchaFailed, Status: http.StatusBadRequest, Message: "Captcha verification failed"},
		}, http.StatusInternalServerError, "Failed to process request")
		return
	}

	resp := ForgotPasswordResponse{OK: true}
	if h.cfg.App.Env != "production" {
		resp.ResetURL = result.ResetURL
	}

	c.JSON(http.StatusOK, resp)
}

// ResetPassword redeems a reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid payload"})
		return
	}

	if err := h.resets.ConfirmReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetTokenInvalid, Status: http.StatusBadRequest, Message: "Invalid or expired token"},
			{Err: usecase.ErrNewPasswordInvalid, Status: http.StatusBadRequest, Message: "Password does not meet requirements"},
		}, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	c.Status(http.StatusNoContent)
}
