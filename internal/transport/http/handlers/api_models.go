package handlers

import (
	"time"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/usecase"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RegisterRequest defines the payload for account creation.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse echoes the created account.
type RegisterResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ChangePasswordRequest defines the authenticated password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ForgotPasswordRequest defines the forgot-password payload.
type ForgotPasswordRequest struct {
	Email        string `json:"email" binding:"required"`
	CaptchaToken string `json:"captcha_token"`
}

// ForgotPasswordResponse is deliberately uniform; ResetURL appears only
// outside production deployments.
type ForgotPasswordResponse struct {
	OK       bool   `json:"ok"`
	ResetURL string `json:"reset_url,omitempty"`
}

// RunRemindersResponse reports how many reminder digests went out.
type RunRemindersResponse struct {
	OK   bool `json:"ok"`
	Sent int  `json:"sent"`
}

// ResetPasswordRequest defines the reset confirmation payload.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ProfileResponse describes the authenticated account.
type ProfileResponse struct {
	ID      int64   `json:"id"`
	Email   string  `json:"email"`
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}

// ProfileUpdateRequest carries a partial profile update. Empty strings clear
// the corresponding field.
type ProfileUpdateRequest struct {
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}

// ListCreateRequest defines the payload for creating or renaming a list.
type ListCreateRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListResponse describes a list with the caller's effective role.
type ListResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ListDetailResponse includes the list contents.
type ListDetailResponse struct {
	ListResponse
	Items []ItemResponse `json:"items"`
}

// ItemCreateRequest defines the payload for adding an item.
type ItemCreateRequest struct {
	Name     string     `json:"name" binding:"required"`
	Quantity int        `json:"quantity"`
	Expiry   *time.Time `json:"expiry"`
	RemindOn *time.Time `json:"remind_on"`
}

// ItemUpdateRequest carries a partial item update.
type ItemUpdateRequest struct {
	Name      *string    `json:"name"`
	Quantity  *int       `json:"quantity"`
	Expiry    *time.Time `json:"expiry"`
	Purchased *bool      `json:"purchased"`
	RemindOn  *time.Time `json:"remind_on"`
}

// ItemResponse describes a list item.
type ItemResponse struct {
	ID         int64      `json:"id"`
	ListID     int64      `json:"list_id"`
	Name       string     `json:"name"`
	Quantity   int        `json:"quantity"`
	Expiry     *time.Time `json:"expiry"`
	Purchased  bool       `json:"purchased"`
	RemindOn   *time.Time `json:"remind_on"`
	RemindedAt *time.Time `json:"reminded_at"`
}

// ShareCreateRequest defines the payload for granting list access.
type ShareCreateRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

// ShareUpdateRequest defines the payload for changing a grant's role.
type ShareUpdateRequest struct {
	Role string `json:"role" binding:"required"`
}

// ShareResponse describes a grant on a list.
type ShareResponse struct {
	ID        int64     `json:"id"`
	ListID    int64     `json:"list_id"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	Hidden    bool      `json:"hidden"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func newProfileResponse(user *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.Picture,
	}
}

func newListResponse(list domain.GroceryList, role domain.ListRole) ListResponse {
	return ListResponse{
		ID:        list.ID,
		Name:      list.Name,
		OwnerID:   list.OwnerID,
		Role:      string(role),
		CreatedAt: list.CreatedAt,
	}
}

func newItemResponse(item domain.ListItem) ItemResponse {
	return ItemResponse{
		ID:         item.ID,
		ListID:     item.ListID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		Expiry:     item.Expiry,
		Purchased:  item.Purchased,
		RemindOn:   item.RemindOn,
		RemindedAt: item.RemindedAt,
	}
}

func newShareResponse(share domain.ListShare, email string) ShareResponse {
	return ShareResponse{
		ID:        share.ID,
		ListID:    share.ListID,
		UserID:    share.UserID,
		Email:     email,
		Role:      string(share.Role),
		Hidden:    share.Hidden,
		CreatedAt: share.CreatedAt,
	}
}

func newShareGrantResponse(grant usecase.ShareGrant) ShareResponse {
	return newShareResponse(grant.Share, grant.Email)
}
