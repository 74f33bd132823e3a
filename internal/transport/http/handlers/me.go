package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/smart-grocery-api/internal/transport/http/middleware"
	"github.com/arklim/smart-grocery-api/internal/usecase"
)

// MeHandler serves the authenticated user's profile.
type MeHandler struct {
	users *usecase.UserService
}

// NewMeHandler constructs a MeHandler.
func NewMeHandler(users *usecase.UserService) *MeHandler {
	return &MeHandler{users: users}
}

// Get returns the current profile.
func (h *MeHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

// Update applies a partial profile update. Absent fields are untouched;
// empty strings clear the field.
func (h *MeHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid payload"})
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, usecase.ProfileUpdateInput{
		Name:    req.Name,
		Picture: req.Picture,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidPictureURL, Status: http.StatusBadRequest, Message: "Picture must be a valid http(s) URL"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		}, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(updated))
}
