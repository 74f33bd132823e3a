package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/transport/http/middleware"
	"github.com/arklim/smart-grocery-api/internal/usecase"
)

// ShareHandler serves list sharing endpoints. Everything here is owner only;
// non-owners see the same 404 a stranger would.
type ShareHandler struct {
	shares *usecase.ShareService
}

// NewShareHandler constructs a ShareHandler.
func NewShareHandler(shares *usecase.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

var shareErrorCases = []ErrorCase{
	{Err: usecase.ErrListNotFound, Status: http.StatusNotFound, Message: "List not found"},
	{Err: usecase.ErrShareNotFound, Status: http.StatusNotFound, Message: "Share not found"},
	{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
	{Err: usecase.ErrSelfShare, Status: http.StatusBadRequest, Message: "Cannot share a list with yourself"},
	{Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "Role must be editor or viewer"},
	{Err: usecase.ErrEmailInvalid, Status: http.StatusBadRequest, Message: "Invalid email address"},
}

// Index lists the grants on an owned list.
func (h *ShareHandler) Index(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	listID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "List not found"})
		return
	}

	grants, err := h.shares.Shares(c.Request.Context(), user.ID, listID)
	if err != nil {
		RespondWithMappedError(c, err, shareErrorCases, http.StatusInternalServerError, "Failed to load shares")
		return
	}

	resp := make([]ShareResponse, 0, len(grants))
	for _, grant := range grants {
		resp = append(resp, newShareGrantResponse(grant))
	}

	c.JSON(http.StatusOK, resp)
}

// Create grants a user access to an owned list. Granting to a user who
// already holds a share updates the role in place.
func (h *ShareHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	listID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "List not found"})
		return
	}

	var req ShareCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Email and role are required"})
		return
	}

	grant, err := h.shares.Grant(c.Request.Context(), user.ID, listID, req.Email, domain.ShareRole(req.Role))
	if err != nil {
		RespondWithMappedError(c, err, shareErrorCases, http.StatusInternalServerError, "Failed to share list")
		return
	}

	c.JSON(http.StatusCreated, newShareGrantResponse(*grant))
}

// Update changes an existing grant's role.
func (h *ShareHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	listID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "List not found"})
		return
	}

	shareID, ok := pathID(c, "share_id")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Share not found"})
		return
	}

	var req ShareUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Role is required"})
		return
	}

	share, err := h.shares.UpdateRole(c.Request.Context(), user.ID, listID, shareID, domain.ShareRole(req.Role))
	if err != nil {
		RespondWithMappedError(c, err, shareErrorCases, http.StatusInternalServerError, "Failed to update share")
		return
	}

	c.JSON(http.StatusOK, newShareResponse(*share, ""))
}

// Delete revokes a grant.
func (h *ShareHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	listID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "List not found"})
		return
	}

	shareID, ok := pathID(c, "share_id")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Share not found"})
		return
	}

	if err := h.shares.Revoke(c.Request.Context(), user.ID, listID, shareID); err != nil {
		RespondWithMappedError(c, err, shareErrorCases, http.StatusInternalServerError, "Failed to revoke share")
		return
	}

	c.Status(http.StatusNoContent)
}
