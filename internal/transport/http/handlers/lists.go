package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/transport/http/middleware"
	"github.com/arklim/smart-grocery-api/internal/usecase"
)

// ListHandler serves grocery list and list item endpoints.
type ListHandler struct {
	lists *usecase.ListService
}

// NewListHandler constructs a ListHandler.
func NewListHandler(lists *usecase.ListService) *ListHandler {
	return &ListHandler{lists: lists}
}

// pathID parses a numeric path parameter. Malformed IDs read the same as
// missing records, so callers cannot distinguish the two.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

var listErrorCases = []ErrorCase{
	{Err: usecase.ErrListNotFound, Status: http.StatusNotFound, Message: "List not found"},
	{Err: usecase.ErrItemNotFound, Status: http.StatusNotFound, Message: "Item not found"},
}

// Index returns every list visible to the caller.
func (h *ListHandler) Index(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	views, err := h.lists.Lists(c.Request.Context(), user.ID)
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to load lists")
		return
	}

	resp := make([]ListResponse, 0, len(views))
	for _, view := range views {
		resp = append(resp, newListResponse(view.List, view.Role))
	}

	c.JSON(http.StatusOK, resp)
}

// Create makes a new list owned by the caller.
func (h *ListHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	var req ListCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "List name is required"})
		return
	}

	list, err := h.lists.CreateList(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to create list")
		return
	}

	c.JSON(http.StatusCreated, newListResponse(*list, domain.ListRoleOwner))
}

// Get returns one list with its items.
func (h *ListHandler) Get(c *gin.Context) {
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

	detail, err := h.lists.GetList(c.Request.Context(), user.ID, listID)
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to load list")
		return
	}

	items := make([]ItemResponse, 0, len(detail.Items))
	for _, item := range detail.Items {
		items = append(items, newItemResponse(item))
	}

	c.JSON(http.StatusOK, ListDetailResponse{
		ListResponse: newListResponse(detail.List, detail.Role),
		Items:        items,
	})
}

// Rename changes a list's name.
func (h *ListHandler) Rename(c *gin.Context) {
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

	var req ListCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "List name is required"})
		return
	}

	list, err := h.lists.RenameList(c.Request.Context(), user.ID, listID, req.Name)
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to rename list")
		return
	}

	role, err := h.lists.RoleFor(c.Request.Context(), user.ID, listID)
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to rename list")
		return
	}

	c.JSON(http.StatusOK, newListResponse(*list, role))
}

// Delete removes a list. Owner only.
func (h *ListHandler) Delete(c *gin.Context) {
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

	if err := h.lists.DeleteList(c.Request.Context(), user.ID, listID); err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to delete list")
		return
	}

	c.Status(http.StatusNoContent)
}

// Items returns the items on a readable list.
func (h *ListHandler) Items(c *gin.Context) {
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

	items, err := h.lists.Items(c.Request.Context(), user.ID, listID)
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to load items")
		return
	}

	resp := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, newItemResponse(item))
	}

	c.JSON(http.StatusOK, resp)
}

// AddItem appends an item to a writable list.
func (h *ListHandler) AddItem(c *gin.Context) {
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

	var req ItemCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Item name is required"})
		return
	}

	item, err := h.lists.AddItem(c.Request.Context(), user.ID, listID, usecase.ItemInput{
		Name:     req.Name,
		Quantity: req.Quantity,
		Expiry:   req.Expiry,
		RemindOn: req.RemindOn,
	})
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to add item")
		return
	}

	c.JSON(http.StatusCreated, newItemResponse(*item))
}

// UpdateItem applies a partial update to an item.
func (h *ListHandler) UpdateItem(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	itemID, ok := pathID(c, "item_id")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Item not found"})
		return
	}

	var req ItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid payload"})
		return
	}

	input := usecase.ItemInput{
		Expiry:    req.Expiry,
		Purchased: req.Purchased,
		RemindOn:  req.RemindOn,
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Quantity != nil {
		input.Quantity = *req.Quantity
	}

	item, err := h.lists.UpdateItem(c.Request.Context(), user.ID, itemID, input)
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to update item")
		return
	}

	c.JSON(http.StatusOK, newItemResponse(*item))
}

// DeleteItem removes an item.
func (h *ListHandler) DeleteItem(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
		return
	}

	itemID, ok := pathID(c, "item_id")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Item not found"})
		return
	}

	if err := h.lists.DeleteItem(c.Request.Context(), user.ID, itemID); err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to delete item")
		return
	}

	c.Status(http.StatusNoContent)
}

// Hide marks a shared list as hidden from the caller's listing.
func (h *ListHandler) Hide(c *gin.Context) {
	h.setHidden(c, true)
}

// Unhide restores a shared list to the caller's listing.
func (h *ListHandler) Unhide(c *gin.Context) {
	h.setHidden(c, false)
}

func (h *ListHandler) setHidden(c *gin.Context, hidden bool) {
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

	if err := h.lists.SetHidden(c.Request.Context(), user.ID, listID, hidden); err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Failed to update list")
		return
	}

	c.Status(http.StatusNoContent)
}
