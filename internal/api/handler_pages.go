package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormportal-backend/internal/model"
	"dormportal-backend/internal/ws"
)

// GetPageContent handles GET /api/dorms/:slug/pages/:page_id. The default
// document is seeded on first read; event bucketing is applied to the
// response and persisted only when the viewer holds admin rights for the
// page, so the write happens on an admin's own view rather than a job.
func (h *Handler) GetPageContent(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	pageID := c.Param("page_id")

	isAdmin := false
	if user := h.currentUser(c); user != nil && user.DormID == res.ID {
		isAdmin = res.IsAdmin(pageID, user.ApartmentNumber)
	}

	content, err := h.store.PageContent(c.Request.Context(), res.ID, pageID, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// PutPageContent handles PUT /api/dorms/:slug/pages/:page_id. Admin only;
// replace or merge semantics follow the residence's write mode.
func (h *Handler) PutPageContent(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	user := h.requireUser(c)
	if user == nil {
		return
	}
	pageID := c.Param("page_id")

	if user.DormID != res.ID || !res.IsAdmin(pageID, user.ApartmentNumber) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have edit access to this page"})
		return
	}

	var content model.PageContent
	if err := c.ShouldBindJSON(&content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	stored, err := h.store.UpdatePageContent(c.Request.Context(), res.ID, pageID, content)
	if err != nil {
		respondError(c, err)
		return
	}

	h.flushCache()
	if h.hub != nil {
		h.hub.Broadcast(ws.Event{
			Type: "page",
			Dorm: res.ID,
			Payload: gin.H{
				"pageId":  pageID,
				"content": stored,
			},
		})
	}
	c.JSON(http.StatusOK, stored)
}

// GetPageAccess handles GET /api/dorms/:slug/pages/:page_id/access. Access
// fails open to non-admin when there is no loadable resident profile.
func (h *Handler) GetPageAccess(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	pageID := c.Param("page_id")

	apartment := ""
	isAdmin := false
	if user := h.currentUser(c); user != nil && user.DormID == res.ID {
		apartment = user.ApartmentNumber
		isAdmin = res.IsAdmin(pageID, apartment)
	}

	c.JSON(http.StatusOK, gin.H{
		"isAdmin":   isAdmin,
		"apartment": apartment,
	})
}
