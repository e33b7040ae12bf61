package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dormportal-backend/internal/model"
	"dormportal-backend/internal/ws"
)

type startMachineRequest struct {
	DurationMinutes int `json:"durationMinutes" binding:"required,min=1,max=240"`
}

// StartMachine handles POST /api/dorms/:slug/machines/:machine_id/start.
func (h *Handler) StartMachine(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	user := h.requireUser(c)
	if user == nil {
		return
	}

	var req startMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// Soft quota: a live scan before the transaction, not part of it.
	count, err := h.store.InUseCount(c.Request.Context(), res.ID, user.ApartmentNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	if count >= MaxMachinesPerUser {
		c.JSON(http.StatusConflict, gin.H{"error": "you can only use a maximum of 2 machines at a time"})
		return
	}

	building, err := h.store.StartMachine(c.Request.Context(), res.ID, c.Param("machine_id"),
		user.ApartmentNumber, time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publishBuilding(res.ID, building)
	c.JSON(http.StatusOK, building)
}

// FinishMachine handles POST /api/dorms/:slug/machines/:machine_id/finish.
// Idempotent: finishing an already-available machine is a no-op success.
func (h *Handler) FinishMachine(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	if h.requireUser(c) == nil {
		return
	}

	building, err := h.store.FinishMachine(c.Request.Context(), res.ID, c.Param("machine_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.publishBuilding(res.ID, building)
	c.JSON(http.StatusOK, building)
}

type reportRequest struct {
	Issue string `json:"issue" binding:"required"`
}

// ReportIssue handles POST /api/dorms/:slug/machines/:machine_id/reports.
func (h *Handler) ReportIssue(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	user := h.requireUser(c)
	if user == nil {
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	building, err := h.store.ReportIssue(c.Request.Context(), res.ID, c.Param("machine_id"),
		user.ApartmentNumber, req.Issue)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publishBuilding(res.ID, building)
	c.JSON(http.StatusOK, building)
}

// ResolveReport handles DELETE /api/dorms/:slug/machines/:machine_id/reports/:report_id.
func (h *Handler) ResolveReport(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	if h.requireUser(c) == nil {
		return
	}

	building, err := h.store.ResolveReport(c.Request.Context(), res.ID, c.Param("machine_id"), c.Param("report_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.publishBuilding(res.ID, building)
	c.JSON(http.StatusOK, building)
}

type warningRequest struct {
	Message string `json:"message" binding:"required"`
}

// WarnMachine handles POST /api/dorms/:slug/machines/:machine_id/warnings.
func (h *Handler) WarnMachine(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	user := h.requireUser(c)
	if user == nil {
		return
	}

	var req warningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	building, err := h.store.WarnMachine(c.Request.Context(), res.ID, c.Param("machine_id"),
		user.ApartmentNumber, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publishBuilding(res.ID, building)
	c.JSON(http.StatusOK, building)
}

// ResolveWarning handles DELETE /api/dorms/:slug/machines/:machine_id/warnings/:warning_id.
func (h *Handler) ResolveWarning(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}
	if h.requireUser(c) == nil {
		return
	}

	building, err := h.store.ResolveWarning(c.Request.Context(), res.ID, c.Param("machine_id"), c.Param("warning_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.publishBuilding(res.ID, building)
	c.JSON(http.StatusOK, building)
}

// publishBuilding pushes the committed building document to the residence's
// live feed and invalidates memoized reads.
func (h *Handler) publishBuilding(dorm string, building *model.Building) {
	h.flushCache()
	if h.hub != nil {
		h.hub.Broadcast(ws.Event{Type: "buildings", Dorm: dorm, Payload: building})
	}
}
