package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTimers handles GET /api/timers: the signed-in user's in-flight cycle
// timers, soonest first, for reconstructing countdowns after a reload.
func (h *Handler) GetTimers(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}

	timers, err := h.timers.Active(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, timers)
}

type startTimerRequest struct {
	DormID          string `json:"dormId" binding:"required"`
	MachineNumber   int    `json:"machineNumber" binding:"required,min=1"`
	CycleType       string `json:"cycleType" binding:"required,oneof=wash dry"`
	DurationMinutes int    `json:"durationMinutes" binding:"required,min=1,max=240"`
}

// StartTimer handles POST /api/timers.
func (h *Handler) StartTimer(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}

	var req startTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if _, ok := h.reg.Get(req.DormID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown residence"})
		return
	}

	created, err := h.timers.StartCycle(c.Request.Context(), user.ID, req.DormID,
		req.MachineNumber, req.DurationMinutes, req.CycleType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// CancelTimer handles DELETE /api/timers/:id. No undo.
func (h *Handler) CancelTimer(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}

	if err := h.timers.Cancel(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
