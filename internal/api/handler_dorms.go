package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dormportal-backend/internal/registry"
)

// DormResponse summarizes one residence for the selection screen.
type DormResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	DisplayName   string            `json:"displayName"`
	Description   string            `json:"description"`
	Features      registry.Features `json:"features"`
	TotalMachines int               `json:"totalMachines"`
}

// GetDorms handles the GET /api/dorms request.
func (h *Handler) GetDorms(c *gin.Context) {
	residences := h.reg.List()
	responses := make([]DormResponse, 0, len(residences))
	for _, res := range residences {
		total := 0
		for _, b := range res.Buildings {
			total += len(b.Machines)
		}
		responses = append(responses, DormResponse{
			ID:            res.ID,
			Name:          res.Name,
			DisplayName:   res.DisplayName,
			Description:   res.Description,
			Features:      res.Features,
			TotalMachines: total,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// GetBuildings handles GET /api/dorms/:slug/buildings: the residence's live
// buildings with their embedded machines, seeded on first access.
func (h *Handler) GetBuildings(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}

	buildings, err := h.store.Buildings(c.Request.Context(), res.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

// GetHistory handles GET /api/dorms/:slug/history?limit=n.
func (h *Handler) GetHistory(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.store.History(c.Request.Context(), res.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ServeFeed handles GET /api/dorms/:slug/ws, upgrading to the residence's
// live feed. Signed-in users additionally receive their personal toasts.
func (h *Handler) ServeFeed(c *gin.Context) {
	res, ok := h.residence(c)
	if !ok {
		return
	}

	userID := ""
	if user := h.currentUser(c); user != nil {
		userID = user.ID
	}
	h.hub.Serve(c.Writer, c.Request, res.ID, userID)
}
