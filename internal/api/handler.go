package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"dormportal-backend/internal/apperr"
	"dormportal-backend/internal/model"
	"dormportal-backend/internal/registry"
	"dormportal-backend/internal/store"
	"dormportal-backend/internal/timer"
	"dormportal-backend/internal/ws"
)

// MaxMachinesPerUser is the soft per-user quota of simultaneously running
// machines. It is checked with a live scan before the transaction, so a race
// between two in-flight starts can transiently exceed it.
const MaxMachinesPerUser = 2

const sessionUserKey = "user_id"

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	reg     *registry.Registry
	hub     *ws.Hub
	timers  *timer.Engine
	webpush *webpush.Options
	cache   *cache.Cache
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, reg *registry.Registry, hub *ws.Hub, timers *timer.Engine, webpushOptions *webpush.Options, responseCache *cache.Cache) *Handler {
	return &Handler{
		store:   s,
		reg:     reg,
		hub:     hub,
		timers:  timers,
		webpush: webpushOptions,
		cache:   responseCache,
	}
}

// residence resolves the :slug route parameter; on failure it writes the
// response and returns false.
func (h *Handler) residence(c *gin.Context) (*registry.Residence, bool) {
	res, ok := h.reg.Get(c.Param("slug"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown residence"})
		return nil, false
	}
	return res, true
}

// currentUser loads the signed-in user's profile, or nil without writing a
// response when there is no session or the profile is gone.
func (h *Handler) currentUser(c *gin.Context) *model.User {
	session := sessions.Default(c)
	id, ok := session.Get(sessionUserKey).(string)
	if !ok || id == "" {
		return nil
	}
	var user model.User
	if err := h.store.DB().First(&user, "id = ?", id).Error; err != nil {
		return nil
	}
	return &user
}

// requireUser is like currentUser but writes a 401 when absent.
func (h *Handler) requireUser(c *gin.Context) *model.User {
	user := h.currentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
	}
	return user
}

// flushCache drops memoized GET responses after any mutation so reads never
// serve a snapshot older than the last committed write.
func (h *Handler) flushCache() {
	if h.cache != nil {
		h.cache.Flush()
	}
}

// respondError maps the store error taxonomy onto HTTP statuses. Every
// failure stays a transient, user-visible notice; the caller may retry.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "machine not available"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrConfigNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "residence configuration not loaded, please retry"})
	case errors.Is(err, apperr.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary storage problem, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please retry"})
	}
}
