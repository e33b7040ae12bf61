package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"dormportal-backend/config"
	"dormportal-backend/internal/mw"
	"dormportal-backend/internal/registry"
	"dormportal-backend/internal/store"
	"dormportal-backend/internal/timer"
	"dormportal-backend/internal/ws"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, reg *registry.Registry, hub *ws.Hub, timers *timer.Engine, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	sessionStore := cookie.NewStore([]byte(cfg.Session.Secret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAgeDays * 24 * 60 * 60,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(cfg.Session.CookieName, sessionStore))

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	responseCache := cache.New(cacheTTL, 10*time.Minute)
	caching := mw.Cache(responseCache, cacheTTL)

	handler := NewHandler(s, reg, hub, timers, webpushOptions, responseCache)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", handler.SignUp)
			auth.POST("/signin", handler.SignIn)
			auth.POST("/signout", handler.SignOut)
			auth.GET("/me", handler.Me)
		}

		api.GET("/dorms", caching, handler.GetDorms)

		dorm := api.Group("/dorms/:slug")
		{
			dorm.GET("/buildings", caching, handler.GetBuildings)
			dorm.GET("/history", handler.GetHistory)
			dorm.GET("/ws", handler.ServeFeed)

			machine := dorm.Group("/machines/:machine_id")
			{
				machine.POST("/start", handler.StartMachine)
				machine.POST("/finish", handler.FinishMachine)
				machine.POST("/reports", handler.ReportIssue)
				machine.DELETE("/reports/:report_id", handler.ResolveReport)
				machine.POST("/warnings", handler.WarnMachine)
				machine.DELETE("/warnings/:warning_id", handler.ResolveWarning)
			}

			dorm.GET("/pages/:page_id", handler.GetPageContent)
			dorm.PUT("/pages/:page_id", handler.PutPageContent)
			dorm.GET("/pages/:page_id/access", handler.GetPageAccess)
		}

		api.GET("/timers", handler.GetTimers)
		api.POST("/timers", handler.StartTimer)
		api.DELETE("/timers/:id", handler.CancelTimer)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
