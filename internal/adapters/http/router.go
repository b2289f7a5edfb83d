package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/adapters/signal"
	"github.com/artemav/huddle/internal/config"
)

// GuestTokenMiddleware gives every browser a stable guest token via the
// session cookie. The identity provider decides whether it is usable.
func GuestTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get("guest_token").(string)
		if token == "" {
			token = uuid.NewString()
			s.Set("guest_token", token)
			if err := s.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("save guest session")
			}
		}
		c.Set("guest_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, ctrl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSession", store))
	r.Use(GuestTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, ctrl.Orch.Rooms.List())
	})
	api.GET("/ws/signal", ctrl.HandleSignal)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
