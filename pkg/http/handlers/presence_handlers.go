package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/PULSE_GO/pkg/services"
)

// PresenceHandlers exposes presence queries over REST
type PresenceHandlers struct {
	presence services.PresenceService
}

// NewPresenceHandlers creates presence handlers over the given service
func NewPresenceHandlers(presence services.PresenceService) *PresenceHandlers {
	return &PresenceHandlers{presence: presence}
}

// RegisterPresenceRoutes mounts the presence endpoints on the router
func RegisterPresenceRoutes(router gin.IRouter, presence services.PresenceService) {
	h := NewPresenceHandlers(presence)

	group := router.Group("/presence")
	{
		group.GET("/online", h.Online)
		group.GET("/:userId", h.Get)
	}
}

// Get returns a user's current presence record
func (h *PresenceHandlers) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.presence.Get(c.Param("userId")))
}

// Online lists the users currently marked online
func (h *PresenceHandlers) Online(c *gin.Context) {
	users := h.presence.OnlineUsers()
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
