package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/PULSE_GO/pkg/models"
	"github.com/jgirmay/PULSE_GO/pkg/services"
)

// MessageHandlers serves chat message history over REST
type MessageHandlers struct {
	archive services.MessageArchive
}

// NewMessageHandlers creates message handlers over the given archive
func NewMessageHandlers(archive services.MessageArchive) *MessageHandlers {
	return &MessageHandlers{archive: archive}
}

// RegisterMessageRoutes mounts the message endpoints on the router
func RegisterMessageRoutes(router gin.IRouter, archive services.MessageArchive) {
	h := NewMessageHandlers(archive)
	router.GET("/chats/:roomId/messages", h.History)
}

// History returns the room's recent messages, oldest first
func (h *MessageHandlers) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.archive.History(c.Request.Context(), c.Param("roomId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}
	c.JSON(http.StatusOK, messages)
}
