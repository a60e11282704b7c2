package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/PULSE_GO/pkg/models"
	"github.com/jgirmay/PULSE_GO/pkg/services"
)

// CallHandlers exposes the call lifecycle over REST
type CallHandlers struct {
	calls services.CallService
}

// NewCallHandlers creates call handlers over the given service
func NewCallHandlers(calls services.CallService) *CallHandlers {
	return &CallHandlers{calls: calls}
}

// RegisterCallRoutes mounts the call endpoints on the router
func RegisterCallRoutes(router gin.IRouter, calls services.CallService) {
	h := NewCallHandlers(calls)

	group := router.Group("/calls")
	{
		group.POST("/initiate", h.Initiate)
		group.POST("/accept", h.Accept)
		group.POST("/reject", h.Reject)
		group.POST("/end", h.End)
		group.POST("/leave", h.Leave)
		group.GET("/history/:userId", h.History)
		group.GET("/active/:userId", h.Active)
	}
}

// InitiateCallRequest is the payload for starting a call
type InitiateCallRequest struct {
	Initiator  string   `json:"initiator" binding:"required"`
	Recipients []string `json:"recipients" binding:"required"`
	Type       string   `json:"type" binding:"required,oneof=audio video"`
	ChatGroup  string   `json:"chatGroup"`
}

// CallActionRequest is the payload for accept/reject/leave
type CallActionRequest struct {
	CallID string `json:"callId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

// EndCallRequest is the payload for ending a call
type EndCallRequest struct {
	CallID string `json:"callId" binding:"required"`
}

// Initiate starts a new call
func (h *CallHandlers) Initiate(c *gin.Context) {
	var req InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	call, err := h.calls.Initiate(c.Request.Context(), req.Initiator, req.Recipients, models.CallType(req.Type), req.ChatGroup)
	if err != nil {
		callError(c, err)
		return
	}

	c.JSON(http.StatusCreated, call)
}

// Accept answers a ringing call
func (h *CallHandlers) Accept(c *gin.Context) {
	var req CallActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	call, err := h.calls.Accept(c.Request.Context(), req.CallID, req.UserID)
	if err != nil {
		callError(c, err)
		return
	}

	c.JSON(http.StatusOK, call)
}

// Reject declines a ringing call
func (h *CallHandlers) Reject(c *gin.Context) {
	var req CallActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	call, err := h.calls.Reject(c.Request.Context(), req.CallID, req.UserID)
	if err != nil {
		callError(c, err)
		return
	}

	c.JSON(http.StatusOK, call)
}

// End terminates a call for everyone
func (h *CallHandlers) End(c *gin.Context) {
	var req EndCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	call, err := h.calls.End(c.Request.Context(), req.CallID)
	if err != nil {
		callError(c, err)
		return
	}

	c.JSON(http.StatusOK, call)
}

// Leave removes one participant from a group call
func (h *CallHandlers) Leave(c *gin.Context) {
	var req CallActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	call, err := h.calls.Leave(c.Request.Context(), req.CallID, req.UserID)
	if err != nil {
		callError(c, err)
		return
	}

	c.JSON(http.StatusOK, call)
}

// History returns the user's call history, newest first
func (h *CallHandlers) History(c *gin.Context) {
	calls, err := h.calls.History(c.Request.Context(), c.Param("userId"))
	if err != nil {
		callError(c, err)
		return
	}

	c.JSON(http.StatusOK, calls)
}

// Active returns the user's current ringing or ongoing call, if any
func (h *CallHandlers) Active(c *gin.Context) {
	call, err := h.calls.Active(c.Request.Context(), c.Param("userId"))
	if err != nil {
		callError(c, err)
		return
	}

	c.JSON(http.StatusOK, call)
}

// callError maps service errors onto HTTP statuses
func callError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCallNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Call not found"})
	case errors.Is(err, services.ErrInvalidCallState):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}
