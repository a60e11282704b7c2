package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/PULSE_GO/pkg/models"
	"github.com/jgirmay/PULSE_GO/pkg/services"
)

// stubCallService returns canned responses per operation
type stubCallService struct {
	call *models.Call
	err  error
}

func (s *stubCallService) Initiate(context.Context, string, []string, models.CallType, string) (*models.Call, error) {
	return s.call, s.err
}

func (s *stubCallService) Accept(context.Context, string, string) (*models.Call, error) {
	return s.call, s.err
}

func (s *stubCallService) Reject(context.Context, string, string) (*models.Call, error) {
	return s.call, s.err
}

func (s *stubCallService) End(context.Context, string) (*models.Call, error) {
	return s.call, s.err
}

func (s *stubCallService) Leave(context.Context, string, string) (*models.Call, error) {
	return s.call, s.err
}

func (s *stubCallService) History(context.Context, string) ([]*models.Call, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Call{s.call}, nil
}

func (s *stubCallService) Active(context.Context, string) (*models.Call, error) {
	return s.call, s.err
}

func newCallRouter(svc services.CallService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterCallRoutes(router, svc)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestInitiateCreated(t *testing.T) {
	call := &models.Call{ID: "call-1", Initiator: "alice", Status: models.CallRinging}
	router := newCallRouter(&stubCallService{call: call})

	rec := postJSON(t, router, "/calls/initiate", gin.H{
		"initiator":  "alice",
		"recipients": []string{"bob"},
		"type":       "video",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.Call
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "call-1", got.ID)
	assert.Equal(t, models.CallRinging, got.Status)
}

func TestInitiateValidation(t *testing.T) {
	router := newCallRouter(&stubCallService{})

	// Missing recipients
	rec := postJSON(t, router, "/calls/initiate", gin.H{
		"initiator": "alice",
		"type":      "video",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown call type
	rec = postJSON(t, router, "/calls/initiate", gin.H{
		"initiator":  "alice",
		"recipients": []string{"bob"},
		"type":       "hologram",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptUnknownCallIs404(t *testing.T) {
	router := newCallRouter(&stubCallService{err: services.ErrCallNotFound})

	rec := postJSON(t, router, "/calls/accept", gin.H{"callId": "nope", "userId": "bob"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectInvalidStateIs400(t *testing.T) {
	router := newCallRouter(&stubCallService{err: services.ErrInvalidCallState})

	rec := postJSON(t, router, "/calls/reject", gin.H{"callId": "call-1", "userId": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndOK(t *testing.T) {
	call := &models.Call{ID: "call-1", Status: models.CallEnded}
	router := newCallRouter(&stubCallService{call: call})

	rec := postJSON(t, router, "/calls/end", gin.H{"callId": "call-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Call
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.CallEnded, got.Status)
}

func TestHistoryOK(t *testing.T) {
	call := &models.Call{ID: "call-1", Initiator: "alice"}
	router := newCallRouter(&stubCallService{call: call})

	req := httptest.NewRequest(http.MethodGet, "/calls/history/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Call
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "call-1", got[0].ID)
}

func TestActiveNoCallIsNull(t *testing.T) {
	router := newCallRouter(&stubCallService{})

	req := httptest.NewRequest(http.MethodGet, "/calls/active/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())
}
