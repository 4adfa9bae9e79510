package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"therapy/database/repository"
	"therapy/handlers"
	"therapy/models"
	"therapy/services/intelligence"
	"therapy/services/ledger"
	"therapy/services/lifecycle"
	"therapy/services/negotiation"
	"therapy/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "routes-test-secret"

type fakeRooms struct{ n int32 }

func (f *fakeRooms) CreateRoom(ctx context.Context) (string, error) {
	return fmt.Sprintf("room-%d", atomic.AddInt32(&f.n, 1)), nil
}

type fakeTokens struct{}

func (fakeTokens) Token() (string, time.Time, error) {
	return "participant-token", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), nil
}

type server struct {
	t      *testing.T
	router *gin.Engine
	tokens map[string]string
}

func newServer(t *testing.T) *server {
	gin.SetMode(gin.TestMode)
	repos := repository.NewMemoryRepositories()
	l := ledger.NewSlotLedger(repos.Slots, nil, 0, nil, nil)
	hb := &handlers.HandlerBundle{
		Ledger:     l,
		Lifecycle:  lifecycle.NewLifecycleManager(l, repos.Sessions, nil, nil, nil),
		Negotiator: negotiation.NewNegotiator(repos.Sessions, &fakeRooms{}, nil, 0, nil),
		Tokens:     fakeTokens{},
		Copy:       intelligence.NewCopywriter(nil, nil, 0, nil, nil),
		Profiles:   repos.Profiles,
	}
	r := gin.New()
	RegisterRoutes(r, hb, Options{JWTSecret: secret, MaxRequestsPerMin: 10000, Gatherer: prometheus.NewRegistry()})

	s := &server{t: t, router: r, tokens: map[string]string{}}
	for _, a := range []models.Actor{
		{ID: "t1", Role: models.RoleTherapist},
		{ID: "p1", Role: models.RolePatient},
		{ID: "p2", Role: models.RolePatient},
	} {
		tok, err := utils.GenerateToken(secret, a, time.Hour)
		require.NoError(t, err)
		s.tokens[a.ID] = tok
	}
	return s
}

func (s *server) do(as, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func code(t *testing.T, w *httptest.ResponseRecorder) string {
	var e utils.ErrorResponse
	decode(t, w, &e)
	return e.Code
}

func TestSessionFlowOverHTTP(t *testing.T) {
	s := newServer(t)

	w := s.do("t1", http.MethodPost, "/api/slots", models.CreateSlotRequest{Date: "2025-06-01", TimeRange: "10:00-11:00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var slot models.Slot
	decode(t, w, &slot)

	w = s.do("p1", http.MethodGet, "/api/slots/available?therapistId=t1&date=2025-06-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var avail struct{ Slots []models.Slot }
	decode(t, w, &avail)
	require.Len(t, avail.Slots, 1)

	w = s.do("p1", http.MethodPost, "/api/sessions", models.BookSessionRequest{SlotID: slot.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess models.Session
	decode(t, w, &sess)
	assert.Equal(t, models.SessionPending, sess.Status)

	w = s.do("p2", http.MethodPost, "/api/sessions", models.BookSessionRequest{SlotID: slot.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_unavailable", code(t, w))

	w = s.do("p1", http.MethodPost, "/api/sessions/"+sess.ID+"/confirm", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do("t1", http.MethodPost, "/api/sessions/"+sess.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	base := "/api/sessions/" + sess.ID + "/call/"
	require.Equal(t, http.StatusOK, s.do("p1", http.MethodPost, base+"request", nil).Code)
	w = s.do("p1", http.MethodPost, base+"request", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "request_in_flight", code(t, w))

	w = s.do("t1", http.MethodPost, base+"respond", models.CallResponse{Decision: models.DecisionAccept})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do("t1", http.MethodPost, base+"activate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &sess)
	assert.Equal(t, models.CallActive, sess.Call.Lifecycle)
	assert.Equal(t, "room-1", sess.Call.RoomHandle)

	w = s.do("p1", http.MethodPost, base+"activate", nil)
	decode(t, w, &sess)
	assert.Equal(t, "room-1", sess.Call.RoomHandle, "second activation joins the same room")

	require.Equal(t, http.StatusOK, s.do("p1", http.MethodPost, base+"end", nil).Code)

	w = s.do("t1", http.MethodPost, "/api/sessions/"+sess.ID+"/complete", map[string]string{"notes": "worked on sleep"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do("p1", http.MethodPost, "/api/sessions/"+sess.ID+"/cancel", map[string]string{"reason": "too late"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "terminal_state", code(t, w))

	w = s.do("p1", http.MethodGet, "/api/sessions/"+sess.ID+"/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sugg models.SessionSuggestions
	decode(t, w, &sugg)
	assert.NotEmpty(t, sugg.Tasks)

	w = s.do("p1", http.MethodPost, "/api/sessions/"+sess.ID+"/notes", map[string]string{"text": "thanks!"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &sess)
	assert.Len(t, sess.Notes, 2)
}

func TestCancelReturnsSlotToAvailability(t *testing.T) {
	s := newServer(t)

	w := s.do("t1", http.MethodPost, "/api/slots", models.CreateSlotRequest{Date: "2025-06-01", TimeRange: "12:00-13:00"})
	var slot models.Slot
	decode(t, w, &slot)

	w = s.do("p1", http.MethodPost, "/api/sessions", models.BookSessionRequest{SlotID: slot.ID})
	var sess models.Session
	decode(t, w, &sess)

	w = s.do("p1", http.MethodPost, "/api/sessions/"+sess.ID+"/cancel", map[string]string{"reason": "sick"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do("p2", http.MethodPost, "/api/sessions", models.BookSessionRequest{SlotID: slot.ID})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestSlotAndListEndpoints(t *testing.T) {
	s := newServer(t)

	w := s.do("p1", http.MethodPost, "/api/slots", models.CreateSlotRequest{Date: "2025-06-01", TimeRange: "10:00-11:00"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do("t1", http.MethodPost, "/api/slots", models.CreateSlotRequest{Date: "2025-06-01", TimeRange: "11:00-10:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusCreated, s.do("t1", http.MethodPost, "/api/slots", models.CreateSlotRequest{Date: "2025-06-01", TimeRange: "10:00-11:00"}).Code)
	w = s.do("t1", http.MethodPost, "/api/slots", models.CreateSlotRequest{Date: "2025-06-01", TimeRange: "10:00-11:00"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_slot", code(t, w))

	w = s.do("t1", http.MethodGet, "/api/slots?from=2025-06-01&to=2025-06-30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct{ Slots []models.Slot }
	decode(t, w, &list)
	assert.Len(t, list.Slots, 1)

	w = s.do("p1", http.MethodGet, "/api/slots/available?date=2025-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("p1", http.MethodGet, "/api/sessions?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("p1", http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessions":[]}`, w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)
	w := s.do("", http.MethodGet, "/api/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTherapyRecommendationsEndpoint(t *testing.T) {
	s := newServer(t)

	w := s.do("p1", http.MethodPost, "/api/therapy/recommendations", models.RecommendationRequest{Severity: models.SeveritySevere})
	require.Equal(t, http.StatusOK, w.Code)
	var rec models.TherapyRecommendation
	decode(t, w, &rec)
	assert.True(t, rec.RecommendTherapist)
	assert.False(t, rec.Generated)

	w = s.do("p1", http.MethodPost, "/api/therapy/recommendations", map[string]string{"severity": "extreme"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfilesAndTokens(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusNotFound, s.do("p1", http.MethodGet, "/api/profiles/me", nil).Code)

	w := s.do("p1", http.MethodPut, "/api/profiles/me", models.UpsertProfileRequest{DisplayName: "Pat", FCMToken: "fcm-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do("p1", http.MethodGet, "/api/profiles/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p models.Profile
	decode(t, w, &p)
	assert.Equal(t, "fcm-1", p.FCMToken)
	assert.Equal(t, models.RolePatient, p.Role)

	w = s.do("p1", http.MethodGet, "/api/calls/token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tok models.CallTokenResponse
	decode(t, w, &tok)
	assert.Equal(t, "participant-token", tok.Token)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do("", http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, s.do("", http.MethodGet, "/metrics", nil).Code)
}
