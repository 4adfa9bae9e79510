package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"therapy/models"
	"therapy/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T, bookStatus int, bookBody string) *httptest.Server {
	var mu sync.Mutex
	booked := ""
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/slots/available":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"slots": []models.Slot{{ID: "a", Date: "2025-06-01", TimeRange: "10:00-11:00"}},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/sessions":
			mu.Lock()
			defer mu.Unlock()
			_, _ = w.Write([]byte(`{"sessions":[` + booked + `]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/sessions":
			if bookStatus < 300 {
				mu.Lock()
				booked = bookBody
				mu.Unlock()
			}
			w.WriteHeader(bookStatus)
			_, _ = w.Write([]byte(bookBody))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func runCLI(t *testing.T, server string, stdin string, args ...string) (string, error) {
	tok, err := utils.GenerateToken("cli-secret", models.Actor{ID: "p1", Role: models.RolePatient}, time.Hour)
	require.NoError(t, err)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", server, "--token", tok}, args...))
	err = cmd.Execute()
	return out.String(), err
}

func TestBookLostRaceShowsNoticeWithoutRetrying(t *testing.T) {
	srv := fakeAPI(t, http.StatusConflict, `{"message":"slot a is already reserved","code":"slot_unavailable"}`)
	defer srv.Close()

	out, err := runCLI(t, srv.URL, "1\n", "book", "t1", "2025-06-01")
	require.Error(t, err)
	assert.Contains(t, out, "[1] 2025-06-01 10:00-11:00")
	assert.Contains(t, out, "! slot_unavailable")
	assert.Contains(t, out, "slots now free:")
}

func TestBookWithSlotFlag(t *testing.T) {
	srv := fakeAPI(t, http.StatusCreated, `{"id":"s1","slotId":"a","patientId":"p1","status":"pending"}`)
	defer srv.Close()

	out, err := runCLI(t, srv.URL, "", "book", "t1", "2025-06-01", "--slot", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "booked session s1 (pending)")
}

func TestChooseSlotRejectsOutOfRange(t *testing.T) {
	slots := []models.Slot{{ID: "a"}, {ID: "b"}}
	var out bytes.Buffer

	id, err := chooseSlot(strings.NewReader("2\n"), &out, slots)
	require.NoError(t, err)
	assert.Equal(t, "b", id)

	_, err = chooseSlot(strings.NewReader("3\n"), &out, slots)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	s := models.Session{Status: models.SessionConfirmed, Call: models.NewCallState()}
	assert.Equal(t, "confirmed", describe(s))

	s.Call.Negotiation.Status = models.NegotiationAccepted
	s.Call.Lifecycle = models.CallActive
	assert.Equal(t, "confirmed, call accepted, active", describe(s))
}
