package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/competition/service"
	"github.com/Tokioace/N64-Nexus-sub006/competition/store"
	"github.com/Tokioace/N64-Nexus-sub006/shared/api"
	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := notify.NewMemoryBus(16, logger, nil)
	t.Cleanup(func() { bus.Close() })

	teams := store.NewTeamStore()
	events := store.NewEventStore()
	opts := service.Options{Bus: bus, Logger: logger}

	h := NewCompetitionAPIHandlers(
		service.NewTeamService(teams, 4, opts),
		service.NewEventService(events, teams, 10, opts),
		service.NewSubmissionService(teams, events, opts),
		service.NewStatsService(store.NewMemoryProfileStore(), opts),
		logger,
		time.Second,
	)
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createTeam(t *testing.T, srv *httptest.Server, captain string) models.Team {
	t.Helper()
	var team models.Team
	status := do(t, srv, http.MethodPost, "/teams", CreateTeamRequest{Name: "Team " + captain, CaptainID: captain, CaptainName: captain}, &team)
	require.Equal(t, http.StatusCreated, status)
	return team
}

func TestTeamEndpoints(t *testing.T) {
	srv := newTestServer(t)
	team := createTeam(t, srv, "alice")
	assert.Equal(t, "alice", team.CaptainID)

	var joined models.Team
	status := do(t, srv, http.MethodPost, "/teams/"+team.ID+"/members", JoinTeamRequest{UserID: "bob", UserName: "Bob"}, &joined)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, joined.Members, 2)

	var mine models.Team
	status = do(t, srv, http.MethodGet, "/users/bob/team", nil, &mine)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, team.ID, mine.ID)

	var msg notify.TeamMessagePayload
	status = do(t, srv, http.MethodPost, "/teams/"+team.ID+"/messages", TeamMessageRequest{UserID: "bob", Message: "gl hf"}, &msg)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "gl hf", msg.Message)

	var left service.LeaveResult
	status = do(t, srv, http.MethodDelete, "/teams/"+team.ID+"/members/alice", nil, &left)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, left.Disbanded)
	assert.Equal(t, "bob", left.Team.CaptainID)

	var list []models.Team
	status = do(t, srv, http.MethodGet, "/teams", nil, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 1)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	team := createTeam(t, srv, "alice")
	createTeam(t, srv, "carol")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"missing captain", http.MethodPost, "/teams", CreateTeamRequest{Name: "x"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown team", http.MethodGet, "/teams/nope", nil, http.StatusNotFound, "NOT_FOUND"},
		{"already in team", http.MethodPost, "/teams/" + team.ID + "/members", JoinTeamRequest{UserID: "carol", UserName: "Carol"}, http.StatusConflict, "ALREADY_IN_TEAM"},
		{"not a member", http.MethodDelete, "/teams/" + team.ID + "/members/zed", nil, http.StatusUnprocessableEntity, "NOT_MEMBER"},
		{"no team for user", http.MethodGet, "/users/zed/team", nil, http.StatusNotFound, "NOT_FOUND"},
		{"bad status filter", http.MethodGet, "/events?status=bogus", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown profile", http.MethodGet, "/profiles/zed", nil, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp api.JSONErrorResponse
			status := do(t, srv, tt.method, tt.path, tt.body, &errResp)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, errResp.Code)
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Post(srv.URL+"/teams", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventLifecycleEndpoints(t *testing.T) {
	srv := newTestServer(t)
	a := createTeam(t, srv, "alice")
	b := createTeam(t, srv, "bob")

	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	var event models.Event
	status := do(t, srv, http.MethodPost, "/events", CreateEventRequest{
		Name: "Any% Relay", Game: "Super Mario 64", StartDate: start, EndDate: start.Add(2 * time.Hour), MaxTeams: 2,
	}, &event)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.EventUpcoming, event.Status)

	for _, id := range []string{a.ID, b.ID} {
		status = do(t, srv, http.MethodPost, "/events/"+event.ID+"/teams", RegisterTeamRequest{TeamID: id}, nil)
		require.Equal(t, http.StatusOK, status)
	}
	c := createTeam(t, srv, "carol")
	var errResp api.JSONErrorResponse
	status = do(t, srv, http.MethodPost, "/events/"+event.ID+"/teams", RegisterTeamRequest{TeamID: c.ID}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "EVENT_FULL", errResp.Code)

	status = do(t, srv, http.MethodPost, "/events/"+event.ID+"/start", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var res service.SubmitResult
	status = do(t, srv, http.MethodPost, "/events/"+event.ID+"/submissions", SubmitTimeRequest{TeamID: a.ID, UserID: "alice", Time: 120.5}, &res)
	require.Equal(t, http.StatusCreated, status)
	assert.InDelta(t, 120.5, res.TeamTotal, 1e-9)

	status = do(t, srv, http.MethodPost, "/events/"+event.ID+"/submissions", SubmitTimeRequest{TeamID: a.ID, UserID: "alice", Time: 99}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_SUBMISSION", errResp.Code)

	status = do(t, srv, http.MethodPost, "/events/"+event.ID+"/submissions", SubmitTimeRequest{TeamID: b.ID, UserID: "bob", Time: 100}, nil)
	require.Equal(t, http.StatusCreated, status)

	var rankings []models.RankingEntry
	status = do(t, srv, http.MethodGet, "/events/"+event.ID+"/rankings", nil, &rankings)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, rankings, 2)
	assert.Equal(t, b.ID, rankings[0].TeamID)
	assert.Equal(t, 1, rankings[0].Rank)

	var stats models.EventStats
	status = do(t, srv, http.MethodGet, "/events/"+event.ID+"/stats", nil, &stats)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, stats.TotalSubmissions)

	var ended models.Event
	status = do(t, srv, http.MethodPost, "/events/"+event.ID+"/end", nil, &ended)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.EventCompleted, ended.Status)

	status = do(t, srv, http.MethodPost, "/events/"+event.ID+"/start", nil, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errResp.Code)
}

func TestProfileEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var res service.ReportResult
	status := do(t, srv, http.MethodPost, "/profiles/alice/results", ReportEventResultRequest{
		UserName: "Alice", EventID: "ev-1", TeamID: "team-1", TeamRank: 1, TeamTime: 500, PersonalTime: 250,
	}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, res.Stats.TotalTeamEvents)
	assert.NotEmpty(t, res.NewAchievements)

	var profile models.UserProfile
	status = do(t, srv, http.MethodGet, "/profiles/alice", nil, &profile)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", profile.ID)
	assert.Len(t, profile.TeamHistory, 1)
}
