package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	competitionapi "github.com/Tokioace/N64-Nexus-sub006/competition/api"
	"github.com/Tokioace/N64-Nexus-sub006/competition/service"
	"github.com/Tokioace/N64-Nexus-sub006/competition/store"
	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newCoordinator(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	teams := store.NewTeamStore()
	events := store.NewEventStore()
	opts := service.Options{Logger: logger}
	h := competitionapi.NewCompetitionAPIHandlers(
		service.NewTeamService(teams, 4, opts),
		service.NewEventService(events, teams, 10, opts),
		service.NewSubmissionService(teams, events, opts),
		service.NewStatsService(store.NewMemoryProfileStore(), opts),
		logger, time.Second,
	)
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, srv *httptest.Server, args ...string) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	argv := append([]string{"speedrunctl", "--server", srv.URL}, args...)
	err := newApp(&out).Run(argv)
	return out.Bytes(), err
}

func TestTeamAndEventFlow(t *testing.T) {
	srv := newCoordinator(t)

	out, err := runCLI(t, srv, "team", "create", "--name", "Blue Shells", "--captain", "alice", "--captain-name", "Alice")
	require.NoError(t, err)
	var team models.Team
	require.NoError(t, json.Unmarshal(out, &team))
	assert.Equal(t, "alice", team.CaptainID)

	_, err = runCLI(t, srv, "team", "join", "--name", "Bob", team.ID, "bob")
	require.NoError(t, err)

	out, err = runCLI(t, srv, "event", "create", "--name", "Relay", "--game", "Mario Kart 64",
		"--start", "2026-06-01T18:00:00Z", "--end", "2026-06-01T20:00:00Z", "--rule", "no glitches")
	require.NoError(t, err)
	var event models.Event
	require.NoError(t, json.Unmarshal(out, &event))
	assert.Equal(t, []string{"no glitches"}, event.Rules)

	_, err = runCLI(t, srv, "event", "register", event.ID, team.ID)
	require.NoError(t, err)
	_, err = runCLI(t, srv, "event", "start", event.ID)
	require.NoError(t, err)
	out, err = runCLI(t, srv, "submit", event.ID, team.ID, "bob", "80")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"teamTotal": 80`)

	out, err = runCLI(t, srv, "--output", "yaml", "event", "rankings", event.ID)
	require.NoError(t, err)
	var rankings []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &rankings))
	require.Len(t, rankings, 1)
	assert.Equal(t, team.ID, rankings[0]["teamId"])
}

func TestErrorsCarryServerCode(t *testing.T) {
	srv := newCoordinator(t)

	_, err := runCLI(t, srv, "team", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, describeError(err), "NOT_FOUND")

	_, err = runCLI(t, srv, "submit", "ev", "team", "user", "fast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time")

	_, err = runCLI(t, srv, "team", "join", "only-one-arg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage:")
}
