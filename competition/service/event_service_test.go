package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	eventStart = time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)
	eventEnd   = eventStart.Add(3 * time.Hour)
)

func validEventInput() CreateEventInput {
	return CreateEventInput{Name: "Spring Relay", Game: "Super Mario 64", Category: "16 Star", StartDate: eventStart, EndDate: eventEnd}
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		f := newFixture(t)
		e, err := f.events.CreateEvent(ctx, validEventInput())
		require.NoError(t, err)
		assert.Equal(t, models.EventUpcoming, e.Status)
		assert.Equal(t, 50, e.MaxTeams)
		assert.Equal(t, 1, e.MinTeamSize)
		assert.Equal(t, 4, e.MaxTeamSize)
		assert.Empty(t, e.Participants)
		assert.Empty(t, e.Rankings)
		assert.NotNil(t, e.Participants)
	})

	tests := []struct {
		name   string
		mutate func(*CreateEventInput)
	}{
		{"missing name", func(in *CreateEventInput) { in.Name = "" }},
		{"missing game", func(in *CreateEventInput) { in.Game = " " }},
		{"missing start", func(in *CreateEventInput) { in.StartDate = time.Time{} }},
		{"missing end", func(in *CreateEventInput) { in.EndDate = time.Time{} }},
		{"end before start", func(in *CreateEventInput) { in.EndDate = in.StartDate.Add(-time.Minute) }},
		{"negative max teams", func(in *CreateEventInput) { in.MaxTeams = -1 }},
		{"min above max", func(in *CreateEventInput) { in.MinTeamSize, in.MaxTeamSize = 5, 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validEventInput()
			tt.mutate(&in)
			_, err := f.events.CreateEvent(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			events, err := f.events.ListEvents(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	}
}

// Event E (maxTeams=2): A and B register, C is rejected; E starts, ends, and
// cannot be started again.
func TestEventService_LifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validEventInput()
	in.MaxTeams = 2
	e, err := f.events.CreateEvent(ctx, in)
	require.NoError(t, err)

	var teamIDs []string
	for _, c := range []string{"a", "b", "c"} {
		team, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: c, CaptainID: "cap-" + c})
		require.NoError(t, err)
		teamIDs = append(teamIDs, team.ID)
	}

	_, err = f.events.RegisterTeam(ctx, e.ID, teamIDs[0])
	require.NoError(t, err)
	got, err := f.events.RegisterTeam(ctx, e.ID, teamIDs[1])
	require.NoError(t, err)
	require.Len(t, got.Participants, 2)
	assert.Equal(t, models.ParticipantRegistered, got.Participants[1].Status)

	_, err = f.events.RegisterTeam(ctx, e.ID, teamIDs[2])
	assert.ErrorIs(t, err, ErrEventFull)

	started, err := f.events.StartEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventActive, started.Status)
	require.NotNil(t, started.StartedAt)
	for _, p := range started.Participants {
		assert.Equal(t, models.ParticipantActive, p.Status)
	}

	ended, err := f.events.EndEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventCompleted, ended.Status)
	require.NotNil(t, ended.EndedAt)
	for _, p := range ended.Participants {
		assert.Equal(t, models.ParticipantCompleted, p.Status)
	}

	_, err = f.events.StartEvent(ctx, e.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.events.EndEvent(ctx, e.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.events.RegisterTeam(ctx, e.ID, teamIDs[2])
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	lifecycle := f.bus.events(notify.EventTopic(e.ID))
	require.Len(t, lifecycle, 2)
	assert.Equal(t, notify.EventStarted, lifecycle[0].Event)
	assert.Equal(t, notify.EventEnded, lifecycle[1].Event)
	assert.Equal(t, "Spring Relay", decodePayload[notify.EventLifecyclePayload](t, lifecycle[0]).EventName)
}

func TestEventService_TransitionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.events.CreateEvent(ctx, validEventInput())
	require.NoError(t, err)

	_, err = f.events.EndEvent(ctx, e.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "upcoming cannot skip to completed")
	_, err = f.events.StartEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.events.EndEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.events.StartEvent(ctx, e.ID)
	require.NoError(t, err)
	_, err = f.events.StartEvent(ctx, e.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.events.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventActive, got.Status)
}

func TestEventService_ConcurrentStartSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.events.CreateEvent(ctx, validEventInput())
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.events.StartEvent(ctx, e.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
	assert.Len(t, f.bus.events(notify.EventTopic(e.ID)), 1)
}

func TestEventService_RegisterTeam_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.events.CreateEvent(ctx, validEventInput())
	require.NoError(t, err)
	team, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: "A", CaptainID: "c1"})
	require.NoError(t, err)

	_, err = f.events.RegisterTeam(ctx, "missing", team.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.events.RegisterTeam(ctx, e.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.events.RegisterTeam(ctx, e.ID, team.ID)
	require.NoError(t, err)
	_, err = f.events.RegisterTeam(ctx, e.ID, team.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	// Late registration while active is allowed and the team joins as active.
	_, err = f.events.StartEvent(ctx, e.ID)
	require.NoError(t, err)
	late, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: "Late", CaptainID: "c2"})
	require.NoError(t, err)
	got, err := f.events.RegisterTeam(ctx, e.ID, late.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantActive, got.Participants[1].Status)
}

func TestEventService_ConcurrentRegistrationRespectsMaxTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := validEventInput()
	in.MaxTeams = 5
	e, err := f.events.CreateEvent(ctx, in)
	require.NoError(t, err)

	var teamIDs []string
	for i := 0; i < 20; i++ {
		team, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: fmt.Sprint(i), CaptainID: fmt.Sprintf("c%d", i)})
		require.NoError(t, err)
		teamIDs = append(teamIDs, team.ID)
	}

	var wg sync.WaitGroup
	for _, id := range teamIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = f.events.RegisterTeam(ctx, e.ID, id)
		}(id)
	}
	wg.Wait()

	got, err := f.events.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, 5)
	seen := map[string]bool{}
	for _, p := range got.Participants {
		assert.False(t, seen[p.TeamID])
		seen[p.TeamID] = true
	}
}

func TestEventService_RankingsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.events.CreateEvent(ctx, validEventInput())
	require.NoError(t, err)

	fast, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: "Fast", CaptainID: "f1"})
	require.NoError(t, err)
	_, err = f.teams.JoinTeam(ctx, fast.ID, "f2", "")
	require.NoError(t, err)
	slow, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: "Slow", CaptainID: "s1"})
	require.NoError(t, err)
	idle, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: "Idle", CaptainID: "i1"})
	require.NoError(t, err)
	for _, id := range []string{fast.ID, slow.ID, idle.ID} {
		_, err = f.events.RegisterTeam(ctx, e.ID, id)
		require.NoError(t, err)
	}
	_, err = f.events.StartEvent(ctx, e.ID)
	require.NoError(t, err)

	submit := func(teamID, userID string, seconds float64) {
		t.Helper()
		_, err := f.submissions.SubmitTime(ctx, SubmitTimeInput{EventID: e.ID, TeamID: teamID, UserID: userID, Time: seconds})
		require.NoError(t, err)
	}
	submit(fast.ID, "f1", 50)
	submit(fast.ID, "f2", 60)
	submit(slow.ID, "s1", 300)

	rankings, err := f.events.GetRankings(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, rankings, 2, "teams without submissions are not ranked")
	assert.Equal(t, models.RankingEntry{TeamID: fast.ID, TeamName: "Fast", TotalTime: 110, Rank: 1, MemberCount: 2}, rankings[0])
	assert.Equal(t, slow.ID, rankings[1].TeamID)
	assert.Equal(t, 2, rankings[1].Rank)

	snapshot, err := f.events.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, rankings, snapshot.Rankings)

	stats, err := f.events.GetStats(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStats{
		TotalTeams:       3,
		ActiveTeams:      3,
		TotalSubmissions: 3,
		AverageTime:      (50.0 + 60 + 300) / 3,
		FastestTime:      50,
		SlowestTime:      300,
	}, stats)

	f.bus.reset()
	ended, err := f.events.EndEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, rankings, ended.Rankings)
	endedNotes := f.bus.events(notify.EventTopic(e.ID))
	require.Len(t, endedNotes, 1)
	final := decodePayload[notify.EventLifecyclePayload](t, endedNotes[0])
	assert.Equal(t, rankings, final.FinalRankings)

	// A late submission shows up in the live leaderboard and the stats, while the
	// final standings stored on the event stay as published.
	f.bus.reset()
	_, err = f.submissions.SubmitTime(ctx, SubmitTimeInput{EventID: e.ID, TeamID: idle.ID, UserID: "i1", Time: 10})
	require.NoError(t, err)
	assert.Len(t, f.bus.events(notify.EventTopic(e.ID)), 1)

	after, err := f.events.GetRankings(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, idle.ID, after[0].TeamID)
	assert.Equal(t, 1, after[0].Rank)

	lateStats, err := f.events.GetStats(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, lateStats.TotalSubmissions)

	stored, err := f.events.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, rankings, stored.Rankings)
}

func TestEventService_StatsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.events.CreateEvent(ctx, validEventInput())
	require.NoError(t, err)

	stats, err := f.events.GetStats(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStats{}, stats)

	_, err = f.events.GetStats(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.events.GetRankings(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventService_ListEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.events.CreateEvent(ctx, validEventInput())
	require.NoError(t, err)
	later := validEventInput()
	later.StartDate = later.StartDate.Add(24 * time.Hour)
	later.EndDate = later.EndDate.Add(24 * time.Hour)
	second, err := f.events.CreateEvent(ctx, later)
	require.NoError(t, err)
	_, err = f.events.StartEvent(ctx, second.ID)
	require.NoError(t, err)

	all, err := f.events.ListEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	active, err := f.events.ListEvents(ctx, "active")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	_, err = f.events.ListEvents(ctx, "cancelled")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
