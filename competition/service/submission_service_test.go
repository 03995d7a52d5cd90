package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSubmission(t *testing.T) (*fixture, string, string) {
	t.Helper()
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.events.CreateEvent(ctx, validEventInput())
	require.NoError(t, err)
	team, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: "A", CaptainID: "U1", CaptainName: "One"})
	require.NoError(t, err)
	_, err = f.teams.JoinTeam(ctx, team.ID, "U2", "Two")
	require.NoError(t, err)
	f.bus.reset()
	return f, e.ID, team.ID
}

// Team A submits 120.5s for U1 and 80.0s for U2 in event E: total 200.5, and U1
// submitting again fails.
func TestSubmissionService_TotalScenario(t *testing.T) {
	f, eventID, teamID := setupSubmission(t)
	ctx := context.Background()

	res, err := f.submissions.SubmitTime(ctx, SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U1", Time: 120.5, Proof: "https://clips/1"})
	require.NoError(t, err)
	assert.Equal(t, 120.5, res.TeamTotal)
	assert.Equal(t, "One", res.Submission.DisplayName)
	assert.Equal(t, "https://clips/1", res.Submission.Proof)

	res, err = f.submissions.SubmitTime(ctx, SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U2", Time: 80.0})
	require.NoError(t, err)
	assert.Equal(t, 200.5, res.TeamTotal)

	_, err = f.submissions.SubmitTime(ctx, SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U1", Time: 99})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	team, ok := f.teamStore.Get(teamID)
	require.True(t, ok)
	st := team.PerEventState[eventID]
	require.NotNil(t, st)
	assert.Len(t, st.Submissions, 2)
	assert.Equal(t, 200.5, st.TotalTime)

	teamNotes := f.bus.events(notify.TeamTopic(teamID))
	require.Len(t, teamNotes, 2)
	submitted := decodePayload[notify.TimeSubmittedPayload](t, teamNotes[1])
	assert.Equal(t, notify.EventTimeSubmitted, teamNotes[1].Event)
	assert.Equal(t, "U2", submitted.UserID)
	assert.Equal(t, 200.5, submitted.TeamTotal)

	eventNotes := f.bus.events(notify.EventTopic(eventID))
	require.Len(t, eventNotes, 2)
	assert.Equal(t, notify.EventRankingsUpdated, eventNotes[0].Event)
	assert.Equal(t, eventID, decodePayload[notify.RankingsUpdatedPayload](t, eventNotes[0]).EventID)
}

func TestSubmissionService_Rejections(t *testing.T) {
	f, eventID, teamID := setupSubmission(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      SubmitTimeInput
		wantErr error
	}{
		{"unknown event", SubmitTimeInput{EventID: "missing", TeamID: teamID, UserID: "U1", Time: 1}, ErrNotFound},
		{"unknown team", SubmitTimeInput{EventID: eventID, TeamID: "missing", UserID: "U1", Time: 1}, ErrNotFound},
		{"not a member", SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U9", Time: 1}, ErrNotMember},
		{"zero time", SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U1", Time: 0}, ErrInvalidInput},
		{"negative time", SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U1", Time: -3}, ErrInvalidInput},
		{"NaN", SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U1", Time: math.NaN()}, ErrInvalidInput},
		{"infinite", SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U1", Time: math.Inf(1)}, ErrInvalidInput},
		{"missing user", SubmitTimeInput{EventID: eventID, TeamID: teamID, Time: 1}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.submissions.SubmitTime(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	team, _ := f.teamStore.Get(teamID)
	assert.Empty(t, team.PerEventState)
	assert.Empty(t, f.bus.events(notify.TeamTopic(teamID)))
}

func TestSubmissionService_DuplicateAcrossTeams(t *testing.T) {
	f, eventID, teamID := setupSubmission(t)
	ctx := context.Background()

	_, err := f.submissions.SubmitTime(ctx, SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U2", Time: 42})
	require.NoError(t, err)

	_, err = f.teams.LeaveTeam(ctx, teamID, "U2")
	require.NoError(t, err)
	other, err := f.teams.CreateTeam(ctx, CreateTeamInput{Name: "B", CaptainID: "U2"})
	require.NoError(t, err)

	_, err = f.submissions.SubmitTime(ctx, SubmitTimeInput{EventID: eventID, TeamID: other.ID, UserID: "U2", Time: 30})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	// The earlier submission still counts for the original team.
	team, _ := f.teamStore.Get(teamID)
	assert.Equal(t, 42.0, team.PerEventState[eventID].TotalTime)
}

func TestSubmissionService_ConcurrentDuplicatesRecordOnce(t *testing.T) {
	f, eventID, teamID := setupSubmission(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.submissions.SubmitTime(ctx, SubmitTimeInput{EventID: eventID, TeamID: teamID, UserID: "U1", Time: 10})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrDuplicateSubmission)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	team, _ := f.teamStore.Get(teamID)
	assert.Equal(t, 10.0, team.PerEventState[eventID].TotalTime)
	assert.Len(t, team.PerEventState[eventID].Submissions, 1)
}
