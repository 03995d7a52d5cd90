// competition/service/submission_service.go
package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/competition/store"
	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
)

// SubmissionService is the submission ledger: one time per (event, user), summed per team.
type SubmissionService struct {
	base
	teams  *store.TeamStore
	events *store.EventStore
}

func NewSubmissionService(teams *store.TeamStore, events *store.EventStore, opts Options) *SubmissionService {
	return &SubmissionService{base: newBase(opts), teams: teams, events: events}
}

// SubmitTimeInput is a single run time reported by a team member.
type SubmitTimeInput struct {
	EventID string
	TeamID  string
	UserID  string
	Time    float64 // seconds
	Proof   string
}

// SubmitResult is the recorded submission and the team's new total for the event.
type SubmitResult struct {
	Submission models.Submission `json:"submission"`
	TeamTotal  float64           `json:"teamTotal"`
}

// SubmitTime records the submission, then publishes time-submitted to the team and
// rankings-updated to the event.
func (s *SubmissionService) SubmitTime(ctx context.Context, in SubmitTimeInput) (res SubmitResult, err error) {
	defer s.track("submitTime", time.Now(), &err)

	if strings.TrimSpace(in.EventID) == "" || strings.TrimSpace(in.TeamID) == "" || strings.TrimSpace(in.UserID) == "" {
		return res, reject(ErrInvalidInput, "eventId, teamId and userId are required")
	}
	if math.IsNaN(in.Time) || math.IsInf(in.Time, 0) || in.Time <= 0 {
		return res, reject(ErrInvalidInput, "time must be a positive number of seconds (got %v)", in.Time)
	}
	if _, ok := s.events.Get(in.EventID); !ok {
		return res, reject(ErrNotFound, "event %s", in.EventID)
	}

	err = s.teams.Update(func(tx *store.TeamTx) error {
		team, ok := tx.Get(in.TeamID)
		if !ok {
			return reject(ErrNotFound, "team %s", in.TeamID)
		}
		member, ok := team.Member(in.UserID)
		if !ok {
			return reject(ErrNotMember, "user %s in team %s", in.UserID, in.TeamID)
		}
		if tx.HasSubmitted(in.EventID, in.UserID) {
			return reject(ErrDuplicateSubmission, "user %s already submitted for event %s", in.UserID, in.EventID)
		}
		res.Submission = models.Submission{
			UserID:      in.UserID,
			DisplayName: member.DisplayName,
			Time:        in.Time,
			Proof:       in.Proof,
			SubmittedAt: s.now(),
		}
		res.TeamTotal = tx.RecordSubmission(team, in.EventID, res.Submission)
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	s.logger.Info("Time submitted",
		slog.String("event_id", in.EventID),
		slog.String("team_id", in.TeamID),
		slog.String("user_id", in.UserID),
		slog.Float64("time", in.Time),
		slog.Float64("team_total", res.TeamTotal),
	)
	s.publish(ctx, notify.TeamTopic(in.TeamID), notify.EventTimeSubmitted, notify.TimeSubmittedPayload{
		EventID:   in.EventID,
		UserID:    in.UserID,
		UserName:  res.Submission.DisplayName,
		Time:      in.Time,
		TeamTotal: res.TeamTotal,
		Timestamp: res.Submission.SubmittedAt,
	})
	s.publish(ctx, notify.EventTopic(in.EventID), notify.EventRankingsUpdated, notify.RankingsUpdatedPayload{
		EventID:   in.EventID,
		Timestamp: res.Submission.SubmittedAt,
	})
	return res, nil
}
