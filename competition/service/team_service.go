// competition/service/team_service.go
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Tokioace/N64-Nexus-sub006/competition/store"
	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
	"github.com/google/uuid"
)

// MaxTeamMessageLength bounds chat lines, counted in characters.
const MaxTeamMessageLength = 500

// Team statuses accepted by UpdateTeamStatus.
var teamStatuses = map[string]bool{"ready": true, "running": true, "paused": true, "finished": true}

// Motivation types accepted by SendMotivation.
var motivationTypes = map[string]bool{"cheer": true, "tip": true, "milestone": true}

// TeamService is the team registry: it owns team membership, captaincy and capacity.
type TeamService struct {
	base
	teams             *store.TeamStore
	defaultMaxMembers int
	succession        SuccessionPolicy
}

// NewTeamService creates a new TeamService. defaultMaxMembers <= 0 falls back to models.DefaultTeamMaxMembers.
func NewTeamService(teams *store.TeamStore, defaultMaxMembers int, opts Options) *TeamService {
	if defaultMaxMembers <= 0 {
		defaultMaxMembers = models.DefaultTeamMaxMembers
	}
	return &TeamService{
		base:              newBase(opts),
		teams:             teams,
		defaultMaxMembers: defaultMaxMembers,
		succession:        NextCaptain,
	}
}

// WithSuccessionPolicy replaces the captain succession rule.
func (s *TeamService) WithSuccessionPolicy(p SuccessionPolicy) *TeamService {
	s.succession = p
	return s
}

// CreateTeamInput describes a new team. MaxMembers 0 means the default.
type CreateTeamInput struct {
	Name        string
	Logo        string
	CaptainID   string
	CaptainName string
	MaxMembers  int
}

// LeaveResult reports the outcome of LeaveTeam. Team is nil when the team was disbanded.
type LeaveResult struct {
	Team      *models.Team `json:"team,omitempty"`
	Disbanded bool         `json:"disbanded"`
}

// CreateTeam creates a team with the captain as its sole member.
func (s *TeamService) CreateTeam(ctx context.Context, in CreateTeamInput) (team *models.Team, err error) {
	defer s.track("createTeam", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	captainID := strings.TrimSpace(in.CaptainID)
	if name == "" || captainID == "" {
		return nil, reject(ErrInvalidInput, "team name and captain id are required")
	}
	if in.MaxMembers < 0 {
		return nil, reject(ErrInvalidInput, "maxMembers must not be negative (got %d)", in.MaxMembers)
	}
	maxMembers := in.MaxMembers
	if maxMembers == 0 {
		maxMembers = s.defaultMaxMembers
	}

	now := s.now()
	err = s.teams.Update(func(tx *store.TeamTx) error {
		if existing, ok := tx.TeamOf(captainID); ok {
			return reject(ErrAlreadyInTeam, "user %s is a member of team %s", captainID, existing)
		}
		team = &models.Team{
			ID:         uuid.New().String(),
			Name:       name,
			Logo:       in.Logo,
			CaptainID:  captainID,
			MaxMembers: maxMembers,
			Members: []models.Member{{
				UserID:      captainID,
				DisplayName: in.CaptainName,
				Role:        models.RoleCaptain,
				JoinedAt:    now,
			}},
			CreatedAt:     now,
			PerEventState: make(map[string]*models.TeamEventState),
		}
		tx.Insert(team)
		team = team.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Team created",
		slog.String("team_id", team.ID),
		slog.String("captain_id", captainID),
		slog.Int("max_members", maxMembers),
	)
	return team, nil
}

// JoinTeam adds userID to the team as a regular member and publishes member-joined.
func (s *TeamService) JoinTeam(ctx context.Context, teamID, userID, userName string) (team *models.Team, err error) {
	defer s.track("joinTeam", time.Now(), &err)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, reject(ErrInvalidInput, "user id is required")
	}

	now := s.now()
	err = s.teams.Update(func(tx *store.TeamTx) error {
		t, ok := tx.Get(teamID)
		if !ok {
			return reject(ErrNotFound, "team %s", teamID)
		}
		if t.IsFull() {
			return reject(ErrTeamFull, "team %s has %d/%d members", teamID, len(t.Members), t.MaxMembers)
		}
		if existing, ok := tx.TeamOf(userID); ok {
			return reject(ErrAlreadyInTeam, "user %s is a member of team %s", userID, existing)
		}
		tx.AddMember(t, models.Member{
			UserID:      userID,
			DisplayName: userName,
			Role:        models.RoleMember,
			JoinedAt:    now,
		})
		team = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member joined team", slog.String("team_id", teamID), slog.String("user_id", userID))
	s.publish(ctx, notify.TeamTopic(teamID), notify.EventMemberJoined, notify.MemberPayload{
		UserID:    userID,
		UserName:  userName,
		Timestamp: now,
	})
	return team, nil
}

// LeaveTeam removes userID from the team. The last member leaving disbands it;
// a departing captain hands over to the succession policy's pick.
func (s *TeamService) LeaveTeam(ctx context.Context, teamID, userID string) (res LeaveResult, err error) {
	defer s.track("leaveTeam", time.Now(), &err)

	var (
		userName  string
		captainID string
	)
	now := s.now()
	err = s.teams.Update(func(tx *store.TeamTx) error {
		t, ok := tx.Get(teamID)
		if !ok {
			return reject(ErrNotFound, "team %s", teamID)
		}
		member, ok := t.Member(userID)
		if !ok {
			return reject(ErrNotMember, "user %s in team %s", userID, teamID)
		}
		userName = member.DisplayName

		if len(t.Members) == 1 {
			tx.Delete(teamID)
			res = LeaveResult{Disbanded: true}
			return nil
		}

		if member.Role == models.RoleCaptain {
			next, ok := s.succession(t.Members, userID)
			if !ok {
				return reject(ErrInvalidInput, "no successor for captain %s of team %s", userID, teamID)
			}
			if _, isMember := t.Member(next); !isMember || next == userID {
				return reject(ErrInvalidInput, "successor %q is not a remaining member of team %s", next, teamID)
			}
			for i := range t.Members {
				if t.Members[i].UserID == next {
					t.Members[i].Role = models.RoleCaptain
				}
			}
			t.CaptainID = next
		}
		tx.RemoveMember(t, userID)
		captainID = t.CaptainID
		res = LeaveResult{Team: t.Clone()}
		return nil
	})
	if err != nil {
		return LeaveResult{}, err
	}

	if res.Disbanded {
		s.logger.Info("Team disbanded", slog.String("team_id", teamID), slog.String("user_id", userID))
	} else {
		s.logger.Info("Member left team",
			slog.String("team_id", teamID),
			slog.String("user_id", userID),
			slog.String("captain_id", captainID),
		)
	}
	s.publish(ctx, notify.TeamTopic(teamID), notify.EventMemberLeft, notify.MemberPayload{
		UserID:    userID,
		UserName:  userName,
		Timestamp: now,
		Disbanded: res.Disbanded,
		CaptainID: captainID,
	})
	return res, nil
}

// SendTeamMessage publishes a chat line from a member to the team topic.
func (s *TeamService) SendTeamMessage(ctx context.Context, teamID, userID, message string) (msg notify.TeamMessagePayload, err error) {
	defer s.track("sendTeamMessage", time.Now(), &err)

	message = strings.TrimSpace(message)
	team, ok := s.teams.Get(teamID)
	if !ok {
		return msg, reject(ErrNotFound, "team %s", teamID)
	}
	member, ok := team.Member(userID)
	if !ok {
		return msg, reject(ErrNotMember, "user %s in team %s", userID, teamID)
	}
	if message == "" {
		return msg, reject(ErrInvalidInput, "message is empty")
	}
	if n := utf8.RuneCountInString(message); n > MaxTeamMessageLength {
		return msg, reject(ErrInvalidInput, "message is %d characters, limit is %d", n, MaxTeamMessageLength)
	}

	msg = notify.TeamMessagePayload{
		ID:        uuid.New().String(),
		UserID:    userID,
		UserName:  member.DisplayName,
		Message:   message,
		Timestamp: s.now(),
	}
	s.publish(ctx, notify.TeamTopic(teamID), notify.EventTeamMessage, msg)
	s.logger.Debug("Team message sent", slog.String("team_id", teamID), slog.String("user_id", userID))
	return msg, nil
}

// UpdateTeamStatus lets a member broadcast the team's run status.
func (s *TeamService) UpdateTeamStatus(ctx context.Context, teamID, userID, status, message string) (err error) {
	defer s.track("updateTeamStatus", time.Now(), &err)

	team, ok := s.teams.Get(teamID)
	if !ok {
		return reject(ErrNotFound, "team %s", teamID)
	}
	if _, ok := team.Member(userID); !ok {
		return reject(ErrNotMember, "user %s in team %s", userID, teamID)
	}
	if !teamStatuses[status] {
		return reject(ErrInvalidInput, "unknown team status %q", status)
	}

	s.publish(ctx, notify.TeamTopic(teamID), notify.EventTeamStatusUpdate, notify.TeamStatusPayload{
		Status:    status,
		Message:   message,
		Timestamp: s.now(),
	})
	s.logger.Info("Team status updated", slog.String("team_id", teamID), slog.String("status", status))
	return nil
}

// SendMotivation publishes a motivational message to the team topic.
func (s *TeamService) SendMotivation(ctx context.Context, teamID, kind, message string) (err error) {
	defer s.track("sendMotivation", time.Now(), &err)

	if _, ok := s.teams.Get(teamID); !ok {
		return reject(ErrNotFound, "team %s", teamID)
	}
	if !motivationTypes[kind] {
		return reject(ErrInvalidInput, "unknown motivation type %q", kind)
	}
	if strings.TrimSpace(message) == "" {
		return reject(ErrInvalidInput, "message is empty")
	}

	s.publish(ctx, notify.TeamTopic(teamID), notify.EventMotivation, notify.MotivationPayload{
		Type:      kind,
		Message:   message,
		Timestamp: s.now(),
	})
	return nil
}

// GetTeam returns the team with the given id.
func (s *TeamService) GetTeam(_ context.Context, teamID string) (*models.Team, error) {
	team, ok := s.teams.Get(teamID)
	if !ok {
		return nil, reject(ErrNotFound, "team %s", teamID)
	}
	return team, nil
}

// TeamOf returns the team userID currently belongs to.
func (s *TeamService) TeamOf(_ context.Context, userID string) (*models.Team, error) {
	team, ok := s.teams.TeamOf(userID)
	if !ok {
		return nil, reject(ErrNotFound, "user %s is not in a team", userID)
	}
	return team, nil
}

// ListTeams returns every team, oldest first.
func (s *TeamService) ListTeams(_ context.Context) []*models.Team {
	return s.teams.List()
}
