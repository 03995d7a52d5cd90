// competition/service/event_service.go
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
	"github.com/google/uuid"
)

// EventService is the event registry: lifecycle upcoming -> active -> completed and
// team registration. Rankings and stats are derived from the team store on demand.
type EventService struct {
	base
	events          *store.EventStore
	teams           *store.TeamStore
	defaultMaxTeams int
}

// NewEventService creates a new EventService. defaultMaxTeams <= 0 falls back to models.DefaultEventMaxTeams.
func NewEventService(events *store.EventStore, teams *store.TeamStore, defaultMaxTeams int, opts Options) *EventService {
	if defaultMaxTeams <= 0 {
		defaultMaxTeams = models.DefaultEventMaxTeams
	}
	return &EventService{
		base:            newBase(opts),
		events:          events,
		teams:           teams,
		defaultMaxTeams: defaultMaxTeams,
	}
}

// CreateEventInput describes a new event. Zero limits take the defaults.
type CreateEventInput struct {
	Name        string
	Game        string
	Category    string
	Region      string
	StartDate   time.Time
	EndDate     time.Time
	MaxTeams    int
	MinTeamSize int
	MaxTeamSize int
	Rules       []string
	Rewards     []string
}

// CreateEvent validates the input and registers an upcoming event.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (event *models.Event, err error) {
	defer s.track("createEvent", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	game := strings.TrimSpace(in.Game)
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if game == "" {
		missing = append(missing, "game")
	}
	if in.StartDate.IsZero() {
		missing = append(missing, "startDate")
	}
	if in.EndDate.IsZero() {
		missing = append(missing, "endDate")
	}
	if len(missing) > 0 {
		return nil, reject(ErrInvalidInput, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, reject(ErrInvalidInput, "endDate is before startDate")
	}
	if in.MaxTeams < 0 || in.MinTeamSize < 0 || in.MaxTeamSize < 0 {
		return nil, reject(ErrInvalidInput, "limits must not be negative")
	}

	event = &models.Event{
		ID:           uuid.New().String(),
		Name:         name,
		Game:         game,
		Category:     in.Category,
		Region:       in.Region,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		MaxTeams:     orDefault(in.MaxTeams, s.defaultMaxTeams),
		MinTeamSize:  orDefault(in.MinTeamSize, models.DefaultMinTeamSize),
		MaxTeamSize:  orDefault(in.MaxTeamSize, models.DefaultMaxTeamSize),
		Rules:        append([]string(nil), in.Rules...),
		Rewards:      append([]string(nil), in.Rewards...),
		Status:       models.EventUpcoming,
		Participants: []models.Participant{},
		Rankings:     []models.RankingEntry{},
		CreatedAt:    s.now(),
	}
	if event.MinTeamSize > event.MaxTeamSize {
		return nil, reject(ErrInvalidInput, "minTeamSize %d exceeds maxTeamSize %d", event.MinTeamSize, event.MaxTeamSize)
	}

	stored := event
	event = stored.Clone()
	s.events.Insert(stored)

	s.logger.Info("Event created",
		slog.String("event_id", event.ID),
		slog.String("name", event.Name),
		slog.Int("max_teams", event.MaxTeams),
	)
	return event, nil
}

// RegisterTeam enters a team for an upcoming or active event.
func (s *EventService) RegisterTeam(ctx context.Context, eventID, teamID string) (event *models.Event, err error) {
	defer s.track("registerTeam", time.Now(), &err)

	// Checked before taking the event lock; a team disbanded right after stays registered.
	if _, ok := s.teams.Get(teamID); !ok {
		return nil, reject(ErrNotFound, "team %s", teamID)
	}

	err = s.events.Update(func(tx *store.EventTx) error {
		e, ok := tx.Get(eventID)
		if !ok {
			return reject(ErrNotFound, "event %s", eventID)
		}
		if e.Status != models.EventUpcoming && e.Status != models.EventActive {
			return reject(ErrRegistrationClosed, "event %s is %s", eventID, e.Status)
		}
		if len(e.Participants) >= e.MaxTeams {
			return reject(ErrEventFull, "event %s has %d/%d teams", eventID, len(e.Participants), e.MaxTeams)
		}
		if e.HasParticipant(teamID) {
			return reject(ErrAlreadyRegistered, "team %s in event %s", teamID, eventID)
		}
		status := models.ParticipantRegistered
		if e.Status == models.EventActive {
			status = models.ParticipantActive
		}
		e.Participants = append(e.Participants, models.Participant{
			TeamID:       teamID,
			RegisteredAt: s.now(),
			Status:       status,
		})
		event = e.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Team registered for event", slog.String("event_id", eventID), slog.String("team_id", teamID))
	return event, nil
}

// StartEvent moves an upcoming event to active and publishes event-started.
func (s *EventService) StartEvent(ctx context.Context, eventID string) (event *models.Event, err error) {
	defer s.track("startEvent", time.Now(), &err)

	now := s.now()
	err = s.events.Update(func(tx *store.EventTx) error {
		e, ok := tx.Get(eventID)
		if !ok {
			return reject(ErrNotFound, "event %s", eventID)
		}
		if e.Status != models.EventUpcoming {
			return reject(ErrInvalidTransition, "cannot start event %s: status is %s", eventID, e.Status)
		}
		e.Status = models.EventActive
		e.StartedAt = &now
		for i := range e.Participants {
			e.Participants[i].Status = models.ParticipantActive
		}
		event = e.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Event started", slog.String("event_id", eventID), slog.Int("teams", len(event.Participants)))
	s.publish(ctx, notify.EventTopic(eventID), notify.EventStarted, notify.EventLifecyclePayload{
		EventID:   eventID,
		EventName: event.Name,
		Timestamp: now,
	})
	return event, nil
}

// EndEvent completes an active event, freezing its final rankings, and publishes event-ended.
func (s *EventService) EndEvent(ctx context.Context, eventID string) (event *models.Event, err error) {
	defer s.track("endEvent", time.Now(), &err)

	now := s.now()
	err = s.events.Update(func(tx *store.EventTx) error {
		e, ok := tx.Get(eventID)
		if !ok {
			return reject(ErrNotFound, "event %s", eventID)
		}
		if e.Status != models.EventActive {
			return reject(ErrInvalidTransition, "cannot end event %s: status is %s", eventID, e.Status)
		}
		e.Status = models.EventCompleted
		e.EndedAt = &now
		for i := range e.Participants {
			e.Participants[i].Status = models.ParticipantCompleted
		}
		e.Rankings = ComputeRankings(s.teams.WithEventState(eventID), eventID)
		event = e.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Event ended", slog.String("event_id", eventID), slog.Int("ranked_teams", len(event.Rankings)))
	s.publish(ctx, notify.EventTopic(eventID), notify.EventEnded, notify.EventLifecyclePayload{
		EventID:       eventID,
		EventName:     event.Name,
		Timestamp:     now,
		FinalRankings: event.Rankings,
	})
	return event, nil
}

// GetRankings recomputes the leaderboard from every submission recorded for the event.
// The snapshot on the event is refreshed until the event completes; after that
// Event.Rankings keeps the final standings published with event-ended.
func (s *EventService) GetRankings(ctx context.Context, eventID string) (rankings []models.RankingEntry, err error) {
	defer s.track("getRankings", time.Now(), &err)

	err = s.events.Update(func(tx *store.EventTx) error {
		e, ok := tx.Get(eventID)
		if !ok {
			return reject(ErrNotFound, "event %s", eventID)
		}
		rankings = ComputeRankings(s.teams.WithEventState(eventID), eventID)
		if e.Status != models.EventCompleted {
			e.Rankings = append([]models.RankingEntry{}, rankings...)
		}
		return nil
	})
	return rankings, err
}

// GetStats summarizes participation and the submissions recorded for the event.
func (s *EventService) GetStats(ctx context.Context, eventID string) (stats models.EventStats, err error) {
	defer s.track("getEventStats", time.Now(), &err)

	event, ok := s.events.Get(eventID)
	if !ok {
		return stats, reject(ErrNotFound, "event %s", eventID)
	}
	stats.TotalTeams = len(event.Participants)
	for _, p := range event.Participants {
		if p.Status == models.ParticipantActive {
			stats.ActiveTeams++
		}
	}

	var sum float64
	fastest, slowest := math.Inf(1), math.Inf(-1)
	for _, team := range s.teams.WithEventState(eventID) {
		for _, sub := range team.PerEventState[eventID].Submissions {
			stats.TotalSubmissions++
			sum += sub.Time
			fastest = math.Min(fastest, sub.Time)
			slowest = math.Max(slowest, sub.Time)
		}
	}
	if stats.TotalSubmissions > 0 {
		stats.AverageTime = sum / float64(stats.TotalSubmissions)
		stats.FastestTime = fastest
		stats.SlowestTime = slowest
	}
	return stats, nil
}

// GetEvent returns the event with the given id.
func (s *EventService) GetEvent(_ context.Context, eventID string) (*models.Event, error) {
	event, ok := s.events.Get(eventID)
	if !ok {
		return nil, reject(ErrNotFound, "event %s", eventID)
	}
	return event, nil
}

// ListEvents returns events, optionally filtered by status ("" for all).
func (s *EventService) ListEvents(_ context.Context, status string) ([]*models.Event, error) {
	st := models.EventStatus(status)
	switch st {
	case "", models.EventUpcoming, models.EventActive, models.EventCompleted:
	default:
		return nil, reject(ErrInvalidInput, "unknown event status %q", status)
	}
	return s.events.List(st), nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
