// shared/models/event.go
package models

import "time"

// EventStatus is a stage of the event lifecycle: upcoming -> active -> completed.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
)

// ParticipantStatus tracks a registered team through the event lifecycle.
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantActive     ParticipantStatus = "active"
	ParticipantCompleted  ParticipantStatus = "completed"
)

// Defaults applied by createEvent when limits are omitted.
const (
	DefaultEventMaxTeams = 50
	DefaultMinTeamSize   = 1
	DefaultMaxTeamSize   = 4
)

// Participant is a team registered for an event.
type Participant struct {
	TeamID       string            `bson:"team_id" json:"teamId"`
	RegisteredAt time.Time         `bson:"registered_at" json:"registeredAt"`
	Status       ParticipantStatus `bson:"status" json:"status"`
}

// RankingEntry is one team's placement in an event leaderboard.
type RankingEntry struct {
	TeamID      string  `bson:"team_id" json:"teamId"`
	TeamName    string  `bson:"team_name" json:"teamName"`
	TotalTime   float64 `bson:"total_time" json:"totalTime"`
	Rank        int     `bson:"rank" json:"rank"`
	MemberCount int     `bson:"member_count" json:"memberCount"`
}

// Event is a time-boxed competition.
type Event struct {
	ID           string         `bson:"_id" json:"id"`
	Name         string         `bson:"name" json:"name"`
	Game         string         `bson:"game" json:"game"`
	Category     string         `bson:"category,omitempty" json:"category,omitempty"`
	Region       string         `bson:"region,omitempty" json:"region,omitempty"`
	StartDate    time.Time      `bson:"start_date" json:"startDate"`
	EndDate      time.Time      `bson:"end_date" json:"endDate"`
	MaxTeams     int            `bson:"max_teams" json:"maxTeams"`
	MinTeamSize  int            `bson:"min_team_size" json:"minTeamSize"`
	MaxTeamSize  int            `bson:"max_team_size" json:"maxTeamSize"`
	Rules        []string       `bson:"rules,omitempty" json:"rules,omitempty"`
	Rewards      []string       `bson:"rewards,omitempty" json:"rewards,omitempty"`
	Status       EventStatus    `bson:"status" json:"status"`
	Participants []Participant  `bson:"participants" json:"participants"`
	Rankings     []RankingEntry `bson:"rankings" json:"rankings"`
	CreatedAt    time.Time      `bson:"created_at" json:"createdAt"`
	StartedAt    *time.Time     `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	EndedAt      *time.Time     `bson:"ended_at,omitempty" json:"endedAt,omitempty"`
}

// HasParticipant reports whether teamID is registered for the event.
func (e *Event) HasParticipant(teamID string) bool {
	for _, p := range e.Participants {
		if p.TeamID == teamID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Rules = append([]string(nil), e.Rules...)
	c.Rewards = append([]string(nil), e.Rewards...)
	c.Participants = make([]Participant, len(e.Participants))
	copy(c.Participants, e.Participants)
	c.Rankings = make([]RankingEntry, len(e.Rankings))
	copy(c.Rankings, e.Rankings)
	if e.StartedAt != nil {
		t := *e.StartedAt
		c.StartedAt = &t
	}
	if e.EndedAt != nil {
		t := *e.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// EventStats summarizes an event from its participants and submissions.
type EventStats struct {
	TotalTeams       int     `json:"totalTeams"`
	ActiveTeams      int     `json:"activeTeams"`
	TotalSubmissions int     `json:"totalSubmissions"`
	AverageTime      float64 `json:"averageTime"`
	FastestTime      float64 `json:"fastestTime"`
	SlowestTime      float64 `json:"slowestTime"`
}
