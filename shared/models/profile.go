// shared/models/profile.go
package models

import "time"

// TeamStats are a user's aggregate results across team events.
type TeamStats struct {
	TotalTeamEvents  int     `bson:"total_team_events" json:"totalTeamEvents"`
	TotalTeamWins    int     `bson:"total_team_wins" json:"totalTeamWins"`
	TotalTeamPodiums int     `bson:"total_team_podiums" json:"totalTeamPodiums"`
	BestTeamRank     int     `bson:"best_team_rank" json:"bestTeamRank"`       // 0 until the first result
	FastestTeamTime  float64 `bson:"fastest_team_time" json:"fastestTeamTime"` // 0 until the first result
	AverageTeamTime  float64 `bson:"average_team_time" json:"averageTeamTime"`
}

// TeamHistoryEntry records one reported event outcome. The history is append-only.
type TeamHistoryEntry struct {
	EventID      string    `bson:"event_id" json:"eventId"`
	TeamID       string    `bson:"team_id" json:"teamId"`
	TeamRank     int       `bson:"team_rank" json:"teamRank"`
	TeamTime     float64   `bson:"team_time" json:"teamTime"`
	PersonalTime float64   `bson:"personal_time" json:"personalTime"`
	Date         time.Time `bson:"date" json:"date"`
}

// UserProfile is owned by the profile store; the coordinator only reports outcomes into it.
type UserProfile struct {
	ID           string             `bson:"_id" json:"id"`
	DisplayName  string             `bson:"display_name,omitempty" json:"displayName,omitempty"`
	Stats        TeamStats          `bson:"stats" json:"stats"`
	Achievements []string           `bson:"achievements" json:"achievements"`
	TeamHistory  []TeamHistoryEntry `bson:"team_history" json:"teamHistory"`
	UpdatedAt    *time.Time         `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}



// Achievement describes an unlockable award.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Achievements = make([]string, len(p.Achievements))
	copy(c.Achievements, p.Achievements)
	c.TeamHistory = make([]TeamHistoryEntry, len(p.TeamHistory))
	copy(c.TeamHistory, p.TeamHistory)
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
